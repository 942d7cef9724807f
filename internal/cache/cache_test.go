package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestCache(t *testing.T, metrics *Metrics) *Cache {
	t.Helper()
	c := New(Options{Metrics: metrics})
	t.Cleanup(c.Close)
	return c
}

func TestGetOrComputeCachesProducerResult(t *testing.T) {
	c := newTestCache(t, nil)
	ctx := context.Background()

	calls := 0
	producer := func(context.Context) (any, error) {
		calls++
		return "payload", nil
	}

	value, hit, err := c.GetOrCompute(ctx, "k", time.Minute, producer)
	if err != nil || hit || value != "payload" {
		t.Fatalf("first call: value=%v hit=%v err=%v", value, hit, err)
	}

	value, hit, err = c.GetOrCompute(ctx, "k", time.Minute, producer)
	if err != nil || !hit || value != "payload" {
		t.Fatalf("second call: value=%v hit=%v err=%v", value, hit, err)
	}
	if calls != 1 {
		t.Fatalf("producer ran %d times, want 1", calls)
	}
}

func TestGetOrComputeDoesNotCacheErrors(t *testing.T) {
	c := newTestCache(t, nil)
	ctx := context.Background()

	calls := 0
	boom := errors.New("boom")
	producer := func(context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return "recovered", nil
	}

	if _, _, err := c.GetOrCompute(ctx, "k", time.Minute, producer); !errors.Is(err, boom) {
		t.Fatalf("expected producer error, got %v", err)
	}
	value, hit, err := c.GetOrCompute(ctx, "k", time.Minute, producer)
	if err != nil || hit || value != "recovered" {
		t.Fatalf("retry after error: value=%v hit=%v err=%v", value, hit, err)
	}
}

func TestExpiredEntriesAreMisses(t *testing.T) {
	c := newTestCache(t, nil)

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("k", "v", time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry should hit")
	}

	current = current.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry should miss")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be dropped on access, len=%d", c.Len())
	}
}

func TestSetIgnoresNonPositiveTTL(t *testing.T) {
	c := newTestCache(t, nil)
	c.Set("k", "v", 0)
	if _, ok := c.Get("k"); ok {
		t.Fatal("zero ttl entry should not be stored")
	}
}

func TestSweepEvictsExpired(t *testing.T) {
	c := newTestCache(t, nil)

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("old", "v", time.Second)
	c.Set("fresh", "v", time.Hour)

	current = current.Add(time.Minute)
	c.sweep()

	if c.Len() != 1 {
		t.Fatalf("sweep should drop only expired entries, len=%d", c.Len())
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("unexpired entry lost during sweep")
	}
}

func TestFlushReportsRemovedCount(t *testing.T) {
	metrics := &Metrics{}
	c := newTestCache(t, metrics)

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	if removed := c.Flush(); removed != 2 {
		t.Fatalf("Flush removed %d, want 2", removed)
	}
	if c.Len() != 0 {
		t.Fatalf("cache not empty after flush, len=%d", c.Len())
	}
	if snap := metrics.Snapshot(); snap.Flushes != 1 || snap.Evictions != 2 {
		t.Fatalf("unexpected metrics after flush: %#v", snap)
	}
}

func TestMetricsTrackHitRate(t *testing.T) {
	metrics := &Metrics{}
	c := newTestCache(t, metrics)

	c.Set("k", "v", time.Minute)
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	snap := metrics.Snapshot()
	if snap.Hits != 2 || snap.Misses != 1 {
		t.Fatalf("hits=%d misses=%d", snap.Hits, snap.Misses)
	}
	if snap.HitRate < 0.66 || snap.HitRate > 0.67 {
		t.Fatalf("hit rate = %v", snap.HitRate)
	}
}

func TestNilMetricsSafe(t *testing.T) {
	var metrics *Metrics
	if snap := metrics.Snapshot(); snap.Hits != 0 {
		t.Fatalf("nil metrics snapshot = %#v", snap)
	}
	c := newTestCache(t, nil)
	c.Set("k", "v", time.Minute)
	c.Get("k")
	c.Flush()
}

func TestConcurrentAccess(t *testing.T) {
	c := newTestCache(t, &Metrics{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _, _ = c.GetOrCompute(ctx, "shared", time.Minute, func(context.Context) (any, error) {
					return "v", nil
				})
				c.Get("shared")
			}
		}()
	}
	wg.Wait()

	if value, ok := c.Get("shared"); !ok || value != "v" {
		t.Fatalf("value lost under concurrency: %v %v", value, ok)
	}
}
