package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is an in-process TTL cache with per-key lifetimes. A background
// sweeper drops expired entries so large response payloads do not linger
// between reads.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	metrics *Metrics
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Options configures a Cache.
type Options struct {
	// SweepInterval controls how often expired entries are removed.
	// Zero disables the background sweeper; expired entries are then
	// dropped lazily on access.
	SweepInterval time.Duration

	// Metrics receives hit/miss/eviction counts. Optional.
	Metrics *Metrics
}

// New creates a cache and starts its sweeper when an interval is set.
func New(opts Options) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		metrics: opts.Metrics,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if opts.SweepInterval > 0 {
		go c.sweepLoop(opts.SweepInterval)
	} else {
		close(c.done)
	}
	return c
}

// Get returns the cached value for key when present and unexpired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.metrics.recordMiss()
		return nil, false
	}
	if c.now().After(ent.expiresAt) {
		delete(c.entries, key)
		c.metrics.recordEviction()
		c.metrics.recordMiss()
		return nil, false
	}
	c.metrics.recordHit()
	return ent.value, true
}

// Set stores value under key for the given lifetime. Non-positive lifetimes
// are ignored.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// GetOrCompute returns the cached value for key, invoking producer on a
// miss and caching its result. Producer failures are returned without
// being cached so the next call retries. The boolean reports a cache hit.
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, producer func(context.Context) (any, error)) (any, bool, error) {
	if value, ok := c.Get(key); ok {
		return value, true, nil
	}

	value, err := producer(ctx)
	if err != nil {
		return nil, false, err
	}
	c.Set(key, value, ttl)
	return value, false, nil
}

// Delete removes a single key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Flush drops every entry and reports how many were removed.
func (c *Cache) Flush() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := len(c.entries)
	c.entries = make(map[string]entry)
	c.metrics.recordFlush(int64(removed))
	return removed
}

// Len reports the current entry count, expired entries included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the background sweeper and waits for it to exit.
func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	<-c.done
}

func (c *Cache) sweepLoop(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, ent := range c.entries {
		if now.After(ent.expiresAt) {
			delete(c.entries, key)
			c.metrics.recordEviction()
		}
	}
}
