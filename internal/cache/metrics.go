package cache

import "sync/atomic"

// Metrics counts cache activity. A single instance is shared between the
// cache and whatever reports on it; all counters are safe for concurrent
// use. A nil *Metrics disables collection.
type Metrics struct {
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	flushes   atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Flushes   int64   `json:"flushes"`
	HitRate   float64 `json:"hit_rate"`
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	snap := Snapshot{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Evictions: m.evictions.Load(),
		Flushes:   m.flushes.Load(),
	}
	if total := snap.Hits + snap.Misses; total > 0 {
		snap.HitRate = float64(snap.Hits) / float64(total)
	}
	return snap
}

func (m *Metrics) recordHit() {
	if m != nil {
		m.hits.Add(1)
	}
}

func (m *Metrics) recordMiss() {
	if m != nil {
		m.misses.Add(1)
	}
}

func (m *Metrics) recordEviction() {
	if m != nil {
		m.evictions.Add(1)
	}
}

func (m *Metrics) recordFlush(removed int64) {
	if m != nil && removed > 0 {
		m.flushes.Add(1)
		m.evictions.Add(removed)
	}
}
