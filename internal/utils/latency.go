package utils

import (
	"sort"
	"sync"
	"time"
)

// LatencyTracker keeps a bounded ring of recent duration samples so the
// service can report projection latency percentiles without unbounded
// memory.
type LatencyTracker struct {
	mu    sync.RWMutex
	ring  []time.Duration
	next  int
	count int
}

// NewLatencyTracker creates a tracker holding up to capacity samples; older
// samples are overwritten once the ring is full.
func NewLatencyTracker(capacity int) *LatencyTracker {
	if capacity <= 0 {
		capacity = 512
	}
	return &LatencyTracker{ring: make([]time.Duration, capacity)}
}

// Observe records a duration sample.
func (l *LatencyTracker) Observe(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ring[l.next] = d
	l.next = (l.next + 1) % len(l.ring)
	if l.count < len(l.ring) {
		l.count++
	}
}

// Count returns the number of samples currently held.
func (l *LatencyTracker) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Percentile returns the p-th percentile (0-100) of the held samples, or
// zero when none have been observed.
func (l *LatencyTracker) Percentile(p float64) time.Duration {
	snapshot := l.snapshot()
	if len(snapshot) == 0 {
		return 0
	}
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i] < snapshot[j] })

	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	index := int((p / 100.0) * float64(len(snapshot)-1))
	return snapshot[index]
}

func (l *LatencyTracker) snapshot() []time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]time.Duration, l.count)
	copy(out, l.ring[:l.count])
	return out
}
