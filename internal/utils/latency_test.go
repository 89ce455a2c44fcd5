package utils

import (
	"testing"
	"time"
)

func TestLatencyTrackerPercentile(t *testing.T) {
	tracker := NewLatencyTracker(16)
	for ms := 10; ms <= 50; ms += 10 {
		tracker.Observe(time.Duration(ms) * time.Millisecond)
	}

	if got := tracker.Count(); got != 5 {
		t.Fatalf("count = %d, want 5", got)
	}
	if p0 := tracker.Percentile(0); p0 != 10*time.Millisecond {
		t.Fatalf("p0 = %v, want 10ms", p0)
	}
	if p100 := tracker.Percentile(100); p100 != 50*time.Millisecond {
		t.Fatalf("p100 = %v, want 50ms", p100)
	}
	if p50 := tracker.Percentile(50); p50 != 30*time.Millisecond {
		t.Fatalf("p50 = %v, want 30ms", p50)
	}
}

func TestLatencyTrackerEmpty(t *testing.T) {
	tracker := NewLatencyTracker(8)
	if p := tracker.Percentile(95); p != 0 {
		t.Fatalf("empty tracker percentile = %v, want 0", p)
	}
}

func TestLatencyTrackerOverwritesOldest(t *testing.T) {
	tracker := NewLatencyTracker(3)
	for i := 1; i <= 10; i++ {
		tracker.Observe(time.Duration(i) * time.Millisecond)
	}
	if got := tracker.Count(); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}
	// Only the last three samples (8ms, 9ms, 10ms) survive.
	if p0 := tracker.Percentile(0); p0 != 8*time.Millisecond {
		t.Fatalf("oldest surviving sample = %v, want 8ms", p0)
	}
}
