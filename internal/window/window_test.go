package window

import (
	"testing"
	"time"
)

func TestComputeIncremental(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	last := now.Add(-3 * time.Hour)

	w := Policy{}.Compute(&last, now)

	if !w.Start.Equal(last) {
		t.Errorf("Start = %v, want %v", w.Start, last)
	}
	if !w.End.Equal(now) {
		t.Errorf("End = %v, want %v", w.End, now)
	}
}

func TestComputeBackfill(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	w := Policy{}.Compute(nil, now)

	if !w.End.Equal(now) {
		t.Errorf("End = %v, want %v", w.End, now)
	}
	want := now.AddDate(0, 0, -DefaultBackfillDays)
	if !w.Start.Equal(want) {
		t.Errorf("Start = %v, want %v (120 days back)", w.Start, want)
	}
}

func TestComputeBackfillOverride(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	w := Policy{BackfillDays: 7}.Compute(nil, now)

	if got := w.End.Sub(w.Start); got != 7*24*time.Hour {
		t.Errorf("span = %v, want 168h", got)
	}
}

// TestContainsBoundaries verifies the half-open contract: start inclusive,
// end exclusive.
func TestContainsBoundaries(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	w := Window{Start: start, End: end}

	if !w.Contains(start) {
		t.Error("window should contain its start instant")
	}
	if w.Contains(end) {
		t.Error("window should exclude its end instant")
	}
	if !w.Contains(end.Add(-time.Nanosecond)) {
		t.Error("window should contain the instant just before end")
	}
	if w.Contains(start.Add(-time.Nanosecond)) {
		t.Error("window should exclude instants before start")
	}
}

// TestConsecutiveWindowsAreGapFree verifies that a window starting at the
// previous window's end neither skips nor double-counts any instant.
func TestConsecutiveWindowsAreGapFree(t *testing.T) {
	t0 := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(30 * time.Minute)

	first := Policy{}.Compute(nil, t0)
	second := Policy{}.Compute(&t0, t1)

	if first.Contains(t0) {
		t.Error("first window should exclude its end")
	}
	if !second.Contains(t0) {
		t.Error("second window should include the boundary instant")
	}
}
