// Package window decides the time range a sync queries for each data type:
// incremental since the last successful sync, or a bounded backfill on the
// first sync ever.
package window

import "time"

// DefaultBackfillDays is the historical range queried when no prior sync
// timestamp exists. Bounds first-sync cost while consecutive syncs stay
// gap-free.
const DefaultBackfillDays = 120

// Window is a half-open query range: Start inclusive, End exclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window. The end boundary
// instant itself is excluded so the next window can start there without
// double-counting.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// StartMillis returns the window start as epoch milliseconds.
func (w Window) StartMillis() int64 { return w.Start.UnixMilli() }

// EndMillis returns the window end as epoch milliseconds.
func (w Window) EndMillis() int64 { return w.End.UnixMilli() }

// Policy computes query windows. The zero value uses DefaultBackfillDays.
type Policy struct {
	// BackfillDays overrides the first-sync backfill span when positive.
	BackfillDays int
}

// Compute returns the query window for one sync operation. With a prior
// successful sync at lastSync the window is [lastSync, now); otherwise it
// is [now - backfill, now). Evaluate once per batch so every type in the
// batch shares the same snapshot boundaries.
func (p Policy) Compute(lastSync *time.Time, now time.Time) Window {
	if lastSync != nil {
		return Window{Start: *lastSync, End: now}
	}

	days := p.BackfillDays
	if days <= 0 {
		days = DefaultBackfillDays
	}
	return Window{Start: now.AddDate(0, 0, -days), End: now}
}
