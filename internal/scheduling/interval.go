package scheduling

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether i and o share any instant. Intervals that only
// touch (i.End == o.Start or o.End == i.Start) do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

// Overlaps reports whether candidate overlaps any interval in existing.
func Overlaps(candidate Interval, existing []Interval) bool {
	_, found := FirstConflict(candidate, existing)
	return found
}

// FirstConflict returns the first interval in existing that overlaps candidate.
func FirstConflict(candidate Interval, existing []Interval) (Interval, bool) {
	for _, e := range existing {
		if candidate.Overlaps(e) {
			return e, true
		}
	}
	return Interval{}, false
}
