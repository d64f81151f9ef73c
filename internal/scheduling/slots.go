package scheduling

import "time"

// DefaultStep is the spacing between candidate slot starts. It does not
// depend on the event duration.
const DefaultStep = 30 * time.Minute

// Slot is a bookable interval of exactly the event duration.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Interval returns the slot as an Interval.
func (s Slot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// GenerateSlots returns the bookable slots for date, given the host's weekly
// schedule in loc. The weekday is resolved at local midnight in loc, so the
// result does not depend on the caller's time zone.
//
// Windows are walked in the order they appear in the schedule and candidate
// starts advance by step (DefaultStep when step <= 0). A candidate is kept
// only when it fits entirely in its window, starts strictly after now, and
// does not overlap any of the booked intervals. Windows that fail to parse
// contribute no slots.
func GenerateSlots(date Date, loc *time.Location, schedule WeeklySchedule, duration, step time.Duration, booked []Interval, now time.Time) []Slot {
	if loc == nil || duration <= 0 {
		return nil
	}
	if step <= 0 {
		step = DefaultStep
	}

	windows := schedule[WeekdayName(date.Weekday(loc))]
	if len(windows) == 0 {
		return nil
	}

	var slots []Slot
	for _, w := range windows {
		startMin, endMin, err := w.Bounds()
		if err != nil {
			continue
		}
		slots = append(slots, windowSlots(date.At(startMin, loc), date.At(endMin, loc), duration, step, booked, now)...)
	}
	return slots
}

func windowSlots(windowStart, windowEnd time.Time, duration, step time.Duration, booked []Interval, now time.Time) []Slot {
	var slots []Slot
	for t := windowStart; t.Before(windowEnd); t = t.Add(step) {
		end := t.Add(duration)
		if end.After(windowEnd) {
			break
		}
		if !t.After(now) {
			continue
		}
		if Overlaps(Interval{Start: t, End: end}, booked) {
			continue
		}
		slots = append(slots, Slot{Start: t, End: end})
	}
	return slots
}

// ContainsStart reports whether start is the start of one of slots.
func ContainsStart(slots []Slot, start time.Time) bool {
	for _, s := range slots {
		if s.Start.Equal(start) {
			return true
		}
	}
	return false
}
