package scheduling

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"
)

// Weekday keys used by WeeklySchedule, in Sunday-first order to match time.Weekday.
var Weekdays = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

var (
	clockPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// TimeWindow is a host-local wall-clock range such as {"09:00", "12:00"}.
type TimeWindow struct {
	Start string `json:"start" validate:"required,hhmm"`
	End   string `json:"end" validate:"required,hhmm"`
}

// WeeklySchedule maps a lower-case weekday name to that day's windows.
type WeeklySchedule map[string][]TimeWindow

// EmptyWeek returns a schedule with all seven days present and no windows.
func EmptyWeek() WeeklySchedule {
	ws := make(WeeklySchedule, len(Weekdays))
	for _, d := range Weekdays {
		ws[d] = []TimeWindow{}
	}
	return ws
}

// WeekdayName returns the schedule key for wd.
func WeekdayName(wd time.Weekday) string {
	return Weekdays[wd]
}

// ParseClock parses "H:MM" or "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if !clockPattern.MatchString(s) {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes after midnight as zero-padded "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Bounds returns the window's start and end as minutes after midnight.
func (w TimeWindow) Bounds() (start, end int, err error) {
	if start, err = ParseClock(w.Start); err != nil {
		return 0, 0, err
	}
	if end, err = ParseClock(w.End); err != nil {
		return 0, 0, err
	}
	if start >= end {
		return 0, 0, fmt.Errorf("window %s-%s: start must be before end", w.Start, w.End)
	}
	return start, end, nil
}

// Normalize rewrites every window with zero-padded clock values. Windows
// that do not parse are left untouched.
func (ws WeeklySchedule) Normalize() WeeklySchedule {
	out := make(WeeklySchedule, len(ws))
	for day, windows := range ws {
		norm := make([]TimeWindow, 0, len(windows))
		for _, w := range windows {
			start, end, err := w.Bounds()
			if err != nil {
				norm = append(norm, w)
				continue
			}
			norm = append(norm, TimeWindow{Start: FormatClock(start), End: FormatClock(end)})
		}
		out[strings.ToLower(day)] = norm
	}
	return out
}

// Date is a calendar date with no time zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a strict YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	if !datePattern.MatchString(s) {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// At returns the instant at the given wall-clock minutes on d in loc.
func (d Date) At(minutes int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, minutes/60, minutes%60, 0, 0, loc)
}

// Midnight returns local midnight of d in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	return d.At(0, loc)
}

// Weekday returns the weekday of d evaluated at local midnight in loc.
func (d Date) Weekday(loc *time.Location) time.Weekday {
	return d.Midnight(loc).Weekday()
}

// Span returns [midnight, next midnight) of d in loc.
func (d Date) Span(loc *time.Location) Interval {
	start := d.Midnight(loc)
	return Interval{Start: start, End: time.Date(d.Year, d.Month, d.Day+1, 0, 0, 0, 0, loc)}
}
