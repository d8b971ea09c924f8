package engine

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// DAY - Local calendar day (midnight-to-midnight)
// =============================================================================

// Day is a local calendar date. All engine date arithmetic runs on local
// days, not UTC instants.
type Day struct {
	t time.Time
}

// NewDay constructs a day in the local time zone.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.Local)}
}

// DayOf truncates an instant to its local calendar day.
func DayOf(at time.Time) Day {
	l := at.Local()
	return NewDay(l.Year(), l.Month(), l.Day())
}

// Today returns the current local calendar day.
func Today() Day { return DayOf(time.Now()) }

// Comparison
func (d Day) Before(other Day) bool        { return d.t.Before(other.t) }
func (d Day) After(other Day) bool         { return d.t.After(other.t) }
func (d Day) Equal(other Day) bool         { return d.t.Equal(other.t) }
func (d Day) BeforeOrEqual(other Day) bool { return d.Before(other) || d.Equal(other) }
func (d Day) AfterOrEqual(other Day) bool  { return d.After(other) || d.Equal(other) }

// Arithmetic
func (d Day) AddDays(n int) Day   { return Day{t: d.t.AddDate(0, 0, n)} }
func (d Day) AddMonths(n int) Day { return Day{t: d.t.AddDate(0, n, 0)} }

// Properties
func (d Day) Year() int             { return d.t.Year() }
func (d Day) Month() time.Month     { return d.t.Month() }
func (d Day) DayOfMonth() int       { return d.t.Day() }
func (d Day) Weekday() time.Weekday { return d.t.Weekday() }
func (d Day) IsZero() bool          { return d.t.IsZero() }

// Start returns the local midnight instant that opens the day.
func (d Day) Start() time.Time { return d.t }

// NextMidnight returns the first instant of the following day.
func (d Day) NextMidnight() time.Time { return d.AddDays(1).t }

// Contains reports whether the instant falls within the day.
func (d Day) Contains(at time.Time) bool {
	l := at.Local()
	return !l.Before(d.t) && l.Before(d.NextMidnight())
}

func (d Day) String() string { return d.t.Format("2006-01-02") }

// ISOWeekKey returns the entry-grouping key for the ISO week containing the
// day, e.g. "2024-W05". ISO week numbering follows the nearest-Thursday rule,
// so the week year can differ from the calendar year at year boundaries.
func (d Day) ISOWeekKey() string {
	year, week := d.t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// MonthKey returns the calendar-month grouping key, e.g. "2024-03".
func (d Day) MonthKey() string { return d.t.Format("2006-01") }

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	d.t = parsed
	return nil
}

// ParseDay parses a YYYY-MM-DD string into a local day.
func ParseDay(s string) (Day, error) {
	parsed, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return Day{t: parsed}, nil
}

// =============================================================================
// WINDOW - Inclusive calendar day range
// =============================================================================

// Window is an inclusive day range [Start, End]. Target and actual hours are
// always computed for a window.
type Window struct {
	Start Day
	End   Day
}

// Contains reports whether the day falls within [Start, End].
func (w Window) Contains(d Day) bool {
	return d.AfterOrEqual(w.Start) && d.BeforeOrEqual(w.End)
}

// ContainsInstant reports whether the instant's local day falls in the window.
func (w Window) ContainsInstant(at time.Time) bool {
	return w.Contains(DayOf(at))
}

// Days returns every calendar day in the window, in order.
func (w Window) Days() []Day {
	var days []Day
	for current := w.Start; current.BeforeOrEqual(w.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Intersect clips the window against another. The second return is false when
// the windows do not overlap.
func (w Window) Intersect(other Window) (Window, bool) {
	start := w.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := w.End
	if other.End.Before(end) {
		end = other.End
	}
	if start.After(end) {
		return Window{}, false
	}
	return Window{Start: start, End: end}, true
}

func (w Window) String() string {
	return "[" + w.Start.String() + ", " + w.End.String() + "]"
}

// =============================================================================
// STANDARD WINDOWS - The four reporting windows
// =============================================================================

// DayWindow is the single-day window for d.
func DayWindow(d Day) Window { return Window{Start: d, End: d} }

// WeekWindow is the ISO Monday-to-Sunday week containing d.
func WeekWindow(d Day) Window {
	offset := int(d.Weekday()-time.Monday+7) % 7
	start := d.AddDays(-offset)
	return Window{Start: start, End: start.AddDays(6)}
}

// MonthWindow is the calendar month containing d.
func MonthWindow(d Day) Window {
	start := NewDay(d.Year(), d.Month(), 1)
	return Window{Start: start, End: start.AddMonths(1).AddDays(-1)}
}

// LastMonthWindow is the calendar month preceding the one containing d.
func LastMonthWindow(d Day) Window {
	return MonthWindow(NewDay(d.Year(), d.Month(), 1).AddDays(-1))
}
