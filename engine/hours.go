/*
hours.go - Target vs actual hour computation

PURPOSE:
  Computes, for a user and an inclusive calendar window, the three numbers
  that drive every statistics view: actualHours, targetHours, and workDays.
  "Target" (SOLL) comes from the effective configuration; "actual" (IST)
  is the sum of time-entry durations plus absence-derived credit.

WORK-DAY DETERMINATION:
  A date counts as a work day iff its weekday (0=Sunday .. 6=Saturday) is
  in the user's effective workWeekDays. CountWorkDays is a deliberate
  linear day-by-day scan, not a closed form: workWeekDays can be an
  arbitrary weekday subset.

ACTUAL HOURS:
  Entry contribution: every non-break entry whose startTime falls in the
  window; running entries count as if clocked out at evaluation time;
  negative durations clamp to zero.

  Absence contribution: every absence overlapping the window. Full-day
  absences are intersected with the window and work-day counted, so an
  absence spanning a window boundary is never double-counted across
  adjacent windows. Partial-day absences contribute their full stated
  HH:mm duration whenever they overlap the window at all - a preserved
  simplification, covered by regression tests, not a bug to fix.

SEE ALSO:
  - settings.go: EffectiveConfig resolution
  - grouping.go: Bucketed presentation of the same durations
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

const msPerHour = 3600000

var decMsPerHour = decimal.NewFromInt(msPerHour)

// =============================================================================
// WORK-DAY CALENDAR
// =============================================================================

// IsWorkDay reports whether the date's weekday is in the config's work week.
func (c EffectiveConfig) IsWorkDay(d Day) bool {
	wd := int(d.Weekday())
	for _, day := range c.WorkWeekDays {
		if day == wd {
			return true
		}
	}
	return false
}

// CountWorkDays counts the work days in the inclusive window by scanning
// every calendar day.
func CountWorkDays(c EffectiveConfig, w Window) int {
	count := 0
	for current := w.Start; current.BeforeOrEqual(w.End); current = current.AddDays(1) {
		if c.IsWorkDay(current) {
			count++
		}
	}
	return count
}

// TargetHours is the expected working hours for the window:
// countWorkDays x hoursPerDay.
func TargetHours(c EffectiveConfig, w Window) decimal.Decimal {
	return decimal.NewFromInt(int64(CountWorkDays(c, w))).
		Mul(decimal.NewFromFloat(c.HoursPerDay))
}

// =============================================================================
// ACTUAL HOURS - entries + absence credit
// =============================================================================

// EntryMs sums worked milliseconds for the user's non-break entries whose
// start time falls within the window.
func EntryMs(entries []TimeEntry, userID int, w Window, now time.Time) int64 {
	var total int64
	for _, e := range entries {
		if e.UserID != userID || e.IsBreak {
			continue
		}
		if !w.ContainsInstant(e.StartTime) {
			continue
		}
		total += e.DurationMs(now)
	}
	return total
}

// AbsenceMs sums absence-derived milliseconds for the user over the window.
// The per-absence hoursPerDay is evaluated at the intersection's start date
// via the resolve callback, so historical windows honor whatever
// configuration applies there.
func AbsenceMs(absences []Absence, userID int, w Window, resolve func(at Day) EffectiveConfig) int64 {
	var total int64
	for _, a := range absences {
		if a.UserID != userID || !a.Overlaps(w) {
			continue
		}

		if a.IsFullDay {
			overlap, ok := Window{Start: a.StartDate, End: a.EndDate}.Intersect(w)
			if !ok {
				continue
			}
			cfg := resolve(overlap.Start)
			workDays := CountWorkDays(cfg, overlap)
			total += int64(float64(workDays) * cfg.HoursPerDay * msPerHour)
			continue
		}

		// Partial-day: full stated duration on any overlap, never pro-rated
		// against the window.
		start, okStart := parseClockMinutes(a.StartTime)
		end, okEnd := parseClockMinutes(a.EndTime)
		if !okStart || !okEnd {
			continue
		}
		ms := int64(end-start) * 60000
		if ms < 0 {
			ms = 0
		}
		total += ms
	}
	return total
}

// parseClockMinutes parses "HH:mm" into minutes since midnight.
func parseClockMinutes(s string) (int, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' ||
		s[3] < '0' || s[3] > '9' || s[4] < '0' || s[4] > '9' {
		return 0, false
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// ActualHours sums entry and absence contributions independently and adds
// them, converted to hours.
func ActualHours(c EffectiveConfig, entries []TimeEntry, absences []Absence, userID int, w Window, now time.Time) decimal.Decimal {
	entryMs := EntryMs(entries, userID, w, now)
	absenceMs := AbsenceMs(absences, userID, w, func(Day) EffectiveConfig { return c })
	return decimal.NewFromInt(entryMs + absenceMs).Div(decMsPerHour)
}

// =============================================================================
// WINDOW STATISTICS
// =============================================================================

// WindowStats is the derived SOLL/IST view for one reporting window.
type WindowStats struct {
	Actual    decimal.Decimal
	Target    decimal.Decimal
	Progress  decimal.Decimal // percent; 0 when target is 0
	Remaining decimal.Decimal // max(0, target - actual)
	IsOnTrack bool            // actual >= target
	WorkDays  int
}

var decHundred = decimal.NewFromInt(100)

// ComputeWindow produces the stats for one window.
func ComputeWindow(c EffectiveConfig, entries []TimeEntry, absences []Absence, userID int, w Window, now time.Time) WindowStats {
	actual := ActualHours(c, entries, absences, userID, w, now)
	target := TargetHours(c, w)

	progress := decimal.Zero
	if target.IsPositive() {
		progress = actual.Div(target).Mul(decHundred)
	}
	remaining := target.Sub(actual)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return WindowStats{
		Actual:    actual,
		Target:    target,
		Progress:  progress,
		Remaining: remaining,
		IsOnTrack: actual.GreaterThanOrEqual(target),
		WorkDays:  CountWorkDays(c, w),
	}
}

// Statistics bundles the four standard reporting windows.
type Statistics struct {
	Today     WindowStats
	ThisWeek  WindowStats
	ThisMonth WindowStats
	LastMonth WindowStats
}

// ComputeStatistics evaluates today / ISO week / month / last month at now.
func ComputeStatistics(c EffectiveConfig, entries []TimeEntry, absences []Absence, userID int, now time.Time) Statistics {
	today := DayOf(now)
	return Statistics{
		Today:     ComputeWindow(c, entries, absences, userID, DayWindow(today), now),
		ThisWeek:  ComputeWindow(c, entries, absences, userID, WeekWindow(today), now),
		ThisMonth: ComputeWindow(c, entries, absences, userID, MonthWindow(today), now),
		LastMonth: ComputeWindow(c, entries, absences, userID, LastMonthWindow(today), now),
	}
}

// ZeroStatistics is returned when no authenticated user is resolvable:
// statistics degrade to zero/default rather than failing.
func ZeroStatistics() Statistics {
	zero := WindowStats{
		Actual:    decimal.Zero,
		Target:    decimal.Zero,
		Progress:  decimal.Zero,
		Remaining: decimal.Zero,
		IsOnTrack: true,
	}
	return Statistics{Today: zero, ThisWeek: zero, ThisMonth: zero, LastMonth: zero}
}
