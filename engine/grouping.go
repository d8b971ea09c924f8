/*
grouping.go - Entry grouping and category aggregation

PURPOSE:
  Turns a filtered, flat list of time entries into the ordered bucket
  structure the UI renders: groups (day, ISO week, or calendar month),
  each holding ordered day buckets, each holding ordered entries, with
  running totals at every level.

ORDERING:
  Groups by key descending (most recent first), days within a group by
  date descending, entries within a day by start time descending.

TARGET CONTEXT:
  A day bucket's targetMs is computed once, at first encounter of the day,
  from the CURRENT VIEWER's effective configuration - not per entry owner.
  A manager viewing mixed-user entries sees one viewer's target context.
  Intentional simplification of scope.

RUNNING ENTRIES:
  A running entry belonging to the viewer accumulates now-startTime into
  the totals. Running entries of other users do not auto-accumulate live
  elapsed time; their finish time is ambiguous to the viewer.

SEE ALSO:
  - hours.go: Window-level target/actual computation
  - format.go: The shared hour display formatting
*/
package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// GroupMode selects the partitioning key for entry grouping.
type GroupMode string

const (
	GroupByDay   GroupMode = "day"
	GroupByWeek  GroupMode = "week"
	GroupByMonth GroupMode = "month"
)

// DayBucket holds one calendar day's entries inside a group.
type DayBucket struct {
	Date     Day
	TargetMs int64
	TotalMs  int64
	Entries  []TimeEntry
}

// EntryGroup is one week/month/day partition with running totals.
type EntryGroup struct {
	Key     string
	TotalMs int64
	Days    []DayBucket
}

// groupKey derives the partition key for an entry's local calendar day.
func groupKey(d Day, mode GroupMode) string {
	switch mode {
	case GroupByWeek:
		return d.ISOWeekKey()
	case GroupByMonth:
		return d.MonthKey()
	default:
		return d.String()
	}
}

// countedMs is the duration an entry contributes to bucket totals. Breaks
// contribute nothing; running entries contribute live elapsed time only
// when they belong to the viewer.
func countedMs(e TimeEntry, viewerID int, now time.Time) int64 {
	if e.IsBreak {
		return 0
	}
	if e.IsRunning() && e.UserID != viewerID {
		return 0
	}
	return e.DurationMs(now)
}

// GroupEntries partitions entries per the mode and computes totals. It is a
// pure function of (entries, viewer config, mode, viewer, now): grouping the
// same list twice yields identical totals and ordering.
func GroupEntries(entries []TimeEntry, viewer EffectiveConfig, viewerID int, mode GroupMode, now time.Time) []EntryGroup {
	type dayIndex struct {
		group int
		day   int
	}

	var groups []EntryGroup
	groupAt := make(map[string]int)
	dayAt := make(map[string]dayIndex)

	for _, e := range entries {
		day := DayOf(e.StartTime)
		key := groupKey(day, mode)

		gi, ok := groupAt[key]
		if !ok {
			gi = len(groups)
			groupAt[key] = gi
			groups = append(groups, EntryGroup{Key: key})
		}

		dayKey := day.String()
		di, ok := dayAt[dayKey]
		if !ok {
			// Target is fixed at first encounter of the day, from the
			// viewer's configuration.
			var targetMs int64
			if viewer.IsWorkDay(day) {
				targetMs = int64(viewer.HoursPerDay * msPerHour)
			}
			groups[gi].Days = append(groups[gi].Days, DayBucket{Date: day, TargetMs: targetMs})
			di = dayIndex{group: gi, day: len(groups[gi].Days) - 1}
			dayAt[dayKey] = di
		}

		bucket := &groups[di.group].Days[di.day]
		bucket.Entries = append(bucket.Entries, e)

		ms := countedMs(e, viewerID, now)
		bucket.TotalMs += ms
		groups[di.group].TotalMs += ms
	}

	// Most recent first at every level.
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key > groups[j].Key })
	for gi := range groups {
		days := groups[gi].Days
		sort.Slice(days, func(i, j int) bool { return days[i].Date.After(days[j].Date) })
		for di := range days {
			es := days[di].Entries
			sort.Slice(es, func(i, j int) bool { return es[i].StartTime.After(es[j].StartTime) })
		}
	}
	return groups
}

// =============================================================================
// CATEGORY AGGREGATION
// =============================================================================

// CategoryTotal is the per-category rollup of worked hours.
type CategoryTotal struct {
	CategoryID string
	Name       string
	Color      string
	Hours      decimal.Decimal // rounded to two decimal places
	totalMs    int64
}

// AggregateByCategory sums non-break entry durations per category across the
// filtered set. Every known category is seeded so categories with zero
// entries still appear at zero. Result is sorted by total descending.
func AggregateByCategory(entries []TimeEntry, categories []WorkCategory, now time.Time) []CategoryTotal {
	totals := make([]CategoryTotal, 0, len(categories))
	at := make(map[string]int, len(categories))

	for _, c := range categories {
		at[c.ID] = len(totals)
		totals = append(totals, CategoryTotal{CategoryID: c.ID, Name: c.Name, Color: c.Color})
	}

	for _, e := range entries {
		if e.IsBreak {
			continue
		}
		i, ok := at[e.CategoryID]
		if !ok {
			// Entry pointing at a deleted/unknown category still counts.
			i = len(totals)
			at[e.CategoryID] = i
			totals = append(totals, CategoryTotal{CategoryID: e.CategoryID, Name: e.CategoryName})
		}
		totals[i].totalMs += e.DurationMs(now)
	}

	for i := range totals {
		totals[i].Hours = decimal.NewFromInt(totals[i].totalMs).Div(decMsPerHour).Round(2)
	}

	sort.SliceStable(totals, func(i, j int) bool { return totals[i].totalMs > totals[j].totalMs })
	return totals
}
