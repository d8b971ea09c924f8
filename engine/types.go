/*
Package engine provides the core hours accounting engine.

PURPOSE:
  This package contains the pure computation layer for a hosted time-tracking
  extension: it turns flat stored records (time entries, absences, settings)
  into per-user work-day calendars, target/actual hour statistics, and
  UI-ready entry groupings. Nothing in this package performs I/O.

KEY CONCEPTS IN THIS FILE (types.go):
  - TimeEntry: One contiguous interval of work or break time
  - Absence: A full-day or partial-day non-work period that may still
    count toward worked hours
  - Settings: The singleton configuration blob (defaults, per-user
    overrides, group mappings, activity-log policy)
  - EffectiveConfig: The resolved hours/work-week settings for one user

DESIGN PRINCIPLES:
  1. Purity: All computations are synchronous functions over in-memory
     collections. Callers load data, the engine calculates.
  2. Precision: Hour totals use decimal.Decimal; raw durations are carried
     as millisecond int64 to match the stored wire shapes.
  3. Local time: All calendar math is local midnight-to-midnight. The
     DST transition days are a known open edge case.
  4. Flat relationships: Entities reference each other only by id fields
     resolved at read time, never via back-references.

SEE ALSO:
  - settings.go: Defaults merge, validation, per-user resolution
  - hours.go: Target/actual hour computation
  - grouping.go: Week/month/day bucketing with running totals
*/
package engine

import (
	"time"
)

// =============================================================================
// TIME ENTRY - One contiguous interval of work or break time
// =============================================================================

// TimeEntry is a single tracked interval. EndTime == nil means the entry is
// currently running; at most one running entry may exist per user. StartTime
// doubles as the entry's natural key within a user's entry set - the storage
// layer assigns its own opaque value id, and the two must never be conflated.
type TimeEntry struct {
	UserID       int        `json:"userId"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime"`
	CategoryID   string     `json:"categoryId"`
	CategoryName string     `json:"categoryName"`
	IsBreak      bool       `json:"isBreak"`
	IsManual     bool       `json:"isManual"`

	// Captured at creation so historical target-hour calculations stay
	// stable even if global or per-user settings change later.
	SettingsSnapshot *SettingsSnapshot `json:"settingsSnapshot,omitempty"`
}

// SettingsSnapshot freezes the hour configuration that applied when an
// entry was created.
type SettingsSnapshot struct {
	HoursPerDay  float64 `json:"hoursPerDay"`
	HoursPerWeek float64 `json:"hoursPerWeek"`
	WorkWeekDays []int   `json:"workWeekDays"`
}

// IsRunning reports whether the entry has not been clocked out yet.
func (e TimeEntry) IsRunning() bool { return e.EndTime == nil }

// DurationMs returns the entry duration in milliseconds. Running entries are
// measured against now, as if clocked out at evaluation time. Negative or
// zero durations clamp to zero.
func (e TimeEntry) DurationMs(now time.Time) int64 {
	end := now
	if e.EndTime != nil {
		end = *e.EndTime
	}
	ms := end.Sub(e.StartTime).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

// =============================================================================
// ABSENCE - Non-work period credited toward worked hours
// =============================================================================

// Absence covers an inclusive calendar date range. Full-day absences carry
// no clock times; partial-day absences always carry both HH:mm times.
type Absence struct {
	UserID          int    `json:"userId"`
	AbsenceReasonID int    `json:"absenceReasonId"`
	StartDate       Day    `json:"startDate"`
	EndDate         Day    `json:"endDate"`
	IsFullDay       bool   `json:"isFullDay"`
	StartTime       string `json:"startTime,omitempty"` // "HH:mm", partial-day only
	EndTime         string `json:"endTime,omitempty"`   // "HH:mm", partial-day only
}

// Overlaps reports whether the absence's day range intersects the window,
// both expanded to whole-day boundaries.
func (a Absence) Overlaps(w Window) bool {
	return a.StartDate.BeforeOrEqual(w.End) && a.EndDate.AfterOrEqual(w.Start)
}

// =============================================================================
// SETTINGS - Singleton configuration per module/tenant
// =============================================================================

// Settings is the stored configuration blob. It is always read-merged with
// built-in defaults so adding a field never surfaces as a missing value for
// existing installations.
type Settings struct {
	DefaultHoursPerDay  float64 `json:"defaultHoursPerDay"`
	DefaultHoursPerWeek float64 `json:"defaultHoursPerWeek"`

	// Which weekdays count as work days globally (0=Sunday .. 6=Saturday).
	WorkWeekDays []int `json:"workWeekDays"`

	// External group identifiers used to resolve permissions.
	EmployeeGroupID  int `json:"employeeGroupId"`
	VolunteerGroupID int `json:"volunteerGroupId"`
	HRGroupID        int `json:"hrGroupId"`
	ManagerGroupID   int `json:"managerGroupId"`

	UserHoursConfig    []UserHoursConfig   `json:"userHoursConfig"`
	ManagerAssignments []ManagerAssignment `json:"managerAssignments"`

	ActivityLog ActivityLogSettings `json:"activityLogSettings"`

	SchemaVersion int       `json:"schemaVersion"`
	LastModified  time.Time `json:"lastModified"`
}

// UserHoursConfig is a per-user override of the default hour configuration.
// IsActive == false marks a soft-deleted employee: removed from the source
// group but retained for historical reporting.
type UserHoursConfig struct {
	UserID       int     `json:"userId"`
	UserName     string  `json:"userName"`
	HoursPerDay  float64 `json:"hoursPerDay"`
	HoursPerWeek float64 `json:"hoursPerWeek"`
	WorkWeekDays []int   `json:"workWeekDays,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"` // nil means active
}

// Active reports whether the override belongs to a live roster member.
func (u UserHoursConfig) Active() bool { return u.IsActive == nil || *u.IsActive }

// ManagerAssignment is an explicit manager-to-employees visibility grant,
// independent of group membership.
type ManagerAssignment struct {
	ManagerID   int    `json:"managerId"`
	ManagerName string `json:"managerName"`
	EmployeeIDs []int  `json:"employeeIds"`
}

// ActivityLogSettings controls audit logging of time-entry mutations.
type ActivityLogSettings struct {
	Enabled          bool `json:"enabled"`
	LogCreate        bool `json:"logCreate"`
	LogUpdate        bool `json:"logUpdate"`
	LogDelete        bool `json:"logDelete"`
	ArchiveAfterDays int  `json:"archiveAfterDays"`
}

// EffectiveConfig is the resolved hour/work-week configuration for one user
// after applying override precedence. See Resolve in settings.go.
type EffectiveConfig struct {
	HoursPerDay  float64
	HoursPerWeek float64
	WorkWeekDays []int
}

// Snapshot freezes the effective configuration into the shape embedded in
// time entries at creation.
func (c EffectiveConfig) Snapshot() *SettingsSnapshot {
	days := make([]int, len(c.WorkWeekDays))
	copy(days, c.WorkWeekDays)
	return &SettingsSnapshot{
		HoursPerDay:  c.HoursPerDay,
		HoursPerWeek: c.HoursPerWeek,
		WorkWeekDays: days,
	}
}

// =============================================================================
// SETTINGS BACKUP - Snapshot taken immediately before every settings write
// =============================================================================

// SettingsBackup is a deep snapshot of the pre-mutation settings. Append-only
// except for the bounded retention policy applied by the service layer.
type SettingsBackup struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Settings  Settings  `json:"settings"`
	Summary   string    `json:"summary"`
	Version   int       `json:"version"`
}

// =============================================================================
// WORK CATEGORY
// =============================================================================

// WorkCategory labels time entries. ID is a human-derived slug generated from
// the name at creation; KVStoreID is the storage layer's own identifier.
type WorkCategory struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	KVStoreID int64  `json:"-"`
}

// =============================================================================
// ACTIVITY LOG - Immutable audit record for time-entry mutations
// =============================================================================

type ActivityAction string

const (
	ActivityCreate ActivityAction = "CREATE"
	ActivityUpdate ActivityAction = "UPDATE"
	ActivityDelete ActivityAction = "DELETE"
)

// ActivityLog is write-once; records older than ArchiveAfterDays are pruned.
type ActivityLog struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	UserID     int            `json:"userId"`
	UserName   string         `json:"userName"`
	Action     ActivityAction `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Details    string         `json:"details,omitempty"`
}

// =============================================================================
// ROSTER - Canonical member shape at the collaborator boundary
// =============================================================================

// RosterEntry is the normalized form of a group member. The duck-typed host
// payloads are flattened at the adapter boundary; this shape is the only one
// the engine ever sees.
type RosterEntry struct {
	UserID      int
	DisplayName string
}
