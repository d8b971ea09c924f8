/*
settings.go - Settings defaults, validation, and per-user resolution

PURPOSE:
  Implements the settings resolver: layering built-in defaults, the stored
  global configuration, and per-user overrides into one effective
  configuration per user. Also hosts the roster reconciliation that keeps
  per-user overrides in sync with the live employee group.

RESOLUTION ORDER (highest priority first):
  1. UserHoursConfig entry for the user: its hours, and its workWeekDays
     when present
  2. settings.WorkWeekDays, defaulting to Mon-Fri when unset
  3. settings.DefaultHoursPerDay / DefaultHoursPerWeek

MIGRATION:
  Stored settings are always read-merged with DefaultSettings() so that a
  field added in a newer schema version never reads as missing for an
  existing installation. SchemaVersion is monotonically increasing and is
  bumped on save, never on read.

SEE ALSO:
  - hours.go: Consumes EffectiveConfig for target-hour computation
  - tracker/settings.go: Load/save lifecycle around these pure functions
*/
package engine

import (
	"fmt"
	"time"
)

// CurrentSchemaVersion is stamped on every settings save.
const CurrentSchemaVersion = 3

// DefaultWorkWeekDays is Monday through Friday.
func DefaultWorkWeekDays() []int { return []int{1, 2, 3, 4, 5} }

// DefaultSettings returns the built-in configuration used to backfill
// missing fields on read and to seed a fresh installation.
func DefaultSettings() Settings {
	return Settings{
		DefaultHoursPerDay:  8,
		DefaultHoursPerWeek: 40,
		WorkWeekDays:        DefaultWorkWeekDays(),
		ActivityLog: ActivityLogSettings{
			Enabled:          true,
			LogCreate:        true,
			LogUpdate:        true,
			LogDelete:        true,
			ArchiveAfterDays: 90,
		},
		SchemaVersion: CurrentSchemaVersion,
	}
}

// MergeWithDefaults backfills zero-valued fields of a stored settings blob
// with the built-in defaults. Older persisted shapes (lower SchemaVersion)
// pass through the same path: a field the old shape never wrote is simply
// zero-valued and picks up its default.
func MergeWithDefaults(s Settings) Settings {
	def := DefaultSettings()

	if s.DefaultHoursPerDay <= 0 {
		s.DefaultHoursPerDay = def.DefaultHoursPerDay
	}
	if s.DefaultHoursPerWeek <= 0 {
		s.DefaultHoursPerWeek = def.DefaultHoursPerWeek
	}
	if len(s.WorkWeekDays) == 0 {
		s.WorkWeekDays = DefaultWorkWeekDays()
	}
	if s.ActivityLog == (ActivityLogSettings{}) {
		s.ActivityLog = def.ActivityLog
	}
	if s.ActivityLog.ArchiveAfterDays <= 0 {
		s.ActivityLog.ArchiveAfterDays = def.ActivityLog.ArchiveAfterDays
	}
	if s.UserHoursConfig == nil {
		s.UserHoursConfig = []UserHoursConfig{}
	}
	if s.ManagerAssignments == nil {
		s.ManagerAssignments = []ManagerAssignment{}
	}
	if s.SchemaVersion < CurrentSchemaVersion {
		s.SchemaVersion = CurrentSchemaVersion
	}
	return s
}

// Validate rejects a settings write before it reaches backup or persist.
func Validate(s Settings) error {
	if s.DefaultHoursPerDay <= 0 {
		return &ValidationError{Field: "defaultHoursPerDay", Reason: "must be a positive number"}
	}
	if s.DefaultHoursPerWeek <= 0 {
		return &ValidationError{Field: "defaultHoursPerWeek", Reason: "must be a positive number"}
	}
	for _, wd := range s.WorkWeekDays {
		if wd < 0 || wd > 6 {
			return &ValidationError{Field: "workWeekDays", Reason: fmt.Sprintf("weekday %d out of range 0-6", wd)}
		}
	}
	for _, uc := range s.UserHoursConfig {
		if uc.UserID <= 0 {
			return &ValidationError{Field: "userHoursConfig", Reason: "userId must be positive"}
		}
		if uc.HoursPerDay <= 0 || uc.HoursPerWeek <= 0 {
			return &ValidationError{
				Field:  "userHoursConfig",
				Reason: fmt.Sprintf("hours for user %d must be positive", uc.UserID),
			}
		}
		for _, wd := range uc.WorkWeekDays {
			if wd < 0 || wd > 6 {
				return &ValidationError{
					Field:  "userHoursConfig",
					Reason: fmt.Sprintf("weekday %d out of range 0-6 for user %d", wd, uc.UserID),
				}
			}
		}
	}
	for _, ma := range s.ManagerAssignments {
		if ma.ManagerID <= 0 {
			return &ValidationError{Field: "managerAssignments", Reason: "managerId must be positive"}
		}
	}
	if s.ActivityLog.ArchiveAfterDays < 0 {
		return &ValidationError{Field: "activityLogSettings.archiveAfterDays", Reason: "must not be negative"}
	}
	return nil
}

// =============================================================================
// PER-USER RESOLUTION
// =============================================================================

// UserConfigFor returns the override entry for the user, or nil.
func UserConfigFor(s Settings, userID int) *UserHoursConfig {
	for i := range s.UserHoursConfig {
		if s.UserHoursConfig[i].UserID == userID {
			return &s.UserHoursConfig[i]
		}
	}
	return nil
}

// Resolve produces the effective configuration for a user by applying the
// override precedence. Soft-deleted overrides still resolve: historical
// reporting for retained-inactive employees uses their stored hours.
func Resolve(s Settings, userID int) EffectiveConfig {
	cfg := EffectiveConfig{
		HoursPerDay:  s.DefaultHoursPerDay,
		HoursPerWeek: s.DefaultHoursPerWeek,
		WorkWeekDays: s.WorkWeekDays,
	}
	if cfg.HoursPerDay <= 0 {
		cfg.HoursPerDay = 8
	}
	if cfg.HoursPerWeek <= 0 {
		cfg.HoursPerWeek = 40
	}
	if len(cfg.WorkWeekDays) == 0 {
		cfg.WorkWeekDays = DefaultWorkWeekDays()
	}

	if uc := UserConfigFor(s, userID); uc != nil {
		cfg.HoursPerDay = uc.HoursPerDay
		cfg.HoursPerWeek = uc.HoursPerWeek
		if len(uc.WorkWeekDays) > 0 {
			cfg.WorkWeekDays = uc.WorkWeekDays
		}
	}
	return cfg
}

// FromSnapshot resolves an effective configuration out of an entry's
// settings snapshot, falling back to the live settings when no snapshot
// was captured.
func FromSnapshot(snap *SettingsSnapshot, fallback EffectiveConfig) EffectiveConfig {
	if snap == nil {
		return fallback
	}
	cfg := EffectiveConfig{
		HoursPerDay:  snap.HoursPerDay,
		HoursPerWeek: snap.HoursPerWeek,
		WorkWeekDays: snap.WorkWeekDays,
	}
	if cfg.HoursPerDay <= 0 {
		cfg.HoursPerDay = fallback.HoursPerDay
	}
	if cfg.HoursPerWeek <= 0 {
		cfg.HoursPerWeek = fallback.HoursPerWeek
	}
	if len(cfg.WorkWeekDays) == 0 {
		cfg.WorkWeekDays = fallback.WorkWeekDays
	}
	return cfg
}

// =============================================================================
// ROSTER RECONCILIATION - Live group vs stored overrides
// =============================================================================

// ReconcileResult splits the stored overrides after diffing against the
// live roster.
type ReconcileResult struct {
	// Active holds one entry per live roster member, ordered as the roster
	// is ordered. Existing overrides keep their hours; new members get the
	// defaults.
	Active []UserHoursConfig

	// RetainedInactive holds overrides whose user left the source group.
	// They are kept, flagged inactive, for historical reporting.
	RetainedInactive []UserHoursConfig
}

// Reconcile runs the explicit two-way diff between the live employee roster
// and the stored per-user overrides. It is executed once per settings load.
func Reconcile(live []RosterEntry, stored []UserHoursConfig, defaults Settings) ReconcileResult {
	byUser := make(map[int]UserHoursConfig, len(stored))
	for _, uc := range stored {
		byUser[uc.UserID] = uc
	}

	inRoster := make(map[int]bool, len(live))
	var result ReconcileResult

	for _, member := range live {
		inRoster[member.UserID] = true
		if existing, ok := byUser[member.UserID]; ok {
			existing.UserName = member.DisplayName
			existing.IsActive = nil
			result.Active = append(result.Active, existing)
			continue
		}
		result.Active = append(result.Active, UserHoursConfig{
			UserID:       member.UserID,
			UserName:     member.DisplayName,
			HoursPerDay:  defaults.DefaultHoursPerDay,
			HoursPerWeek: defaults.DefaultHoursPerWeek,
		})
	}

	for _, uc := range stored {
		if inRoster[uc.UserID] {
			continue
		}
		inactive := false
		uc.IsActive = &inactive
		result.RetainedInactive = append(result.RetainedInactive, uc)
	}

	return result
}

// Merged returns the full override collection after reconciliation:
// active entries first, retained-inactive entries after.
func (r ReconcileResult) Merged() []UserHoursConfig {
	merged := make([]UserHoursConfig, 0, len(r.Active)+len(r.RetainedInactive))
	merged = append(merged, r.Active...)
	merged = append(merged, r.RetainedInactive...)
	return merged
}

// Touch stamps the modification metadata applied on every save.
func Touch(s Settings, at time.Time) Settings {
	s.SchemaVersion = CurrentSchemaVersion
	s.LastModified = at
	return s
}
