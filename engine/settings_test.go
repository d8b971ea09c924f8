package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stundenwerk/timetrack-engine/engine"
)

// =============================================================================
// DEFAULTS MERGE
// =============================================================================

func TestMergeWithDefaults_BackfillsMissingFields(t *testing.T) {
	// GIVEN: a minimal stored blob from an older schema version
	// WHEN: merging with defaults
	// THEN: every zero-valued field picks up its default; stored values
	//       survive untouched

	stored := engine.Settings{
		DefaultHoursPerDay: 7.5,
		EmployeeGroupID:    42,
		SchemaVersion:      1,
	}

	merged := engine.MergeWithDefaults(stored)

	assert.Equal(t, 7.5, merged.DefaultHoursPerDay)
	assert.Equal(t, float64(40), merged.DefaultHoursPerWeek)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, merged.WorkWeekDays)
	assert.Equal(t, 42, merged.EmployeeGroupID)
	assert.True(t, merged.ActivityLog.Enabled)
	assert.Equal(t, 90, merged.ActivityLog.ArchiveAfterDays)
	assert.NotNil(t, merged.UserHoursConfig)
	assert.NotNil(t, merged.ManagerAssignments)
	assert.Equal(t, engine.CurrentSchemaVersion, merged.SchemaVersion)
}

func TestMergeWithDefaults_Idempotent(t *testing.T) {
	once := engine.MergeWithDefaults(engine.Settings{})
	twice := engine.MergeWithDefaults(once)
	assert.Equal(t, once, twice)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_Rejections(t *testing.T) {
	valid := engine.DefaultSettings()
	require.NoError(t, engine.Validate(valid))

	tests := []struct {
		name   string
		mutate func(*engine.Settings)
	}{
		{"zero hours per day", func(s *engine.Settings) { s.DefaultHoursPerDay = 0 }},
		{"negative hours per week", func(s *engine.Settings) { s.DefaultHoursPerWeek = -1 }},
		{"weekday out of range", func(s *engine.Settings) { s.WorkWeekDays = []int{1, 7} }},
		{"override without user id", func(s *engine.Settings) {
			s.UserHoursConfig = []engine.UserHoursConfig{{HoursPerDay: 8, HoursPerWeek: 40}}
		}},
		{"override with zero hours", func(s *engine.Settings) {
			s.UserHoursConfig = []engine.UserHoursConfig{{UserID: 5, HoursPerWeek: 40}}
		}},
		{"override weekday out of range", func(s *engine.Settings) {
			s.UserHoursConfig = []engine.UserHoursConfig{{UserID: 5, HoursPerDay: 8, HoursPerWeek: 40, WorkWeekDays: []int{-1}}}
		}},
		{"assignment without manager id", func(s *engine.Settings) {
			s.ManagerAssignments = []engine.ManagerAssignment{{EmployeeIDs: []int{1}}}
		}},
		{"negative archive days", func(s *engine.Settings) { s.ActivityLog.ArchiveAfterDays = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := engine.DefaultSettings()
			tt.mutate(&s)

			err := engine.Validate(s)
			require.Error(t, err)
			assert.ErrorIs(t, err, engine.ErrValidation)
		})
	}
}

// =============================================================================
// PER-USER RESOLUTION
// =============================================================================

func TestResolve_OverridePrecedence(t *testing.T) {
	// GIVEN: 8h/day defaults and a 6h/day override for user 5
	// WHEN: resolving user 5 and user 9
	// THEN: user 5 gets the override, user 9 gets the defaults

	settings := engine.DefaultSettings()
	settings.UserHoursConfig = []engine.UserHoursConfig{
		{UserID: 5, UserName: "Anna", HoursPerDay: 6, HoursPerWeek: 30},
	}

	anna := engine.Resolve(settings, 5)
	assert.Equal(t, float64(6), anna.HoursPerDay)
	assert.Equal(t, float64(30), anna.HoursPerWeek)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, anna.WorkWeekDays, "global work week applies without a per-user one")

	other := engine.Resolve(settings, 9)
	assert.Equal(t, float64(8), other.HoursPerDay)
	assert.Equal(t, float64(40), other.HoursPerWeek)
}

func TestResolve_UserWorkWeekOverridesGlobal(t *testing.T) {
	settings := engine.DefaultSettings()
	settings.WorkWeekDays = []int{1, 2, 3, 4, 5}
	settings.UserHoursConfig = []engine.UserHoursConfig{
		{UserID: 5, HoursPerDay: 4, HoursPerWeek: 12, WorkWeekDays: []int{2, 4, 6}},
	}

	cfg := engine.Resolve(settings, 5)
	assert.Equal(t, []int{2, 4, 6}, cfg.WorkWeekDays)
}

func TestResolve_SoftDeletedOverrideStillResolves(t *testing.T) {
	// GIVEN: an override flagged inactive (user left the source group)
	// WHEN: resolving that user
	// THEN: the stored hours still apply, for historical reporting

	inactive := false
	settings := engine.DefaultSettings()
	settings.UserHoursConfig = []engine.UserHoursConfig{
		{UserID: 5, HoursPerDay: 6, HoursPerWeek: 30, IsActive: &inactive},
	}

	cfg := engine.Resolve(settings, 5)
	assert.Equal(t, float64(6), cfg.HoursPerDay)
}

func TestResolve_EmptySettingsFallsBackToBuiltIns(t *testing.T) {
	cfg := engine.Resolve(engine.Settings{}, 1)
	assert.Equal(t, float64(8), cfg.HoursPerDay)
	assert.Equal(t, float64(40), cfg.HoursPerWeek)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, cfg.WorkWeekDays)
}

func TestFromSnapshot(t *testing.T) {
	fallback := weekdayConfig(8)

	// Nil snapshot falls through entirely.
	assert.Equal(t, fallback, engine.FromSnapshot(nil, fallback))

	// A captured snapshot wins.
	snap := &engine.SettingsSnapshot{HoursPerDay: 6, HoursPerWeek: 30, WorkWeekDays: []int{1, 3, 5}}
	cfg := engine.FromSnapshot(snap, fallback)
	assert.Equal(t, float64(6), cfg.HoursPerDay)
	assert.Equal(t, []int{1, 3, 5}, cfg.WorkWeekDays)

	// Partially empty snapshots backfill from the fallback.
	partial := &engine.SettingsSnapshot{HoursPerDay: 6}
	cfg = engine.FromSnapshot(partial, fallback)
	assert.Equal(t, float64(6), cfg.HoursPerDay)
	assert.Equal(t, float64(40), cfg.HoursPerWeek)
	assert.Equal(t, fallback.WorkWeekDays, cfg.WorkWeekDays)
}

// =============================================================================
// ROSTER RECONCILIATION
// =============================================================================

func TestReconcile_TwoWayDiff(t *testing.T) {
	// GIVEN: a roster with one existing member, one new member; stored
	//        overrides containing the existing member and one who left
	// WHEN: reconciling
	// THEN: existing keeps hours and gets the fresh display name, new gets
	//       defaults, departed is retained inactive

	live := []engine.RosterEntry{
		{UserID: 1, DisplayName: "Anna Schmidt"},
		{UserID: 2, DisplayName: "Ben Weber"},
	}
	stored := []engine.UserHoursConfig{
		{UserID: 1, UserName: "A. Schmidt", HoursPerDay: 6, HoursPerWeek: 30},
		{UserID: 3, UserName: "Carla Fischer", HoursPerDay: 8, HoursPerWeek: 40},
	}
	defaults := engine.DefaultSettings()

	result := engine.Reconcile(live, stored, defaults)

	require.Len(t, result.Active, 2)
	assert.Equal(t, 1, result.Active[0].UserID)
	assert.Equal(t, "Anna Schmidt", result.Active[0].UserName, "display name refreshed from roster")
	assert.Equal(t, float64(6), result.Active[0].HoursPerDay, "stored hours survive")
	assert.True(t, result.Active[0].Active())

	assert.Equal(t, 2, result.Active[1].UserID)
	assert.Equal(t, float64(8), result.Active[1].HoursPerDay, "new member gets defaults")

	require.Len(t, result.RetainedInactive, 1)
	assert.Equal(t, 3, result.RetainedInactive[0].UserID)
	assert.False(t, result.RetainedInactive[0].Active())
	assert.Equal(t, float64(8), result.RetainedInactive[0].HoursPerDay, "historical hours retained")

	merged := result.Merged()
	require.Len(t, merged, 3)
	assert.Equal(t, 3, merged[2].UserID, "inactive entries trail the active ones")
}

func TestReconcile_EmptyRosterRetainsEveryone(t *testing.T) {
	stored := []engine.UserHoursConfig{
		{UserID: 1, HoursPerDay: 8, HoursPerWeek: 40},
	}
	result := engine.Reconcile(nil, stored, engine.DefaultSettings())

	assert.Empty(t, result.Active)
	require.Len(t, result.RetainedInactive, 1)
	assert.False(t, result.RetainedInactive[0].Active())
}

func TestTouch_StampsVersionAndTime(t *testing.T) {
	at := time.Date(2024, time.March, 13, 10, 0, 0, 0, time.Local)
	s := engine.Touch(engine.Settings{SchemaVersion: 1}, at)
	assert.Equal(t, engine.CurrentSchemaVersion, s.SchemaVersion)
	assert.Equal(t, at, s.LastModified)
}
