package tracker_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stundenwerk/timetrack-engine/directory"
	"github.com/stundenwerk/timetrack-engine/engine"
	"github.com/stundenwerk/timetrack-engine/tracker"
)

// =============================================================================
// PERMISSION RESOLUTION
// =============================================================================

func permissionSettings() engine.Settings {
	s := engine.DefaultSettings()
	s.HRGroupID = 10
	s.ManagerGroupID = 20
	s.ManagerAssignments = []engine.ManagerAssignment{
		{ManagerID: 3, ManagerName: "Carla Fischer", EmployeeIDs: []int{7, 5}},
		{ManagerID: 3, EmployeeIDs: []int{5, 9}},
	}
	return s
}

func TestResolvePermissions(t *testing.T) {
	groups := &directory.Static{Groups: map[int][]directory.Member{
		10: {{UserID: 1, DisplayName: "Anna Schmidt"}},
		20: {{UserID: 2, DisplayName: "Ben Weber"}},
	}}
	svc, _, _ := newTestService(groups)
	ctx := context.Background()
	settings := permissionSettings()

	t.Run("HR member is admin and sees everything", func(t *testing.T) {
		p := svc.ResolvePermissions(ctx, settings, 1)
		assert.True(t, p.IsAdmin)
		assert.True(t, p.IsManager)
		assert.True(t, p.CanSeeAllEntries)
	})

	t.Run("manager group member", func(t *testing.T) {
		p := svc.ResolvePermissions(ctx, settings, 2)
		assert.False(t, p.IsAdmin)
		assert.True(t, p.IsManager)
		assert.False(t, p.CanSeeAllEntries)
		assert.Empty(t, p.ManagedEmployeeIDs)
	})

	t.Run("assignment manager sees union of employees", func(t *testing.T) {
		p := svc.ResolvePermissions(ctx, settings, 3)
		assert.False(t, p.IsAdmin)
		assert.True(t, p.IsManager)
		assert.Equal(t, []int{5, 7, 9}, p.ManagedEmployeeIDs, "sorted, de-duplicated union")
	})

	t.Run("plain employee", func(t *testing.T) {
		p := svc.ResolvePermissions(ctx, settings, 7)
		assert.False(t, p.IsAdmin)
		assert.False(t, p.IsManager)
		assert.Empty(t, p.ManagedEmployeeIDs)
	})
}

func TestResolvePermissions_FailClosedOnDirectoryOutage(t *testing.T) {
	// GIVEN: a directory outage
	// WHEN: resolving a user who would be an HR member
	// THEN: group-based permissions collapse to non-member; explicit
	//       assignments still apply

	svc, _, _ := newTestService(failingGroups{})
	settings := permissionSettings()

	p := svc.ResolvePermissions(context.Background(), settings, 1)
	assert.False(t, p.IsAdmin)
	assert.False(t, p.IsManager)
	assert.False(t, p.CanSeeAllEntries)

	p = svc.ResolvePermissions(context.Background(), settings, 3)
	assert.True(t, p.IsManager, "assignment grant survives the outage")
	assert.Equal(t, []int{5, 7, 9}, p.ManagedEmployeeIDs)
}

// =============================================================================
// STATISTICS ACTIONS
// =============================================================================

func TestStatsForUser_NoResolvableUserDegradesToZero(t *testing.T) {
	svc, _, _ := newTestService(nil)

	stats, err := svc.StatsForUser(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, stats.Today.IsOnTrack)
	assert.True(t, stats.Today.Actual.IsZero())
	assert.True(t, stats.ThisWeek.Target.IsZero())
}

func TestStatsForUser_UsesPerUserOverride(t *testing.T) {
	// GIVEN: user 5 overridden to 6h/day and one 3h entry today
	// WHEN: computing today's stats
	// THEN: actual 3h against the 6h target, not the 8h default

	svc, _, clock := newTestService(nil)
	ctx := context.Background()

	settings := engine.DefaultSettings()
	settings.UserHoursConfig = []engine.UserHoursConfig{
		{UserID: 5, HoursPerDay: 6, HoursPerWeek: 30},
	}
	_, err := svc.SaveSettings(ctx, settings)
	require.NoError(t, err)

	// A Wednesday morning entry, evaluated the same day.
	start := time.Date(2024, time.March, 13, 9, 0, 0, 0, time.Local)
	end := start.Add(3 * time.Hour)
	_, err = svc.CreateEntry(ctx, engine.TimeEntry{UserID: 5, StartTime: start, EndTime: &end}, testActor)
	require.NoError(t, err)

	clock.now = time.Date(2024, time.March, 13, 14, 0, 0, 0, time.Local)
	stats, err := svc.StatsForUser(ctx, 5)
	require.NoError(t, err)

	assert.True(t, stats.Today.Actual.Equal(decimal.NewFromInt(3)), "actual = %s", stats.Today.Actual)
	assert.True(t, stats.Today.Target.Equal(decimal.NewFromInt(6)), "target = %s", stats.Today.Target)
	assert.False(t, stats.Today.IsOnTrack)
}

func TestStatsForUser_CreditsAbsences(t *testing.T) {
	// GIVEN: a full-day absence on Monday of the current week
	// WHEN: computing weekly stats with no entries at all
	// THEN: the week shows one default work day of credit

	absences := &tracker.StaticAbsences{ByUser: map[int][]engine.Absence{
		5: {{
			UserID:    5,
			StartDate: engine.NewDay(2024, time.March, 11),
			EndDate:   engine.NewDay(2024, time.March, 11),
			IsFullDay: true,
		}},
	}}
	svc, _, clock := newTestService(nil)
	svc.Absences = absences
	ctx := context.Background()

	clock.now = time.Date(2024, time.March, 13, 14, 0, 0, 0, time.Local)
	stats, err := svc.StatsForUser(ctx, 5)
	require.NoError(t, err)

	assert.True(t, stats.ThisWeek.Actual.Equal(decimal.NewFromInt(8)), "week = %s", stats.ThisWeek.Actual)
	assert.True(t, stats.Today.Actual.IsZero())
}

func TestGroupedEntries_FiltersToVisibleUsers(t *testing.T) {
	// GIVEN: entries of the viewer, a managed employee, and a stranger
	// WHEN: grouping with the managed employee visible
	// THEN: the stranger's entries are absent

	svc, _, _ := newTestService(nil)
	ctx := context.Background()

	start := time.Date(2024, time.March, 13, 9, 0, 0, 0, time.Local)
	for _, userID := range []int{1, 2, 3} {
		end := start.Add(time.Hour)
		_, err := svc.CreateEntry(ctx, engine.TimeEntry{UserID: userID, StartTime: start, EndTime: &end}, testActor)
		require.NoError(t, err)
	}

	groups, err := svc.GroupedEntries(ctx, 1, []int{2}, engine.GroupByDay)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Days, 1)

	assert.Len(t, groups[0].Days[0].Entries, 2)
	for _, e := range groups[0].Days[0].Entries {
		assert.NotEqual(t, 3, e.UserID)
	}
	assert.Equal(t, int64(2*3600000), groups[0].TotalMs)
}

func TestCategoryReport_SeedsAllCategories(t *testing.T) {
	svc, _, clock := newTestService(nil)
	ctx := context.Background()

	service, err := svc.CreateCategory(ctx, "Service", "")
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, "Admin", "")
	require.NoError(t, err)

	start := clock.Now()
	end := start.Add(2 * time.Hour)
	_, err = svc.CreateEntry(ctx, engine.TimeEntry{
		UserID: 1, StartTime: start, EndTime: &end, CategoryID: service.ID, CategoryName: service.Name,
	}, testActor)
	require.NoError(t, err)

	totals, err := svc.CategoryReport(ctx, 1)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "service", totals[0].CategoryID)
	assert.True(t, totals[0].Hours.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "admin", totals[1].CategoryID)
	assert.True(t, totals[1].Hours.IsZero())
}
