package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stundenwerk/timetrack-engine/api"
	"github.com/stundenwerk/timetrack-engine/directory"
	"github.com/stundenwerk/timetrack-engine/engine"
	"github.com/stundenwerk/timetrack-engine/kvstore"
	"github.com/stundenwerk/timetrack-engine/tracker"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	svc := tracker.NewService(kvstore.NewMemory(), &directory.Static{}, nil, nil)
	clock := time.Date(2024, time.March, 13, 9, 0, 0, 0, time.Local)
	svc.Now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(svc, nil)))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-Id", "1")
	req.Header.Set("X-Actor-Name", "Anna Schmidt")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// =============================================================================
// SETTINGS ENDPOINTS
// =============================================================================

func TestSettingsEndpoints_SaveLoadBackupRestore(t *testing.T) {
	srv := newTestServer(t)

	// Fresh install serves defaults.
	resp, err := http.Get(srv.URL + "/api/settings")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	settings := decode[engine.Settings](t, resp)
	assert.Equal(t, float64(8), settings.DefaultHoursPerDay)

	// First save, then a revision.
	settings.DefaultHoursPerDay = 7
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/settings", settings)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	settings.DefaultHoursPerDay = 6
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/settings", settings)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The revision backed up the 7h state.
	resp, err = http.Get(srv.URL + "/api/settings/backups")
	require.NoError(t, err)
	backups := decode[[]api.BackupDTO](t, resp)
	require.Len(t, backups, 1)

	// Restoring flips the effective settings back.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/settings/backups/"+backups[0].ID+"/restore", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	restored := decode[engine.Settings](t, resp)
	assert.Equal(t, float64(7), restored.DefaultHoursPerDay)
}

func TestSaveSettings_ValidationMapsTo400(t *testing.T) {
	srv := newTestServer(t)

	invalid := engine.DefaultSettings()
	invalid.DefaultHoursPerDay = -1
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/settings", invalid)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode[api.ErrorResponse](t, resp)
	assert.NotEmpty(t, body.Error)
}

func TestRestoreBackup_UnknownMapsTo404(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/settings/backups/nope/restore", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// CLOCK ENDPOINTS
// =============================================================================

func TestClockEndpoints_InOutConflicts(t *testing.T) {
	srv := newTestServer(t)
	clockReq := api.ClockRequest{UserID: 5, UserName: "Ben Weber"}

	// Clocking out before clocking in conflicts.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/clock/out", clockReq)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Clock in.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/clock/in", clockReq)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	started := decode[api.EntryDTO](t, resp)
	assert.True(t, started.Running)
	assert.Equal(t, 5, started.UserID)

	// Double clock-in conflicts.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/clock/in", clockReq)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Clock out finishes the entry.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/clock/out", clockReq)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stopped := decode[api.EntryDTO](t, resp)
	assert.False(t, stopped.Running)
	require.NotNil(t, stopped.EndTime)
}

// =============================================================================
// ENTRY ENDPOINTS
// =============================================================================

func TestEntryEndpoints_CreateListGrouped(t *testing.T) {
	srv := newTestServer(t)

	start := time.Date(2024, time.March, 13, 9, 0, 0, 0, time.Local)
	end := start.Add(2 * time.Hour).Format(time.RFC3339)
	create := api.CreateEntryRequest{
		UserID:    5,
		StartTime: start.Format(time.RFC3339),
		EndTime:   &end,
	}

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/entries", create)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.EntryDTO](t, resp)
	assert.NotZero(t, created.StorageID)
	assert.True(t, created.IsManual)

	resp, err := http.Get(srv.URL + "/api/entries?userId=5")
	require.NoError(t, err)
	entries := decode[[]api.EntryDTO](t, resp)
	require.Len(t, entries, 1)

	resp, err = http.Get(srv.URL + "/api/entries/grouped?viewerId=5&mode=week")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	groups := decode[[]api.EntryGroupDTO](t, resp)
	require.Len(t, groups, 1)
	assert.Equal(t, "2024-W11", groups[0].Key)
	assert.Equal(t, "2h", groups[0].TotalDisplay)
}

func TestEntryEndpoints_BadInputMapsTo400(t *testing.T) {
	srv := newTestServer(t)

	// Unparseable start time.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/entries", api.CreateEntryRequest{
		UserID: 5, StartTime: "yesterday-ish",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Invalid group mode.
	resp, err := http.Get(srv.URL + "/api/entries/grouped?viewerId=5&mode=fortnight")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Missing viewer.
	resp, err = http.Get(srv.URL + "/api/entries/grouped?mode=week")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// CATEGORY ENDPOINTS
// =============================================================================

func TestCategoryEndpoints_Lifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/categories", api.CreateCategoryRequest{Name: "Youth Work", Color: "#3b82f6"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.CategoryDTO](t, resp)
	assert.Equal(t, "youth-work", created.ID)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/categories", api.CreateCategoryRequest{Name: "Admin"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/categories/youth-work", api.RenameCategoryRequest{Name: "Youth Ministry"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	renamed := decode[api.CategoryDTO](t, resp)
	assert.Equal(t, "youth-work", renamed.ID, "slug survives renames")
	assert.Equal(t, "Youth Ministry", renamed.Name)

	// Delete requires a replacement.
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/categories/youth-work", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/api/categories/youth-work?replacement=admin", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/categories")
	require.NoError(t, err)
	categories := decode[[]api.CategoryDTO](t, resp)
	require.Len(t, categories, 1)
	assert.Equal(t, "admin", categories[0].ID)
}

// =============================================================================
// REPORTING ENDPOINTS
// =============================================================================

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	start := time.Date(2024, time.March, 13, 9, 0, 0, 0, time.Local)
	end := start.Add(4 * time.Hour).Format(time.RFC3339)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/entries", api.CreateEntryRequest{
		UserID: 5, StartTime: start.Format(time.RFC3339), EndTime: &end,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/users/5/stats")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[api.StatisticsDTO](t, resp)

	assert.Equal(t, float64(4), stats.Today.Actual)
	assert.Equal(t, float64(8), stats.Today.Target)
	assert.Equal(t, 50.0, stats.Today.Progress)
	assert.False(t, stats.Today.IsOnTrack)
}

func TestPermissionsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	settings := engine.DefaultSettings()
	settings.ManagerAssignments = []engine.ManagerAssignment{
		{ManagerID: 3, EmployeeIDs: []int{7, 5}},
	}
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/settings", settings)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/users/3/permissions")
	require.NoError(t, err)
	perms := decode[api.PermissionsDTO](t, resp)
	assert.True(t, perms.IsManager)
	assert.False(t, perms.IsAdmin)
	assert.Equal(t, []int{5, 7}, perms.ManagedEmployeeIDs)
}
