/*
handlers.go - HTTP API handlers for the time-tracking extension

PURPOSE:
  Exposes the tracking service via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Settings:
    GET    /api/settings                       Effective settings
    PUT    /api/settings                       Save settings (backup-before-write)
    GET    /api/settings/backups               List retained backups
    POST   /api/settings/backups/{id}/restore  Restore a backup

  Categories:
    GET    /api/categories                     List work categories
    POST   /api/categories                     Create category
    PUT    /api/categories/{id}                Rename category
    DELETE /api/categories/{id}?replacement=   Delete, reassigning entries

  Entries:
    GET    /api/entries                        List all entries
    POST   /api/entries                        Create manual entry
    PUT    /api/entries/{id}                   Update entry
    DELETE /api/entries/{id}                   Delete entry
    GET    /api/entries/grouped?mode=          Grouped view (day/week/month)
    POST   /api/clock/in                       Start running entry
    POST   /api/clock/out                      Stop running entry

  Reporting:
    GET    /api/users/{id}/stats               Four-window statistics
    GET    /api/users/{id}/categories          Per-category hour rollup
    GET    /api/users/{id}/permissions         Resolved permission set

  Activity:
    GET    /api/activity                       List audit records
    POST   /api/activity/prune                 Prune by retention policy

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Clock state conflicts (already/not running)
  - 500: Internal errors

AUDIT ACTOR:
  Mutating endpoints carry the acting user in the request body or the
  X-Actor-Id / X-Actor-Name headers; the service writes activity records
  from it when the audit policy is enabled.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/stundenwerk/timetrack-engine/engine"
	"github.com/stundenwerk/timetrack-engine/tracker"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *tracker.Service
	Log     *zap.Logger
}

// NewHandler creates a new handler around the tracking service.
func NewHandler(service *tracker.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Service: service, Log: log}
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns the effective settings: stored values merged with
// defaults and reconciled against the live roster.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.LoadSettings(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// SaveSettings validates and persists a full settings object.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var next engine.Settings
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	saved, err := h.Service.SaveSettings(r.Context(), next)
	if err != nil {
		h.writeDomainError(w, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// ListBackups returns retained settings backups, newest first.
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.Service.ListBackups(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list backups", err)
		return
	}

	dtos := make([]BackupDTO, len(backups))
	for i, b := range backups {
		dtos[i] = BackupDTO{
			ID:        b.ID,
			Timestamp: b.Timestamp.Format(time.RFC3339),
			Summary:   b.Summary,
			Version:   b.Version,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RestoreBackup re-applies a retained snapshot.
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	restored, err := h.Service.RestoreBackup(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to restore backup", err)
		return
	}
	writeJSON(w, http.StatusOK, restored)
}

// =============================================================================
// CATEGORY HANDLERS
// =============================================================================

// ListCategories returns all work categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.ListCategories(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list categories", err)
		return
	}

	dtos := make([]CategoryDTO, len(categories))
	for i, c := range categories {
		dtos[i] = CategoryDTO{ID: c.ID, Name: c.Name, Color: c.Color}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCategory creates a work category.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	category, err := h.Service.CreateCategory(r.Context(), req.Name, req.Color)
	if err != nil {
		h.writeDomainError(w, "Failed to create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, CategoryDTO{ID: category.ID, Name: category.Name, Color: category.Color})
}

// RenameCategory changes a category's display name and color.
func (h *Handler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req RenameCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	category, err := h.Service.RenameCategory(r.Context(), id, req.Name, req.Color)
	if err != nil {
		h.writeDomainError(w, "Failed to rename category", err)
		return
	}
	writeJSON(w, http.StatusOK, CategoryDTO{ID: category.ID, Name: category.Name, Color: category.Color})
}

// DeleteCategory removes a category, reassigning its entries to the
// replacement named in the query string.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	replacement := r.URL.Query().Get("replacement")
	if replacement == "" {
		writeError(w, http.StatusBadRequest, "Query parameter 'replacement' is required", nil)
		return
	}

	if err := h.Service.DeleteCategory(r.Context(), id, replacement); err != nil {
		h.writeDomainError(w, "Failed to delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// ListEntries returns all entries, optionally filtered by ?userId=.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	var (
		entries []tracker.StoredEntry
		err     error
	)
	if raw := r.URL.Query().Get("userId"); raw != "" {
		userID, convErr := strconv.Atoi(raw)
		if convErr != nil {
			writeError(w, http.StatusBadRequest, "Invalid userId", convErr)
			return
		}
		entries, err = h.Service.EntriesForUser(r.Context(), userID)
	} else {
		entries, err = h.Service.ListEntries(r.Context())
	}
	if err != nil {
		h.writeDomainError(w, "Failed to list entries", err)
		return
	}

	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEntry persists a manual entry.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := entryFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry", err)
		return
	}

	created, err := h.Service.CreateEntry(r.Context(), entry, actorFrom(r))
	if err != nil {
		h.writeDomainError(w, "Failed to create entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(created))
}

// UpdateEntry replaces a stored entry by its storage id.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	storageID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry id", err)
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	entry, err := entryFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry", err)
		return
	}

	if err := h.Service.UpdateEntry(r.Context(), storageID, entry, actorFrom(r)); err != nil {
		h.writeDomainError(w, "Failed to update entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(tracker.StoredEntry{StorageID: storageID, Entry: entry}))
}

// DeleteEntry removes a stored entry by its storage id.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	storageID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry id", err)
		return
	}

	if err := h.Service.DeleteEntry(r.Context(), storageID, actorFrom(r)); err != nil {
		h.writeDomainError(w, "Failed to delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GroupedEntries returns the viewer's visible entries bucketed by
// ?mode=day|week|month. The visible set is the viewer plus the employees
// their permissions grant.
func (h *Handler) GroupedEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID, err := strconv.Atoi(r.URL.Query().Get("viewerId"))
	if err != nil || viewerID <= 0 {
		writeError(w, http.StatusBadRequest, "Query parameter 'viewerId' is required", err)
		return
	}

	mode := engine.GroupMode(r.URL.Query().Get("mode"))
	switch mode {
	case "":
		mode = engine.GroupByWeek
	case engine.GroupByDay, engine.GroupByWeek, engine.GroupByMonth:
	default:
		writeError(w, http.StatusBadRequest, "Invalid mode, expected day, week, or month", nil)
		return
	}

	settings, err := h.Service.LoadSettings(ctx)
	if err != nil {
		h.writeDomainError(w, "Failed to load settings", err)
		return
	}
	perms := h.Service.ResolvePermissions(ctx, settings, viewerID)

	visible := perms.ManagedEmployeeIDs
	if perms.CanSeeAllEntries {
		visible = allUserIDs(settings)
	}

	groups, err := h.Service.GroupedEntries(ctx, viewerID, visible, mode)
	if err != nil {
		h.writeDomainError(w, "Failed to group entries", err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupDTOs(groups))
}

// =============================================================================
// CLOCK HANDLERS
// =============================================================================

// ClockIn starts a running entry for the user.
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	actor := tracker.Actor{UserID: req.UserID, Name: req.UserName}
	entry, err := h.Service.ClockIn(r.Context(), req.UserID, req.CategoryID, req.IsBreak, actor)
	if err != nil {
		if errors.Is(err, engine.ErrEntryRunning) {
			writeError(w, http.StatusConflict, "An entry is already running", err)
			return
		}
		h.writeDomainError(w, "Failed to clock in", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// ClockOut stamps the running entry's end time.
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	actor := tracker.Actor{UserID: req.UserID, Name: req.UserName}
	entry, err := h.Service.ClockOut(r.Context(), req.UserID, actor)
	if err != nil {
		if errors.Is(err, engine.ErrNoRunningEntry) {
			writeError(w, http.StatusConflict, "No entry is running", err)
			return
		}
		h.writeDomainError(w, "Failed to clock out", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// =============================================================================
// REPORTING HANDLERS
// =============================================================================

// GetStats returns the four standard reporting windows for a user.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id", err)
		return
	}

	stats, err := h.Service.StatsForUser(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, "Failed to compute statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatisticsDTO(stats))
}

// GetCategoryReport returns the per-category hour rollup for a user.
func (h *Handler) GetCategoryReport(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id", err)
		return
	}

	totals, err := h.Service.CategoryReport(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, "Failed to compute category report", err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryTotalDTOs(totals))
}

// GetPermissions returns the resolved permission set for a user.
func (h *Handler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id", err)
		return
	}

	settings, err := h.Service.LoadSettings(ctx)
	if err != nil {
		h.writeDomainError(w, "Failed to load settings", err)
		return
	}
	perms := h.Service.ResolvePermissions(ctx, settings, userID)
	writeJSON(w, http.StatusOK, PermissionsDTO{
		IsManager:          perms.IsManager,
		IsAdmin:            perms.IsAdmin,
		CanSeeAllEntries:   perms.CanSeeAllEntries,
		ManagedEmployeeIDs: perms.ManagedEmployeeIDs,
	})
}

// =============================================================================
// ACTIVITY HANDLERS
// =============================================================================

// ListActivity returns all retained audit records.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Service.ListActivity(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list activity", err)
		return
	}

	dtos := make([]ActivityLogDTO, len(logs))
	for i, l := range logs {
		dtos[i] = ActivityLogDTO{
			ID:         l.ID,
			Timestamp:  l.Timestamp.Format(time.RFC3339),
			UserID:     l.UserID,
			UserName:   l.UserName,
			Action:     string(l.Action),
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			Details:    l.Details,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PruneActivity deletes audit records older than the retention policy.
func (h *Handler) PruneActivity(w http.ResponseWriter, r *http.Request) {
	pruned, err := h.Service.PruneActivity(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to prune activity", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"pruned": pruned})
}

// =============================================================================
// HELPERS
// =============================================================================

func entryFromRequest(req CreateEntryRequest) (engine.TimeEntry, error) {
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return engine.TimeEntry{}, err
	}
	entry := engine.TimeEntry{
		UserID:     req.UserID,
		StartTime:  start,
		CategoryID: req.CategoryID,
		IsBreak:    req.IsBreak,
		IsManual:   true,
	}
	if req.EndTime != nil {
		end, err := time.Parse(time.RFC3339, *req.EndTime)
		if err != nil {
			return engine.TimeEntry{}, err
		}
		entry.EndTime = &end
	}
	return entry, nil
}

// actorFrom reads the acting user from request headers. Mutations from
// anonymous callers are audited with a zero actor.
func actorFrom(r *http.Request) tracker.Actor {
	id, _ := strconv.Atoi(r.Header.Get("X-Actor-Id"))
	return tracker.Actor{UserID: id, Name: r.Header.Get("X-Actor-Name")}
}

func allUserIDs(settings engine.Settings) []int {
	ids := make([]int, 0, len(settings.UserHoursConfig))
	for _, cfg := range settings.UserHoursConfig {
		ids = append(ids, cfg.UserID)
	}
	return ids
}

// writeDomainError maps domain errors onto HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Log.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
