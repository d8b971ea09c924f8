/*
entries.go - Time entry CRUD, clock-in/clock-out, category-name refresh

INVARIANTS:
  - At most one running entry (endTime == null) per user. Storage does not
    enforce this; clock-in rejects while an entry is running.
  - An entry's natural key within a user's entry set is its start time.
    The kvstore value id is a storage identifier only.
  - Category names are denormalized onto entries and refreshed from the
    current category table at load, since categories can be renamed.

AUDIT:
  Every mutation writes an activity record when enabled by the settings'
  activity-log policy. Audit failures never block the primary write.
*/
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/stundenwerk/timetrack-engine/engine"
)

// StoredEntry pairs a time entry with its storage id for update/delete.
type StoredEntry struct {
	StorageID int64
	Entry     engine.TimeEntry
}

// ListEntries returns all entries with category names refreshed against the
// current category table.
func (s *Service) ListEntries(ctx context.Context) ([]StoredEntry, error) {
	records, err := loadRecords[engine.TimeEntry](ctx, s, catTimeEntries)
	if err != nil {
		return nil, err
	}

	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	nameByID := make(map[string]string, len(categories))
	for _, c := range categories {
		nameByID[c.ID] = c.Name
	}

	entries := make([]StoredEntry, len(records))
	for i, r := range records {
		entry := r.Data
		if name, ok := nameByID[entry.CategoryID]; ok {
			entry.CategoryName = name
		}
		entries[i] = StoredEntry{StorageID: r.StorageID, Entry: entry}
	}
	return entries, nil
}

// EntriesForUser filters ListEntries down to one owner.
func (s *Service) EntriesForUser(ctx context.Context, userID int) ([]StoredEntry, error) {
	all, err := s.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	var mine []StoredEntry
	for _, e := range all {
		if e.Entry.UserID == userID {
			mine = append(mine, e)
		}
	}
	return mine, nil
}

// CreateEntry persists a manual entry and audits the creation.
func (s *Service) CreateEntry(ctx context.Context, entry engine.TimeEntry, actor Actor) (StoredEntry, error) {
	if entry.UserID <= 0 {
		return StoredEntry{}, &engine.ValidationError{Field: "userId", Reason: "must be positive"}
	}
	if entry.EndTime != nil && !entry.EndTime.After(entry.StartTime) {
		return StoredEntry{}, &engine.ValidationError{Field: "endTime", Reason: "must be after startTime"}
	}

	payload, err := encode(entry)
	if err != nil {
		return StoredEntry{}, err
	}
	cat, err := s.ensure(ctx, catTimeEntries)
	if err != nil {
		return StoredEntry{}, err
	}
	v, err := s.KV.CreateValue(ctx, cat.ID, payload)
	if err != nil {
		return StoredEntry{}, err
	}

	s.audit(ctx, actor, engine.ActivityCreate, entry)
	return StoredEntry{StorageID: v.ID, Entry: entry}, nil
}

// UpdateEntry replaces a stored entry and audits the update.
func (s *Service) UpdateEntry(ctx context.Context, storageID int64, entry engine.TimeEntry, actor Actor) error {
	if entry.EndTime != nil && !entry.EndTime.After(entry.StartTime) {
		return &engine.ValidationError{Field: "endTime", Reason: "must be after startTime"}
	}

	payload, err := encode(entry)
	if err != nil {
		return err
	}
	cat, err := s.ensure(ctx, catTimeEntries)
	if err != nil {
		return err
	}
	if err := s.KV.UpdateValue(ctx, cat.ID, storageID, payload); err != nil {
		return &engine.NotFoundError{Kind: "entry", Key: fmt.Sprint(storageID)}
	}

	s.audit(ctx, actor, engine.ActivityUpdate, entry)
	return nil
}

// DeleteEntry removes a stored entry and audits the deletion.
func (s *Service) DeleteEntry(ctx context.Context, storageID int64, actor Actor) error {
	records, err := loadRecords[engine.TimeEntry](ctx, s, catTimeEntries)
	if err != nil {
		return err
	}
	cat, err := s.ensure(ctx, catTimeEntries)
	if err != nil {
		return err
	}

	for _, r := range records {
		if r.StorageID != storageID {
			continue
		}
		if err := s.KV.DeleteValue(ctx, cat.ID, storageID); err != nil {
			return err
		}
		s.audit(ctx, actor, engine.ActivityDelete, r.Data)
		return nil
	}
	return &engine.NotFoundError{Kind: "entry", Key: fmt.Sprint(storageID)}
}

// =============================================================================
// CLOCK IN / CLOCK OUT
// =============================================================================

// RunningEntry returns the user's currently running entry, if any.
func (s *Service) RunningEntry(ctx context.Context, userID int) (*StoredEntry, error) {
	entries, err := s.EntriesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Entry.IsRunning() {
			found := e
			return &found, nil
		}
	}
	return nil, nil
}

// ClockIn starts a new running entry, capturing a settings snapshot of the
// user's effective configuration so historical targets stay stable.
func (s *Service) ClockIn(ctx context.Context, userID int, categoryID string, isBreak bool, actor Actor) (StoredEntry, error) {
	running, err := s.RunningEntry(ctx, userID)
	if err != nil {
		return StoredEntry{}, err
	}
	if running != nil {
		return StoredEntry{}, engine.ErrEntryRunning
	}

	settings, err := s.LoadSettings(ctx)
	if err != nil {
		return StoredEntry{}, err
	}
	cfg := engine.Resolve(settings, userID)

	entry := engine.TimeEntry{
		UserID:           userID,
		StartTime:        s.Now(),
		CategoryID:       categoryID,
		IsBreak:          isBreak,
		SettingsSnapshot: cfg.Snapshot(),
	}
	if categoryID != "" {
		categories, err := s.ListCategories(ctx)
		if err != nil {
			return StoredEntry{}, err
		}
		for _, c := range categories {
			if c.ID == categoryID {
				entry.CategoryName = c.Name
			}
		}
	}

	return s.CreateEntry(ctx, entry, actor)
}

// ClockOut stamps the running entry's end time.
func (s *Service) ClockOut(ctx context.Context, userID int, actor Actor) (StoredEntry, error) {
	running, err := s.RunningEntry(ctx, userID)
	if err != nil {
		return StoredEntry{}, err
	}
	if running == nil {
		return StoredEntry{}, engine.ErrNoRunningEntry
	}

	end := s.Now()
	if !end.After(running.Entry.StartTime) {
		end = running.Entry.StartTime.Add(time.Millisecond)
	}
	running.Entry.EndTime = &end

	if err := s.UpdateEntry(ctx, running.StorageID, running.Entry, actor); err != nil {
		return StoredEntry{}, err
	}
	return *running, nil
}
