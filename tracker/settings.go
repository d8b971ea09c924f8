/*
settings.go - Settings lifecycle: load, validate, backup-before-write, restore

STATE MACHINE (per settings object):
  Loaded -> Validated -> (optionally Backed-up) -> Persisted

  Validation rejects malformed payloads before anything else happens; a
  rejected write never reaches backup or persist. The backup snapshots the
  PRE-mutation settings, so a restore always returns to a real prior
  state, never to the about-to-be-written one. Restoring is itself a
  mutation and produces a fresh backup of the state being replaced.

RETENTION:
  After every backup write the ring is pruned to the BackupLimit
  most-recent snapshots, oldest first.
*/
package tracker

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stundenwerk/timetrack-engine/directory"
	"github.com/stundenwerk/timetrack-engine/engine"
)

// LoadSettings returns the effective stored settings: merged with built-in
// defaults and reconciled against the live employee roster. A missing
// settings record yields the defaults; the reconciled view is not persisted
// until the next save.
func (s *Service) LoadSettings(ctx context.Context) (engine.Settings, error) {
	stored, _, found, err := s.loadStoredSettings(ctx)
	if err != nil {
		return engine.Settings{}, err
	}
	if !found {
		stored = engine.DefaultSettings()
	}
	settings := engine.MergeWithDefaults(stored)

	// Reconcile per-user overrides against the live employee group. A
	// failed roster fetch keeps the stored overrides untouched rather than
	// flagging everyone inactive off a transient error.
	if settings.EmployeeGroupID > 0 {
		members, err := s.Groups.GroupMembers(ctx, settings.EmployeeGroupID)
		if err != nil {
			s.Log.Warn("employee roster fetch failed, skipping reconciliation",
				zap.Int("groupId", settings.EmployeeGroupID), zap.Error(err))
		} else {
			result := engine.Reconcile(directory.Roster(members), settings.UserHoursConfig, settings)
			settings.UserHoursConfig = result.Merged()
		}
	}

	return settings, nil
}

// loadStoredSettings reads the raw stored settings value, if any.
func (s *Service) loadStoredSettings(ctx context.Context) (engine.Settings, int64, bool, error) {
	records, err := loadRecords[engine.Settings](ctx, s, catSettings)
	if err != nil {
		return engine.Settings{}, 0, false, err
	}
	if len(records) == 0 {
		return engine.Settings{}, 0, false, nil
	}
	// Exactly one current value; tolerate strays by using the first.
	return records[0].Data, records[0].StorageID, true, nil
}

// SaveSettings validates, backs up the pre-mutation state, persists the new
// settings, and enforces backup retention. Backup failures are logged and
// swallowed; persist failures propagate.
func (s *Service) SaveSettings(ctx context.Context, next engine.Settings) (engine.Settings, error) {
	if err := engine.Validate(next); err != nil {
		return engine.Settings{}, err
	}

	current, valueID, found, err := s.loadStoredSettings(ctx)
	if err != nil {
		return engine.Settings{}, err
	}

	if found {
		if err := s.writeBackup(ctx, current); err != nil {
			s.Log.Warn("settings backup failed, continuing with save", zap.Error(err))
		}
	}

	next = engine.Touch(next, s.Now())
	payload, err := encode(next)
	if err != nil {
		return engine.Settings{}, err
	}

	cat, err := s.ensure(ctx, catSettings)
	if err != nil {
		return engine.Settings{}, err
	}
	if found {
		err = s.KV.UpdateValue(ctx, cat.ID, valueID, payload)
	} else {
		_, err = s.KV.CreateValue(ctx, cat.ID, payload)
	}
	if err != nil {
		return engine.Settings{}, err
	}

	if found {
		if err := s.pruneBackups(ctx); err != nil {
			s.Log.Warn("backup retention pruning failed", zap.Error(err))
		}
	}
	return next, nil
}

// =============================================================================
// BACKUPS
// =============================================================================

func (s *Service) writeBackup(ctx context.Context, snapshot engine.Settings) error {
	backup := engine.SettingsBackup{
		ID:        uuid.NewString(),
		Timestamp: s.Now(),
		Settings:  snapshot,
		Summary:   summarize(snapshot),
		Version:   snapshot.SchemaVersion,
	}

	payload, err := encode(backup)
	if err != nil {
		return err
	}
	cat, err := s.ensure(ctx, catBackups)
	if err != nil {
		return err
	}
	_, err = s.KV.CreateValue(ctx, cat.ID, payload)
	return err
}

func summarize(s engine.Settings) string {
	return fmt.Sprintf("%d user overrides, %d manager assignments, %.1fh/day default",
		len(s.UserHoursConfig), len(s.ManagerAssignments), s.DefaultHoursPerDay)
}

// ListBackups returns all retained backups, newest first.
func (s *Service) ListBackups(ctx context.Context) ([]engine.SettingsBackup, error) {
	records, err := loadRecords[engine.SettingsBackup](ctx, s, catBackups)
	if err != nil {
		return nil, err
	}
	backups := make([]engine.SettingsBackup, len(records))
	for i, r := range records {
		backups[i] = r.Data
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// pruneBackups deletes everything beyond the BackupLimit most-recent
// snapshots, oldest first.
func (s *Service) pruneBackups(ctx context.Context) error {
	records, err := loadRecords[engine.SettingsBackup](ctx, s, catBackups)
	if err != nil {
		return err
	}
	if len(records) <= s.BackupLimit {
		return nil
	}

	// Oldest first.
	sort.Slice(records, func(i, j int) bool {
		return records[i].Data.Timestamp.Before(records[j].Data.Timestamp)
	})

	cat, err := s.ensure(ctx, catBackups)
	if err != nil {
		return err
	}
	for _, r := range records[:len(records)-s.BackupLimit] {
		if err := s.KV.DeleteValue(ctx, cat.ID, r.StorageID); err != nil {
			return err
		}
	}
	return nil
}

// RestoreBackup re-applies a retained snapshot. The restore goes through
// SaveSettings, so the state being replaced is itself backed up first.
func (s *Service) RestoreBackup(ctx context.Context, backupID string) (engine.Settings, error) {
	records, err := loadRecords[engine.SettingsBackup](ctx, s, catBackups)
	if err != nil {
		return engine.Settings{}, err
	}
	for _, r := range records {
		if r.Data.ID == backupID {
			restored := engine.MergeWithDefaults(r.Data.Settings)
			return s.SaveSettings(ctx, restored)
		}
	}
	return engine.Settings{}, &engine.NotFoundError{Kind: "backup", Key: backupID}
}
