/*
activity.go - Immutable audit log of time-entry mutations

  Records are write-once. Pruning by archiveAfterDays is an explicit
  admin action, never a background job - all maintenance in this system
  is triggered by a caller.
*/
package tracker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stundenwerk/timetrack-engine/engine"
)

// audit writes one activity record when enabled by the activity-log policy.
// Failures are logged and swallowed: an audit outage never blocks the
// primary write.
func (s *Service) audit(ctx context.Context, actor Actor, action engine.ActivityAction, entry engine.TimeEntry) {
	settings, err := s.LoadSettings(ctx)
	if err != nil {
		s.Log.Warn("activity log skipped: settings unavailable", zap.Error(err))
		return
	}
	policy := settings.ActivityLog
	if !policy.Enabled {
		return
	}
	switch action {
	case engine.ActivityCreate:
		if !policy.LogCreate {
			return
		}
	case engine.ActivityUpdate:
		if !policy.LogUpdate {
			return
		}
	case engine.ActivityDelete:
		if !policy.LogDelete {
			return
		}
	}

	record := engine.ActivityLog{
		ID:         uuid.NewString(),
		Timestamp:  s.Now(),
		UserID:     actor.UserID,
		UserName:   actor.Name,
		Action:     action,
		EntityType: "timeentry",
		EntityID:   entry.StartTime.Format("2006-01-02T15:04:05"),
		Details:    fmt.Sprintf("user %d, category %s", entry.UserID, entry.CategoryID),
	}

	payload, err := encode(record)
	if err != nil {
		s.Log.Warn("activity log encode failed", zap.Error(err))
		return
	}
	cat, err := s.ensure(ctx, catActivityLogs)
	if err != nil {
		s.Log.Warn("activity log category unavailable", zap.Error(err))
		return
	}
	if _, err := s.KV.CreateValue(ctx, cat.ID, payload); err != nil {
		s.Log.Warn("activity log write failed", zap.Error(err))
	}
}

// ListActivity returns all retained audit records.
func (s *Service) ListActivity(ctx context.Context) ([]engine.ActivityLog, error) {
	records, err := loadRecords[engine.ActivityLog](ctx, s, catActivityLogs)
	if err != nil {
		return nil, err
	}
	logs := make([]engine.ActivityLog, len(records))
	for i, r := range records {
		logs[i] = r.Data
	}
	return logs, nil
}

// PruneActivity deletes audit records older than the settings'
// archiveAfterDays. Returns the number of records removed.
func (s *Service) PruneActivity(ctx context.Context) (int, error) {
	settings, err := s.LoadSettings(ctx)
	if err != nil {
		return 0, err
	}
	days := settings.ActivityLog.ArchiveAfterDays
	if days <= 0 {
		return 0, nil
	}
	cutoff := s.Now().AddDate(0, 0, -days)

	records, err := loadRecords[engine.ActivityLog](ctx, s, catActivityLogs)
	if err != nil {
		return 0, err
	}
	cat, err := s.ensure(ctx, catActivityLogs)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, r := range records {
		if r.Data.Timestamp.Before(cutoff) {
			if err := s.KV.DeleteValue(ctx, cat.ID, r.StorageID); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}
