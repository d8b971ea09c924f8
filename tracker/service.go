/*
Package tracker is the domain service layer of the time-tracking extension.

PURPOSE:
  Layers the spec'd lifecycle operations on top of the generic key-value
  store: settings load/merge/save with backup-before-write, work-category
  management, time-entry CRUD with clock-in/clock-out, absence reads, and
  activity logging. The engine package does the pure math; this package
  does the I/O choreography around it.

PERSISTED LAYOUT (kvstore categories of the module):
  workcategories    Work category records
  settings          Exactly one current settings value
  settings_backups  Bounded ring of pre-mutation snapshots
  timeentries       One record per time entry
  activitylogs      Write-once audit records

PROPAGATION POLICY:
  Reads favor availability: transient fetch failures collapse to empty
  collections so the UI never hard-crashes. Writes favor correctness and
  always propagate. Backup and activity-log writes are the deliberate
  exceptions: logged and swallowed so an audit-subsystem outage never
  blocks the primary save.

SEE ALSO:
  - engine/: The pure computation layer
  - kvstore/: The storage collaborator contract
*/
package tracker

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/stundenwerk/timetrack-engine/directory"
	"github.com/stundenwerk/timetrack-engine/engine"
	"github.com/stundenwerk/timetrack-engine/kvstore"
)

// Category shortys inside the module.
const (
	catWorkCategories = "workcategories"
	catSettings       = "settings"
	catBackups        = "settings_backups"
	catTimeEntries    = "timeentries"
	catActivityLogs   = "activitylogs"
)

var categoryNames = map[string]string{
	catWorkCategories: "Work Categories",
	catSettings:       "Settings",
	catBackups:        "Settings Backups",
	catTimeEntries:    "Time Entries",
	catActivityLogs:   "Activity Logs",
}

// DefaultBackupLimit is the retention cap for settings backups.
const DefaultBackupLimit = 10

// Actor identifies who is performing a mutation, for audit records.
type Actor struct {
	UserID int
	Name   string
}

// Service wires the collaborators together.
type Service struct {
	KV       kvstore.Store
	Groups   directory.GroupClient
	Absences AbsenceClient
	Log      *zap.Logger

	// BackupLimit is the number of most-recent settings backups retained.
	BackupLimit int

	// Now is swappable for tests.
	Now func() time.Time
}

// NewService creates a service with default retention and clock.
func NewService(kv kvstore.Store, groups directory.GroupClient, absences AbsenceClient, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		KV:          kv,
		Groups:      groups,
		Absences:    absences,
		Log:         log,
		BackupLimit: DefaultBackupLimit,
		Now:         time.Now,
	}
}

// ensure returns the category for a shorty, creating it lazily on first use.
func (s *Service) ensure(ctx context.Context, shorty string) (*kvstore.Category, error) {
	return kvstore.EnsureCategory(ctx, s.KV, shorty, categoryNames[shorty])
}

// =============================================================================
// RECORD DECODING - Opaque value to typed record
// =============================================================================

// Record pairs a decoded domain object with its storage-layer value id. The
// two identifier spaces are kept apart on purpose: the storage id never
// leaks into domain keys.
type Record[T any] struct {
	StorageID int64
	Data      T
}

// decodeRecords decodes every value of a category. An empty payload is a
// storage integrity violation and always fails loudly.
func decodeRecords[T any](category string, values []kvstore.Value) ([]Record[T], error) {
	records := make([]Record[T], 0, len(values))
	for _, v := range values {
		if v.Payload == "" || v.Payload == "null" {
			return nil, &engine.IntegrityError{Category: category, ValueID: v.ID}
		}
		var data T
		if err := json.Unmarshal([]byte(v.Payload), &data); err != nil {
			return nil, &engine.IntegrityError{Category: category, ValueID: v.ID}
		}
		records = append(records, Record[T]{StorageID: v.ID, Data: data})
	}
	return records, nil
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// loadRecords fetches and decodes a whole category.
func loadRecords[T any](ctx context.Context, s *Service, shorty string) ([]Record[T], error) {
	cat, err := s.ensure(ctx, shorty)
	if err != nil {
		return nil, err
	}
	values, err := s.KV.Values(ctx, cat.ID)
	if err != nil {
		return nil, err
	}
	return decodeRecords[T](shorty, values)
}
