/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and the service layer, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/stundenwerk/timetrack-engine/engine"
	"github.com/stundenwerk/timetrack-engine/tracker"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// EntryDTO represents a time entry in API responses. The storage id is
// exposed so clients can address updates and deletes; it is not a domain
// key.
type EntryDTO struct {
	StorageID    int64   `json:"storageId"`
	UserID       int     `json:"userId"`
	StartTime    string  `json:"startTime"`
	EndTime      *string `json:"endTime"`
	CategoryID   string  `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	IsBreak      bool    `json:"isBreak"`
	IsManual     bool    `json:"isManual"`
	Running      bool    `json:"running"`
}

// CreateEntryRequest is the request to create a manual entry.
type CreateEntryRequest struct {
	UserID     int     `json:"userId"`
	StartTime  string  `json:"startTime"`
	EndTime    *string `json:"endTime"`
	CategoryID string  `json:"categoryId"`
	IsBreak    bool    `json:"isBreak"`
}

// ClockRequest starts or stops the caller's running entry.
type ClockRequest struct {
	UserID     int    `json:"userId"`
	UserName   string `json:"userName"`
	CategoryID string `json:"categoryId,omitempty"`
	IsBreak    bool   `json:"isBreak,omitempty"`
}

// CategoryDTO represents a work category.
type CategoryDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CreateCategoryRequest is the request to create a category.
type CreateCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// RenameCategoryRequest is the request to rename a category.
type RenameCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// WindowStatsDTO is the SOLL/IST view for one reporting window.
type WindowStatsDTO struct {
	Actual    float64 `json:"actual"`
	Target    float64 `json:"target"`
	Progress  float64 `json:"progress"`
	Remaining float64 `json:"remaining"`
	IsOnTrack bool    `json:"isOnTrack"`
	WorkDays  int     `json:"workDays"`
}

// StatisticsDTO bundles the four standard windows.
type StatisticsDTO struct {
	Today     WindowStatsDTO `json:"today"`
	ThisWeek  WindowStatsDTO `json:"thisWeek"`
	ThisMonth WindowStatsDTO `json:"thisMonth"`
	LastMonth WindowStatsDTO `json:"lastMonth"`
}

// DayBucketDTO is one calendar day inside an entry group.
type DayBucketDTO struct {
	Date         string     `json:"date"`
	TargetMs     int64      `json:"targetMs"`
	TotalMs      int64      `json:"totalMs"`
	TotalDisplay string     `json:"totalDisplay"`
	Entries      []EntryDTO `json:"entries"`
}

// EntryGroupDTO is one week/month/day partition.
type EntryGroupDTO struct {
	Key          string         `json:"key"`
	TotalMs      int64          `json:"totalMs"`
	TotalDisplay string         `json:"totalDisplay"`
	Days         []DayBucketDTO `json:"days"`
}

// CategoryTotalDTO is the per-category hours rollup.
type CategoryTotalDTO struct {
	CategoryID string  `json:"categoryId"`
	Name       string  `json:"name"`
	Color      string  `json:"color,omitempty"`
	Hours      float64 `json:"hours"`
}

// BackupDTO represents a retained settings backup.
type BackupDTO struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Summary   string `json:"summary"`
	Version   int    `json:"version"`
}

// PermissionsDTO is the resolved permission set for a user.
type PermissionsDTO struct {
	IsManager          bool  `json:"isManager"`
	IsAdmin            bool  `json:"isAdmin"`
	CanSeeAllEntries   bool  `json:"canSeeAllEntries"`
	ManagedEmployeeIDs []int `json:"managedEmployeeIds"`
}

// ActivityLogDTO is one audit record.
type ActivityLogDTO struct {
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"`
	UserID     int    `json:"userId"`
	UserName   string `json:"userName"`
	Action     string `json:"action"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Details    string `json:"details,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEntryDTO(e tracker.StoredEntry) EntryDTO {
	dto := EntryDTO{
		StorageID:    e.StorageID,
		UserID:       e.Entry.UserID,
		StartTime:    e.Entry.StartTime.Format(time.RFC3339),
		CategoryID:   e.Entry.CategoryID,
		CategoryName: e.Entry.CategoryName,
		IsBreak:      e.Entry.IsBreak,
		IsManual:     e.Entry.IsManual,
		Running:      e.Entry.IsRunning(),
	}
	if e.Entry.EndTime != nil {
		end := e.Entry.EndTime.Format(time.RFC3339)
		dto.EndTime = &end
	}
	return dto
}

func toWindowStatsDTO(w engine.WindowStats) WindowStatsDTO {
	actual, _ := w.Actual.Round(2).Float64()
	target, _ := w.Target.Round(2).Float64()
	progress, _ := w.Progress.Round(1).Float64()
	remaining, _ := w.Remaining.Round(2).Float64()
	return WindowStatsDTO{
		Actual:    actual,
		Target:    target,
		Progress:  progress,
		Remaining: remaining,
		IsOnTrack: w.IsOnTrack,
		WorkDays:  w.WorkDays,
	}
}

func toStatisticsDTO(s engine.Statistics) StatisticsDTO {
	return StatisticsDTO{
		Today:     toWindowStatsDTO(s.Today),
		ThisWeek:  toWindowStatsDTO(s.ThisWeek),
		ThisMonth: toWindowStatsDTO(s.ThisMonth),
		LastMonth: toWindowStatsDTO(s.LastMonth),
	}
}

func toGroupDTOs(groups []engine.EntryGroup) []EntryGroupDTO {
	dtos := make([]EntryGroupDTO, len(groups))
	for i, g := range groups {
		days := make([]DayBucketDTO, len(g.Days))
		for j, d := range g.Days {
			entries := make([]EntryDTO, len(d.Entries))
			for k, e := range d.Entries {
				entries[k] = toEntryDTO(tracker.StoredEntry{Entry: e})
			}
			days[j] = DayBucketDTO{
				Date:         d.Date.String(),
				TargetMs:     d.TargetMs,
				TotalMs:      d.TotalMs,
				TotalDisplay: engine.FormatHours(d.TotalMs),
				Entries:      entries,
			}
		}
		dtos[i] = EntryGroupDTO{
			Key:          g.Key,
			TotalMs:      g.TotalMs,
			TotalDisplay: engine.FormatHours(g.TotalMs),
			Days:         days,
		}
	}
	return dtos
}

func toCategoryTotalDTOs(totals []engine.CategoryTotal) []CategoryTotalDTO {
	dtos := make([]CategoryTotalDTO, len(totals))
	for i, t := range totals {
		hours, _ := t.Hours.Float64()
		dtos[i] = CategoryTotalDTO{
			CategoryID: t.CategoryID,
			Name:       t.Name,
			Color:      t.Color,
			Hours:      hours,
		}
	}
	return dtos
}
