/*
categories.go - Work category management

SLUGS:
  A category id is a human-derived slug generated from the name at
  creation. A collision with an existing id is disambiguated by appending
  a numeric suffix ("meeting", "meeting-2", "meeting-3", ...). The slug is
  stable across renames; only the display name changes.

DELETION:
  Deleting a category reassigns its entries to a replacement category.
  A missing replacement rejects the delete with NotFound.
*/
package tracker

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/stundenwerk/timetrack-engine/engine"
)

// ListCategories returns all work categories with their storage ids attached.
func (s *Service) ListCategories(ctx context.Context) ([]engine.WorkCategory, error) {
	records, err := loadRecords[engine.WorkCategory](ctx, s, catWorkCategories)
	if err != nil {
		return nil, err
	}
	categories := make([]engine.WorkCategory, len(records))
	for i, r := range records {
		categories[i] = r.Data
		categories[i].KVStoreID = r.StorageID
	}
	return categories, nil
}

// CreateCategory creates a work category with a slug derived from the name,
// disambiguated against existing ids.
func (s *Service) CreateCategory(ctx context.Context, name, color string) (engine.WorkCategory, error) {
	if strings.TrimSpace(name) == "" {
		return engine.WorkCategory{}, &engine.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	existing, err := s.ListCategories(ctx)
	if err != nil {
		return engine.WorkCategory{}, err
	}
	taken := make(map[string]bool, len(existing))
	for _, c := range existing {
		taken[c.ID] = true
	}

	category := engine.WorkCategory{
		ID:    disambiguate(slugify(name), taken),
		Name:  strings.TrimSpace(name),
		Color: color,
	}

	payload, err := encode(category)
	if err != nil {
		return engine.WorkCategory{}, err
	}
	cat, err := s.ensure(ctx, catWorkCategories)
	if err != nil {
		return engine.WorkCategory{}, err
	}
	v, err := s.KV.CreateValue(ctx, cat.ID, payload)
	if err != nil {
		return engine.WorkCategory{}, err
	}
	category.KVStoreID = v.ID
	return category, nil
}

// RenameCategory changes a category's display name and color. The slug id
// is stable; entries referencing it pick up the new name on their next
// load via the category-name refresh.
func (s *Service) RenameCategory(ctx context.Context, id, newName, newColor string) (engine.WorkCategory, error) {
	if strings.TrimSpace(newName) == "" {
		return engine.WorkCategory{}, &engine.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	records, err := loadRecords[engine.WorkCategory](ctx, s, catWorkCategories)
	if err != nil {
		return engine.WorkCategory{}, err
	}
	cat, err := s.ensure(ctx, catWorkCategories)
	if err != nil {
		return engine.WorkCategory{}, err
	}

	for _, r := range records {
		if r.Data.ID != id {
			continue
		}
		updated := r.Data
		updated.Name = strings.TrimSpace(newName)
		if newColor != "" {
			updated.Color = newColor
		}
		payload, err := encode(updated)
		if err != nil {
			return engine.WorkCategory{}, err
		}
		if err := s.KV.UpdateValue(ctx, cat.ID, r.StorageID, payload); err != nil {
			return engine.WorkCategory{}, err
		}
		updated.KVStoreID = r.StorageID
		return updated, nil
	}
	return engine.WorkCategory{}, &engine.NotFoundError{Kind: "category", Key: id}
}

// DeleteCategory removes a category after reassigning its entries to the
// replacement category.
func (s *Service) DeleteCategory(ctx context.Context, id, replacementID string) error {
	records, err := loadRecords[engine.WorkCategory](ctx, s, catWorkCategories)
	if err != nil {
		return err
	}

	var target *Record[engine.WorkCategory]
	var replacement *engine.WorkCategory
	for i := range records {
		switch records[i].Data.ID {
		case id:
			target = &records[i]
		case replacementID:
			replacement = &records[i].Data
		}
	}
	if target == nil {
		return &engine.NotFoundError{Kind: "category", Key: id}
	}
	if replacement == nil {
		return &engine.NotFoundError{Kind: "replacement category", Key: replacementID}
	}

	if err := s.reassignEntries(ctx, id, *replacement); err != nil {
		return err
	}

	cat, err := s.ensure(ctx, catWorkCategories)
	if err != nil {
		return err
	}
	return s.KV.DeleteValue(ctx, cat.ID, target.StorageID)
}

func (s *Service) reassignEntries(ctx context.Context, fromID string, to engine.WorkCategory) error {
	records, err := loadRecords[engine.TimeEntry](ctx, s, catTimeEntries)
	if err != nil {
		return err
	}
	cat, err := s.ensure(ctx, catTimeEntries)
	if err != nil {
		return err
	}

	for _, r := range records {
		if r.Data.CategoryID != fromID {
			continue
		}
		r.Data.CategoryID = to.ID
		r.Data.CategoryName = to.Name
		payload, err := encode(r.Data)
		if err != nil {
			return err
		}
		if err := s.KV.UpdateValue(ctx, cat.ID, r.StorageID, payload); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SLUG GENERATION
// =============================================================================

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "category"
	}
	return slug
}

func disambiguate(slug string, taken map[string]bool) string {
	if !taken[slug] {
		return slug
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", slug, i)
		if !taken[candidate] {
			return candidate
		}
	}
}
