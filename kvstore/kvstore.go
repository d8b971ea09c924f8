/*
Package kvstore defines the generic key-value "custom data" storage primitive.

PURPOSE:
  The host platform persists everything for this extension as opaque JSON
  blobs grouped into named categories of a module. This package defines
  that contract: categories looked up by shorty name, values that are
  JSON-encoded strings with opaque numeric ids.

CONTRACT:
  - A returned Value's payload is never empty. The core must fail loudly
    (engine.ErrIntegrity), not silently default, if it ever observes one:
    it indicates storage corruption.
  - Value ids are storage-layer identifiers. They are never part of the
    domain model; a time entry's natural key is its start time.
  - Categories are lazily created on first use (EnsureCategory).

IMPLEMENTATIONS:
  - memory.go: In-memory store for tests and dev
  - httpapi/: REST client against the host platform's custom-data API
  - store/sqlite: SQLite-backed store for the local dev server

SEE ALSO:
  - tracker/: Domain repositories layered on this interface
*/
package kvstore

import (
	"context"
	"errors"
)

// ErrValueMissing is returned when updating or deleting a record that does
// not exist in the targeted category.
var ErrValueMissing = errors.New("kvstore: value not found")

// Category is a named bucket of values inside a module.
type Category struct {
	ID     int64  `json:"id"`
	Shorty string `json:"shorty"`
	Name   string `json:"name"`
}

// CategorySpec describes a category to create.
type CategorySpec struct {
	Shorty string `json:"shorty"`
	Name   string `json:"name"`
}

// Value is one stored record: an opaque id plus a JSON-encoded payload.
type Value struct {
	ID      int64  `json:"id"`
	Payload string `json:"value"`
}

// Store is the generic custom-data persistence collaborator.
type Store interface {
	// GetCategory returns the category with the given shorty, or nil when
	// it does not exist.
	GetCategory(ctx context.Context, shorty string) (*Category, error)

	// CreateCategory creates a category.
	CreateCategory(ctx context.Context, spec CategorySpec) (*Category, error)

	// Values returns all records of a category.
	Values(ctx context.Context, categoryID int64) ([]Value, error)

	// CreateValue appends a record and returns it with its assigned id.
	CreateValue(ctx context.Context, categoryID int64, payload string) (Value, error)

	// UpdateValue replaces a record's payload.
	UpdateValue(ctx context.Context, categoryID, valueID int64, payload string) error

	// DeleteValue removes a record.
	DeleteValue(ctx context.Context, categoryID, valueID int64) error
}

// EnsureCategory returns the category with the given shorty, creating it
// when absent.
func EnsureCategory(ctx context.Context, s Store, shorty, name string) (*Category, error) {
	cat, err := s.GetCategory(ctx, shorty)
	if err != nil {
		return nil, err
	}
	if cat != nil {
		return cat, nil
	}
	return s.CreateCategory(ctx, CategorySpec{Shorty: shorty, Name: name})
}
