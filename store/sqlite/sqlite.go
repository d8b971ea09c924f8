/*
Package sqlite provides a SQLite-backed implementation of kvstore.Store.

PURPOSE:
  The dev server and integration tests need the custom-data primitive
  without a live host platform. This store reproduces the host contract
  on two tables: categories looked up by shorty, values as opaque JSON
  payloads with auto-assigned ids.

CONTRACT NOTES:
  - A value's payload column is NOT NULL: the host guarantees a returned
    record's value field is never null, and this schema enforces the same.
  - Deleting a value is a hard delete; retention policies (settings
    backups, activity logs) live in the service layer, not here.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/timetrack.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - kvstore/kvstore.go: Interface definition
  - kvstore/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stundenwerk/timetrack-engine/kvstore"
)

// Store implements kvstore.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ kvstore.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		shorty TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS category_values (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category_id INTEGER NOT NULL REFERENCES categories(id),
		payload TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now')),
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_values_category
		ON category_values(category_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) GetCategory(ctx context.Context, shorty string) (*kvstore.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, shorty, name FROM categories WHERE shorty = ?`, shorty)

	var cat kvstore.Category
	if err := row.Scan(&cat.ID, &cat.Shorty, &cat.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cat, nil
}

func (s *Store) CreateCategory(ctx context.Context, spec kvstore.CategorySpec) (*kvstore.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (shorty, name) VALUES (?, ?)
		 ON CONFLICT(shorty) DO UPDATE SET name = excluded.name`,
		spec.Shorty, spec.Name)
	if err != nil {
		return nil, err
	}

	var id int64
	row := s.db.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE shorty = ?`, spec.Shorty)
	if err := row.Scan(&id); err != nil {
		return nil, err
	}
	return &kvstore.Category{ID: id, Shorty: spec.Shorty, Name: spec.Name}, nil
}

func (s *Store) Values(ctx context.Context, categoryID int64) ([]kvstore.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload FROM category_values WHERE category_id = ? ORDER BY id`,
		categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []kvstore.Value
	for rows.Next() {
		var v kvstore.Value
		if err := rows.Scan(&v.ID, &v.Payload); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (s *Store) CreateValue(ctx context.Context, categoryID int64, payload string) (kvstore.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO category_values (category_id, payload) VALUES (?, ?)`,
		categoryID, payload)
	if err != nil {
		return kvstore.Value{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return kvstore.Value{}, err
	}
	return kvstore.Value{ID: id, Payload: payload}, nil
}

func (s *Store) UpdateValue(ctx context.Context, categoryID, valueID int64, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE category_values SET payload = ?, updated_at = datetime('now')
		 WHERE id = ? AND category_id = ?`,
		payload, valueID, categoryID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return kvstore.ErrValueMissing
	}
	return nil
}

func (s *Store) DeleteValue(ctx context.Context, categoryID, valueID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM category_values WHERE id = ? AND category_id = ?`,
		valueID, categoryID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return kvstore.ErrValueMissing
	}
	return nil
}
