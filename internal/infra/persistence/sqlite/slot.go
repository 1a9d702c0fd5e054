// Package sqlite provides a persistence slot that keeps snapshots in a single
// SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"chvcore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion ensuring Slot satisfies the domain port.
var _ domain.PersistenceSlot = (*Slot)(nil)

const defaultPath = "chvcore.db"

// Slot persists snapshot blobs to the state table of an SQLite file, one row
// per key.
type Slot struct {
	db   *sql.DB
	path string
}

// NewSlot opens (creating if needed) the SQLite file at path and ensures the
// state table exists. An empty path selects ./chvcore.db.
func NewSlot(path string) (*Slot, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Slot{db: db, path: path}, nil
}

// Save upserts blob under key.
func (s *Slot) Save(ctx context.Context, key string, blob []byte) error {
	if blob == nil {
		blob = []byte{}
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
		key, blob); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Load returns the blob stored under key, or nil when absent.
func (s *Slot) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return payload, nil
}

// Path returns the database file path.
func (s *Slot) Path() string { return s.path }

// Close releases the database handle.
func (s *Slot) Close() error { return s.db.Close() }
