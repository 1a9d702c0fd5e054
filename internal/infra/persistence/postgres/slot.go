// Package postgres provides a persistence slot that keeps snapshots in a
// Postgres table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"chvcore/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion ensuring Slot satisfies the domain port.
var _ domain.PersistenceSlot = (*Slot)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/chvcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Slot persists snapshot blobs to the state table, one row per key.
type Slot struct {
	db *sql.DB
}

// NewSlot opens a Postgres connection using dsn (falling back to a local
// default), verifies it and ensures the state table exists.
func NewSlot(ctx context.Context, dsn string) (*Slot, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewSlotWithDB(ctx, db)
}

// NewSlotWithDB wraps an existing handle and ensures the state table exists.
func NewSlotWithDB(ctx context.Context, db *sql.DB) (*Slot, error) {
	if err := ensureStateTable(ctx, db); err != nil {
		return nil, err
	}
	return &Slot{db: db}, nil
}

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BYTEA NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

// Save upserts blob under key.
func (s *Slot) Save(ctx context.Context, key string, blob []byte) error {
	if blob == nil {
		blob = []byte{}
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`,
		key, blob); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Load returns the blob stored under key, or nil when absent.
func (s *Slot) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = $1`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return payload, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Slot) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Slot) Close() error { return s.db.Close() }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
