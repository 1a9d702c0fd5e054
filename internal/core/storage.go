package core

import (
	"context"
	"errors"
	"fmt"

	"chvcore/internal/blob"
	"chvcore/internal/infra/persistence/memory"
	"chvcore/internal/infra/persistence/postgres"
	"chvcore/internal/infra/persistence/redis"
	"chvcore/internal/infra/persistence/sqlite"
	"chvcore/pkg/domain"
)

// StorageDriver identifies a concrete persistence slot implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageRedis    StorageDriver = "redis"    // Redis string key
	StorageBlob     StorageDriver = "blob"     // object in the configured blob store
)

// StorageOptions configures OpenPersistenceSlot.
type StorageOptions struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
	RedisURL    string
	// Blob is required when Driver is StorageBlob.
	Blob blob.Store
}

// OpenPersistenceSlot selects a slot backend. An empty driver selects sqlite.
// Slots holding connections also implement io.Closer.
func OpenPersistenceSlot(ctx context.Context, opts StorageOptions) (domain.PersistenceSlot, error) {
	driver := opts.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewSlot(), nil
	case StorageSQLite:
		return sqlite.NewSlot(opts.SQLitePath)
	case StoragePostgres:
		return postgres.NewSlot(ctx, opts.PostgresDSN)
	case StorageRedis:
		return redis.Open(ctx, opts.RedisURL)
	case StorageBlob:
		if opts.Blob == nil {
			return nil, errors.New("blob slot requires a blob store")
		}
		return blob.NewSlot(opts.Blob), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
