package core

import (
	"context"
	"fmt"
	"os"

	"daocore/internal/infra/persistence/memory"
	"daocore/internal/infra/persistence/postgres"
	"daocore/internal/infra/persistence/sqlite"
	"daocore/pkg/dao"
)

// StorageDriver identifies a concrete storage backend.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenStore selects a backend for the schema using environment variables.
// Defaults to sqlite when unset.
//
//	DAOCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	DAOCORE_SQLITE_PATH:    path to sqlite file (default ./daocore.db)
//	DAOCORE_POSTGRES_DSN:   postgres DSN when driver=postgres
func OpenStore(ctx context.Context, schema *dao.Schema) (dao.Store, error) {
	driver := os.Getenv("DAOCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		if err := schema.Validate(); err != nil {
			return nil, err
		}
		return memory.NewStore(schema), nil
	case StorageSQLite:
		return sqlite.NewStore(ctx, os.Getenv("DAOCORE_SQLITE_PATH"), schema)
	case StoragePostgres:
		return postgres.NewStore(ctx, os.Getenv("DAOCORE_POSTGRES_DSN"), schema)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
