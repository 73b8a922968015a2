// Package postgres provides a Postgres-backed dao.Store through the pgx
// stdlib adapter.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"daocore/internal/infra/persistence/sqlgen"
	"daocore/internal/infra/persistence/sqlstore"
	"daocore/pkg/dao"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/daocore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OverrideSQLOpen swaps the database opener for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driver, dsn string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}

// Store persists entity tables in Postgres.
type Store struct {
	*sqlstore.Store
}

// NewStore connects using the provided DSN (falling back to a local default)
// and applies the schema's generated DDL.
func NewStore(ctx context.Context, dsn string, schema *dao.Schema) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	open := sqlOpen
	openMu.Unlock()
	db, err := open(defaultDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	inner, err := sqlstore.New(ctx, db, schema, sqlgen.DialectPostgres)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: inner}, nil
}
