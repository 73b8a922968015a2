// Package sqlite provides a file-backed dao.Store using the pure Go sqlite
// driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"daocore/internal/infra/persistence/sqlgen"
	"daocore/internal/infra/persistence/sqlstore"
	"daocore/pkg/dao"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// DefaultPath is used when no database path is configured.
const DefaultPath = "daocore.db"

// Store persists entity tables in a single sqlite file.
type Store struct {
	*sqlstore.Store
	path string
}

// NewStore opens (creating if needed) the sqlite database at path and
// applies the schema's generated DDL.
func NewStore(ctx context.Context, path string, schema *dao.Schema) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent transactions.
	db.SetMaxOpenConns(1)
	inner, err := sqlstore.New(ctx, db, schema, sqlgen.DialectSQLite)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: inner, path: path}, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }
