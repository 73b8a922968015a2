// Package sqlstore implements the dao.Store contract on top of a
// database/sql handle. The sqlite and postgres packages wrap it with their
// driver setup; everything dialect-specific flows through sqlgen.
package sqlstore

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"

	"daocore/internal/infra/persistence/sqlgen"
	"daocore/pkg/dao"
)

// Compile-time contract assertion ensuring the store satisfies the backend interface.
var _ dao.Store = (*Store)(nil)

// Store executes generated SQL against any database/sql backend.
type Store struct {
	db      *sql.DB
	schema  *dao.Schema
	dialect sqlgen.Dialect
}

// New validates the schema, applies the generated DDL, and returns a ready
// store. The caller owns driver selection and connection setup.
func New(ctx context.Context, db *sql.DB, schema *dao.Schema, dialect sqlgen.Dialect) (*Store, error) {
	if schema == nil {
		return nil, dao.InvalidArgumentError{Op: "open sql store", Reason: "schema must not be nil"}
	}
	if !dialect.Valid() {
		return nil, dao.InvalidArgumentError{Op: "open sql store", Reason: "unknown dialect " + string(dialect)}
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	ddl, err := sqlgen.SchemaDDL(schema, dialect)
	if err != nil {
		return nil, err
	}
	for _, stmt := range sqlgen.SplitStatements(ddl) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("execute ddl: %w", err)
		}
	}
	return &Store{db: db, schema: schema, dialect: dialect}, nil
}

// DB exposes the underlying handle for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Schema returns the schema the store was built over.
func (s *Store) Schema() *dao.Schema { return s.schema }

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

func (s *Store) entity(name string) (dao.Entity, error) {
	e, ok := s.schema.Entity(name)
	if !ok {
		return dao.Entity{}, dao.NotFoundError{Entity: name}
	}
	return e, nil
}

// scanRecords drains the result set into property-keyed records, applying
// each column's conversion type to the raw driver values.
func scanRecords(rows *sql.Rows, e dao.Entity) ([]dao.Record, error) {
	columns, properties := sqlgen.SelectColumns(e)
	var out []dao.Record
	for rows.Next() {
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		record := make(dao.Record, len(columns))
		for i, column := range columns {
			typ, _ := e.Names.TypeForColumn(column)
			value, err := typ.FromStorage(raw[i])
			if err != nil {
				return nil, err
			}
			if b, ok := value.([]byte); ok {
				value = string(b)
			}
			record[properties[i]] = value
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// FindByID returns the record stored under id, if any.
func (s *Store) FindByID(ctx context.Context, entity string, id any) (dao.Record, bool, error) {
	e, err := s.entity(entity)
	if err != nil {
		return nil, false, err
	}
	search := dao.NewSearch(dao.Equal(e.Names.IDProperty(), id))
	search.Limit = 1
	records, err := s.query(ctx, e, search)
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return records[0], true, nil
}

func (s *Store) query(ctx context.Context, e dao.Entity, search dao.Search) ([]dao.Record, error) {
	if err := search.Validate(e.Names); err != nil {
		return nil, err
	}
	stmt, _, err := sqlgen.Select(e, search, s.dialect)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", e.Table, err)
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows, e)
}

// FindAll returns all records ordered by identifier, windowed by start and
// limit (limit 0 means unbounded).
func (s *Store) FindAll(ctx context.Context, entity string, start, limit int) ([]dao.Record, error) {
	return s.FindBySearch(ctx, entity, dao.Search{Start: start, Limit: limit})
}

// FindBySearch executes the search as generated SQL.
func (s *Store) FindBySearch(ctx context.Context, entity string, search dao.Search) ([]dao.Record, error) {
	e, err := s.entity(entity)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, e, search)
}

// FindOneBySearch returns the first match of the search, if any.
func (s *Store) FindOneBySearch(ctx context.Context, entity string, search dao.Search) (dao.Record, bool, error) {
	search.Start = 0
	search.Limit = 1
	records, err := s.FindBySearch(ctx, entity, search)
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return records[0], true, nil
}

// CountAll returns the number of rows in the entity's table.
func (s *Store) CountAll(ctx context.Context, entity string) (int64, error) {
	return s.CountBySearch(ctx, entity, dao.Search{})
}

// CountBySearch counts the rows matching the search restrictions.
func (s *Store) CountBySearch(ctx context.Context, entity string, search dao.Search) (int64, error) {
	e, err := s.entity(entity)
	if err != nil {
		return 0, err
	}
	if err := search.Validate(e.Names); err != nil {
		return 0, err
	}
	stmt, err := sqlgen.Count(e, search, s.dialect)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := s.db.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", e.Table, err)
	}
	return count, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) saveOne(ctx context.Context, ex execer, e dao.Entity, record dao.Record) (dao.Record, error) {
	stored := record.Clone()
	if _, ok := stored.Identifier(e.Names); !ok {
		stored[e.Names.IDProperty()] = s.newID()
	}
	stmt, err := sqlgen.Upsert(e, stored, s.dialect)
	if err != nil {
		return nil, err
	}
	if _, err := ex.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
		return nil, fmt.Errorf("upsert %s: %w", e.Table, err)
	}
	return stored, nil
}

// Save inserts the record when it carries no identifier value (assigning a
// generated one) and upserts otherwise.
func (s *Store) Save(ctx context.Context, entity string, record dao.Record) (dao.Record, error) {
	e, err := s.entity(entity)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, dao.InvalidArgumentError{Op: "save", Reason: "record must not be nil"}
	}
	return s.saveOne(ctx, s.db, e, record)
}

// SaveSet saves all records in one transaction.
func (s *Store) SaveSet(ctx context.Context, entity string, records []dao.Record) (out []dao.Record, retErr error) {
	e, err := s.entity(entity)
	if err != nil {
		return nil, err
	}
	for i, rec := range records {
		if rec == nil {
			return nil, dao.InvalidArgumentError{Op: "save set", Reason: fmt.Sprintf("record %d must not be nil", i)}
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	out = make([]dao.Record, 0, len(records))
	for _, rec := range records {
		stored, err := s.saveOne(ctx, tx, e, rec)
		if err != nil {
			retErr = err
			return nil, retErr
		}
		out = append(out, stored)
	}
	if err := tx.Commit(); err != nil {
		retErr = err
		return nil, retErr
	}
	return out, nil
}

// Delete removes the record stored under id. Missing records return
// NotFoundError.
func (s *Store) Delete(ctx context.Context, entity string, id any) error {
	e, err := s.entity(entity)
	if err != nil {
		return err
	}
	stmt, err := sqlgen.DeleteByID(e, id, s.dialect)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", e.Table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return dao.NotFoundError{Entity: entity, ID: fmt.Sprint(id)}
	}
	return nil
}

// DeleteSet removes every listed record in one transaction, skipping
// identifiers that are not present.
func (s *Store) DeleteSet(ctx context.Context, entity string, ids []any) (retErr error) {
	e, err := s.entity(entity)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, id := range ids {
		stmt, err := sqlgen.DeleteByID(e, id, s.dialect)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
			retErr = fmt.Errorf("delete %s: %w", e.Table, err)
			return retErr
		}
	}
	retErr = tx.Commit()
	return retErr
}

// DeleteBySearch removes every row matching the search restrictions and
// returns the number removed.
func (s *Store) DeleteBySearch(ctx context.Context, entity string, search dao.Search) (int64, error) {
	e, err := s.entity(entity)
	if err != nil {
		return 0, err
	}
	if err := search.Validate(e.Names); err != nil {
		return 0, err
	}
	stmt, err := sqlgen.DeleteBySearch(e, search, s.dialect)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", e.Table, err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
