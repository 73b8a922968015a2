// Package memory provides an in-memory implementation of the dao.Store
// contract used for tests and ephemeral environments, and as the reference
// the SQL backends are checked against.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"daocore/pkg/dao"
)

// Compile-time contract assertion ensuring the store satisfies the backend interface.
var _ dao.Store = (*Store)(nil)

// Store keeps every entity type in a map keyed by the record identifier.
// Single-record mutations happen under the write lock; batch mutations work
// on a copy of the entity table and swap it in atomically.
type Store struct {
	mu     sync.RWMutex
	schema *dao.Schema
	state  map[string]map[string]dao.Record
}

// NewStore constructs an empty store over the provided schema.
func NewStore(schema *dao.Schema) *Store {
	if schema == nil {
		schema = dao.NewSchema()
	}
	return &Store{
		schema: schema,
		state:  make(map[string]map[string]dao.Record),
	}
}

// Snapshot captures a point-in-time clone of every entity table.
type Snapshot map[string]map[string]dao.Record

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(Snapshot, len(s.state))
	for entity, table := range s.state {
		cloned := make(map[string]dao.Record, len(table))
		for id, rec := range table {
			cloned[id] = rec.Clone()
		}
		out[entity] = cloned
	}
	return out
}

// ImportState replaces the store state with the provided snapshot. Entity
// types not present in the schema are dropped.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := make(map[string]map[string]dao.Record, len(snapshot))
	for entity, table := range snapshot {
		if _, ok := s.schema.Entity(entity); !ok {
			continue
		}
		cloned := make(map[string]dao.Record, len(table))
		for id, rec := range table {
			cloned[id] = rec.Clone()
		}
		state[entity] = cloned
	}
	s.state = state
}

// Schema returns the schema the store was built over.
func (s *Store) Schema() *dao.Schema {
	return s.schema
}

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

func idKey(id any) string {
	return fmt.Sprint(id)
}

// FindByID returns the record stored under id, if any.
func (s *Store) FindByID(_ context.Context, entity string, id any) (dao.Record, bool, error) {
	if _, err := s.entity(entity); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.state[entity][idKey(id)]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

// FindAll returns all records ordered by identifier, windowed by start and
// limit (limit 0 means unbounded).
func (s *Store) FindAll(ctx context.Context, entity string, start, limit int) ([]dao.Record, error) {
	return s.FindBySearch(ctx, entity, dao.Search{Start: start, Limit: limit})
}

// FindBySearch evaluates the search in process against the entity table.
func (s *Store) FindBySearch(_ context.Context, entity string, search dao.Search) ([]dao.Record, error) {
	e, err := s.entity(entity)
	if err != nil {
		return nil, err
	}
	if err := search.Validate(e.Names); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchLocked(e, entity, search)
}

func (s *Store) searchLocked(e dao.Entity, entity string, search dao.Search) ([]dao.Record, error) {
	var out []dao.Record
	for _, rec := range s.state[entity] {
		ok, err := matchRecord(e.Names, rec, search)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec.Clone())
		}
	}
	if err := sortRecords(out, e.Names, search.Orders); err != nil {
		return nil, err
	}
	return window(out, search.Start, search.Limit), nil
}

// FindOneBySearch returns the first match of the search, if any.
func (s *Store) FindOneBySearch(ctx context.Context, entity string, search dao.Search) (dao.Record, bool, error) {
	search.Start = 0
	search.Limit = 1
	matches, err := s.FindBySearch(ctx, entity, search)
	if err != nil {
		return nil, false, err
	}
	if len(matches) == 0 {
		return nil, false, nil
	}
	return matches[0], true, nil
}

// CountAll returns the number of records stored for the entity type.
func (s *Store) CountAll(_ context.Context, entity string) (int64, error) {
	if _, err := s.entity(entity); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.state[entity])), nil
}

// CountBySearch counts the records matching the search restrictions. The
// window is ignored for counting.
func (s *Store) CountBySearch(_ context.Context, entity string, search dao.Search) (int64, error) {
	e, err := s.entity(entity)
	if err != nil {
		return 0, err
	}
	if err := search.Validate(e.Names); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, rec := range s.state[entity] {
		ok, err := matchRecord(e.Names, rec, search)
		if err != nil {
			return 0, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

// Save inserts the record when it carries no identifier value (assigning a
// generated one) and replaces the stored record otherwise.
func (s *Store) Save(_ context.Context, entity string, record dao.Record) (dao.Record, error) {
	e, err := s.entity(entity)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, dao.InvalidArgumentError{Op: "save", Reason: "record must not be nil"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := s.saveLocked(e, entity, record)
	return saved.Clone(), nil
}

func (s *Store) saveLocked(e dao.Entity, entity string, record dao.Record) dao.Record {
	stored := record.Clone()
	id, ok := stored.Identifier(e.Names)
	if !ok {
		id = s.newID()
		stored[e.Names.IDProperty()] = id
	}
	table := s.state[entity]
	if table == nil {
		table = make(map[string]dao.Record)
		s.state[entity] = table
	}
	table[idKey(id)] = stored
	return stored
}

// SaveSet saves all records atomically: either every record is stored or
// none is.
func (s *Store) SaveSet(_ context.Context, entity string, records []dao.Record) ([]dao.Record, error) {
	e, err := s.entity(entity)
	if err != nil {
		return nil, err
	}
	for i, rec := range records {
		if rec == nil {
			return nil, dao.InvalidArgumentError{Op: "save set", Reason: fmt.Sprintf("record %d must not be nil", i)}
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	table := make(map[string]dao.Record, len(s.state[entity])+len(records))
	for id, rec := range s.state[entity] {
		table[id] = rec
	}
	out := make([]dao.Record, 0, len(records))
	for _, rec := range records {
		stored := rec.Clone()
		id, ok := stored.Identifier(e.Names)
		if !ok {
			id = s.newID()
			stored[e.Names.IDProperty()] = id
		}
		table[idKey(id)] = stored
		out = append(out, stored.Clone())
	}
	s.state[entity] = table
	return out, nil
}

// Delete removes the record stored under id. Missing records return
// NotFoundError.
func (s *Store) Delete(_ context.Context, entity string, id any) error {
	if _, err := s.entity(entity); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := idKey(id)
	if _, ok := s.state[entity][key]; !ok {
		return dao.NotFoundError{Entity: entity, ID: key}
	}
	delete(s.state[entity], key)
	return nil
}

// DeleteSet removes every listed record in one atomic step, skipping
// identifiers that are not present.
func (s *Store) DeleteSet(_ context.Context, entity string, ids []any) error {
	if _, err := s.entity(entity); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	table := make(map[string]dao.Record, len(s.state[entity]))
	for id, rec := range s.state[entity] {
		table[id] = rec
	}
	for _, id := range ids {
		delete(table, idKey(id))
	}
	s.state[entity] = table
	return nil
}

// DeleteBySearch removes every record matching the search restrictions and
// returns the number removed.
func (s *Store) DeleteBySearch(_ context.Context, entity string, search dao.Search) (int64, error) {
	e, err := s.entity(entity)
	if err != nil {
		return 0, err
	}
	if err := search.Validate(e.Names); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	table := s.state[entity]
	var doomed []string
	for id, rec := range table {
		ok, err := matchRecord(e.Names, rec, search)
		if err != nil {
			return 0, err
		}
		if ok {
			doomed = append(doomed, id)
		}
	}
	for _, id := range doomed {
		delete(table, id)
	}
	return int64(len(doomed)), nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

func window(records []dao.Record, start, limit int) []dao.Record {
	if start >= len(records) {
		return nil
	}
	records = records[start:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}

func sortRecords(records []dao.Record, names *dao.Names, orders []dao.Order) error {
	if len(orders) == 0 {
		orders = []dao.Order{{Property: names.IDProperty()}}
	}
	keys := make([]string, len(orders))
	for i, order := range orders {
		keys[i] = recordKey(names, order.Property)
	}
	var sortErr error
	sort.SliceStable(records, func(i, j int) bool {
		for o, order := range orders {
			cmp, err := compareValues(records[i][keys[o]], records[j][keys[o]])
			if err != nil {
				if sortErr == nil {
					sortErr = err
				}
				return false
			}
			if cmp == 0 {
				continue
			}
			if order.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return sortErr
}
