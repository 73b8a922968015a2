// Package core wires the mapping registry, a storage backend, and the
// ambient observability concerns into one service surface.
package core

import (
	"context"
	"time"

	"daocore/pkg/dao"
)

// Service exposes the data access operations over a configured backend,
// logging and measuring every call.
type Service struct {
	store   dao.Store
	schema  *dao.Schema
	logger  Logger
	metrics MetricsRecorder
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithLogger replaces the default no-op logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics replaces the default no-op metrics recorder.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(s *Service) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// NewService constructs a service over the supplied store and schema.
func NewService(store dao.Store, schema *dao.Schema, opts ...Option) *Service {
	s := &Service{
		store:   store,
		schema:  schema,
		logger:  noopLogger{},
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage backend.
func (s *Service) Store() dao.Store { return s.store }

// Schema returns the entity schema the service operates on.
func (s *Service) Schema() *dao.Schema { return s.schema }

func (s *Service) observe(ctx context.Context, operation, entity string, started time.Time, err error) {
	duration := time.Since(started)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	if err != nil {
		s.logger.Error("operation failed", "operation", operation, "entity", entity, "duration", duration, "error", err)
		return
	}
	s.logger.Debug("operation completed", "operation", operation, "entity", entity, "duration", duration)
}

// FindByID returns the record stored under id, if any.
func (s *Service) FindByID(ctx context.Context, entity string, id any) (record dao.Record, found bool, err error) {
	started := time.Now()
	defer func() { s.observe(ctx, "find_by_id", entity, started, err) }()
	record, found, err = s.store.FindByID(ctx, entity, id)
	return record, found, err
}

// FindAll returns all records of the entity, windowed by start and limit.
func (s *Service) FindAll(ctx context.Context, entity string, start, limit int) (records []dao.Record, err error) {
	started := time.Now()
	defer func() { s.observe(ctx, "find_all", entity, started, err) }()
	records, err = s.store.FindAll(ctx, entity, start, limit)
	return records, err
}

// FindBySearch returns the records matching the search.
func (s *Service) FindBySearch(ctx context.Context, entity string, search dao.Search) (records []dao.Record, err error) {
	started := time.Now()
	defer func() { s.observe(ctx, "find_by_search", entity, started, err) }()
	records, err = s.store.FindBySearch(ctx, entity, search)
	return records, err
}

// FindOneBySearch returns the first record matching the search, if any.
func (s *Service) FindOneBySearch(ctx context.Context, entity string, search dao.Search) (record dao.Record, found bool, err error) {
	started := time.Now()
	defer func() { s.observe(ctx, "find_one_by_search", entity, started, err) }()
	record, found, err = s.store.FindOneBySearch(ctx, entity, search)
	return record, found, err
}

// CountAll returns the number of stored records for the entity.
func (s *Service) CountAll(ctx context.Context, entity string) (count int64, err error) {
	started := time.Now()
	defer func() { s.observe(ctx, "count_all", entity, started, err) }()
	count, err = s.store.CountAll(ctx, entity)
	return count, err
}

// CountBySearch counts the records matching the search restrictions.
func (s *Service) CountBySearch(ctx context.Context, entity string, search dao.Search) (count int64, err error) {
	started := time.Now()
	defer func() { s.observe(ctx, "count_by_search", entity, started, err) }()
	count, err = s.store.CountBySearch(ctx, entity, search)
	return count, err
}

// Save persists the record, assigning an identifier when it carries none.
func (s *Service) Save(ctx context.Context, entity string, record dao.Record) (stored dao.Record, err error) {
	started := time.Now()
	defer func() { s.observe(ctx, "save", entity, started, err) }()
	stored, err = s.store.Save(ctx, entity, record)
	return stored, err
}

// SaveSet persists all records atomically.
func (s *Service) SaveSet(ctx context.Context, entity string, records []dao.Record) (stored []dao.Record, err error) {
	started := time.Now()
	defer func() { s.observe(ctx, "save_set", entity, started, err) }()
	stored, err = s.store.SaveSet(ctx, entity, records)
	return stored, err
}

// Delete removes the record stored under id.
func (s *Service) Delete(ctx context.Context, entity string, id any) (err error) {
	started := time.Now()
	defer func() { s.observe(ctx, "delete", entity, started, err) }()
	err = s.store.Delete(ctx, entity, id)
	return err
}

// DeleteSet removes the listed records atomically, skipping missing ids.
func (s *Service) DeleteSet(ctx context.Context, entity string, ids []any) (err error) {
	started := time.Now()
	defer func() { s.observe(ctx, "delete_set", entity, started, err) }()
	err = s.store.DeleteSet(ctx, entity, ids)
	return err
}

// DeleteBySearch removes every record matching the search and returns the
// number removed.
func (s *Service) DeleteBySearch(ctx context.Context, entity string, search dao.Search) (removed int64, err error) {
	started := time.Now()
	defer func() { s.observe(ctx, "delete_by_search", entity, started, err) }()
	removed, err = s.store.DeleteBySearch(ctx, entity, search)
	return removed, err
}

// Close releases the backend.
func (s *Service) Close() error { return s.store.Close() }
