package dao

import "context"

// Store is the backend contract shared by the memory, sqlite and postgres
// implementations. Every operation addresses one registered entity type by
// name and works in property-keyed records; the backend translates to
// columns through the entity's Names registry.
//
// Save inserts when the record carries no identifier value (assigning a
// generated one) and updates otherwise. SaveSet and DeleteSet are atomic per
// call. Delete of a missing record returns NotFoundError; DeleteSet skips
// missing identifiers.
type Store interface {
	FindByID(ctx context.Context, entity string, id any) (Record, bool, error)
	FindAll(ctx context.Context, entity string, start, limit int) ([]Record, error)
	FindBySearch(ctx context.Context, entity string, search Search) ([]Record, error)
	FindOneBySearch(ctx context.Context, entity string, search Search) (Record, bool, error)
	CountAll(ctx context.Context, entity string) (int64, error)
	CountBySearch(ctx context.Context, entity string, search Search) (int64, error)
	Save(ctx context.Context, entity string, record Record) (Record, error)
	SaveSet(ctx context.Context, entity string, records []Record) ([]Record, error)
	Delete(ctx context.Context, entity string, id any) error
	DeleteSet(ctx context.Context, entity string, ids []any) error
	DeleteBySearch(ctx context.Context, entity string, search Search) (int64, error)
	Close() error
}
