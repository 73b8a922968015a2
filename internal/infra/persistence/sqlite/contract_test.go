package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"daocore/internal/infra/persistence/memory"
	"daocore/pkg/dao"
)

// contractSchema mirrors the searchable surface both backends must agree on:
// typed columns, an untyped text column, and a foreign-key alias.
func contractSchema(t *testing.T) *dao.Schema {
	t.Helper()
	names := dao.NewNames()
	for property, column := range map[string]string{
		"id":     "ID",
		"email":  "EMAIL_ADDR",
		"age":    "AGE",
		"active": "IS_ACTIVE",
		"owner":  "OWNER_ID",
	} {
		if err := names.SetNameMapping(property, column, dao.TypeNone); err != nil {
			t.Fatalf("map %s: %v", property, err)
		}
	}
	if err := names.SetTypeForColumn("AGE", dao.TypeInt); err != nil {
		t.Fatalf("age type: %v", err)
	}
	if err := names.SetTypeForColumn("IS_ACTIVE", dao.TypeBool); err != nil {
		t.Fatalf("active type: %v", err)
	}
	if err := names.SetForeignKeyMapping("creator.id", "OWNER_ID"); err != nil {
		t.Fatalf("foreign key: %v", err)
	}
	schema := dao.NewSchema()
	if err := schema.Register(dao.Entity{Name: "user", Table: "USERS", Names: names}); err != nil {
		t.Fatalf("register: %v", err)
	}
	return schema
}

// normalize fills every schema property so a record with an omitted value
// compares equal to one carrying an explicit nil.
func normalize(records []dao.Record, names *dao.Names) []map[string]any {
	properties := names.PropertyNames()
	out := make([]map[string]any, len(records))
	for i, rec := range records {
		m := make(map[string]any, len(properties))
		for _, property := range properties {
			m[property] = rec[property]
		}
		out[i] = m
	}
	return out
}

// TestBackendEquivalence runs the same searches against the in-process and
// sqlite backends and requires identical results.
func TestBackendEquivalence(t *testing.T) {
	ctx := context.Background()
	schema := contractSchema(t)
	e, _ := schema.Entity("user")

	memStore := memory.NewStore(schema)
	sqlStore, err := NewStore(ctx, filepath.Join(t.TempDir(), "contract.db"), schema)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = sqlStore.Close() }()

	seed := []dao.Record{
		{"id": "u1", "email": "ann@example.org", "age": int64(30), "active": true, "owner": "boss1"},
		{"id": "u2", "email": "bob@example.org", "age": int64(25), "active": false, "owner": "boss2"},
		{"id": "u3", "email": "cat@example.net", "age": int64(41), "active": true, "owner": "boss1"},
		{"id": "u4", "email": "dan@example.net", "age": int64(41), "active": false},
	}
	if _, err := memStore.SaveSet(ctx, "user", seed); err != nil {
		t.Fatalf("seed memory: %v", err)
	}
	if _, err := sqlStore.SaveSet(ctx, "user", seed); err != nil {
		t.Fatalf("seed sqlite: %v", err)
	}

	fkDesc := dao.NewSearch()
	fkDesc.Orders = []dao.Order{{Property: "creator", Descending: true}, {Property: "id"}}
	offsetOnly := dao.Search{Start: 2}
	windowed := dao.Search{Start: 1, Limit: 2}
	ageDesc := dao.NewSearch(dao.Equal("active", true))
	ageDesc.Orders = []dao.Order{{Property: "age", Descending: true}}
	disjunction := dao.NewSearch(dao.Equal("id", "u1"), dao.Equal("age", int64(41)))
	disjunction.Disjunction = true

	cases := map[string]dao.Search{
		"all":                  {},
		"fk alias equal":       dao.NewSearch(dao.Equal("creator", "boss1")),
		"fk alias order":       fkDesc,
		"age threshold":        dao.NewSearch(dao.Compare("age", dao.GreaterOrEqual, 30)),
		"like":                 dao.NewSearch(dao.Compare("email", dao.Like, "%example.net")),
		"in":                   dao.NewSearch(dao.Compare("id", dao.In, []any{"u2", "u4", "ghost"})),
		"empty in":             dao.NewSearch(dao.Compare("id", dao.In, []any{})),
		"null owner":           dao.NewSearch(dao.Compare("owner", dao.Null, nil)),
		"not null owner":       dao.NewSearch(dao.Compare("owner", dao.NotNull, nil)),
		"bool ordered by age":  ageDesc,
		"disjunction":          disjunction,
		"offset without limit": offsetOnly,
		"window":               windowed,
	}

	for name, search := range cases {
		t.Run(name, func(t *testing.T) {
			fromMemory, err := memStore.FindBySearch(ctx, "user", search)
			if err != nil {
				t.Fatalf("memory search: %v", err)
			}
			fromSQL, err := sqlStore.FindBySearch(ctx, "user", search)
			if err != nil {
				t.Fatalf("sqlite search: %v", err)
			}
			got := normalize(fromSQL, e.Names)
			want := normalize(fromMemory, e.Names)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("backends disagree:\nmemory %#v\nsqlite %#v", want, got)
			}

			memCount, err := memStore.CountBySearch(ctx, "user", search)
			if err != nil {
				t.Fatalf("memory count: %v", err)
			}
			sqlCount, err := sqlStore.CountBySearch(ctx, "user", search)
			if err != nil {
				t.Fatalf("sqlite count: %v", err)
			}
			if memCount != sqlCount {
				t.Fatalf("counts disagree: memory %d sqlite %d", memCount, sqlCount)
			}
		})
	}
}
