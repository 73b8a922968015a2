package dao

import (
	"errors"
	"reflect"
	"testing"
)

func TestSchemaRegisterAndLookup(t *testing.T) {
	s := NewSchema()
	users := NewNames()
	mustMap(t, users, "id", "ID")
	if err := s.Register(Entity{Name: "user", Table: "USERS", Names: users}); err != nil {
		t.Fatalf("register: %v", err)
	}

	e, ok := s.Entity("user")
	if !ok || e.Table != "USERS" {
		t.Fatalf("lookup failed: %#v ok=%v", e, ok)
	}
	if _, ok := s.Entity("ghost"); ok {
		t.Fatalf("expected miss for unknown entity")
	}

	groups := NewNames()
	mustMap(t, groups, "id", "ID")
	if err := s.Register(Entity{Name: "group", Table: "GROUPS", Names: groups}); err != nil {
		t.Fatalf("register second: %v", err)
	}
	if got := s.EntityNames(); !reflect.DeepEqual(got, []string{"group", "user"}) {
		t.Fatalf("expected sorted names, got %v", got)
	}
}

func TestSchemaRegisterRejections(t *testing.T) {
	s := NewSchema()
	n := NewNames()
	mustMap(t, n, "id", "ID")
	if err := s.Register(Entity{Name: "user", Table: "USERS", Names: n}); err != nil {
		t.Fatalf("register: %v", err)
	}

	var invalid InvalidArgumentError
	cases := []Entity{
		{Name: "", Table: "T", Names: n},
		{Name: "x", Table: "", Names: n},
		{Name: "x", Table: "T", Names: nil},
		{Name: "user", Table: "T2", Names: n},
		{Name: "other", Table: "USERS", Names: n},
	}
	for i, e := range cases {
		if err := s.Register(e); !errors.As(err, &invalid) {
			t.Fatalf("case %d: expected InvalidArgumentError, got %v", i, err)
		}
	}
}

func TestSchemaValidate(t *testing.T) {
	s := NewSchema()
	empty := NewNames()
	if err := s.Register(Entity{Name: "bare", Table: "BARE", Names: empty}); err != nil {
		t.Fatalf("register: %v", err)
	}
	var invalid InvalidArgumentError
	if err := s.Validate(); !errors.As(err, &invalid) {
		t.Fatalf("expected failure for entity without mappings, got %v", err)
	}

	mustMap(t, empty, "name", "NAME")
	// identifier still defaults to "id" which is unmapped
	if err := s.Validate(); !errors.As(err, &invalid) {
		t.Fatalf("expected failure for unmapped identifier, got %v", err)
	}

	mustMap(t, empty, "id", "ID")
	if err := s.Validate(); err != nil {
		t.Fatalf("expected valid schema, got %v", err)
	}
}
