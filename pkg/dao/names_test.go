package dao

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func mustMap(t *testing.T, n *Names, property, column string) {
	t.Helper()
	if err := n.SetNameMapping(property, column, TypeNone); err != nil {
		t.Fatalf("set name mapping %s->%s: %v", property, column, err)
	}
}

func TestSetNameMappingRoundTrip(t *testing.T) {
	n := NewNames()
	mustMap(t, n, "name", "USERNAME")

	column, ok := n.ColumnForProperty("name")
	if !ok || column != "USERNAME" {
		t.Fatalf("expected USERNAME, got %q ok=%v", column, ok)
	}
	property, ok := n.PropertyForColumn("USERNAME")
	if !ok || property != "name" {
		t.Fatalf("expected name, got %q ok=%v", property, ok)
	}
}

func TestSetNameMappingRejectsEmptyArguments(t *testing.T) {
	n := NewNames()
	var invalid InvalidArgumentError
	if err := n.SetNameMapping("", "COL", TypeNone); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidArgumentError for empty property, got %v", err)
	}
	if err := n.SetNameMapping("prop", "", TypeNone); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidArgumentError for empty column, got %v", err)
	}
}

func TestSetNameMappingConflictLeavesStateUntouched(t *testing.T) {
	n := NewNames()
	mustMap(t, n, "email", "EMAIL_ADDR")
	mustMap(t, n, "name", "USERNAME")

	cases := []struct {
		label    string
		property string
		column   string
	}{
		{"property reused", "email", "OTHER_COL"},
		{"column reused", "other", "EMAIL_ADDR"},
		{"both reused crosswise", "email", "USERNAME"},
	}
	for _, tc := range cases {
		var conflict InconsistentMappingError
		if err := n.SetNameMapping(tc.property, tc.column, TypeNone); !errors.As(err, &conflict) {
			t.Fatalf("%s: expected InconsistentMappingError, got %v", tc.label, err)
		}
		if column, _ := n.ColumnForProperty("email"); column != "EMAIL_ADDR" {
			t.Fatalf("%s: email mapping disturbed: %q", tc.label, column)
		}
		if column, _ := n.ColumnForProperty("name"); column != "USERNAME" {
			t.Fatalf("%s: name mapping disturbed: %q", tc.label, column)
		}
		if got := n.PropertyNames(); !reflect.DeepEqual(got, []string{"email", "name"}) {
			t.Fatalf("%s: property names disturbed: %v", tc.label, got)
		}
		if got := n.ColumnNames(); !reflect.DeepEqual(got, []string{"EMAIL_ADDR", "USERNAME"}) {
			t.Fatalf("%s: column names disturbed: %v", tc.label, got)
		}
	}
}

func TestSetNameMappingIdempotentForSamePair(t *testing.T) {
	n := NewNames()
	mustMap(t, n, "name", "USERNAME")
	if err := n.SetNameMapping("name", "USERNAME", TypeNone); err != nil {
		t.Fatalf("re-registering identical pair: %v", err)
	}
	if got := len(n.PropertyNames()); got != 1 {
		t.Fatalf("expected 1 property, got %d", got)
	}
}

func TestIdentifierProperty(t *testing.T) {
	n := NewNames()
	if got := n.IDProperty(); got != DefaultIDProperty {
		t.Fatalf("expected default %q, got %q", DefaultIDProperty, got)
	}

	var invalid InvalidArgumentError
	if err := n.SetIdentifierProperty("id"); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidArgumentError for unmapped property, got %v", err)
	}

	mustMap(t, n, "id", "ID")
	if err := n.SetIdentifierProperty("id"); err != nil {
		t.Fatalf("set identifier: %v", err)
	}
	if got := n.IDProperty(); got != "id" {
		t.Fatalf("expected id, got %q", got)
	}
}

func TestForeignKeyMapping(t *testing.T) {
	n := NewNames()
	mustMap(t, n, "ownerId", "COL")

	var invalid InvalidArgumentError
	if err := n.SetForeignKeyMapping("a.b", "MISSING"); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidArgumentError for unmapped column, got %v", err)
	}
	if err := n.SetForeignKeyMapping("", "COL"); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidArgumentError for empty property, got %v", err)
	}

	if err := n.SetForeignKeyMapping("a.b", "COL"); err != nil {
		t.Fatalf("set foreign key: %v", err)
	}
	if !n.IsForeignKeyProperty("a.b") {
		t.Fatalf("expected a.b to be a foreign key")
	}
	if !n.IsForeignKeyProperty("a") {
		t.Fatalf("expected prefix a to be a foreign key")
	}
	if got := n.ForeignKeyPropertyNames(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("expected [a], got %v", got)
	}
	if got := n.ForeignKeyColumnNames(); !reflect.DeepEqual(got, []string{"COL"}) {
		t.Fatalf("expected [COL], got %v", got)
	}
}

func TestPropertyForColumnCaseFallback(t *testing.T) {
	n := NewNames()
	mustMap(t, n, "name", "USERNAME")

	for _, column := range []string{"USERNAME", "username", "UserName"} {
		property, ok := n.PropertyForColumn(column)
		if !ok || property != "name" {
			t.Fatalf("lookup %q: expected name, got %q ok=%v", column, property, ok)
		}
	}
	if _, ok := n.PropertyForColumn("UNKNOWN"); ok {
		t.Fatalf("expected miss for unknown column")
	}
}

func TestColumnForPropertyPrefersForeignKeys(t *testing.T) {
	n := NewNames()
	mustMap(t, n, "thing", "THING_VAL")
	mustMap(t, n, "thingId", "THING_ID")
	if err := n.SetForeignKeyMapping("thing", "THING_ID"); err != nil {
		t.Fatalf("set foreign key: %v", err)
	}
	column, ok := n.ColumnForProperty("thing")
	if !ok || column != "THING_ID" {
		t.Fatalf("expected foreign key column THING_ID, got %q ok=%v", column, ok)
	}
	// No case-insensitive fallback on the property side.
	if _, ok := n.ColumnForProperty("Thing"); ok {
		t.Fatalf("expected miss for case-mismatched property")
	}
}

func TestNameListingsSorted(t *testing.T) {
	n := NewNames()
	mustMap(t, n, "id", "ID")
	mustMap(t, n, "email", "EMAIL_ADDR")
	if err := n.SetIdentifierProperty("id"); err != nil {
		t.Fatalf("set identifier: %v", err)
	}
	if got := n.PropertyNames(); !reflect.DeepEqual(got, []string{"email", "id"}) {
		t.Fatalf("expected [email id], got %v", got)
	}
	if got := n.ColumnNames(); !reflect.DeepEqual(got, []string{"EMAIL_ADDR", "ID"}) {
		t.Fatalf("expected [EMAIL_ADDR ID], got %v", got)
	}
}

func TestTypeForColumnSetAndClear(t *testing.T) {
	n := NewNames()
	mustMap(t, n, "email", "EMAIL_ADDR")

	if err := n.SetTypeForColumn("EMAIL_ADDR", TypeString); err != nil {
		t.Fatalf("set type: %v", err)
	}
	typ, ok := n.TypeForColumn("EMAIL_ADDR")
	if !ok || typ != TypeString {
		t.Fatalf("expected string type, got %q ok=%v", typ, ok)
	}
	if err := n.SetTypeForColumn("EMAIL_ADDR", TypeNone); err != nil {
		t.Fatalf("clear type: %v", err)
	}
	if _, ok := n.TypeForColumn("EMAIL_ADDR"); ok {
		t.Fatalf("expected cleared type override")
	}

	var invalid InvalidArgumentError
	if err := n.SetTypeForColumn("", TypeString); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidArgumentError for empty column, got %v", err)
	}
}

func TestTypeForPropertyResolvesThroughColumn(t *testing.T) {
	n := NewNames()
	mustMap(t, n, "created", "CREATED_AT")

	var invalid InvalidArgumentError
	if err := n.SetTypeForProperty("missing", TypeTime); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidArgumentError for unresolved property, got %v", err)
	}

	if err := n.SetTypeForProperty("created", TypeTime); err != nil {
		t.Fatalf("set type for property: %v", err)
	}
	typ, ok := n.TypeForProperty("created")
	if !ok || typ != TypeTime {
		t.Fatalf("expected time type, got %q ok=%v", typ, ok)
	}
	typ, ok = n.TypeForColumn("CREATED_AT")
	if !ok || typ != TypeTime {
		t.Fatalf("expected column-keyed type, got %q ok=%v", typ, ok)
	}
}

func TestSetNameMappingRecordsTypeUnderColumn(t *testing.T) {
	n := NewNames()
	if err := n.SetNameMapping("email", "EMAIL_ADDR", TypeString); err != nil {
		t.Fatalf("set name mapping: %v", err)
	}
	typ, ok := n.TypeForColumn("EMAIL_ADDR")
	if !ok || typ != TypeString {
		t.Fatalf("expected type keyed by column, got %q ok=%v", typ, ok)
	}
	typ, ok = n.TypeForProperty("email")
	if !ok || typ != TypeString {
		t.Fatalf("expected type reachable via property, got %q ok=%v", typ, ok)
	}
}

func TestConcurrentReads(t *testing.T) {
	n := NewNames()
	mustMap(t, n, "id", "ID")
	mustMap(t, n, "email", "EMAIL_ADDR")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if _, ok := n.ColumnForProperty("email"); !ok {
					t.Error("lost email mapping")
					return
				}
				if _, ok := n.PropertyForColumn("email_addr"); !ok {
					t.Error("lost case-insensitive lookup")
					return
				}
				n.PropertyNames()
				n.IsForeignKeyProperty("email")
			}
		}()
	}
	wg.Wait()
}
