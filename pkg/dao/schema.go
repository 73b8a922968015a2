package dao

import (
	"sort"
	"sync"
)

// Entity describes one persistent entity type: its logical name, the table
// backing it, and the name/type registry used to translate between the two.
type Entity struct {
	Name  string
	Table string
	Names *Names
}

// Schema is the set of entity types served by a store. Registration happens
// at mapping-configuration time; lookups are safe for concurrent use.
type Schema struct {
	mu       sync.RWMutex
	entities map[string]Entity
}

// NewSchema returns an empty schema.
func NewSchema() *Schema {
	return &Schema{entities: make(map[string]Entity)}
}

// Register adds an entity type. Names and tables must be unique across the
// schema and the registry must not be nil.
func (s *Schema) Register(e Entity) error {
	if e.Name == "" {
		return InvalidArgumentError{Op: "register entity", Reason: "entity name must not be empty"}
	}
	if e.Table == "" {
		return InvalidArgumentError{Op: "register entity", Reason: "table must not be empty for entity " + e.Name}
	}
	if e.Names == nil {
		return InvalidArgumentError{Op: "register entity", Reason: "names registry must not be nil for entity " + e.Name}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[e.Name]; ok {
		return InvalidArgumentError{Op: "register entity", Reason: "entity " + e.Name + " already registered"}
	}
	for _, existing := range s.entities {
		if existing.Table == e.Table {
			return InvalidArgumentError{Op: "register entity", Reason: "table " + e.Table + " already used by entity " + existing.Name}
		}
	}
	s.entities[e.Name] = e
	return nil
}

// Entity looks up a registered entity type by name.
func (s *Schema) Entity(name string) (Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[name]
	return e, ok
}

// EntityNames returns the registered entity names in alphabetical order.
func (s *Schema) EntityNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entities))
	for name := range s.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every registered entity for store-readiness: at least one
// name mapping and an identifier property that resolves to a column.
func (s *Schema) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entities))
	for name := range s.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e := s.entities[name]
		if len(e.Names.PropertyNames()) == 0 {
			return InvalidArgumentError{Op: "validate schema", Reason: "entity " + name + " has no name mappings"}
		}
		idProperty := e.Names.IDProperty()
		if _, ok := e.Names.ColumnForProperty(idProperty); !ok {
			return InvalidArgumentError{Op: "validate schema", Reason: "entity " + name + " identifier property " + idProperty + " is not mapped"}
		}
	}
	return nil
}
