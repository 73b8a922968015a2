// Package dao provides a generic data access layer: a name/type mapping
// registry describing how entity properties correspond to database columns,
// query-by-criteria value types, and the storage backend contract shared by
// the memory, sqlite and postgres stores.
package dao

import (
	"sort"
	"strings"
	"sync"
)

// DefaultIDProperty is the identifier property assumed until a registry is
// told otherwise via SetIdentifierProperty.
const DefaultIDProperty = "id"

// Names records the bidirectional correspondence between the property names
// of one persistent entity type and its database column names, along with
// foreign-key properties and per-column conversion-type overrides.
//
// A registry is populated during mapping configuration and read concurrently
// by the stores afterwards; all methods are safe for concurrent use.
type Names struct {
	mu               sync.RWMutex
	propertyToColumn map[string]string
	columnToProperty map[string]string
	foreignKeys      map[string]string
	columnTypes      map[string]ConversionType
	idProperty       string
}

// NewNames returns an empty registry with the identifier property set to
// DefaultIDProperty.
func NewNames() *Names {
	return &Names{
		propertyToColumn: make(map[string]string),
		columnToProperty: make(map[string]string),
		foreignKeys:      make(map[string]string),
		columnTypes:      make(map[string]ConversionType),
		idProperty:       DefaultIDProperty,
	}
}

// SetNameMapping registers a property <-> column pair, optionally recording a
// conversion type for the column (TypeNone means no conversion). A pair that
// would reuse an already-mapped property or column under a different partner
// is rejected with InconsistentMappingError and leaves the registry exactly
// as it was.
func (n *Names) SetNameMapping(property, column string, typ ConversionType) error {
	if property == "" || column == "" {
		return InvalidArgumentError{Op: "set name mapping", Reason: "property and column must not be empty"}
	}
	if typ != TypeNone && !typ.Valid() {
		return InvalidArgumentError{Op: "set name mapping", Reason: "unknown conversion type " + string(typ)}
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	if existing, ok := n.propertyToColumn[property]; ok && existing != column {
		return InconsistentMappingError{Property: property, Column: column}
	}
	if existing, ok := n.columnToProperty[column]; ok && existing != property {
		return InconsistentMappingError{Property: property, Column: column}
	}

	prevColumn, hadProperty := n.propertyToColumn[property]
	prevProperty, hadColumn := n.columnToProperty[column]
	n.propertyToColumn[property] = column
	n.columnToProperty[column] = property

	// Size-comparison backstop: an uneven table pair means an entry was
	// silently reused. Restore both tables before reporting.
	if len(n.propertyToColumn) != len(n.columnToProperty) {
		if hadProperty {
			n.propertyToColumn[property] = prevColumn
		} else {
			delete(n.propertyToColumn, property)
		}
		if hadColumn {
			n.columnToProperty[column] = prevProperty
		} else {
			delete(n.columnToProperty, column)
		}
		return InconsistentMappingError{Property: property, Column: column}
	}

	// Conversion types are keyed by column on every path, including this one.
	if typ != TypeNone {
		n.columnTypes[column] = typ
	}
	return nil
}

// IDProperty returns the property designated as the unique identifier.
func (n *Names) IDProperty() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.idProperty
}

// SetIdentifierProperty designates the identifier property. The property
// must already be present in the name mapping.
func (n *Names) SetIdentifierProperty(property string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.propertyToColumn[property]; !ok {
		return InvalidArgumentError{Op: "set identifier property", Reason: "property " + property + " is not mapped; add its name mapping first"}
	}
	n.idProperty = property
	return nil
}

// SetForeignKeyMapping registers a foreign-key property for an
// already-mapped column. A dotted path such as "owner.id" additionally
// registers the prefix "owner" against the same column.
func (n *Names) SetForeignKeyMapping(property, column string) error {
	if property == "" || column == "" {
		return InvalidArgumentError{Op: "set foreign key mapping", Reason: "property and column must not be empty"}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.columnToProperty[column]; !ok {
		return InvalidArgumentError{Op: "set foreign key mapping", Reason: "column " + column + " is not mapped; add its name mapping first"}
	}
	n.foreignKeys[property] = column
	if idx := strings.IndexByte(property, '.'); idx != -1 {
		n.foreignKeys[property[:idx]] = column
	}
	return nil
}

// IsForeignKeyProperty reports whether property is registered as a foreign
// key (including dotted-path prefixes).
func (n *Names) IsForeignKeyProperty(property string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.foreignKeys[property]
	return ok
}

// PropertyForColumn resolves a column name to its property. The lookup is
// exact first, then retries with the lowercase and uppercase forms of the
// column, then falls back to a case-insensitive scan of all known columns.
func (n *Names) PropertyForColumn(column string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if property, ok := n.columnToProperty[column]; ok {
		return property, true
	}
	if property, ok := n.columnToProperty[strings.ToLower(column)]; ok {
		return property, true
	}
	if property, ok := n.columnToProperty[strings.ToUpper(column)]; ok {
		return property, true
	}
	for candidate, property := range n.columnToProperty {
		if strings.EqualFold(candidate, column) {
			return property, true
		}
	}
	return "", false
}

// ColumnForProperty resolves a property name to its column. Foreign-key
// mappings take precedence over the primary table. Unlike PropertyForColumn
// there is no case-insensitive fallback.
func (n *Names) ColumnForProperty(property string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.columnForPropertyLocked(property)
}

func (n *Names) columnForPropertyLocked(property string) (string, bool) {
	if column, ok := n.foreignKeys[property]; ok {
		return column, true
	}
	column, ok := n.propertyToColumn[property]
	return column, ok
}

// TypeForProperty resolves the property to its column and returns the
// conversion type recorded for that column, if any.
func (n *Names) TypeForProperty(property string) (ConversionType, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	column, ok := n.columnForPropertyLocked(property)
	if !ok {
		return TypeNone, false
	}
	typ, ok := n.columnTypes[column]
	return typ, ok
}

// TypeForColumn returns the conversion type recorded for the column, if any.
func (n *Names) TypeForColumn(column string) (ConversionType, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	typ, ok := n.columnTypes[column]
	return typ, ok
}

// SetTypeForProperty resolves the property to its column and records the
// conversion type there. TypeNone clears any existing override.
func (n *Names) SetTypeForProperty(property string, typ ConversionType) error {
	if property == "" {
		return InvalidArgumentError{Op: "set type for property", Reason: "property must not be empty"}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	column, ok := n.columnForPropertyLocked(property)
	if !ok {
		return InvalidArgumentError{Op: "set type for property", Reason: "no column found for property " + property}
	}
	return n.setTypeForColumnLocked(column, typ)
}

// SetTypeForColumn records a conversion type for the column. TypeNone clears
// any existing override.
func (n *Names) SetTypeForColumn(column string, typ ConversionType) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.setTypeForColumnLocked(column, typ)
}

func (n *Names) setTypeForColumnLocked(column string, typ ConversionType) error {
	if column == "" {
		return InvalidArgumentError{Op: "set type for column", Reason: "column must not be empty"}
	}
	if typ == TypeNone {
		delete(n.columnTypes, column)
		return nil
	}
	if !typ.Valid() {
		return InvalidArgumentError{Op: "set type for column", Reason: "unknown conversion type " + string(typ)}
	}
	n.columnTypes[column] = typ
	return nil
}

// PropertyNames returns all mapped property names in alphabetical order.
func (n *Names) PropertyNames() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	names := make([]string, 0, len(n.propertyToColumn))
	for property := range n.propertyToColumn {
		names = append(names, property)
	}
	sort.Strings(names)
	return names
}

// ColumnNames returns all mapped column names in alphabetical order.
func (n *Names) ColumnNames() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	names := make([]string, 0, len(n.columnToProperty))
	for column := range n.columnToProperty {
		names = append(names, column)
	}
	sort.Strings(names)
	return names
}

// ForeignKeyPropertyNames returns the foreign-key property names in
// alphabetical order. Dotted full paths registered via prefix expansion are
// excluded; only names without a path separator are reported.
func (n *Names) ForeignKeyPropertyNames() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	names := make([]string, 0, len(n.foreignKeys))
	for property := range n.foreignKeys {
		if strings.IndexByte(property, '.') == -1 {
			names = append(names, property)
		}
	}
	sort.Strings(names)
	return names
}

// ForeignKeyColumnNames returns the columns referenced by foreign-key
// properties (dotted entries excluded), duplicate-free and in alphabetical
// order.
func (n *Names) ForeignKeyColumnNames() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	seen := make(map[string]struct{}, len(n.foreignKeys))
	names := make([]string, 0, len(n.foreignKeys))
	for property, column := range n.foreignKeys {
		if strings.IndexByte(property, '.') != -1 {
			continue
		}
		if _, ok := seen[column]; ok {
			continue
		}
		seen[column] = struct{}{}
		names = append(names, column)
	}
	sort.Strings(names)
	return names
}
