package dao

import "fmt"

// InvalidArgumentError reports a required input that was empty or referenced
// a property/column that is not registered yet.
type InvalidArgumentError struct {
	Op     string
	Reason string
}

func (e InvalidArgumentError) Error() string {
	return fmt.Sprintf("dao: %s: %s", e.Op, e.Reason)
}

// InconsistentMappingError reports a property/column pair that would break
// the bijection between the forward and inverse name tables. The attempted
// change is rolled back before the error is returned.
type InconsistentMappingError struct {
	Property string
	Column   string
}

func (e InconsistentMappingError) Error() string {
	return fmt.Sprintf("dao: mapping %q <-> %q conflicts with an existing property/column pair", e.Property, e.Column)
}

// NotFoundError is returned when an entity type or record cannot be resolved.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("dao: entity %s not registered", e.Entity)
	}
	return fmt.Sprintf("dao: %s %s not found", e.Entity, e.ID)
}

// ConversionError reports a value that could not be coerced to or from its
// storage representation.
type ConversionError struct {
	Type  ConversionType
	Value any
}

func (e ConversionError) Error() string {
	return fmt.Sprintf("dao: cannot convert %T value with conversion type %q", e.Value, string(e.Type))
}
