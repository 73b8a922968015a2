package dao

import "fmt"

// Comparison selects how a restriction compares a property against its
// value.
type Comparison int

const (
	Equals Comparison = iota
	NotEquals
	Greater
	GreaterOrEqual
	Less
	LessOrEqual
	Like
	Null
	NotNull
	In
)

// String returns the comparison name used in logs and error messages.
func (c Comparison) String() string {
	switch c {
	case Equals:
		return "equals"
	case NotEquals:
		return "not-equals"
	case Greater:
		return "greater"
	case GreaterOrEqual:
		return "greater-or-equal"
	case Less:
		return "less"
	case LessOrEqual:
		return "less-or-equal"
	case Like:
		return "like"
	case Null:
		return "null"
	case NotNull:
		return "not-null"
	case In:
		return "in"
	}
	return fmt.Sprintf("comparison(%d)", int(c))
}

// Restriction constrains one property. Value is ignored for Null and
// NotNull; for In it must be a []any of candidates.
type Restriction struct {
	Property string
	Value    any
	Compare  Comparison
}

// Order sorts results by one property.
type Order struct {
	Property   string
	Descending bool
}

// Search is a query over one entity type: restrictions combined with AND
// (or OR when Disjunction is set), optional ordering, and an offset/limit
// window. The zero value matches everything.
type Search struct {
	Restrictions []Restriction
	Orders       []Order
	Start        int
	Limit        int
	Disjunction  bool
}

// Equal builds an equality restriction.
func Equal(property string, value any) Restriction {
	return Restriction{Property: property, Value: value, Compare: Equals}
}

// Compare builds a restriction with an explicit comparison.
func Compare(property string, cmp Comparison, value any) Restriction {
	return Restriction{Property: property, Value: value, Compare: cmp}
}

// NewSearch builds a conjunctive search from the given restrictions.
func NewSearch(restrictions ...Restriction) Search {
	return Search{Restrictions: restrictions}
}

// Validate checks that every referenced property resolves to a column in the
// registry and that the window and comparisons are well formed.
func (s Search) Validate(names *Names) error {
	if names == nil {
		return InvalidArgumentError{Op: "validate search", Reason: "names registry must not be nil"}
	}
	if s.Start < 0 || s.Limit < 0 {
		return InvalidArgumentError{Op: "validate search", Reason: "start and limit must not be negative"}
	}
	for _, r := range s.Restrictions {
		if r.Property == "" {
			return InvalidArgumentError{Op: "validate search", Reason: "restriction property must not be empty"}
		}
		if _, ok := names.ColumnForProperty(r.Property); !ok {
			return InvalidArgumentError{Op: "validate search", Reason: "no column mapped for property " + r.Property}
		}
		if r.Compare == In {
			if _, ok := r.Value.([]any); !ok {
				return InvalidArgumentError{Op: "validate search", Reason: "in restriction on " + r.Property + " requires a []any value"}
			}
		}
	}
	for _, o := range s.Orders {
		if o.Property == "" {
			return InvalidArgumentError{Op: "validate search", Reason: "order property must not be empty"}
		}
		if _, ok := names.ColumnForProperty(o.Property); !ok {
			return InvalidArgumentError{Op: "validate search", Reason: "no column mapped for order property " + o.Property}
		}
	}
	return nil
}
