package memory

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"daocore/pkg/dao"
)

// recordKey resolves a search property to the key the stored record carries.
// Foreign-key aliases go through their column and back to the primary
// property, the same translation the SQL backends perform via
// ColumnForProperty.
func recordKey(names *dao.Names, property string) string {
	column, ok := names.ColumnForProperty(property)
	if !ok {
		return property
	}
	if primary, ok := names.PropertyForColumn(column); ok {
		return primary
	}
	return property
}

// matchRecord evaluates every restriction against the record. Restrictions
// combine with AND unless the search asks for disjunction.
func matchRecord(names *dao.Names, record dao.Record, search dao.Search) (bool, error) {
	if len(search.Restrictions) == 0 {
		return true, nil
	}
	for _, r := range search.Restrictions {
		ok, err := matchRestriction(names, record, r)
		if err != nil {
			return false, err
		}
		if search.Disjunction && ok {
			return true, nil
		}
		if !search.Disjunction && !ok {
			return false, nil
		}
	}
	return !search.Disjunction, nil
}

func matchRestriction(names *dao.Names, record dao.Record, r dao.Restriction) (bool, error) {
	value := record[recordKey(names, r.Property)]
	switch r.Compare {
	case dao.Null:
		return value == nil, nil
	case dao.NotNull:
		return value != nil, nil
	case dao.Like:
		pattern, ok := r.Value.(string)
		if !ok {
			return false, dao.InvalidArgumentError{Op: "match", Reason: "like restriction on " + r.Property + " requires a string pattern"}
		}
		if value == nil {
			return false, nil
		}
		return likeMatch(pattern, fmt.Sprint(value)), nil
	case dao.In:
		candidates, ok := r.Value.([]any)
		if !ok {
			return false, dao.InvalidArgumentError{Op: "match", Reason: "in restriction on " + r.Property + " requires a []any value"}
		}
		for _, candidate := range candidates {
			cmp, err := compareValues(value, candidate)
			if err == nil && cmp == 0 {
				return true, nil
			}
		}
		return false, nil
	}

	cmp, err := compareValues(value, r.Value)
	if err != nil {
		// Incomparable kinds never match; SQL comparisons behave the same.
		return r.Compare == dao.NotEquals, nil
	}
	switch r.Compare {
	case dao.Equals:
		return cmp == 0, nil
	case dao.NotEquals:
		return cmp != 0, nil
	case dao.Greater:
		return cmp > 0, nil
	case dao.GreaterOrEqual:
		return cmp >= 0, nil
	case dao.Less:
		return cmp < 0, nil
	case dao.LessOrEqual:
		return cmp <= 0, nil
	}
	return false, dao.InvalidArgumentError{Op: "match", Reason: "unsupported comparison " + r.Compare.String()}
}

// compareValues orders two in-memory values. Nil sorts before everything;
// numbers compare numerically across int/float kinds; times compare
// chronologically.
func compareValues(a, b any) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	if a == nil {
		return -1, nil
	}
	if b == nil {
		return 1, nil
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			}
			return 0, nil
		}
	}
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			return at.Compare(bt), nil
		}
	}
	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			switch {
			case ab == bb:
				return 0, nil
			case !ab:
				return -1, nil
			}
			return 1, nil
		}
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return strings.Compare(as, bs), nil
		}
	}
	return 0, fmt.Errorf("memory: cannot compare %T with %T", a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// likeMatch implements SQL LIKE with % and _ wildcards, case-insensitive to
// match sqlite's default ASCII behavior.
func likeMatch(pattern, value string) bool {
	var sb strings.Builder
	sb.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return false
	}
	return re.MatchString(value)
}
