package dao

// Record is a property-keyed row of one entity type. Values hold the
// in-memory representation; the stores apply conversion types when moving a
// record to and from column data.
type Record map[string]any

// Clone returns a copy of the record. Nested maps and slices produced by
// JSON decoding are copied one level deep so callers cannot alias store
// state.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, nested := range val {
			out[k] = cloneValue(nested)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, nested := range val {
			out[i] = cloneValue(nested)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}

// Identifier returns the record's value under the registry's identifier
// property.
func (r Record) Identifier(names *Names) (any, bool) {
	if r == nil || names == nil {
		return nil, false
	}
	v, ok := r[names.IDProperty()]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && s == "" {
		return nil, false
	}
	return v, true
}
