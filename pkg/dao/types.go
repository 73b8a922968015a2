package dao

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ConversionType tags how a column's values are coerced between the
// in-memory representation and the storage representation. The zero value
// TypeNone means no conversion.
type ConversionType string

const (
	TypeNone   ConversionType = ""
	TypeString ConversionType = "string"
	TypeInt    ConversionType = "int"
	TypeFloat  ConversionType = "float"
	TypeBool   ConversionType = "bool"
	TypeTime   ConversionType = "time"
	TypeJSON   ConversionType = "json"
)

// ParseConversionType maps a configuration string to a ConversionType.
func ParseConversionType(s string) (ConversionType, error) {
	typ := ConversionType(s)
	if typ != TypeNone && !typ.Valid() {
		return TypeNone, InvalidArgumentError{Op: "parse conversion type", Reason: "unknown conversion type " + s}
	}
	return typ, nil
}

// Valid reports whether the tag names a known conversion.
func (t ConversionType) Valid() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBool, TypeTime, TypeJSON:
		return true
	}
	return false
}

// ToStorage coerces an in-memory value into the representation written to
// the database column. Nil passes through untouched for every type.
func (t ConversionType) ToStorage(v any) (any, error) {
	if v == nil || t == TypeNone {
		return v, nil
	}
	switch t {
	case TypeString:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		default:
			return fmt.Sprint(v), nil
		}
	case TypeInt:
		return toInt64(v)
	case TypeFloat:
		return toFloat64(v)
	case TypeBool:
		// Stored as 0/1 so the same representation works in sqlite and
		// postgres SMALLINT columns.
		b, err := toBool(v)
		if err != nil {
			return nil, err
		}
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	case TypeTime:
		ts, err := toTime(v)
		if err != nil {
			return nil, err
		}
		return ts.UTC().Format(time.RFC3339Nano), nil
	case TypeJSON:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, ConversionError{Type: t, Value: v}
		}
		return string(data), nil
	}
	return nil, ConversionError{Type: t, Value: v}
}

// FromStorage coerces a raw column value back into the in-memory
// representation. Nil passes through untouched for every type.
func (t ConversionType) FromStorage(v any) (any, error) {
	if v == nil || t == TypeNone {
		return v, nil
	}
	switch t {
	case TypeString:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		default:
			return fmt.Sprint(v), nil
		}
	case TypeInt:
		return toInt64(v)
	case TypeFloat:
		return toFloat64(v)
	case TypeBool:
		return toBool(v)
	case TypeTime:
		return toTime(v)
	case TypeJSON:
		var raw []byte
		switch s := v.(type) {
		case string:
			raw = []byte(s)
		case []byte:
			raw = s
		default:
			return nil, ConversionError{Type: t, Value: v}
		}
		var out any
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, ConversionError{Type: t, Value: v}
		}
		return out, nil
	}
	return nil, ConversionError{Type: t, Value: v}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, ConversionError{Type: TypeInt, Value: v}
		}
		return parsed, nil
	case []byte:
		return toInt64(string(n))
	}
	return 0, ConversionError{Type: TypeInt, Value: v}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, ConversionError{Type: TypeFloat, Value: v}
		}
		return parsed, nil
	case []byte:
		return toFloat64(string(n))
	}
	return 0, ConversionError{Type: TypeFloat, Value: v}
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case int:
		return b != 0, nil
	case int32:
		return b != 0, nil
	case int64:
		return b != 0, nil
	case float64:
		return b != 0, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, ConversionError{Type: TypeBool, Value: v}
		}
		return parsed, nil
	case []byte:
		return toBool(string(b))
	}
	return false, ConversionError{Type: TypeBool, Value: v}
}

func toTime(v any) (time.Time, error) {
	switch ts := v.(type) {
	case time.Time:
		return ts, nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return time.Time{}, ConversionError{Type: TypeTime, Value: v}
		}
		return parsed, nil
	case []byte:
		return toTime(string(ts))
	case int64:
		return time.Unix(ts, 0).UTC(), nil
	}
	return time.Time{}, ConversionError{Type: TypeTime, Value: v}
}
