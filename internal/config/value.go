package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Value is a sealed interface over the types a form element may hold.
// Only Null, String, Number, Bool, List, and Object implement it.
// Numbers are always float64: form input arrives from JSON and the
// engine's comparisons are defined over float64.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents an explicitly empty value. It is distinct from a
// missing key: Resolve returns Absent for missing keys, Null for keys
// that exist but hold nothing.
type Null struct{}

func (Null) value() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String represents a text value.
type String string

func (String) value() {}

// Number represents a numeric value.
type Number float64

func (Number) value() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) value() {}

// List represents an ordered collection of values.
type List []Value

func (List) value() {}

// Object represents a map of string keys to values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// Truthy reports whether a value counts as "set" for rule evaluation.
// Null, false, 0, "" and empty collections are falsy; everything else
// is truthy. A nil Value (absent) is falsy.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil:
		return false
	case Null:
		return false
	case Bool:
		return bool(val)
	case Number:
		return val != 0
	case String:
		return val != ""
	case List:
		return len(val) > 0
	case Object:
		return len(val) > 0
	default:
		return true
	}
}

// AsNumber extracts a float64 from a value.
// Strings are parsed so that numeric text inputs can satisfy range rules.
func AsNumber(v Value) (float64, bool) {
	switch val := v.(type) {
	case Number:
		return float64(val), true
	case Bool:
		if val {
			return 1, true
		}
		return 0, true
	case String:
		f, err := strconv.ParseFloat(string(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsString extracts the string form of a value.
// Returns ("", false) for collections and Null.
func AsString(v Value) (string, bool) {
	switch val := v.(type) {
	case String:
		return string(val), true
	case Number:
		return strconv.FormatFloat(float64(val), 'g', -1, 64), true
	case Bool:
		return strconv.FormatBool(bool(val)), true
	default:
		return "", false
	}
}

// Equal compares two values with numeric coercion: Number(5) equals
// String("5"). Null equals Null and nothing else. Lists and objects
// compare element-wise.
func Equal(a, b Value) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if _, ok := a.(Null); ok {
		_, ok2 := b.(Null)
		return ok2
	}
	if _, ok := b.(Null); ok {
		return false
	}

	// Numeric comparison when both sides coerce
	an, aok := AsNumber(a)
	bn, bok := AsNumber(b)
	if aok && bok {
		return an == bn
	}

	switch av := a.(type) {
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			if !Equal(v, bv[k]) {
				return false
			}
		}
		return true
	}

	as, aok := AsString(a)
	bs, bok := AsString(b)
	return aok && bok && as == bs
}

// SortedKeys returns object keys in ascending byte order for
// deterministic iteration and serialization.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FromJSON decodes arbitrary JSON into a Value.
// Numbers become Number, null becomes Null.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromAny(raw)
}

// FromAny converts a decoded JSON value (or YAML-decoded scalar/map)
// into a Value. Unsupported Go types return an error.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case float64:
		return Number(val), nil
	case int:
		return Number(float64(val)), nil
	case int64:
		return Number(float64(val)), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number out of range: %s", val)
		}
		return Number(f), nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			ev, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = ev
		}
		return list, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			ev, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = ev
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// ToAny converts a Value back to plain Go types for JSON encoding.
func ToAny(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Number:
		return float64(val)
	case Bool:
		return bool(val)
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToAny(elem)
		}
		return out
	default:
		return nil
	}
}

