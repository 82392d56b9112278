// Package props holds configuration property values as a small tagged union.
// Values are typed once, when they enter the process (JSON, YAML, form posts),
// so later stages never inspect runtime types.
package props

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Kind uint8

const (
	KindString Kind = iota
	KindBool
	KindNumber
)

// Value is a String, Bool or Number.
type Value struct {
	kind Kind
	s    string
	b    bool
	n    float64
}

func String(s string) Value  { return Value{kind: KindString, s: s} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// FromAny converts a decoded JSON/YAML/pgx value. Anything that is not a bool
// or a number is kept as its string form.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return String("")
	case Value:
		return x
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return Number(f)
		}
		return String(x.String())
	case []any:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			parts = append(parts, FromAny(p).String())
		}
		return String(strings.Join(parts, ","))
	default:
		return String(fmt.Sprint(x))
	}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsBool() bool { return v.kind == KindBool }

// Bool reports the boolean value; strings "true"/"false" are honoured too.
func (v Value) Bool() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindString:
		b, _ := strconv.ParseBool(v.s)
		return b
	default:
		return v.n != 0
	}
}

// String is the display form: numbers without trailing zeros, bools as true/false.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	default:
		return v.s
	}
}

// Client is the value emitted to the widget client script: a bool stays a
// bool, everything else (numbers included) becomes a string.
func (v Value) Client() any {
	if v.kind == KindBool {
		return v.b
	}
	return v.String()
}

// MarshalJSON keeps the native JSON type so values survive storage round trips.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.n)
	default:
		return json.Marshal(v.s)
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// Map is a flat property bag (a CMS node's value map).
type Map map[string]Value

// FromMap converts a decoded map at the ingestion boundary.
func FromMap(m map[string]any) Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = FromAny(v)
	}
	return out
}

// Str returns the string form of key, or "" when absent.
func (m Map) Str(key string) string {
	if v, ok := m[key]; ok {
		return v.String()
	}
	return ""
}

func (m Map) Has(key string) bool {
	_, ok := m[key]
	return ok
}

func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys returns the keys in ascending order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StripPrefix keeps only keys starting with prefix, with the prefix removed.
func (m Map) StripPrefix(prefix string) Map {
	out := Map{}
	for k, v := range m {
		if strings.HasPrefix(k, prefix) {
			out[strings.TrimPrefix(k, prefix)] = v
		}
	}
	return out
}
