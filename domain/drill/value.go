package drill

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ValueKind tags the dynamic type held by a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "null"
	}
}

// Value is a single cell: a string, a number, or null.
// The zero Value is null.
type Value struct {
	kind ValueKind
	str  string
	num  float64
}

// StringValue wraps a string cell.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue wraps a numeric cell.
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }

// NullValue returns the null cell.
func NullValue() Value { return Value{} }

// Kind returns the dynamic type of the value.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the cell is null or missing.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric payload. ok is false for strings, nulls and NaN.
func (v Value) Float() (f float64, ok bool) {
	if v.kind != KindNumber || math.IsNaN(v.num) {
		return 0, false
	}
	return v.num, true
}

// Key is the canonical text form used for grouping and filter matching.
// Numbers use the shortest round-trip representation, so the URL value "3"
// matches the numeric cell 3. Null has no key.
func (v Value) Key() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if v.kind == KindNull {
		return "null"
	}
	return v.Key()
}

// Equal compares two values by kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	default:
		return true
	}
}

// MarshalJSON encodes the value as a JSON string, number or null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a JSON string, number or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = NullValue()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("drill value must be string, number or null: %w", err)
		}
		*v = NumberValue(f)
		return nil
	}
}

// Values builds a slice of string values, a shorthand used by callers that
// only deal in labels (URL parsing, CLI flags).
func Values(labels ...string) []Value {
	out := make([]Value, len(labels))
	for i, l := range labels {
		out[i] = StringValue(l)
	}
	return out
}

// Keys returns the canonical keys of vs in order.
func Keys(vs []Value) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Key()
	}
	return out
}

// SameValueSet reports whether a and b hold the same set of keys, ignoring
// order and duplicates. An empty side never matches.
func SameValueSet(a, b []Value) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	left := make(map[string]struct{}, len(a))
	for _, v := range a {
		left[v.Key()] = struct{}{}
	}
	right := make(map[string]struct{}, len(b))
	for _, v := range b {
		if _, ok := left[v.Key()]; !ok {
			return false
		}
		right[v.Key()] = struct{}{}
	}
	return len(left) == len(right)
}

// ContainsKey reports whether any value in vs has the given key.
func ContainsKey(vs []Value, key string) bool {
	for _, v := range vs {
		if v.Key() == key {
			return true
		}
	}
	return false
}
