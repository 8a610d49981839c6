package facts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the closed set of value shapes a fact may hold.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindBool
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is an immutable fact value. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	b    bool
	list []string
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List returns a list value. The items are copied.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Kind reports the value's shape.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload; empty for non-string values.
func (v Value) Str() string { return v.str }

// BoolValue returns the boolean payload; false for non-bool values.
func (v Value) BoolValue() bool { return v.b }

// Items returns a copy of the list payload.
func (v Value) Items() []string {
	cp := make([]string, len(v.list))
	copy(cp, v.list)
	return cp
}

// Truthy implements conditional evaluation: null is false, strings and lists
// are true when non-empty, and bools are themselves.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindString:
		return v.str != ""
	case KindBool:
		return v.b
	case KindList:
		return len(v.list) > 0
	default:
		return false
	}
}

// Render returns the text substituted for a placeholder. The second result is
// false for null values, which have no textual form.
func (v Value) Render() (string, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindBool:
		return strconv.FormatBool(v.b), true
	case KindList:
		return strings.Join(v.list, ", "), true
	default:
		return "", false
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (v Value) GoString() string {
	s, ok := v.Render()
	if !ok {
		return "null"
	}
	return fmt.Sprintf("%s(%q)", v.kind, s)
}

// MarshalJSON encodes the value as its natural JSON shape.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		return json.Marshal(v.Items())
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a string, bool, array of strings, or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = Null()
		return nil
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromAny converts a decoded JSON or YAML scalar/sequence into a Value.
func FromAny(raw interface{}) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case []string:
		return List(val...), nil
	case []interface{}:
		items := make([]string, 0, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return Null(), fmt.Errorf("list item %d is %T, want string", i, item)
			}
			items = append(items, s)
		}
		return List(items...), nil
	default:
		return Null(), fmt.Errorf("unsupported fact value type %T", raw)
	}
}
