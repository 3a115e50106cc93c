package graph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the concrete type held by a Value.
type Kind int

const (
	// KindInvalid is the zero Kind. Invalid values are skipped during
	// attribute merges, so a zero Value never clobbers existing data.
	KindInvalid Kind = iota

	// KindString holds a single string scalar.
	KindString

	// KindNumber holds a float64. JSON numbers always decode to this kind.
	KindNumber

	// KindBool holds a boolean.
	KindBool

	// KindStringList holds an ordered list of strings. This is the only
	// kind with append-distinct merge semantics; every other kind merges
	// by overwrite.
	KindStringList

	// KindMap holds a nested string-keyed map of Values.
	KindMap
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindStringList:
		return "string_list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a closed variant type for node attributes and edge metadata.
// Exactly one of the five kinds is populated, which keeps JSON
// serialization total: any Value the store accepts can be encoded, and any
// document the store wrote can be decoded back without loss.
//
// The zero Value has KindInvalid and is ignored by merge operations.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []string
	m    map[string]Value
}

// StringValue returns a Value holding a string scalar.
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// NumberValue returns a Value holding a number.
func NumberValue(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// IntValue returns a number Value from an int. Convenience for ports and
// other small integral attributes.
func IntValue(n int) Value {
	return NumberValue(float64(n))
}

// BoolValue returns a Value holding a boolean.
func BoolValue(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// ListValue returns a Value holding an ordered list of strings.
func ListValue(items ...string) Value {
	list := make([]string, len(items))
	copy(list, items)
	return Value{kind: KindStringList, list: list}
}

// MapValue returns a Value holding a nested map. The map is copied.
func MapValue(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, m: cp}
}

// Kind reports which variant the Value holds.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether the Value holds one of the five concrete kinds.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Str returns the string payload. Zero for non-string kinds.
func (v Value) Str() string { return v.str }

// Num returns the numeric payload. Zero for non-number kinds.
func (v Value) Num() float64 { return v.num }

// Bool returns the boolean payload. False for non-bool kinds.
func (v Value) Bool() bool { return v.b }

// List returns a copy of the string-list payload. Nil for other kinds.
func (v Value) List() []string {
	if v.kind != KindStringList {
		return nil
	}
	cp := make([]string, len(v.list))
	copy(cp, v.list)
	return cp
}

// Map returns a copy of the nested map payload. Nil for other kinds.
func (v Value) Map() map[string]Value {
	if v.kind != KindMap {
		return nil
	}
	cp := make(map[string]Value, len(v.m))
	for k, val := range v.m {
		cp[k] = val
	}
	return cp
}

// Equal reports whether two Values hold the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindStringList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, val := range v.m {
			other, ok := o.m[k]
			if !ok || !val.Equal(other) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders the Value for summaries and logs.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindStringList:
		return "[" + strings.Join(v.list, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			sb.WriteString(v.m[k].String())
		}
		sb.WriteByte('}')
		return sb.String()
	default:
		return "<invalid>"
	}
}

// MarshalJSON encodes the Value as its plain JSON counterpart: strings as
// strings, numbers as numbers, lists as arrays, maps as objects. An invalid
// Value encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindStringList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindMap:
		if v.m == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.m)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes any JSON value into the nearest Kind. Arrays decode
// to KindStringList keeping only string elements (non-string elements are
// stringified), objects decode recursively to KindMap, null decodes to the
// invalid Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = Value{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			var s string
			if err := json.Unmarshal(r, &s); err == nil {
				items = append(items, s)
				continue
			}
			items = append(items, strings.TrimSpace(string(r)))
		}
		*v = Value{kind: KindStringList, list: items}
	case '{':
		var m map[string]Value
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		if m == nil {
			m = map[string]Value{}
		}
		*v = Value{kind: KindMap, m: m}
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = NumberValue(n)
	}
	return nil
}

// Attrs is a string-keyed collection of Values, used for both node
// attributes and edge metadata.
type Attrs map[string]Value

// Clone returns a deep copy of the attribute map. Nil stays nil.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	cp := make(Attrs, len(a))
	for k, v := range a {
		cp[k] = v
	}
	return cp
}

// Equal reports whether two attribute maps hold the same keys and values.
func (a Attrs) Equal(o Attrs) bool {
	if len(a) != len(o) {
		return false
	}
	for k, v := range a {
		other, ok := o[k]
		if !ok || !v.Equal(other) {
			return false
		}
	}
	return true
}

// String renders the attributes with alphabetically sorted keys so summary
// output is deterministic.
func (a Attrs) String() string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(a[k].String())
	}
	sb.WriteByte('}')
	return sb.String()
}
