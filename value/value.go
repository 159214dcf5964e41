// Package value defines the canonical tagged tree produced by the converters.
//
// A Value holds exactly one of Null, Bool, Number, String, List or Struct,
// the same shape as google.protobuf.Value. Struct keeps its fields in the
// order they were encountered so output is reproducible.
package value

import (
	"fmt"
	"math"
	"sort"
)

// Kind identifies the active variant of a Value.
type Kind int

const (
	NullKind Kind = iota
	BoolKind
	NumberKind
	StringKind
	ListKind
	StructKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "bool"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	case ListKind:
		return "list"
	case StructKind:
		return "struct"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is an immutable node of the tree. The zero Value is Null.
type Value struct {
	kind   Kind
	b      bool
	n      float64
	s      string
	items  []Value
	fields []Field
}

// Field is a named member of a Struct.
type Field struct {
	Name  string
	Value Value
}

// Valuer is implemented by types that already know their canonical form.
type Valuer interface {
	StructValue() Value
}

// StructValue makes Value a Valuer, so converting a tree again is a no-op.
func (v Value) StructValue() Value { return v }

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: BoolKind, b: b} }

// Number returns a number Value.
func Number(n float64) Value { return Value{kind: NumberKind, n: n} }

// String returns a string Value.
func String(s string) Value { return Value{kind: StringKind, s: s} }

// List returns a list Value holding items in order.
func List(items ...Value) Value {
	return Value{kind: ListKind, items: append([]Value(nil), items...)}
}

// F is shorthand for a Field literal.
func F(name string, v Value) Field { return Field{Name: name, Value: v} }

// Struct returns a struct Value. A repeated name keeps the position of its
// first occurrence and the value of its last.
func Struct(fields ...Field) Value {
	out := make([]Field, 0, len(fields))
	index := make(map[string]int, len(fields))
	for _, f := range fields {
		if i, ok := index[f.Name]; ok {
			out[i].Value = f.Value
			continue
		}
		index[f.Name] = len(out)
		out = append(out, f)
	}
	return Value{kind: StructKind, fields: out}
}

// StructOf builds a struct Value from a map, fields sorted by name.
func StructOf(m map[string]Value) Value {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]Field, len(names))
	for i, name := range names {
		fields[i] = Field{Name: name, Value: m[name]}
	}
	return Value{kind: StructKind, fields: fields}
}

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsNull() bool      { return v.kind == NullKind }
func (v Value) AsBool() bool      { return v.b }
func (v Value) AsNumber() float64 { return v.n }
func (v Value) AsString() string  { return v.s }

// Items returns a copy of the list elements, nil for other kinds.
func (v Value) Items() []Value {
	if v.kind != ListKind {
		return nil
	}
	return append([]Value(nil), v.items...)
}

// Fields returns a copy of the struct fields, nil for other kinds.
func (v Value) Fields() []Field {
	if v.kind != StructKind {
		return nil
	}
	return append([]Field(nil), v.fields...)
}

// Len reports the number of list items or struct fields.
func (v Value) Len() int {
	switch v.kind {
	case ListKind:
		return len(v.items)
	case StructKind:
		return len(v.fields)
	}
	return 0
}

// Index returns the i-th list item, Null when out of range.
func (v Value) Index(i int) Value {
	if v.kind != ListKind || i < 0 || i >= len(v.items) {
		return Null()
	}
	return v.items[i]
}

// Get returns the named struct field.
func (v Value) Get(name string) (Value, bool) {
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Null(), false
}

// AsInterface converts the tree to plain Go values: nil, bool, float64,
// string, []any and map[string]any.
func (v Value) AsInterface() any {
	switch v.kind {
	case BoolKind:
		return v.b
	case NumberKind:
		return v.n
	case StringKind:
		return v.s
	case ListKind:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.AsInterface()
		}
		return out
	case StructKind:
		out := make(map[string]any, len(v.fields))
		for _, f := range v.fields {
			out[f.Name] = f.Value.AsInterface()
		}
		return out
	}
	return nil
}

// Equal reports whether a and b are the same tree. Struct field order is
// not significant; NaN equals NaN.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case NullKind:
		return true
	case BoolKind:
		return a.b == b.b
	case NumberKind:
		return a.n == b.n || (math.IsNaN(a.n) && math.IsNaN(b.n))
	case StringKind:
		return a.s == b.s
	case ListKind:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case StructKind:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for _, f := range a.fields {
			other, ok := b.Get(f.Name)
			if !ok || !Equal(f.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the tree as compact JSON.
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%%!v(%v)", err)
	}
	return string(data)
}
