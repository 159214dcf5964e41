package structpb_wrapper

import (
	"errors"
	"sort"
	"strings"
	utf8 "unicode/utf8"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/yoshino-s/cloudlogging/value"
)

var (
	ErrNotStruct = errors.New("input must be a struct value")
	ErrNotList   = errors.New("input must be a list value")
)

// NewStruct constructs a Struct from a struct Value.
// Invalid UTF-8 in names is replaced, protobuf rejects it on the wire.
func NewStruct(v value.Value) (*structpb.Struct, error) {
	if v.Kind() != value.StructKind {
		return nil, ErrNotStruct
	}
	return newStruct(v), nil
}

func newStruct(v value.Value) *structpb.Struct {
	fields := v.Fields()
	x := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(fields))}
	for _, f := range fields {
		x.Fields[validUTF8(f.Name)] = NewValue(f.Value)
	}
	return x
}

// NewValue constructs a protobuf Value from v. It cannot fail.
func NewValue(v value.Value) *structpb.Value {
	switch v.Kind() {
	case value.BoolKind:
		return NewBoolValue(v.AsBool())
	case value.NumberKind:
		return NewNumberValue(v.AsNumber())
	case value.StringKind:
		return NewStringValue(validUTF8(v.AsString()))
	case value.ListKind:
		return NewListValue(newList(v))
	case value.StructKind:
		return NewStructValue(newStruct(v))
	}
	return NewNullValue()
}

// NewList constructs a ListValue from a list Value.
func NewList(v value.Value) (*structpb.ListValue, error) {
	if v.Kind() != value.ListKind {
		return nil, ErrNotList
	}
	return newList(v), nil
}

func newList(v value.Value) *structpb.ListValue {
	items := v.Items()
	x := &structpb.ListValue{Values: make([]*structpb.Value, len(items))}
	for i, item := range items {
		x.Values[i] = NewValue(item)
	}
	return x
}

// NewNullValue constructs a new null Value.
func NewNullValue() *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NullValue{NullValue: structpb.NullValue_NULL_VALUE}}
}

// NewBoolValue constructs a new boolean Value.
func NewBoolValue(v bool) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_BoolValue{BoolValue: v}}
}

// NewNumberValue constructs a new number Value.
func NewNumberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

// NewStringValue constructs a new string Value.
func NewStringValue(v string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: v}}
}

// NewStructValue constructs a new struct Value.
func NewStructValue(v *structpb.Struct) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: v}}
}

// NewListValue constructs a new list Value.
func NewListValue(v *structpb.ListValue) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_ListValue{ListValue: v}}
}

// FromValue converts a protobuf Value back. A nil Value or one without a
// kind is Null.
func FromValue(x *structpb.Value) value.Value {
	switch k := x.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return value.Bool(k.BoolValue)
	case *structpb.Value_NumberValue:
		return value.Number(k.NumberValue)
	case *structpb.Value_StringValue:
		return value.String(k.StringValue)
	case *structpb.Value_ListValue:
		return FromList(k.ListValue)
	case *structpb.Value_StructValue:
		return FromStruct(k.StructValue)
	}
	return value.Null()
}

// FromStruct converts a protobuf Struct. Protobuf maps are unordered, so
// fields come back sorted by name.
func FromStruct(x *structpb.Struct) value.Value {
	if x == nil {
		return value.Null()
	}
	names := make([]string, 0, len(x.GetFields()))
	for name := range x.GetFields() {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]value.Field, len(names))
	for i, name := range names {
		fields[i] = value.F(name, FromValue(x.GetFields()[name]))
	}
	return value.Struct(fields...)
}

func FromList(x *structpb.ListValue) value.Value {
	if x == nil {
		return value.Null()
	}
	items := make([]value.Value, len(x.GetValues()))
	for i, item := range x.GetValues() {
		items[i] = FromValue(item)
	}
	return value.List(items...)
}

func validUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}
