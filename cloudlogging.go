// Package cloudlogging converts Go values and JSON text into the
// structured payload trees carried by log entries.
//
// The work is done by the subpackages; this package gathers the common
// entry points.
package cloudlogging

import (
	"github.com/yoshino-s/cloudlogging/convert"
	"github.com/yoshino-s/cloudlogging/jsontext"
	"github.com/yoshino-s/cloudlogging/structpb_wrapper"
	"github.com/yoshino-s/cloudlogging/value"
)

type (
	Value   = value.Value
	Field   = value.Field
	Kind    = value.Kind
	Valuer  = value.Valuer
	Payload = jsontext.Payload
)

const (
	NullKind   = value.NullKind
	BoolKind   = value.BoolKind
	NumberKind = value.NumberKind
	StringKind = value.StringKind
	ListKind   = value.ListKind
	StructKind = value.StructKind
)

var (
	Null     = value.Null
	Bool     = value.Bool
	Number   = value.Number
	String   = value.String
	List     = value.List
	F        = value.F
	Struct   = value.Struct
	StructOf = value.StructOf
	Equal    = value.Equal

	// ToValue converts any Go value.
	ToValue = convert.ToValue
	// FromJSONText converts JSON text, accepting comments and trailing commas.
	FromJSONText = jsontext.FromJSONText
	NewPayload   = jsontext.NewPayload

	ToProto   = structpb_wrapper.NewValue
	FromProto = structpb_wrapper.FromValue
)
