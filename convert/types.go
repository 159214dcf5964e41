package convert

import (
	"encoding"
	"encoding/json"
	"reflect"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/yoshino-s/cloudlogging/jsontext"
	"github.com/yoshino-s/cloudlogging/value"
)

// shape is the conversion strategy chosen for a type.
type shape int

const (
	shapeUnsupported shape = iota
	shapeBool
	shapeInt
	shapeUint
	shapeFloat
	shapeComplex
	shapeString
	shapeNumberText
	shapePayload
	shapeRawJSON
	shapeProtoValue
	shapeProtoStruct
	shapeProtoList
	shapeValuer
	shapeProtoMessage
	shapeJSONMarshaler
	shapeTextMarshaler
	shapeError
	shapeBytes
	shapeList
	shapeMap
	shapeRecord
	shapePointer
	shapeInterface
)

// kindShapes holds the scalar kinds, which win over any method a type has.
var kindShapes = map[reflect.Kind]shape{
	reflect.Bool:       shapeBool,
	reflect.Int:        shapeInt,
	reflect.Int8:       shapeInt,
	reflect.Int16:      shapeInt,
	reflect.Int32:      shapeInt,
	reflect.Int64:      shapeInt,
	reflect.Uint:       shapeUint,
	reflect.Uint8:      shapeUint,
	reflect.Uint16:     shapeUint,
	reflect.Uint32:     shapeUint,
	reflect.Uint64:     shapeUint,
	reflect.Uintptr:    shapeUint,
	reflect.Float32:    shapeFloat,
	reflect.Float64:    shapeFloat,
	reflect.Complex64:  shapeComplex,
	reflect.Complex128: shapeComplex,
	reflect.String:     shapeString,
}

var exactShapes = map[reflect.Type]shape{
	reflect.TypeOf(json.Number("")):       shapeNumberText,
	reflect.TypeOf(json.RawMessage(nil)):  shapeRawJSON,
	reflect.TypeOf(jsontext.Payload{}):    shapePayload,
	reflect.TypeOf(&structpb.Value{}):     shapeProtoValue,
	reflect.TypeOf(&structpb.Struct{}):    shapeProtoStruct,
	reflect.TypeOf(&structpb.ListValue{}): shapeProtoList,
}

var (
	valuerType        = reflect.TypeOf((*value.Valuer)(nil)).Elem()
	protoMessageType  = reflect.TypeOf((*proto.Message)(nil)).Elem()
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	errorType         = reflect.TypeOf((*error)(nil)).Elem()
)

var shapes sync.Map // reflect.Type -> shape

func shapeOf(t reflect.Type) shape {
	if s, ok := shapes.Load(t); ok {
		return s.(shape)
	}
	s := computeShape(t)
	shapes.Store(t, s)
	return s
}

func computeShape(t reflect.Type) shape {
	if s, ok := exactShapes[t]; ok {
		return s
	}
	if s, ok := kindShapes[t.Kind()]; ok {
		return s
	}

	switch {
	case t.Implements(valuerType):
		return shapeValuer
	case t.Implements(protoMessageType):
		return shapeProtoMessage
	case t.Implements(jsonMarshalerType):
		return shapeJSONMarshaler
	case t.Implements(textMarshalerType):
		return shapeTextMarshaler
	case t.Implements(errorType):
		return shapeError
	}

	switch t.Kind() {
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return shapeBytes
		}
		return shapeList
	case reflect.Array:
		return shapeList
	case reflect.Map:
		return shapeMap
	case reflect.Struct:
		return shapeRecord
	case reflect.Pointer:
		return shapePointer
	case reflect.Interface:
		return shapeInterface
	}
	return shapeUnsupported
}
