// Package convert turns arbitrary Go values into value.Value trees.
//
// Every type is classified once into a shape (scalar, collection, record,
// or one of the capability interfaces) and the shape is cached, so repeated
// conversions of the same type skip the method-set checks. Conversion is
// total: unreadable parts degrade to String leaves, never to a panic.
package convert

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"github.com/go-errors/errors"
	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/yoshino-s/cloudlogging/jsontext"
	"github.com/yoshino-s/cloudlogging/structpb_wrapper"
	"github.com/yoshino-s/cloudlogging/value"
)

// DefaultMaxDepth bounds recursion before a subtree is replaced by a marker.
const DefaultMaxDepth = 1000

type Converter struct {
	logger   *zap.Logger
	maxDepth int
	tagName  string
	text     *jsontext.Converter

	fields sync.Map // reflect.Type -> []fieldInfo
}

type Option func(c *Converter)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMaxDepth(depth int) Option {
	return func(c *Converter) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithTagName names struct fields after the given tag, e.g. "json".
// A "-" tag skips the field.
func WithTagName(tag string) Option {
	return func(c *Converter) {
		c.tagName = tag
	}
}

// WithTextConverter sets the converter used for embedded JSON text.
func WithTextConverter(text *jsontext.Converter) Option {
	return func(c *Converter) {
		if text != nil {
			c.text = text
		}
	}
}

func New(opts ...Option) *Converter {
	c := &Converter{
		logger:   zap.NewNop(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.text == nil {
		c.text = jsontext.New(jsontext.WithLogger(c.logger))
	}
	return c
}

var defaultConverter = New()

// ToValue converts obj with the default converter.
func ToValue(obj any) value.Value {
	return defaultConverter.ToValue(obj)
}

// ToValue converts obj. It never panics.
func (c *Converter) ToValue(obj any) (v value.Value) {
	if obj == nil {
		return value.Null()
	}
	defer func() {
		if r := recover(); r != nil {
			err := errors.Wrap(r, 2)
			c.logger.Debug("conversion panicked", zap.String("type", fmt.Sprintf("%T", obj)), zap.Error(err))
			v = value.String(err.Error())
		}
	}()

	w := &walker{Converter: c, visiting: make(map[visit]struct{})}
	return w.convert(reflect.ValueOf(obj), 0)
}

// visit identifies a pointer, map or slice currently on the recursion path.
type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type walker struct {
	*Converter
	visiting map[visit]struct{}
}

func (w *walker) convert(rv reflect.Value, depth int) value.Value {
	if !rv.IsValid() {
		return value.Null()
	}
	if depth > w.maxDepth {
		return value.String(fmt.Sprintf("<max depth %d exceeded>", w.maxDepth))
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return value.Null()
		}
	}

	t := rv.Type()
	switch shapeOf(t) {
	case shapeBool:
		return value.Bool(rv.Bool())
	case shapeInt:
		return number(strconv.FormatInt(rv.Int(), 10))
	case shapeUint:
		return number(strconv.FormatUint(rv.Uint(), 10))
	case shapeFloat:
		return number(strconv.FormatFloat(rv.Float(), 'g', -1, t.Bits()))
	case shapeComplex:
		return value.String(strconv.FormatComplex(rv.Complex(), 'g', -1, t.Bits()))
	case shapeString:
		return value.String(rv.String())
	case shapeNumberText:
		return number(rv.String())
	case shapePayload:
		return rv.Interface().(jsontext.Payload).ValueWith(w.text)
	case shapeRawJSON:
		return w.text.FromJSONText(string(rv.Bytes()))
	case shapeProtoValue:
		return structpb_wrapper.FromValue(rv.Interface().(*structpb.Value))
	case shapeProtoStruct:
		return structpb_wrapper.FromStruct(rv.Interface().(*structpb.Struct))
	case shapeProtoList:
		return structpb_wrapper.FromList(rv.Interface().(*structpb.ListValue))
	case shapeValuer:
		return w.guard(t, func() value.Value {
			return rv.Interface().(value.Valuer).StructValue()
		})
	case shapeProtoMessage:
		return w.guard(t, func() value.Value {
			data, err := protojson.Marshal(rv.Interface().(proto.Message))
			if err != nil {
				return value.String(err.Error())
			}
			return w.text.FromJSONText(string(data))
		})
	case shapeJSONMarshaler:
		return w.guard(t, func() value.Value {
			data, err := rv.Interface().(interface{ MarshalJSON() ([]byte, error) }).MarshalJSON()
			if err != nil {
				return value.String(err.Error())
			}
			return w.text.FromJSONText(string(data))
		})
	case shapeTextMarshaler:
		return w.guard(t, func() value.Value {
			text, err := rv.Interface().(interface{ MarshalText() ([]byte, error) }).MarshalText()
			if err != nil {
				return value.String(err.Error())
			}
			return value.String(string(text))
		})
	case shapeError:
		return w.guard(t, func() value.Value {
			return value.String(rv.Interface().(error).Error())
		})
	case shapeBytes:
		return value.String(base64.StdEncoding.EncodeToString(rv.Bytes()))
	case shapeList:
		return w.list(rv, depth)
	case shapeMap:
		return w.mapping(rv, depth)
	case shapeRecord:
		return w.record(rv, depth)
	case shapePointer:
		return w.pointer(rv, depth)
	case shapeInterface:
		return w.convert(rv.Elem(), depth)
	}
	return value.String(t.String())
}

// number parses the textual form of a numeric value; text that does not
// parse is kept as a string.
func number(text string) value.Value {
	n, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return value.String(text)
	}
	return value.Number(n)
}

// guard runs a user-supplied method, turning a panic into a String leaf.
func (w *walker) guard(t reflect.Type, fn func() value.Value) (v value.Value) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.Wrap(r, 2)
			w.logger.Debug("value method panicked", zap.Stringer("type", t), zap.Error(err))
			v = value.String(err.Error())
		}
	}()
	return fn()
}

// enter records rv on the recursion path. It reports false when rv is
// already being converted further up, which means the graph has a cycle.
func (w *walker) enter(rv reflect.Value) (visit, bool) {
	key := visit{ptr: rv.Pointer(), typ: rv.Type()}
	if rv.Kind() == reflect.Slice {
		key.len = rv.Len()
	}
	if _, ok := w.visiting[key]; ok {
		return key, false
	}
	w.visiting[key] = struct{}{}
	return key, true
}

func (w *walker) cycle(t reflect.Type) value.Value {
	w.logger.Debug("cycle in object graph", zap.Stringer("type", t))
	return value.String(fmt.Sprintf("<cycle: %s>", t))
}

func (w *walker) pointer(rv reflect.Value, depth int) value.Value {
	key, ok := w.enter(rv)
	if !ok {
		return w.cycle(rv.Type())
	}
	defer delete(w.visiting, key)
	return w.convert(rv.Elem(), depth+1)
}

func (w *walker) list(rv reflect.Value, depth int) value.Value {
	if rv.Kind() == reflect.Slice && rv.Len() > 0 {
		key, ok := w.enter(rv)
		if !ok {
			return w.cycle(rv.Type())
		}
		defer delete(w.visiting, key)
	}
	items := make([]value.Value, rv.Len())
	for i := range items {
		items[i] = w.convert(rv.Index(i), depth+1)
	}
	return value.List(items...)
}
