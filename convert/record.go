package convert

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/yoshino-s/cloudlogging/value"
)

type fieldInfo struct {
	name  string
	index int
}

// fieldsOf lists the exported fields of a struct type in declaration order.
func (w *walker) fieldsOf(t reflect.Type) []fieldInfo {
	if cached, ok := w.fields.Load(t); ok {
		return cached.([]fieldInfo)
	}
	fields := make([]fieldInfo, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if w.tagName != "" {
			tag, _, _ := strings.Cut(field.Tag.Get(w.tagName), ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		fields = append(fields, fieldInfo{name: name, index: i})
	}
	w.fields.Store(t, fields)
	return fields
}

func (w *walker) record(rv reflect.Value, depth int) value.Value {
	infos := w.fieldsOf(rv.Type())
	fields := make([]value.Field, len(infos))
	for i, info := range infos {
		fields[i] = value.F(info.name, w.convert(rv.Field(info.index), depth+1))
	}
	return value.Struct(fields...)
}

// mapping converts a map into a Struct. Go maps have no order, so keys are
// sorted to keep output reproducible.
func (w *walker) mapping(rv reflect.Value, depth int) value.Value {
	key, ok := w.enter(rv)
	if !ok {
		return w.cycle(rv.Type())
	}
	defer delete(w.visiting, key)

	fields := make(map[string]value.Value, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		fields[w.mapKey(iter.Key())] = w.convert(iter.Value(), depth+1)
	}
	return value.StructOf(fields)
}

func (w *walker) mapKey(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10)
	case reflect.Pointer, reflect.Interface:
		if k.IsNil() {
			return "<nil>"
		}
	}
	if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
		if text, err := tm.MarshalText(); err == nil {
			return string(text)
		}
	}
	return fmt.Sprint(k.Interface())
}
