package value

import (
	"math"

	jsoniter "github.com/json-iterator/go"
)

// encoding keeps struct fields in their stored order instead of sorting
// them the way encoding/json does for maps.
var encoding = jsoniter.Config{
	EscapeHTML: false,
}.Froze()

// MarshalJSON writes v as JSON. Non-finite numbers are written as the
// strings "NaN", "Infinity" and "-Infinity".
func (v Value) MarshalJSON() ([]byte, error) {
	stream := encoding.BorrowStream(nil)
	defer encoding.ReturnStream(stream)

	writeValue(stream, v)
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

func writeValue(stream *jsoniter.Stream, v Value) {
	switch v.kind {
	case NullKind:
		stream.WriteNil()
	case BoolKind:
		stream.WriteBool(v.b)
	case NumberKind:
		switch {
		case math.IsNaN(v.n):
			stream.WriteString("NaN")
		case math.IsInf(v.n, 1):
			stream.WriteString("Infinity")
		case math.IsInf(v.n, -1):
			stream.WriteString("-Infinity")
		default:
			stream.WriteFloat64(v.n)
		}
	case StringKind:
		stream.WriteString(v.s)
	case ListKind:
		stream.WriteArrayStart()
		for i, item := range v.items {
			if i > 0 {
				stream.WriteMore()
			}
			writeValue(stream, item)
		}
		stream.WriteArrayEnd()
	case StructKind:
		stream.WriteObjectStart()
		for i, f := range v.fields {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(f.Name)
			writeValue(stream, f.Value)
		}
		stream.WriteObjectEnd()
	}
}
