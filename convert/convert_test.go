package convert

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/yoshino-s/cloudlogging/jsontext"
	"github.com/yoshino-s/cloudlogging/value"
)

type TestStruct struct {
	StringField     string
	IntField        int32
	BoolField       bool
	unexportedField string

	ListField []string
	MapField  map[string]int32

	NestedField     NestedStruct
	ListNestedField []NestedStruct
	PointerField    *NestedStruct

	AnyField any
}

type NestedStruct struct {
	A string
}

type tagged struct {
	ID     int    `json:"id"`
	Name   string `json:"name,omitempty"`
	Secret string `json:"-"`
	Plain  bool
}

type node struct {
	Name string
	Next *node
}

type exploding struct{}

func (exploding) MarshalJSON() ([]byte, error) { panic("boom") }

type counter struct{ n int }

func (c counter) MarshalJSON() ([]byte, error) { return []byte(strconv.Itoa(c.n)), nil }

type withExploding struct {
	Before string
	Bad    exploding
	After  string
}

func TestScalars(t *testing.T) {
	Convey("Given scalar inputs", t, func() {
		So(ToValue(nil).IsNull(), ShouldBeTrue)
		So(ToValue((*NestedStruct)(nil)).IsNull(), ShouldBeTrue)
		So(value.Equal(ToValue(true), value.Bool(true)), ShouldBeTrue)
		So(value.Equal(ToValue(false), value.Bool(false)), ShouldBeTrue)
		So(value.Equal(ToValue(42), value.Number(42)), ShouldBeTrue)
		So(value.Equal(ToValue(3.14), value.Number(3.14)), ShouldBeTrue)
		So(value.Equal(ToValue("x"), value.String("x")), ShouldBeTrue)

		Convey("Numbers of every width become float64", func() {
			So(ToValue(int8(-3)).AsNumber(), ShouldEqual, -3.0)
			So(ToValue(uint16(7)).AsNumber(), ShouldEqual, 7.0)
			So(ToValue(float32(3.14)).AsNumber(), ShouldEqual, 3.14)
			So(ToValue(uint64(math.MaxUint64)).AsNumber(), ShouldEqual, 1.8446744073709552e19)
			So(ToValue(time.Second).AsNumber(), ShouldEqual, 1e9)
			So(math.IsInf(ToValue(math.Inf(-1)).AsNumber(), -1), ShouldBeTrue)
		})

		Convey("json.Number parses when it can", func() {
			So(ToValue(json.Number("12.5")).AsNumber(), ShouldEqual, 12.5)
			So(value.Equal(ToValue(json.Number("abc")), value.String("abc")), ShouldBeTrue)
		})

		Convey("Kinds without a tree form become strings", func() {
			So(ToValue(complex(1, 2)).AsString(), ShouldEqual, "(1+2i)")
			So(ToValue(func() {}).AsString(), ShouldEqual, "func()")
		})
	})
}

func TestCollections(t *testing.T) {
	Convey("Lists keep iteration order", t, func() {
		v := ToValue([]any{3, "b", nil, true})
		So(value.Equal(v, value.List(value.Number(3), value.String("b"), value.Null(), value.Bool(true))), ShouldBeTrue)
		So(ToValue([2]int{5, 6}).Index(1).AsNumber(), ShouldEqual, 6.0)
		So(ToValue([]int{}).Len(), ShouldEqual, 0)
		So(ToValue([]int{}).Kind(), ShouldEqual, value.ListKind)
		So(ToValue([]int(nil)).IsNull(), ShouldBeTrue)
	})

	Convey("Byte slices are base64 text", t, func() {
		So(ToValue([]byte{1, 2}).AsString(), ShouldEqual, "AQI=")
	})

	Convey("Maps become structs with sorted keys", t, func() {
		v := ToValue(map[string]int{"b": 2, "a": 1, "c": 3})
		fields := v.Fields()
		So(len(fields), ShouldEqual, 3)
		So(fields[0].Name, ShouldEqual, "a")
		So(fields[2].Name, ShouldEqual, "c")

		keyed := ToValue(map[int]string{10: "x", 2: "y"})
		got, ok := keyed.Get("10")
		So(ok, ShouldBeTrue)
		So(got.AsString(), ShouldEqual, "x")
	})
}

func TestStruct2Value(t *testing.T) {
	Convey("Given a struct", t, func() {
		v := TestStruct{
			StringField:     "abc",
			IntField:        123,
			BoolField:       false,
			unexportedField: "hidden",
			ListField:       []string{"x", "y"},
			NestedField:     NestedStruct{A: "a"},
			ListNestedField: []NestedStruct{{A: "b"}},
			AnyField:        map[string]any{"k": 1.5},
		}
		sv := ToValue(v)
		So(sv.Kind(), ShouldEqual, value.StructKind)

		Convey("Every exported field is present in declaration order", func() {
			names := []string{}
			for _, f := range sv.Fields() {
				names = append(names, f.Name)
			}
			So(names, ShouldResemble, []string{
				"StringField", "IntField", "BoolField", "ListField", "MapField",
				"NestedField", "ListNestedField", "PointerField", "AnyField",
			})
		})

		Convey("Each field is converted recursively", func() {
			for _, f := range sv.Fields() {
				switch f.Name {
				case "StringField":
					So(value.Equal(f.Value, ToValue(v.StringField)), ShouldBeTrue)
				case "NestedField":
					So(value.Equal(f.Value, value.Struct(value.F("A", value.String("a")))), ShouldBeTrue)
				case "ListNestedField":
					So(f.Value.Index(0).Fields()[0].Value.AsString(), ShouldEqual, "b")
				case "MapField", "PointerField":
					So(f.Value.IsNull(), ShouldBeTrue)
				case "AnyField":
					k, _ := f.Value.Get("k")
					So(k.AsNumber(), ShouldEqual, 1.5)
				}
			}
		})

		Convey("Field order is stable across calls", func() {
			So(ToValue(v).String(), ShouldEqual, sv.String())
		})
	})

	Convey("Given a tag name", t, func() {
		c := New(WithTagName("json"))
		v := c.ToValue(tagged{ID: 1, Name: "n", Secret: "s", Plain: true})
		names := []string{}
		for _, f := range v.Fields() {
			names = append(names, f.Name)
		}
		So(names, ShouldResemble, []string{"id", "name", "Plain"})
	})
}

func TestCapabilities(t *testing.T) {
	Convey("JSON payloads are parsed", t, func() {
		v := ToValue(struct{ Body jsontext.Payload }{Body: jsontext.NewPayload(`{"ok":true}`)})
		body, _ := v.Get("Body")
		ok, _ := body.Get("ok")
		So(ok.AsBool(), ShouldBeTrue)

		raw := ToValue(json.RawMessage(`[1,2]`))
		So(raw.Len(), ShouldEqual, 2)
	})

	Convey("Marshalers and errors use their own form", t, func() {
		at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		So(ToValue(at).AsString(), ShouldEqual, "2024-05-01T10:00:00Z")
		id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
		So(ToValue(id).AsString(), ShouldEqual, id.String())
		So(ToValue(errors.New("nope")).AsString(), ShouldEqual, "nope")
	})

	Convey("Marshalers that emit a bare scalar keep its kind", t, func() {
		So(value.Equal(ToValue(counter{n: 5}), value.Number(5)), ShouldBeTrue)
		So(value.Equal(ToValue(wrapperspb.Int32(7)), value.Number(7)), ShouldBeTrue)
		So(value.Equal(ToValue(wrapperspb.Double(2.5)), value.Number(2.5)), ShouldBeTrue)
		So(value.Equal(ToValue(wrapperspb.Bool(true)), value.Bool(true)), ShouldBeTrue)
		So(value.Equal(ToValue(struct{ C counter }{C: counter{n: 9}}), value.Struct(value.F("C", value.Number(9)))), ShouldBeTrue)
	})

	Convey("Protobuf values are bridged", t, func() {
		pv, err := structpb.NewValue(map[string]any{"a": []any{1.0, "x"}})
		So(err, ShouldBeNil)
		v := ToValue(pv)
		a, _ := v.Get("a")
		So(value.Equal(a, value.List(value.Number(1), value.String("x"))), ShouldBeTrue)

		ts := ToValue(timestamppb.New(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
		So(ts.AsString(), ShouldEqual, "2024-05-01T00:00:00Z")
	})

	Convey("A panicking method degrades only its own leaf", t, func() {
		v := ToValue(withExploding{Before: "b", After: "a"})
		bad, _ := v.Get("Bad")
		So(bad.Kind(), ShouldEqual, value.StringKind)
		So(bad.AsString(), ShouldContainSubstring, "boom")
		after, _ := v.Get("After")
		So(after.AsString(), ShouldEqual, "a")
	})
}

func TestIdempotence(t *testing.T) {
	Convey("Converting a converted tree is a no-op", t, func() {
		first := ToValue(TestStruct{StringField: "s", ListField: []string{"1"}})
		second := ToValue(first)
		So(second.String(), ShouldEqual, first.String())

		text := jsontext.FromJSONText(`{"z":[1,{"y":null}],"a":"b"}`)
		So(ToValue(text).String(), ShouldEqual, text.String())
	})
}

func TestCycles(t *testing.T) {
	Convey("A self-referencing pointer is cut", t, func() {
		n := &node{Name: "loop"}
		n.Next = n
		v := ToValue(n)
		next, _ := v.Get("Next")
		So(next.AsString(), ShouldEqual, "<cycle: *convert.node>")
	})

	Convey("A self-referencing map is cut", t, func() {
		m := map[string]any{}
		m["self"] = m
		self, _ := ToValue(m).Get("self")
		So(self.AsString(), ShouldStartWith, "<cycle: map[string]")
	})

	Convey("Shared but acyclic pointers are converted twice", t, func() {
		shared := &NestedStruct{A: "s"}
		v := ToValue([]*NestedStruct{shared, shared})
		So(v.Index(0).Kind(), ShouldEqual, value.StructKind)
		So(v.Index(1).Kind(), ShouldEqual, value.StructKind)
	})
}

func TestDepth(t *testing.T) {
	type nest struct {
		Child *nest
	}
	build := func(n int) *nest {
		root := &nest{}
		cur := root
		for i := 1; i < n; i++ {
			cur.Child = &nest{}
			cur = cur.Child
		}
		return root
	}

	Convey("100 nested structs convert completely", t, func() {
		v := ToValue(build(100))
		depth := 0
		for v.Kind() == value.StructKind {
			v, _ = v.Get("Child")
			depth++
		}
		So(depth, ShouldEqual, 100)
		So(v.IsNull(), ShouldBeTrue)
	})

	Convey("Nesting past the limit ends in a marker", t, func() {
		v := New(WithMaxDepth(5)).ToValue(build(100))
		for v.Kind() == value.StructKind {
			v, _ = v.Get("Child")
		}
		So(v.AsString(), ShouldEqual, "<max depth 5 exceeded>")
	})
}
