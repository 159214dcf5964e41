package structpb_wrapper

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/yoshino-s/cloudlogging/value"
)

func TestRoundTrip(t *testing.T) {
	Convey("Given a tree", t, func() {
		v := value.Struct(
			value.F("s", value.String("abc")),
			value.F("n", value.Number(1.5)),
			value.F("b", value.Bool(true)),
			value.F("z", value.Null()),
			value.F("l", value.List(value.Number(1), value.Struct(value.F("x", value.String("y"))))),
		)

		Convey("It survives a protobuf round trip", func() {
			pv := NewValue(v)
			data, err := proto.Marshal(pv)
			So(err, ShouldBeNil)
			var decoded structpb.Value
			So(proto.Unmarshal(data, &decoded), ShouldBeNil)
			So(value.Equal(FromValue(&decoded), v), ShouldBeTrue)
		})

		Convey("Fields come back sorted", func() {
			back := FromValue(NewValue(v))
			names := []string{}
			for _, f := range back.Fields() {
				names = append(names, f.Name)
			}
			So(names, ShouldResemble, []string{"b", "l", "n", "s", "z"})
		})
	})

	Convey("Invalid UTF-8 is replaced", t, func() {
		pv := NewValue(value.Struct(value.F("k\xff", value.String("v\xfe"))))
		_, err := proto.Marshal(pv)
		So(err, ShouldBeNil)
		back := FromValue(pv)
		So(back.Fields()[0].Name, ShouldEqual, "k�")
	})

	Convey("Typed constructors check the kind", t, func() {
		_, err := NewStruct(value.List())
		So(err, ShouldEqual, ErrNotStruct)
		_, err = NewList(value.Null())
		So(err, ShouldEqual, ErrNotList)
		s, err := NewStruct(value.Struct(value.F("a", value.Null())))
		So(err, ShouldBeNil)
		So(s.GetFields(), ShouldContainKey, "a")
	})

	Convey("Nil messages convert to Null", t, func() {
		So(FromValue(nil).IsNull(), ShouldBeTrue)
		So(FromStruct(nil).IsNull(), ShouldBeTrue)
		So(FromList(nil).IsNull(), ShouldBeTrue)
	})
}
