package runtime

import (
	"github.com/go-viper/mapstructure/v2"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/yoshino-s/cloudlogging/convert"
	"github.com/yoshino-s/cloudlogging/structpb_wrapper"
)

// ToStructPbValue converts any Go value into a protobuf Value. It never
// fails; unreadable parts become string leaves.
func ToStructPbValue(v any) *structpb.Value {
	return structpb_wrapper.NewValue(convert.ToValue(v))
}

// ToStructPb converts v and requires the result to be an object.
func ToStructPb(v any) (*structpb.Struct, error) {
	return structpb_wrapper.NewStruct(convert.ToValue(v))
}

// FromStructPbValue decodes a protobuf Value back into dst, matching
// struct fields by name case-insensitively.
func FromStructPbValue(fro *structpb.Value, dst any) error {
	return mapstructure.Decode(fro.AsInterface(), dst)
}
