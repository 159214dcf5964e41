package jsontext

import (
	"github.com/yoshino-s/cloudlogging/value"
)

// Payload marks text that is already JSON. The object converter parses it
// instead of treating it as an opaque string.
type Payload struct {
	Text string
}

func NewPayload(text string) Payload {
	return Payload{Text: text}
}

// StructValue parses the payload with the default converter.
func (p Payload) StructValue() value.Value {
	return FromJSONText(p.Text)
}

// ValueWith parses the payload with c.
func (p Payload) ValueWith(c *Converter) value.Value {
	if c == nil {
		return p.StructValue()
	}
	return c.FromJSONText(p.Text)
}
