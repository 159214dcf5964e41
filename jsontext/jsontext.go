// Package jsontext converts raw JSON text into a value.Value.
//
// Conversion never fails: blank text becomes Null, and text that cannot be
// tokenized becomes a String holding the reason. A malformed request body
// must not take the request down with it.
package jsontext

import (
	"fmt"
	"strconv"

	"github.com/go-errors/errors"
	"github.com/gookit/goutil/strutil"
	"github.com/tidwall/jsonc"
	"go.uber.org/zap"

	"github.com/yoshino-s/cloudlogging/value"
)

// DefaultMaxDepth bounds container nesting before subtrees are kept as Raw text.
const DefaultMaxDepth = 1000

type Converter struct {
	lenient  bool
	maxDepth int
	logger   *zap.Logger
}

type Option func(c *Converter)

// WithLenient toggles acceptance of comments and trailing commas.
func WithLenient(lenient bool) Option {
	return func(c *Converter) {
		c.lenient = lenient
	}
}

func WithMaxDepth(depth int) Option {
	return func(c *Converter) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(opts ...Option) *Converter {
	c := &Converter{
		lenient:  true,
		maxDepth: DefaultMaxDepth,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultConverter = New()

// FromJSONText converts text with the default converter.
func FromJSONText(text string) value.Value {
	return defaultConverter.FromJSONText(text)
}

// FromJSONText parses text and maps its tokens to a Value.
func (c *Converter) FromJSONText(text string) (v value.Value) {
	if strutil.IsBlank(text) {
		return value.Null()
	}
	defer c.recoverInto(&v)

	data := []byte(text)
	if c.lenient {
		data = jsonc.ToJSON(data)
		if strutil.IsBlank(string(data)) {
			return value.Null()
		}
	}
	tok, err := parse(data, c.maxDepth)
	if err != nil {
		c.logger.Debug("unparsable JSON text", zap.Error(err), zap.Int("length", len(text)))
		return value.String(err.Error())
	}
	return c.FromToken(tok)
}

// FromToken maps a token tree to a Value.
func (c *Converter) FromToken(tok *Token) (v value.Value) {
	defer c.recoverInto(&v)

	v, err := c.tokenValue(tok)
	if err != nil {
		c.logger.Debug("unconvertible JSON token", zap.Error(err))
		return value.String(err.Error())
	}
	return v
}

func (c *Converter) recoverInto(v *value.Value) {
	if r := recover(); r != nil {
		err := errors.Wrap(r, 2)
		c.logger.Debug("JSON text conversion panicked", zap.Error(err), zap.ByteString("stack", err.Stack()))
		*v = value.String(err.Error())
	}
}

func (c *Converter) tokenValue(tok *Token) (value.Value, error) {
	if tok == nil {
		return value.Null(), nil
	}

	switch tok.Kind {
	case Null, Undefined:
		return value.Null(), nil
	case Integer, Float:
		n, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return value.Value{}, fmt.Errorf("jsontext: number at %q: %w", tok.Path, err)
		}
		return value.Number(n), nil
	case Boolean:
		b, err := strconv.ParseBool(tok.Text)
		if err != nil {
			return value.Value{}, fmt.Errorf("jsontext: boolean at %q: %w", tok.Path, err)
		}
		return value.Bool(b), nil
	case Property:
		return c.tokenValue(tok.Value())
	case Object:
		fields := make([]value.Field, 0, len(tok.Children))
		for _, child := range tok.Children {
			name := child.Path
			if child.Kind == Property {
				name = child.Name
			}
			v, err := c.tokenValue(child)
			if err != nil {
				return value.Value{}, err
			}
			fields = append(fields, value.F(name, v))
		}
		return value.Struct(fields...), nil
	case Array:
		items := make([]value.Value, 0, len(tok.Children))
		for _, child := range tok.Children {
			v, err := c.tokenValue(child)
			if err != nil {
				return value.Value{}, err
			}
			items = append(items, v)
		}
		return value.List(items...), nil
	case String, None, Constructor, Comment, Date, Raw, Bytes, Guid, Uri, TimeSpan:
		return value.String(tok.Text), nil
	}
	return value.Null(), nil
}
