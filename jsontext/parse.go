package jsontext

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var (
	ErrUnexpectedEnd   = errors.New("jsontext: unexpected end of JSON input")
	ErrTrailingContent = errors.New("jsontext: additional text after the JSON value")
)

// iterators come from a frozen config so they can be pooled.
var iterators = jsoniter.Config{UseNumber: true}.Froze()

// Parse tokenizes a single JSON value into a Token tree. Containers nested
// deeper than DefaultMaxDepth are kept as Raw tokens.
func Parse(text string) (*Token, error) {
	return parse([]byte(text), DefaultMaxDepth)
}

func parse(data []byte, maxDepth int) (*Token, error) {
	iter := iterators.BorrowIterator(data)
	defer iterators.ReturnIterator(iter)

	p := &parser{iter: iter, maxDepth: maxDepth}
	root := p.read("", 0)
	// A number at the very end of the buffer leaves io.EOF behind even
	// though it was read completely.
	if iter.Error == io.EOF && root != nil && root.Kind != Object && root.Kind != Array {
		iter.Error = nil
	}
	if iter.Error != nil {
		if iter.Error == io.EOF {
			return nil, ErrUnexpectedEnd
		}
		return nil, fmt.Errorf("jsontext: %w", iter.Error)
	}
	// A clean end leaves nothing but whitespace, which WhatIsNext reports
	// as an invalid value together with io.EOF.
	if next := iter.WhatIsNext(); next != jsoniter.InvalidValue || iter.Error != io.EOF {
		return nil, fmt.Errorf("%w (path %q)", ErrTrailingContent, root.Path)
	}
	return root, nil
}

type parser struct {
	iter     *jsoniter.Iterator
	maxDepth int
}

func (p *parser) read(path string, depth int) *Token {
	iter := p.iter
	next := iter.WhatIsNext()
	if depth >= p.maxDepth && (next == jsoniter.ObjectValue || next == jsoniter.ArrayValue) {
		return &Token{Kind: Raw, Path: path, Text: string(iter.SkipAndReturnBytes())}
	}

	switch next {
	case jsoniter.NilValue:
		iter.ReadNil()
		return &Token{Kind: Null, Path: path, Text: "null"}
	case jsoniter.BoolValue:
		return &Token{Kind: Boolean, Path: path, Text: strconv.FormatBool(iter.ReadBool())}
	case jsoniter.NumberValue:
		return p.readNumber(path)
	case jsoniter.StringValue:
		s := iter.ReadString()
		return &Token{Kind: classify(s), Path: path, Text: s}
	case jsoniter.ArrayValue:
		tok := &Token{Kind: Array, Path: path}
		iter.ReadArrayCB(func(iter *jsoniter.Iterator) bool {
			child := p.read(indexPath(path, len(tok.Children)), depth+1)
			if child == nil {
				return false
			}
			tok.Children = append(tok.Children, child)
			return keepReading(iter)
		})
		return tok
	case jsoniter.ObjectValue:
		tok := &Token{Kind: Object, Path: path}
		iter.ReadMapCB(func(iter *jsoniter.Iterator, key string) bool {
			childPath := memberPath(path, key)
			child := p.read(childPath, depth+1)
			if child == nil {
				return false
			}
			tok.Children = append(tok.Children, &Token{
				Kind:     Property,
				Name:     key,
				Path:     childPath,
				Children: []*Token{child},
			})
			return keepReading(iter)
		})
		return tok
	}
	iter.ReportError("read", "unexpected character")
	return nil
}

// keepReading lets a container continue after a child that ran into the end
// of input, so the container itself reports the missing closing bracket.
func keepReading(iter *jsoniter.Iterator) bool {
	return iter.Error == nil || iter.Error == io.EOF
}

func (p *parser) readNumber(path string) *Token {
	text := string(p.iter.ReadNumber())
	if _, err := strconv.ParseFloat(text, 64); err != nil && !errors.Is(err, strconv.ErrRange) {
		p.iter.ReportError("readNumber", fmt.Sprintf("invalid number %q", text))
		return nil
	}
	kind := Integer
	if strings.ContainsAny(text, ".eE") {
		kind = Float
	}
	return &Token{Kind: kind, Path: path, Text: text}
}

// classify recognises string forms that carry more meaning than text.
func classify(s string) Kind {
	switch {
	case len(s) == 36 && uuid.Validate(s) == nil:
		return Guid
	case isDate(s):
		return Date
	case isURI(s):
		return Uri
	}
	return String
}

func isDate(s string) bool {
	if len(s) < len(time.DateOnly) || s[0] < '0' || s[0] > '9' {
		return false
	}
	if _, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return true
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

func isURI(s string) bool {
	if strings.ContainsAny(s, " \t\r\n") || !strings.Contains(s, "://") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
