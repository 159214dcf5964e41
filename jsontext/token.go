package jsontext

import (
	"fmt"
	"regexp"
	"strconv"
)

// Kind classifies a Token. The set is wider than what JSON itself can
// express so that tokenizers recognising dates, identifiers and similar
// string forms can say so.
type Kind int

const (
	None Kind = iota
	Object
	Array
	Constructor
	Property
	Comment
	Integer
	Float
	String
	Boolean
	Null
	Undefined
	Date
	Raw
	Bytes
	Guid
	Uri
	TimeSpan
)

var kindNames = [...]string{
	None:        "none",
	Object:      "object",
	Array:       "array",
	Constructor: "constructor",
	Property:    "property",
	Comment:     "comment",
	Integer:     "integer",
	Float:       "float",
	String:      "string",
	Boolean:     "boolean",
	Null:        "null",
	Undefined:   "undefined",
	Date:        "date",
	Raw:         "raw",
	Bytes:       "bytes",
	Guid:        "guid",
	Uri:         "uri",
	TimeSpan:    "timespan",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Token is a node of the parsed tree.
//
// Object children are Property tokens whose single child is the member
// value. Path is the location of the token from the root, e.g. a.b[0].
type Token struct {
	Kind     Kind
	Name     string
	Path     string
	Text     string
	Children []*Token
}

// Value returns the value of a Property token, nil otherwise.
func (t *Token) Value() *Token {
	if t == nil || t.Kind != Property || len(t.Children) == 0 {
		return nil
	}
	return t.Children[0]
}

var plainKey = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func memberPath(parent, name string) string {
	if !plainKey.MatchString(name) {
		return parent + "['" + name + "']"
	}
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func indexPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}
