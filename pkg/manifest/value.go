package manifest

import (
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindNull
	KindTypedRef
	KindList
	KindBareWord
)

var kindNames = map[Kind]string{
	KindString:   "string",
	KindInt:      "int",
	KindBool:     "bool",
	KindNull:     "undef",
	KindTypedRef: "typed reference",
	KindList:     "list",
	KindBareWord: "bare word",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an attribute value as written in a manifest. Values are never
// mutated once parsed.
type Value interface {
	Kind() Kind
	// Native returns the plain Go value used for serialization:
	// string, int, bool, nil or []string.
	Native() any
	String() string
}

// Str is a single-quoted string.
type Str string

// Int is an integer produced from a quoted uid/gid digit literal.
type Int int

// Bool is the true or false keyword.
type Bool bool

// Null is the undef keyword.
type Null struct{}

// TypedRef is a bracketed type reference such as File['/etc/motd'].
// Raw keeps the source text verbatim.
type TypedRef struct {
	Namespace string
	Literal   string
	Raw       string
}

// List is a bracketed list of quoted strings.
type List []string

// BareWord is an unquoted identifier or number.
type BareWord string

func (Str) Kind() Kind      { return KindString }
func (Int) Kind() Kind      { return KindInt }
func (Bool) Kind() Kind     { return KindBool }
func (Null) Kind() Kind     { return KindNull }
func (TypedRef) Kind() Kind { return KindTypedRef }
func (List) Kind() Kind     { return KindList }
func (BareWord) Kind() Kind { return KindBareWord }

func (v Str) Native() any      { return string(v) }
func (v Int) Native() any      { return int(v) }
func (v Bool) Native() any     { return bool(v) }
func (Null) Native() any       { return nil }
func (v TypedRef) Native() any { return v.Raw }
func (v BareWord) Native() any { return string(v) }

func (v List) Native() any {
	out := make([]string, len(v))
	copy(out, v)
	return out
}

func (v Str) String() string      { return "'" + string(v) + "'" }
func (v Int) String() string      { return "'" + strconv.Itoa(int(v)) + "'" }
func (v Bool) String() string     { return strconv.FormatBool(bool(v)) }
func (Null) String() string       { return "undef" }
func (v TypedRef) String() string { return v.Raw }
func (v BareWord) String() string { return string(v) }

func (v List) String() string {
	quoted := make([]string, len(v))
	for i, s := range v {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// AsInt converts v to an integer. Int values convert directly; strings and
// bare words convert when they hold a base 10 number.
func AsInt(v Value) (int, bool) {
	switch val := v.(type) {
	case Int:
		return int(val), true
	case Str:
		n, err := strconv.Atoi(strings.TrimSpace(string(val)))
		return n, err == nil
	case BareWord:
		n, err := strconv.Atoi(string(val))
		return n, err == nil
	}
	return 0, false
}

// AsText returns the textual payload of string-like values.
func AsText(v Value) (string, bool) {
	switch val := v.(type) {
	case Str:
		return string(val), true
	case BareWord:
		return string(val), true
	}
	return "", false
}
