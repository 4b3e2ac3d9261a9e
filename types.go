// Package resultline implements the RESULT line format used to record
// key/value measurement data as a single human-readable line of text.
//
// A result line starts with the literal token RESULT followed by
// whitespace-separated key=value pairs:
//
//	RESULT benchmark="bulk insert" items=100000 duration=12.85 cached=true
//
// Values are typed during parsing (text, integer, float, boolean), and any
// key or text value containing whitespace is wrapped in double quotes.
// There are no escape sequences, so a literal '"' inside a token cannot be
// represented.
package resultline

import (
	"strconv"
	"strings"
	"unicode"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	// KindEmpty marks an absent value; it is the zero Value's kind.
	// Empty values assigned to a pair remove that pair from encoded output.
	KindEmpty Kind = iota
	// KindNamed is a key/value pair wrapped as a value.
	KindNamed
	// KindInteger is a signed 64-bit integer, e.g. -123423904.
	KindInteger
	// KindFloat is a double-precision float, e.g. 8123.23.
	KindFloat
	// KindBoolean is a boolean, e.g. true.
	KindBoolean
	// KindCharacter is a single Unicode code point, e.g. 'a'.
	KindCharacter
	// KindText is a text string, e.g. "some value".
	KindText
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNamed:
		return "named"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindCharacter:
		return "character"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Value represents a single typed value within a result line. The zero
// Value is the empty variant.
type Value struct {
	kind Kind

	// Scalar storage; only one is valid based on kind. Integers, booleans
	// and characters share num.
	num  int64
	fnum float64
	str  string

	// Named pairs are heap-indirected so the self-referential type keeps a
	// fixed size.
	item *NamedItem
}

// NamedItem is a single key=value unit within a result line.
type NamedItem struct {
	// Name of the item; must hold a scalar value, never a nested pair.
	Name Value
	// Value of the item.
	Value Value
}

// Integer creates an integer value.
func Integer(v int64) Value {
	return Value{kind: KindInteger, num: v}
}

// Uint creates an integer value from an unsigned integer, widening it into
// the signed representation (values above MaxInt64 wrap).
func Uint(v uint64) Value {
	return Value{kind: KindInteger, num: int64(v)}
}

// Float creates a float value.
func Float(v float64) Value {
	return Value{kind: KindFloat, fnum: v}
}

// Bool creates a boolean value.
func Bool(v bool) Value {
	var n int64
	if v {
		n = 1
	}
	return Value{kind: KindBoolean, num: n}
}

// Char creates a character value.
func Char(v rune) Value {
	return Value{kind: KindCharacter, num: int64(v)}
}

// Text creates a text value.
func Text(v string) Value {
	return Value{kind: KindText, str: v}
}

// Empty creates an empty value, equal to the zero Value.
func Empty() Value {
	return Value{}
}

// Named creates a pair value from a key and a value. The key must be a
// scalar; the encoder rejects anything else with ErrUnnamedItem.
func Named(name, value Value) Value {
	return Value{kind: KindNamed, item: &NamedItem{Name: name, Value: value}}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsEmpty reports whether v is the empty variant.
func (v Value) IsEmpty() bool {
	return v.kind == KindEmpty
}

// isScalar reports whether v may name a pair: any variant except empty and
// named pairs.
func (v Value) isScalar() bool {
	return v.kind != KindEmpty && v.kind != KindNamed
}

// Int64 returns the integer value, or 0 if v is not an integer.
func (v Value) Int64() int64 {
	if v.kind != KindInteger {
		return 0
	}
	return v.num
}

// Float64 returns the float value, or 0 if v is not a float.
func (v Value) Float64() float64 {
	if v.kind != KindFloat {
		return 0
	}
	return v.fnum
}

// Bool returns the boolean value, or false if v is not a boolean.
func (v Value) Bool() bool {
	return v.kind == KindBoolean && v.num != 0
}

// Rune returns the character value, or 0 if v is not a character.
func (v Value) Rune() rune {
	if v.kind != KindCharacter {
		return 0
	}
	return rune(v.num)
}

// Str returns the text value, or "" if v is not text.
func (v Value) Str() string {
	if v.kind != KindText {
		return ""
	}
	return v.str
}

// NamedItem returns the wrapped pair, or nil if v is not a named value.
func (v Value) NamedItem() *NamedItem {
	if v.kind != KindNamed {
		return nil
	}
	return v.item
}

// Interface returns the native Go representation of v: int64, float64,
// bool, rune, string, *NamedItem, or nil for the empty variant.
func (v Value) Interface() any {
	switch v.kind {
	case KindInteger:
		return v.num
	case KindFloat:
		return v.fnum
	case KindBoolean:
		return v.num != 0
	case KindCharacter:
		return rune(v.num)
	case KindText:
		return v.str
	case KindNamed:
		return v.item
	default:
		return nil
	}
}

// String renders v the way it appears inside a result line. Empty values
// render as the empty string; named pairs render as key=value.
func (v Value) String() string {
	switch v.kind {
	case KindNamed:
		return v.item.String()
	case KindInteger:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.fnum, 'f', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.num != 0)
	case KindCharacter:
		return string(rune(v.num))
	case KindText:
		return v.str
	default:
		return ""
	}
}

// String renders the pair as key=value. The key and the value are treated
// independently: a text side containing whitespace is wrapped in double
// quotes, every other rendering is emitted as-is.
func (n NamedItem) String() string {
	var b strings.Builder
	writeToken(&b, n.Name)
	b.WriteByte('=')
	writeToken(&b, n.Value)
	return b.String()
}

func writeToken(b *strings.Builder, v Value) {
	if v.kind == KindText && strings.ContainsFunc(v.str, unicode.IsSpace) {
		b.WriteByte('"')
		b.WriteString(v.str)
		b.WriteByte('"')
		return
	}
	b.WriteString(v.String())
}
