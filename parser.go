package resultline

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// resultToken is the literal every result line must begin with.
const resultToken = "RESULT"

// Parse decodes a single result line into its key/value pairs, preserving
// the order in which they appear. The line must begin with the RESULT
// literal; anything else, including leading whitespace, fails with
// ErrMalformedLine. A bare "RESULT" with no pairs is valid and decodes to
// zero pairs.
//
// Parsing is best-effort after the literal: pairs are consumed from left
// to right, and the first stretch of input that does not form a
// whitespace-prefixed key=value pair ends the parse. The remaining tail is
// discarded without error.
func Parse(line string) (Pairs, error) {
	s := scanner{input: line}
	if !s.consume(resultToken) {
		return nil, errors.Wrapf(ErrMalformedLine, "input does not begin with the %s literal", resultToken)
	}

	var pairs Pairs
	for {
		mark := s.pos
		if s.spaces() == 0 {
			break
		}
		key, value, ok := s.pair()
		if !ok {
			s.pos = mark
			break
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	return pairs, nil
}

// ParseBytes is Parse for a raw byte slice.
func ParseBytes(data []byte) (Pairs, error) {
	return Parse(string(data))
}

// scanner is a byte cursor over a single line. All delimiters in the
// grammar are ASCII, so scanning bytes is safe for UTF-8 input.
type scanner struct {
	input string
	pos   int
}

func (s *scanner) rest() string {
	return s.input[s.pos:]
}

// consume advances past lit if the input continues with it.
func (s *scanner) consume(lit string) bool {
	if !strings.HasPrefix(s.rest(), lit) {
		return false
	}
	s.pos += len(lit)
	return true
}

func (s *scanner) consumeByte(c byte) bool {
	if s.pos >= len(s.input) || s.input[s.pos] != c {
		return false
	}
	s.pos++
	return true
}

// spaces consumes a run of spaces and tabs, returning its length. Pair
// separators are limited to these two bytes; other whitespace ends the
// parse.
func (s *scanner) spaces() int {
	n := 0
	for s.pos < len(s.input) && isLineSpace(s.input[s.pos]) {
		s.pos++
		n++
	}
	return n
}

// pair parses one key=value unit. The caller restores the cursor on
// failure, so partial consumption here is fine.
func (s *scanner) pair() (string, Value, bool) {
	key, ok := s.keyToken()
	if !ok {
		return "", Value{}, false
	}
	if !s.consumeByte('=') {
		return "", Value{}, false
	}
	value, ok := s.valueToken()
	if !ok {
		return "", Value{}, false
	}
	return key, value, true
}

// keyToken parses a key: either a quoted token or a bare token running up
// to the next '='. The bare form scans the whole remaining input for '=',
// so an unquoted key may swallow a later pair's text; quoting avoids that.
func (s *scanner) keyToken() (string, bool) {
	if tok, ok := s.quoted(); ok {
		return tok, true
	}
	return s.bareToken()
}

// quoted parses "..." with at least one character between the quotes.
// There is no escaping; the token ends at the first '"'.
func (s *scanner) quoted() (string, bool) {
	if s.pos >= len(s.input) || s.input[s.pos] != '"' {
		return "", false
	}
	end := strings.IndexByte(s.input[s.pos+1:], '"')
	if end <= 0 {
		return "", false
	}
	tok := s.input[s.pos+1 : s.pos+1+end]
	s.pos += end + 2
	return tok, true
}

// bareToken consumes everything up to, but not including, the next '='.
// Fails if there is no '=' ahead or if it is the very next byte.
func (s *scanner) bareToken() (string, bool) {
	idx := strings.IndexByte(s.rest(), '=')
	if idx <= 0 {
		return "", false
	}
	tok := s.rest()[:idx]
	s.pos += idx
	return tok, true
}

// valueToken parses a value. Alternatives are tried in a fixed order and
// the first match wins: quoted text, boolean literal, integer followed by
// whitespace, float, and finally bare text. The ordering is part of the
// format: an integer not followed by a space or tab (for example one at
// the very end of the line) falls through to the float branch and decodes
// as a float.
func (s *scanner) valueToken() (Value, bool) {
	if tok, ok := s.quoted(); ok {
		return Text(tok), true
	}
	if b, ok := s.boolLiteral(); ok {
		return Bool(b), true
	}
	if n, ok := s.integerBeforeSpace(); ok {
		return Integer(n), true
	}
	if f, ok := s.float(); ok {
		return Float(f), true
	}
	if tok, ok := s.keyToken(); ok {
		return Text(tok), true
	}
	return Value{}, false
}

// boolLiteral matches a "true" or "false" prefix. Like every alternative
// here it is a pure prefix match: "truest" parses as true with "st" left
// in the input.
func (s *scanner) boolLiteral() (bool, bool) {
	if s.consume("true") {
		return true, true
	}
	if s.consume("false") {
		return false, true
	}
	return false, false
}

// integerBeforeSpace parses a signed decimal integer that is immediately
// followed by a space or tab. The separator is peeked, not consumed. A
// value that overflows int64 is left for the float branch.
func (s *scanner) integerBeforeSpace() (int64, bool) {
	rest := s.rest()
	i := 0
	if i < len(rest) && (rest[i] == '+' || rest[i] == '-') {
		i++
	}
	start := i
	for i < len(rest) && isDigit(rest[i]) {
		i++
	}
	if i == start {
		return 0, false
	}
	if i >= len(rest) || !isLineSpace(rest[i]) {
		return 0, false
	}
	n, err := strconv.ParseInt(rest[:i], 10, 64)
	if err != nil {
		return 0, false
	}
	s.pos += i
	return n, true
}

// float parses the longest float prefix: optional sign, then either a
// decimal number with optional fraction and exponent, or one of the named
// values inf, infinity and nan (case-insensitive).
func (s *scanner) float() (float64, bool) {
	n := scanFloatPrefix(s.rest())
	if n == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s.rest()[:n], 64)
	if err != nil {
		return 0, false
	}
	s.pos += n
	return f, true
}

// scanFloatPrefix returns the length of the float token at the start of
// rest, or 0 if there is none.
func scanFloatPrefix(rest string) int {
	i := 0
	if i < len(rest) && (rest[i] == '+' || rest[i] == '-') {
		i++
	}
	if n := scanNamedFloat(rest[i:]); n > 0 {
		return i + n
	}

	start := i
	for i < len(rest) && isDigit(rest[i]) {
		i++
	}
	if i > start {
		// digits, optionally followed by '.' and more digits
		if i < len(rest) && rest[i] == '.' {
			i++
			for i < len(rest) && isDigit(rest[i]) {
				i++
			}
		}
	} else {
		// no leading digits: only ".digits" remains possible
		if i >= len(rest) || rest[i] != '.' {
			return 0
		}
		i++
		start = i
		for i < len(rest) && isDigit(rest[i]) {
			i++
		}
		if i == start {
			return 0
		}
	}

	// optional exponent; ignored entirely when incomplete, so "12e" scans
	// as "12"
	if i < len(rest) && (rest[i] == 'e' || rest[i] == 'E') {
		j := i + 1
		if j < len(rest) && (rest[j] == '+' || rest[j] == '-') {
			j++
		}
		ds := j
		for j < len(rest) && isDigit(rest[j]) {
			j++
		}
		if j > ds {
			i = j
		}
	}
	return i
}

func scanNamedFloat(rest string) int {
	if hasFoldPrefix(rest, "infinity") {
		return len("infinity")
	}
	if hasFoldPrefix(rest, "inf") {
		return len("inf")
	}
	if hasFoldPrefix(rest, "nan") {
		return len("nan")
	}
	return 0
}

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func isLineSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
