package resultline

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Simple(t *testing.T) {
	pairs, err := Parse(`RESULT a="some value" "a key"=12315 c=true`)
	require.NoError(t, err)
	require.Len(t, pairs, 3)

	assert.Equal(t, Pair{Key: "a", Value: Text("some value")}, pairs[0])
	assert.Equal(t, Pair{Key: "a key", Value: Integer(12315)}, pairs[1])
	assert.Equal(t, Pair{Key: "c", Value: Bool(true)}, pairs[2])
}

func TestParseBytes(t *testing.T) {
	pairs, err := ParseBytes([]byte("RESULT items=100000 cached=true"))
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, Integer(100000), pairs[0].Value)
	assert.Equal(t, Bool(true), pairs[1].Value)
}

func TestParse_MixedValues(t *testing.T) {
	pairs, err := Parse(`RESULT a="hello world" b=-123423904 "a key"=8123 nowhitespace=8123.23 d=true`)
	require.NoError(t, err)
	require.Len(t, pairs, 5)

	want := Pairs{
		{Key: "a", Value: Text("hello world")},
		{Key: "b", Value: Integer(-123423904)},
		{Key: "a key", Value: Integer(8123)},
		{Key: "nowhitespace", Value: Float(8123.23)},
		{Key: "d", Value: Bool(true)},
	}
	assert.Equal(t, want, pairs)
}

func TestParse_BareLine(t *testing.T) {
	for _, line := range []string{
		"RESULT",
		"RESULT ",
		"RESULT \t ",
		"RESULTS a=1", // the literal is a prefix match; the rest is tail
	} {
		pairs, err := Parse(line)
		require.NoError(t, err, "line %q", line)
		assert.Len(t, pairs, 0, "line %q", line)
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, line := range []string{
		"",
		"RESUL",
		" RESULT a=1", // leading whitespace is not skipped
		"result a=1",
		"banana a=1",
	} {
		pairs, err := Parse(line)
		require.Error(t, err, "line %q", line)
		assert.True(t, errors.Is(err, ErrMalformedLine), "line %q: got %v", line, err)
		assert.Nil(t, pairs)
	}
}

// A trailing integer has no separator after it to satisfy the integer
// branch's lookahead, so it falls through to the float branch.
func TestParse_TrailingIntegerIsFloat(t *testing.T) {
	pairs, err := Parse("RESULT x=42 y=7")
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	assert.Equal(t, Integer(42), pairs[0].Value)
	assert.Equal(t, Float(7), pairs[1].Value)
}

func TestParse_ValueTypes(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Value
	}{
		{"quoted text", `RESULT v="hello world" z=1`, Text("hello world")},
		{"quoted single char", `RESULT v="x" z=1`, Text("x")},
		{"quoted keeps equals", `RESULT v="a=b" z=1`, Text("a=b")},
		{"integer", "RESULT v=123 z=1", Integer(123)},
		{"negative integer", "RESULT v=-123423904 z=1", Integer(-123423904)},
		{"explicit plus", "RESULT v=+17 z=1", Integer(17)},
		{"float", "RESULT v=8123.23 z=1", Float(8123.23)},
		{"float no fraction digits", "RESULT v=12. z=1", Float(12)},
		{"float leading dot", "RESULT v=.5 z=1", Float(0.5)},
		{"float exponent", "RESULT v=1e3 z=1", Float(1000)},
		{"float negative exponent", "RESULT v=25e-2 z=1", Float(0.25)},
		{"infinity", "RESULT v=inf z=1", Float(math.Inf(1))},
		{"negative infinity", "RESULT v=-Infinity z=1", Float(math.Inf(-1))},
		{"bool true", "RESULT v=true z=1", Bool(true)},
		{"bool false", "RESULT v=false z=1", Bool(false)},
		{"bool is a prefix match", "RESULT v=falsehood", Bool(false)},
		{"int64 overflow becomes float", "RESULT v=9223372036854775808 z=1", Float(9223372036854775808)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pairs, err := Parse(test.line)
			require.NoError(t, err)
			require.NotEmpty(t, pairs)
			assert.Equal(t, "v", pairs[0].Key)
			assert.Equal(t, test.want, pairs[0].Value)
		})
	}
}

func TestParse_NaN(t *testing.T) {
	pairs, err := Parse("RESULT v=NaN z=1")
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	require.Equal(t, KindFloat, pairs[0].Value.Kind())
	assert.True(t, math.IsNaN(pairs[0].Value.Float64()))
}

// An unquoted value is scanned up to the next '=' anywhere in the
// remaining input, so it can swallow the following key.
func TestParse_BareTokenRunsToNextEquals(t *testing.T) {
	pairs, err := Parse("RESULT v=bare-token x=1")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, Pair{Key: "v", Value: Text("bare-token x")}, pairs[0])
}

// Parsing stops at the first stretch that is not a valid pair and keeps
// what was decoded so far.
func TestParse_TailDiscarded(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantPairs int
	}{
		{"value without equals ahead", "RESULT name=plain", 0},
		{"empty quoted token", `RESULT a=""`, 0},
		{"missing value", "RESULT a=", 0},
		{"newline separator ends parse", "RESULT a=1\nb=2", 1},
		{"valid prefix kept", "RESULT a=1 b=2 naked", 2},
		{"junk after bool prefix", "RESULT v=truest", 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pairs, err := Parse(test.line)
			require.NoError(t, err)
			assert.Len(t, pairs, test.wantPairs)
		})
	}
}

func TestParse_TabSeparators(t *testing.T) {
	pairs, err := Parse("RESULT\ta=1\tb=2")
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	// the tab after a=1 satisfies the integer lookahead, the line end
	// after b=2 does not
	assert.Equal(t, Integer(1), pairs[0].Value)
	assert.Equal(t, Float(2), pairs[1].Value)
}

func TestParse_DuplicateKeysKept(t *testing.T) {
	pairs, err := Parse("RESULT a=1 a=2 a=3 ")
	require.NoError(t, err)
	require.Len(t, pairs, 3)

	for i, p := range pairs {
		assert.Equal(t, "a", p.Key)
		assert.Equal(t, Integer(int64(i+1)), p.Value)
	}
}

func TestParse_QuotedKeys(t *testing.T) {
	pairs, err := Parse(`RESULT "key with spaces"=1 "k=v"=2 plain=3 `)
	require.NoError(t, err)
	require.Len(t, pairs, 3)

	assert.Equal(t, "key with spaces", pairs[0].Key)
	assert.Equal(t, "k=v", pairs[1].Key)
	assert.Equal(t, "plain", pairs[2].Key)
}

func TestParse_UnicodeTokens(t *testing.T) {
	pairs, err := Parse(`RESULT name="José García" π=3.14 `)
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	assert.Equal(t, Pair{Key: "name", Value: Text("José García")}, pairs[0])
	assert.Equal(t, Pair{Key: "π", Value: Float(3.14)}, pairs[1])
}

func TestScanFloatPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"12", 2},
		{"-12.", 4},
		{"12.5e-3", 7},
		{".5", 2},
		{"1e+5", 4},
		{"12e", 2},    // incomplete exponent is not consumed
		{"12e+ x", 2}, // signed but digitless exponent either
		{"inf", 3},
		{"+inf", 4},
		{"Infinity", 8},
		{"nan", 3},
		{"NaN", 3},
		{"+", 0},
		{".", 0},
		{"abc", 0},
		{"", 0},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, scanFloatPrefix(test.input), "input %q", test.input)
	}
}
