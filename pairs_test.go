package resultline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairsGet(t *testing.T) {
	pairs := Pairs{
		{Key: "a", Value: Integer(1)},
		{Key: "b", Value: Integer(2)},
		{Key: "a", Value: Integer(3)},
	}

	v, ok := pairs.Get("a")
	require.True(t, ok)
	assert.Equal(t, Integer(3), v, "later duplicate wins")

	v, ok = pairs.Get("b")
	require.True(t, ok)
	assert.Equal(t, Integer(2), v)

	_, ok = pairs.Get("missing")
	assert.False(t, ok)

	assert.True(t, pairs.Has("a"))
	assert.False(t, pairs.Has("missing"))
}

func TestPairsMap(t *testing.T) {
	pairs := Pairs{
		{Key: "a", Value: Integer(1)},
		{Key: "b", Value: Text("x")},
		{Key: "a", Value: Integer(3)},
	}

	m := pairs.Map()
	assert.Equal(t, map[string]Value{
		"a": Integer(3),
		"b": Text("x"),
	}, m)
}

func TestPairsOrderedMap(t *testing.T) {
	pairs := Pairs{
		{Key: "b", Value: Integer(1)},
		{Key: "a", Value: Integer(2)},
		{Key: "b", Value: Integer(3)},
		{Key: "c", Value: Integer(4)},
	}

	m := pairs.OrderedMap()
	require.Equal(t, 3, m.Size())

	// duplicates overwrite in place, keeping the first position
	assert.Equal(t, []any{"b", "a", "c"}, m.Keys())

	v, found := m.Get("b")
	require.True(t, found)
	assert.Equal(t, Integer(3), v)
}

func TestPairsEmptyFolds(t *testing.T) {
	var pairs Pairs
	assert.Empty(t, pairs.Map())
	assert.Equal(t, 0, pairs.OrderedMap().Size())
}
