package resultline

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Pair is one decoded key=value pair. Keys are plain strings regardless of
// how they were quoted on the wire.
type Pair struct {
	Key   string
	Value Value
}

// Pairs holds the pairs of one result line in wire order. Duplicate keys
// are kept; the folding accessors resolve them in favor of the later pair.
type Pairs []Pair

// Get returns the value of the last pair with the given key.
func (ps Pairs) Get(key string) (Value, bool) {
	for i := len(ps) - 1; i >= 0; i-- {
		if ps[i].Key == key {
			return ps[i].Value, true
		}
	}
	return Value{}, false
}

// Has reports whether any pair has the given key.
func (ps Pairs) Has(key string) bool {
	_, ok := ps.Get(key)
	return ok
}

// Map folds the pairs into a plain map. Later duplicates win.
func (ps Pairs) Map() map[string]Value {
	m := make(map[string]Value, len(ps))
	for _, p := range ps {
		m[p.Key] = p.Value
	}
	return m
}

// OrderedMap folds the pairs into an insertion-ordered map. Later
// duplicates overwrite the value but keep the key's original position.
// The stored values have type Value.
func (ps Pairs) OrderedMap() *linkedhashmap.Map {
	m := linkedhashmap.New()
	for _, p := range ps {
		m.Put(p.Key, p.Value)
	}
	return m
}
