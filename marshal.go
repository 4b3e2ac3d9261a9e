package resultline

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/pkg/errors"
)

// Marshal returns the result line encoding of v.
//
// v may be a map, a struct, a Pairs or []Pair slice, a *linkedhashmap.Map,
// or a Marshaler. Plain maps are encoded with their keys sorted by
// rendered form; ordered maps, pair slices and struct fields keep their
// own order. Struct fields are named by the lowercased field name or by a
// `result` tag:
//   - `result:"fieldname"` - emits the field under the key "fieldname"
//   - `result:"fieldname,omitempty"` - skips the field when it holds the
//     zero value
//   - `result:",flatten"` - inlines a map or struct field's entries as
//     pairs of the enclosing line
//   - `result:"-"` - ignores this field
//
// Pairs whose value is empty are elided. A nil v, or one whose every pair
// elides, encodes as the bare RESULT literal. Sequences, nested maps and
// bare top-level scalars have no line rendering and fail with
// ErrUnsupportedShape.
func Marshal(v any) ([]byte, error) {
	s, err := MarshalString(v)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// MarshalString is Marshal returning the line as a string.
func MarshalString(v any) (string, error) {
	var enc lineEncoder
	if err := Walk(v, &enc); err != nil {
		return "", err
	}
	return enc.line(), nil
}

// Walk drives vis with the shape of v. Values implementing Marshaler
// produce their own events; everything else is walked by reflection.
// Marshal uses it with the line-building visitor, but it works with any
// Visitor implementation.
func Walk(v any, vis Visitor) error {
	switch t := v.(type) {
	case nil:
		return vis.VisitEmpty()
	case Marshaler:
		return t.MarshalResultLine(vis)
	case *linkedhashmap.Map:
		if t == nil {
			return vis.VisitEmpty()
		}
		return walkOrdered(t, vis)
	case Value:
		return walkValue(t, vis)
	case Pairs:
		return walkPairs(t, vis)
	case []Pair:
		return walkPairs(Pairs(t), vis)
	}
	return walkReflect(reflect.ValueOf(v), vis)
}

// walkValue emits the event matching a Value's variant.
func walkValue(v Value, vis Visitor) error {
	switch v.Kind() {
	case KindEmpty:
		return vis.VisitEmpty()
	case KindInteger:
		return vis.VisitInt(v.Int64())
	case KindFloat:
		return vis.VisitFloat(v.Float64())
	case KindBoolean:
		return vis.VisitBool(v.Bool())
	case KindCharacter:
		return vis.VisitChar(v.Rune())
	case KindText:
		return vis.VisitText(v.Str())
	default:
		return unsupportedShape("named value")
	}
}

func walkPairs(ps Pairs, vis Visitor) error {
	if err := vis.BeginMap(); err != nil {
		return err
	}
	for _, p := range ps {
		if err := vis.VisitKey(); err != nil {
			return err
		}
		if err := vis.VisitText(p.Key); err != nil {
			return err
		}
		if err := vis.VisitValue(); err != nil {
			return err
		}
		if err := walkValue(p.Value, vis); err != nil {
			return err
		}
	}
	return vis.End()
}

func walkOrdered(m *linkedhashmap.Map, vis Visitor) error {
	if err := vis.BeginMap(); err != nil {
		return err
	}
	if err := walkOrderedEntries(m, vis); err != nil {
		return err
	}
	return vis.End()
}

func walkOrderedEntries(m *linkedhashmap.Map, vis Visitor) error {
	it := m.Iterator()
	for it.Next() {
		key, err := keyValue(reflect.ValueOf(it.Key()))
		if err != nil {
			return err
		}
		if err := vis.VisitKey(); err != nil {
			return err
		}
		if err := walkValue(key, vis); err != nil {
			return err
		}
		if err := vis.VisitValue(); err != nil {
			return err
		}
		if err := Walk(it.Value(), vis); err != nil {
			return err
		}
	}
	return nil
}

func walkReflect(rv reflect.Value, vis Visitor) error {
	if !rv.IsValid() {
		return vis.VisitEmpty()
	}
	if m, ok := marshalerOf(rv); ok {
		return m.MarshalResultLine(vis)
	}
	if rv.CanInterface() {
		if om, ok := rv.Interface().(*linkedhashmap.Map); ok {
			if om == nil {
				return vis.VisitEmpty()
			}
			return walkOrdered(om, vis)
		}
	}
	if rv.Type() == valueType {
		return walkValue(rv.Interface().(Value), vis)
	}

	switch rv.Kind() {
	case reflect.Bool:
		return vis.VisitBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return vis.VisitInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return vis.VisitUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return vis.VisitFloat(rv.Float())
	case reflect.String:
		return vis.VisitText(rv.String())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return vis.VisitBytes(rv.Bytes())
		}
		if err := vis.BeginSeq(); err != nil {
			return err
		}
		for i := 0; i < rv.Len(); i++ {
			if err := walkReflect(rv.Index(i), vis); err != nil {
				return err
			}
		}
		return vis.End()
	case reflect.Map:
		return walkMap(rv, vis)
	case reflect.Struct:
		return walkStruct(rv, vis)
	case reflect.Ptr:
		if rv.IsNil() {
			return vis.VisitEmpty()
		}
		return walkReflect(rv.Elem(), vis)
	case reflect.Interface:
		if rv.IsNil() {
			return vis.VisitEmpty()
		}
		return Walk(rv.Interface(), vis)
	default:
		return unsupportedShape(rv.Kind().String())
	}
}

func marshalerOf(rv reflect.Value) (Marshaler, bool) {
	if !rv.CanInterface() {
		return nil, false
	}
	if m, ok := rv.Interface().(Marshaler); ok {
		return m, true
	}
	if rv.CanAddr() {
		if m, ok := rv.Addr().Interface().(Marshaler); ok {
			return m, true
		}
	}
	return nil, false
}

func walkMap(rv reflect.Value, vis Visitor) error {
	if err := vis.BeginMap(); err != nil {
		return err
	}
	if err := walkMapEntries(rv, vis); err != nil {
		return err
	}
	return vis.End()
}

func walkMapEntries(rv reflect.Value, vis Visitor) error {
	type mapEntry struct {
		key   Value
		value reflect.Value
	}
	entries := make([]mapEntry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key, err := keyValue(iter.Key())
		if err != nil {
			return err
		}
		entries = append(entries, mapEntry{key: key, value: iter.Value()})
	}
	// plain maps have no order of their own; sort by rendered key
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].key.String() < entries[j].key.String()
	})

	for _, entry := range entries {
		if err := vis.VisitKey(); err != nil {
			return err
		}
		if err := walkValue(entry.key, vis); err != nil {
			return err
		}
		if err := vis.VisitValue(); err != nil {
			return err
		}
		if err := walkReflect(entry.value, vis); err != nil {
			return err
		}
	}
	return nil
}

// keyValue resolves a map key to the scalar that names its pair.
func keyValue(rv reflect.Value) (Value, error) {
	if !rv.IsValid() {
		return Value{}, errors.Wrap(ErrUnnamedItem, "nil map key")
	}
	for rv.Kind() == reflect.Interface || rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return Value{}, errors.Wrap(ErrUnnamedItem, "nil map key")
		}
		rv = rv.Elem()
	}
	if rv.Type() == valueType {
		v := rv.Interface().(Value)
		if !v.isScalar() {
			return Value{}, errors.Wrapf(ErrUnnamedItem, "%s map key", v.Kind())
		}
		return v, nil
	}
	switch rv.Kind() {
	case reflect.String:
		return Text(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Integer(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Uint(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	default:
		return Value{}, errors.Wrapf(ErrUnnamedItem, "%s map key", rv.Kind())
	}
}

func walkStruct(rv reflect.Value, vis Visitor) error {
	if err := vis.BeginMap(); err != nil {
		return err
	}
	if err := walkStructFields(rv, vis); err != nil {
		return err
	}
	return vis.End()
}

func walkStructFields(rv reflect.Value, vis Visitor) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := rv.Field(i)

		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get(tagName)
		if tag == "-" {
			continue
		}
		name, opts := parseTag(tag)
		if name == "" {
			name = strings.ToLower(field.Name)
		}

		if hasOption(opts, "omitempty") && isZeroValue(fieldValue) {
			continue
		}
		if hasOption(opts, "flatten") {
			if err := walkFlattened(fieldValue, vis); err != nil {
				return errors.WithMessagef(err, "field %s", field.Name)
			}
			continue
		}

		if err := vis.VisitKey(); err != nil {
			return err
		}
		if err := vis.VisitText(name); err != nil {
			return err
		}
		if err := vis.VisitValue(); err != nil {
			return err
		}
		if err := walkReflect(fieldValue, vis); err != nil {
			return errors.WithMessagef(err, "field %s", field.Name)
		}
	}
	return nil
}

// walkFlattened inlines a flatten-tagged field's entries into the
// enclosing collection. Nil fields inline nothing.
func walkFlattened(rv reflect.Value, vis Visitor) error {
	for {
		if rv.CanInterface() {
			if om, ok := rv.Interface().(*linkedhashmap.Map); ok {
				if om == nil {
					return nil
				}
				return walkOrderedEntries(om, vis)
			}
		}
		if rv.Kind() != reflect.Ptr && rv.Kind() != reflect.Interface {
			break
		}
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		return walkMapEntries(rv, vis)
	case reflect.Struct:
		return walkStructFields(rv, vis)
	default:
		return fmt.Errorf("can only flatten struct and map fields, got %s", rv.Kind())
	}
}

func isZeroValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() == 0
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	case reflect.Struct:
		return rv.IsZero()
	default:
		return false
	}
}

// Encoder phases. The protocol moves top -> entry on BeginMap, entry ->
// key on VisitKey, key -> await on the key scalar, await -> value on
// VisitValue, and value -> entry once the value arrives.
const (
	phaseTop = iota
	phaseEntry
	phaseKey
	phaseAwait
	phaseValue
)

// lineEncoder builds a result line from visit events. The zero value is
// ready to use.
type lineEncoder struct {
	phase   int
	pending Value
	items   []NamedItem
	closed  bool
}

func (e *lineEncoder) BeginMap() error {
	switch e.phase {
	case phaseTop:
		if e.closed {
			return errors.New("multiple top-level values")
		}
		e.phase = phaseEntry
		return nil
	case phaseKey:
		return errors.Wrap(ErrUnnamedItem, "map cannot name a pair")
	case phaseValue:
		return unsupportedShape("nested map")
	default:
		return errors.New("begin map outside value position")
	}
}

func (e *lineEncoder) BeginSeq() error {
	return unsupportedShape("sequence")
}

func (e *lineEncoder) VisitKey() error {
	if e.phase != phaseEntry {
		return errors.New("visit key outside an open map")
	}
	e.phase = phaseKey
	return nil
}

func (e *lineEncoder) VisitValue() error {
	if e.phase != phaseAwait {
		return errors.Wrap(ErrUnnamedItem, "value event without a pending key")
	}
	e.phase = phaseValue
	return nil
}

func (e *lineEncoder) End() error {
	switch e.phase {
	case phaseEntry:
		e.phase = phaseTop
		e.closed = true
		return nil
	case phaseKey, phaseAwait, phaseValue:
		return errors.New("map ended mid-entry")
	default:
		return errors.New("end without an open map")
	}
}

func (e *lineEncoder) VisitBool(v bool) error     { return e.scalar(Bool(v)) }
func (e *lineEncoder) VisitInt(v int64) error     { return e.scalar(Integer(v)) }
func (e *lineEncoder) VisitUint(v uint64) error   { return e.scalar(Uint(v)) }
func (e *lineEncoder) VisitFloat(v float64) error { return e.scalar(Float(v)) }
func (e *lineEncoder) VisitChar(v rune) error     { return e.scalar(Char(v)) }
func (e *lineEncoder) VisitText(v string) error   { return e.scalar(Text(v)) }

func (e *lineEncoder) VisitBytes(v []byte) error {
	return e.scalar(Text(strings.ToValidUTF8(string(v), "�")))
}

func (e *lineEncoder) VisitEmpty() error {
	return e.scalar(Value{})
}

func (e *lineEncoder) VisitVariant(name string, payloads int) error {
	switch {
	case payloads <= 0:
		// the variant name is all there is, and it is discarded
		return e.VisitEmpty()
	case payloads == 1:
		// transparent: the payload takes the variant's place
		return nil
	default:
		return unsupportedShape("multi-field variant")
	}
}

// scalar routes a concrete value into the slot the current phase dictates.
func (e *lineEncoder) scalar(v Value) error {
	switch e.phase {
	case phaseTop:
		if v.IsEmpty() {
			// an absent whole value encodes as a bare line
			return nil
		}
		return unsupportedShape("bare scalar")
	case phaseKey:
		if !v.isScalar() {
			return errors.Wrap(ErrUnnamedItem, "pair key must be a scalar")
		}
		e.pending = v
		e.phase = phaseAwait
		return nil
	case phaseValue:
		if !v.IsEmpty() {
			e.items = append(e.items, NamedItem{Name: e.pending, Value: v})
		}
		e.pending = Value{}
		e.phase = phaseEntry
		return nil
	default:
		return errors.Wrap(ErrUnnamedItem, "value produced without a pending key")
	}
}

func (e *lineEncoder) line() string {
	var b strings.Builder
	b.WriteString(resultToken)
	for _, item := range e.items {
		b.WriteByte(' ')
		b.WriteString(item.String())
	}
	return b.String()
}
