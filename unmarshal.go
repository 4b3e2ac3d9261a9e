package resultline

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// tagName is the struct tag key read by Unmarshal and Marshal.
const tagName = "result"

var valueType = reflect.TypeOf(Value{})

// Unmarshal parses a result line and stores the decoded pairs in the value
// pointed to by v.
//
// v may be a *Pairs or *[]Pair to receive the pairs in wire order, a
// *map[string]Value or *map[string]any to receive a folded map where later
// duplicate keys win, a *linkedhashmap.Map to receive a folded map that
// keeps wire order, or a pointer to a struct.
//
// Struct fields are matched by key using the lowercased field name, or the
// name given in a `result` tag:
//   - `result:"fieldname"` - maps the key "fieldname" to this field
//   - `result:"fieldname,required"` - fails if the key is absent
//   - `result:",flatten"` - map or struct field decoded from the same flat
//     namespace; map fields collect the keys no other field claims
//   - `result:"-"` - ignores this field
//
// Example:
//
//	type Run struct {
//	    Benchmark string  `result:"benchmark"`
//	    Items     int64   `result:"items,required"`
//	    Duration  float64 `result:"duration"`
//	    Cached    bool    `result:"cached"`
//	    Extra     map[string]Value `result:",flatten"`
//	}
func Unmarshal(data []byte, v any) error {
	pairs, err := ParseBytes(data)
	if err != nil {
		return err
	}
	return UnmarshalPairs(pairs, v)
}

// UnmarshalPairs stores already decoded pairs in the value pointed to by
// v, following the same rules as Unmarshal.
func UnmarshalPairs(pairs Pairs, v any) error {
	switch t := v.(type) {
	case *Pairs:
		*t = pairs
		return nil
	case *[]Pair:
		*t = pairs
		return nil
	case *map[string]Value:
		if *t == nil {
			*t = make(map[string]Value, len(pairs))
		}
		for _, p := range pairs {
			(*t)[p.Key] = p.Value
		}
		return nil
	case *map[string]any:
		if *t == nil {
			*t = make(map[string]any, len(pairs))
		}
		for _, p := range pairs {
			(*t)[p.Key] = p.Value.Interface()
		}
		return nil
	case *linkedhashmap.Map:
		for _, p := range pairs {
			t.Put(p.Key, p.Value)
		}
		return nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("unmarshal target must be a non-nil pointer")
	}
	elem := rv.Elem()
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal target must be a pointer to a struct or a supported container, got %s", elem.Kind())
	}
	return unmarshalStruct(pairs.Map(), elem)
}

// unmarshalStruct fills a struct from the folded key/value map.
func unmarshalStruct(data map[string]Value, v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		// Skip unexported fields
		if !fieldValue.CanSet() {
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

		if hasOption(opts, "flatten") {
			if err := setFlattened(fieldValue, data, t); err != nil {
				return fmt.Errorf("field %s: %v", field.Name, err)
			}
			continue
		}

		value, ok := data[name]
		if !ok {
			if hasOption(opts, "required") {
				return fmt.Errorf("required field %s not found", name)
			}
			continue
		}

		if err := setField(fieldValue, value); err != nil {
			return fmt.Errorf("field %s: %v", field.Name, err)
		}
	}

	return nil
}

// setFlattened decodes a flatten-tagged field. Struct fields pull their
// own keys from the shared namespace; map fields collect every key not
// claimed by a sibling field.
func setFlattened(field reflect.Value, data map[string]Value, owner reflect.Type) error {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		field = field.Elem()
	}

	switch field.Kind() {
	case reflect.Struct:
		return unmarshalStruct(data, field)
	case reflect.Map:
		claimed := make(map[string]bool)
		claimNames(owner, claimed)
		rest := make(map[string]Value)
		for key, value := range data {
			if !claimed[key] {
				rest[key] = value
			}
		}
		return setRestMap(field, rest)
	default:
		return fmt.Errorf("can only flatten struct and map fields, got %s", field.Kind())
	}
}

// claimNames records the key names the struct's non-flattened fields
// decode from, descending into flattened structs.
func claimNames(t reflect.Type, names map[string]bool) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get(tagName)
		if tag == "-" {
			continue
		}
		name, opts := parseTag(tag)
		if hasOption(opts, "flatten") {
			ft := field.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				claimNames(ft, names)
			}
			continue
		}
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		names[name] = true
	}
}

// setRestMap fills a string-keyed map field with the leftover pairs.
func setRestMap(field reflect.Value, rest map[string]Value) error {
	t := field.Type()
	if t.Key().Kind() != reflect.String {
		return fmt.Errorf("flattened map must have string keys, got %s", t.Key())
	}
	m := reflect.MakeMapWithSize(t, len(rest))
	for key, value := range rest {
		elem := reflect.New(t.Elem()).Elem()
		if err := setField(elem, value); err != nil {
			return fmt.Errorf("key %s: %v", key, err)
		}
		m.SetMapIndex(reflect.ValueOf(key).Convert(t.Key()), elem)
	}
	field.Set(m)
	return nil
}

// setField sets a reflect.Value from a decoded Value.
func setField(field reflect.Value, value Value) error {
	if field.Type() == valueType {
		field.Set(reflect.ValueOf(value))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value.String())
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setInt(field, value)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return setUint(field, value)
	case reflect.Float32, reflect.Float64:
		return setFloat(field, value)
	case reflect.Bool:
		return setBool(field, value)
	case reflect.Ptr:
		return setPointer(field, value)
	case reflect.Interface:
		return setInterface(field, value)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
}

func setInt(field reflect.Value, value Value) error {
	var n int64
	switch value.Kind() {
	case KindInteger:
		n = value.Int64()
	case KindCharacter:
		n = int64(value.Rune())
	case KindFloat:
		n = int64(value.Float64())
	case KindText:
		i, err := strconv.ParseInt(value.Str(), 10, 64)
		if err != nil {
			return fmt.Errorf("cannot parse %q as int: %v", value.Str(), err)
		}
		n = i
	default:
		return fmt.Errorf("cannot convert %s value to int", value.Kind())
	}
	if field.OverflowInt(n) {
		return fmt.Errorf("value %d overflows %s", n, field.Type())
	}
	field.SetInt(n)
	return nil
}

func setUint(field reflect.Value, value Value) error {
	var n uint64
	switch value.Kind() {
	case KindInteger:
		i := value.Int64()
		if i < 0 {
			return fmt.Errorf("cannot convert negative value %d to uint", i)
		}
		n = uint64(i)
	case KindFloat:
		f := value.Float64()
		if f < 0 {
			return fmt.Errorf("cannot convert negative value %v to uint", f)
		}
		n = uint64(f)
	case KindText:
		u, err := strconv.ParseUint(value.Str(), 10, 64)
		if err != nil {
			return fmt.Errorf("cannot parse %q as uint: %v", value.Str(), err)
		}
		n = u
	default:
		return fmt.Errorf("cannot convert %s value to uint", value.Kind())
	}
	if field.OverflowUint(n) {
		return fmt.Errorf("value %d overflows %s", n, field.Type())
	}
	field.SetUint(n)
	return nil
}

func setFloat(field reflect.Value, value Value) error {
	var f float64
	switch value.Kind() {
	case KindFloat:
		f = value.Float64()
	case KindInteger:
		f = float64(value.Int64())
	case KindText:
		v, err := strconv.ParseFloat(value.Str(), 64)
		if err != nil {
			return fmt.Errorf("cannot parse %q as float: %v", value.Str(), err)
		}
		f = v
	default:
		return fmt.Errorf("cannot convert %s value to float", value.Kind())
	}
	if field.OverflowFloat(f) {
		return fmt.Errorf("value %v overflows %s", f, field.Type())
	}
	field.SetFloat(f)
	return nil
}

func setBool(field reflect.Value, value Value) error {
	switch value.Kind() {
	case KindBoolean:
		field.SetBool(value.Bool())
	case KindText:
		b, err := strconv.ParseBool(value.Str())
		if err != nil {
			return fmt.Errorf("cannot parse %q as bool: %v", value.Str(), err)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("cannot convert %s value to bool", value.Kind())
	}
	return nil
}

func setPointer(field reflect.Value, value Value) error {
	if value.IsEmpty() {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	ptr := reflect.New(field.Type().Elem())
	if err := setField(ptr.Elem(), value); err != nil {
		return err
	}
	field.Set(ptr)
	return nil
}

func setInterface(field reflect.Value, value Value) error {
	native := value.Interface()
	if native == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	nv := reflect.ValueOf(native)
	if !nv.Type().AssignableTo(field.Type()) {
		return fmt.Errorf("cannot assign %s value to %s field", value.Kind(), field.Type())
	}
	field.Set(nv)
	return nil
}

// Helper functions

func parseTag(tag string) (string, []string) {
	parts := strings.Split(tag, ",")
	return parts[0], parts[1:]
}

func hasOption(opts []string, option string) bool {
	for _, opt := range opts {
		if opt == option {
			return true
		}
	}
	return false
}
