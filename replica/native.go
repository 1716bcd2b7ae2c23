package replica

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// ============================================================
// Native Bridge
// ============================================================
//
// Converts between plain Go values and Value, and clones plain Go trees
// directly. Anything that is not a primitive, a date, a slice or a
// map[string]any is treated as a generic record: structs keep their
// exported fields, other maps get their keys stringified and byte slices
// become records keyed by index. Methods and unexported state are lost.

// FromAny converts a Go value to a Value. A *Value argument is cloned.
// Funcs, channels, complex numbers and unsafe pointers fail with
// ErrUnsupported.
func FromAny(x any) (*Value, error) {
	return fromAny(x, rootPath)
}

func fromAny(x any, path string) (*Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case *Value:
		return Clone(t), nil
	case bool:
		return Bool(t), nil
	case string:
		return Str(t), nil
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		n, err := cast.ToInt64E(t)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}
		return Int(n), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case json.Number:
		n, err := parseNumber(t.String())
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}
		return n, nil
	case time.Time:
		return Time(t), nil
	case *time.Time:
		if t == nil {
			return Null(), nil
		}
		return Time(*t), nil
	case []any:
		items := make([]*Value, len(t))
		for i, elem := range t {
			item, err := fromAny(elem, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return List(items...), nil
	case map[string]any:
		keys := lo.Keys(t)
		slices.Sort(keys)
		entries := make([]Entry, len(keys))
		for i, k := range keys {
			val, err := fromAny(t[k], keyPath(path, k))
			if err != nil {
				return nil, err
			}
			entries[i] = Entry{Key: k, Value: val}
		}
		return &Value{kind: KindMap, mapVal: entries}, nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return Str(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u > math.MaxInt64 {
			return Float(float64(u)), nil
		}
		return Int(int64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil

	case reflect.Pointer:
		if rv.IsNil() {
			return Null(), nil
		}
		return fromAny(rv.Elem().Interface(), path)

	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			entries := make([]Entry, rv.Len())
			for i := range entries {
				entries[i] = Entry{Key: strconv.Itoa(i), Value: Int(int64(rv.Index(i).Uint()))}
			}
			return &Value{kind: KindMap, mapVal: entries}, nil
		}
		items := make([]*Value, rv.Len())
		for i := range items {
			item, err := fromAny(rv.Index(i).Interface(), indexPath(path, i))
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return List(items...), nil

	case reflect.Map:
		keys, err := recordKeys(rv)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}
		entries := make([]Entry, len(keys))
		for i, k := range keys {
			val, err := fromAny(rv.MapIndex(k.value).Interface(), keyPath(path, k.name))
			if err != nil {
				return nil, err
			}
			entries[i] = Entry{Key: k.name, Value: val}
		}
		return Map(entries...), nil

	case reflect.Struct:
		fields := structFields(rv)
		entries := make([]Entry, len(fields))
		for i, f := range fields {
			val, err := fromAny(f.value.Interface(), keyPath(path, f.name))
			if err != nil {
				return nil, err
			}
			entries[i] = Entry{Key: f.name, Value: val}
		}
		return Map(entries...), nil

	default:
		return nil, &PathError{Path: path, Err: fmt.Errorf("%w: %T", ErrUnsupported, x)}
	}
}

// ToAny converts a Value to plain Go values: nil, bool, int64, float64,
// string, time.Time, []any and map[string]any. Undefined map entries are
// omitted.
func ToAny(v *Value) any {
	switch v.Kind() {
	case KindBool:
		return v.boolVal
	case KindInt:
		return v.intVal
	case KindFloat:
		return v.floatVal
	case KindStr:
		return v.strVal
	case KindTime:
		return v.timeVal
	case KindList:
		out := make([]any, len(v.listVal))
		for i, item := range v.listVal {
			out[i] = ToAny(item)
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.mapVal))
		for _, e := range v.mapVal {
			if e.Value.Kind() == KindUndefined {
				continue
			}
			out[e.Key] = ToAny(e.Value)
		}
		return out
	default:
		return nil
	}
}

// Decode stores v into out, which must be a non-nil pointer. Struct fields
// are matched by their json tag, and date strings decode into time.Time.
func Decode(v *Value, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("replica: creating decoder: %w", err)
	}
	if err := dec.Decode(ToAny(v)); err != nil {
		return fmt.Errorf("replica: decoding %s: %w", v.Kind(), err)
	}
	return nil
}

// ============================================================
// CloneAny - plain Go trees
// ============================================================

// CloneAny returns a deep copy of a plain Go value.
//
// nil, booleans, strings, numbers, funcs and channels are returned as-is.
// time.Time is a value and is returned as-is, *time.Time is reallocated.
// []any and map[string]any are rebuilt recursively, keeping nil-ness.
// Other slices and arrays become []any. Other composites become
// map[string]any records (see the package notes above). Pointers to
// non-struct values are dereferenced.
//
// Like Clone, CloneAny does not track visited nodes.
func CloneAny(x any) any {
	switch t := x.(type) {
	case *Value:
		return Clone(t)
	case nil, bool, string, json.Number, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64, complex64, complex128:
		return x
	case *time.Time:
		if t == nil {
			return t
		}
		cp := *t
		return &cp
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = CloneAny(elem)
		}
		return out
	case map[string]any:
		if t == nil {
			return t
		}
		out := make(map[string]any, len(t))
		for k, elem := range t {
			out[k] = CloneAny(elem)
		}
		return out
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return x
		}
		return CloneAny(rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return x
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return bytesRecord(rv)
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = CloneAny(rv.Index(i).Interface())
		}
		return out

	case reflect.Map:
		if rv.IsNil() {
			return x
		}
		// Entries without a key of their own have no record form.
		keys, _ := recordKeys(rv)
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			out[k.name] = CloneAny(rv.MapIndex(k.value).Interface())
		}
		return out

	case reflect.Struct:
		fields := structFields(rv)
		out := make(map[string]any, len(fields))
		for _, f := range fields {
			out[f.name] = CloneAny(f.value.Interface())
		}
		return out

	default:
		// Named primitives, funcs, channels and unsafe pointers.
		return x
	}
}

// ============================================================
// Generic record helpers
// ============================================================

// bytesRecord turns a byte slice or array into a record keyed by index.
func bytesRecord(rv reflect.Value) map[string]any {
	out := make(map[string]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[strconv.Itoa(i)] = uint8(rv.Index(i).Uint())
	}
	return out
}

type namedValue struct {
	name  string
	value reflect.Value
}

// structFields lists exported fields in declaration order, named by their
// json tag when present. Fields tagged "-" are skipped.
func structFields(rv reflect.Value) []namedValue {
	t := rv.Type()
	fields := make([]namedValue, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		fields = append(fields, namedValue{name: name, value: rv.Field(i)})
	}
	return fields
}

// recordKeys stringifies the keys of a map, sorted by name. Keys with no
// string form, and keys whose string form is shared with another key, are
// left out and reported as an ErrUnsupported error.
func recordKeys(rv reflect.Value) ([]namedValue, error) {
	var failure error
	keys := make([]namedValue, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		name, err := mapKeyString(k)
		if err != nil {
			if failure == nil || err.Error() < failure.Error() {
				failure = err
			}
			continue
		}
		keys = append(keys, namedValue{name: name, value: k})
	}
	slices.SortFunc(keys, func(a, b namedValue) int { return strings.Compare(a.name, b.name) })

	out := keys[:0]
	for i := 0; i < len(keys); {
		j := i + 1
		for j < len(keys) && keys[j].name == keys[i].name {
			j++
		}
		if j-i == 1 {
			out = append(out, keys[i])
		} else if failure == nil {
			failure = fmt.Errorf("%w: %d map keys read as %q", ErrUnsupported, j-i, keys[i].name)
		}
		i = j
	}
	return out, failure
}

func mapKeyString(k reflect.Value) (string, error) {
	if s, err := cast.ToStringE(k.Interface()); err == nil {
		return s, nil
	}
	if k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10), nil
	default:
		return "", fmt.Errorf("%w: map key %s", ErrUnsupported, k.Type())
	}
}
