package replica

import (
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"
)

// Kind represents the kind of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindUndefined
	KindBool
	KindInt
	KindFloat
	KindStr
	KindTime
	KindList
	KindMap
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindTime:
		return "time"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a node of a JSON-like document: a primitive, a date, a list or a map.
//
// Primitive values are immutable and may be shared freely. Time, List and
// Map values are mutable through the mutators below.
type Value struct {
	kind Kind

	// Scalar values (only one valid based on kind)
	boolVal  bool
	intVal   int64
	floatVal float64
	strVal   string
	timeVal  time.Time

	// Container values
	listVal []*Value
	mapVal  []Entry
}

// Entry is a key-value pair of a map. Entries keep insertion order.
type Entry struct {
	Key   string
	Value *Value
}

// ============================================================
// Constructors
// ============================================================

// Null creates a null value.
func Null() *Value {
	return &Value{kind: KindNull}
}

// Undefined creates a value standing for an absent one.
func Undefined() *Value {
	return &Value{kind: KindUndefined}
}

// Bool creates a boolean value.
func Bool(v bool) *Value {
	return &Value{kind: KindBool, boolVal: v}
}

// Int creates an integer value.
func Int(v int64) *Value {
	return &Value{kind: KindInt, intVal: v}
}

// Float creates a float value.
func Float(v float64) *Value {
	return &Value{kind: KindFloat, floatVal: v}
}

// Str creates a string value.
func Str(v string) *Value {
	return &Value{kind: KindStr, strVal: v}
}

// Time creates a date value.
func Time(v time.Time) *Value {
	return &Value{kind: KindTime, timeVal: v}
}

// UnixMilli creates a date value from milliseconds since the Unix epoch.
func UnixMilli(ms int64) *Value {
	return Time(time.UnixMilli(ms).UTC())
}

// List creates a list value.
func List(items ...*Value) *Value {
	return &Value{kind: KindList, listVal: items}
}

// Map creates a map value from key-value pairs. A repeated key keeps its
// first position and its last value.
func Map(entries ...Entry) *Value {
	v := &Value{kind: KindMap, mapVal: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		v.Set(e.Key, e.Value)
	}
	return v
}

// Field creates an Entry for use in Map construction.
func Field(key string, value *Value) Entry {
	return Entry{Key: key, Value: value}
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value kind. A nil value is null.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull returns true if this is a null value.
func (v *Value) IsNull() bool {
	return v == nil || v.kind == KindNull
}

// IsPrimitive returns true for the immutable kinds.
func (v *Value) IsPrimitive() bool {
	switch v.Kind() {
	case KindTime, KindList, KindMap:
		return false
	default:
		return true
	}
}

// AsBool returns the boolean value.
func (v *Value) AsBool() (bool, error) {
	if err := v.expect(KindBool); err != nil {
		return false, err
	}
	return v.boolVal, nil
}

// AsInt returns the integer value.
func (v *Value) AsInt() (int64, error) {
	if err := v.expect(KindInt); err != nil {
		return 0, err
	}
	return v.intVal, nil
}

// AsFloat returns the float value.
func (v *Value) AsFloat() (float64, error) {
	if err := v.expect(KindFloat); err != nil {
		return 0, err
	}
	return v.floatVal, nil
}

// AsStr returns the string value.
func (v *Value) AsStr() (string, error) {
	if err := v.expect(KindStr); err != nil {
		return "", err
	}
	return v.strVal, nil
}

// AsTime returns the date value.
func (v *Value) AsTime() (time.Time, error) {
	if err := v.expect(KindTime); err != nil {
		return time.Time{}, err
	}
	return v.timeVal, nil
}

// AsList returns the list elements. The slice is the list's backing store.
func (v *Value) AsList() ([]*Value, error) {
	if err := v.expect(KindList); err != nil {
		return nil, err
	}
	return v.listVal, nil
}

// AsMap returns the map entries. The slice is the map's backing store.
func (v *Value) AsMap() ([]Entry, error) {
	if err := v.expect(KindMap); err != nil {
		return nil, err
	}
	return v.mapVal, nil
}

func (v *Value) expect(k Kind) error {
	if v == nil {
		return fmt.Errorf("replica: nil value")
	}
	if v.kind != k {
		return fmt.Errorf("replica: expected %s, got %s", k, v.kind)
	}
	return nil
}

// Number returns a numeric value as float64 if int or float.
func (v *Value) Number() (float64, bool) {
	switch v.Kind() {
	case KindInt:
		return float64(v.intVal), true
	case KindFloat:
		return v.floatVal, true
	default:
		return 0, false
	}
}

// Len returns the length of a list or map.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindList:
		return len(v.listVal)
	case KindMap:
		return len(v.mapVal)
	default:
		return 0
	}
}

// Keys returns the map keys in insertion order.
func (v *Value) Keys() []string {
	if v.Kind() != KindMap {
		return nil
	}
	return lo.Map(v.mapVal, func(e Entry, _ int) string { return e.Key })
}

// Get returns a map value by key, or nil if absent.
func (v *Value) Get(key string) *Value {
	if i := v.find(key); i >= 0 {
		return v.mapVal[i].Value
	}
	return nil
}

// Has reports whether a map holds key.
func (v *Value) Has(key string) bool {
	return v.find(key) >= 0
}

func (v *Value) find(key string) int {
	if v.Kind() != KindMap {
		return -1
	}
	for i, e := range v.mapVal {
		if e.Key == key {
			return i
		}
	}
	return -1
}

// Index returns the i-th element of a list.
func (v *Value) Index(i int) (*Value, error) {
	if v.Kind() != KindList {
		return nil, fmt.Errorf("replica: not a list")
	}
	if i < 0 || i >= len(v.listVal) {
		return nil, fmt.Errorf("replica: index %d out of bounds (len=%d)", i, len(v.listVal))
	}
	return v.listVal[i], nil
}

// ============================================================
// Mutators
// ============================================================

// Set sets a map value. An existing key is updated in place, a new key is
// appended.
func (v *Value) Set(key string, val *Value) {
	if v.Kind() != KindMap {
		panic("replica: cannot set on non-map")
	}
	if i := v.find(key); i >= 0 {
		v.mapVal[i].Value = val
		return
	}
	v.mapVal = append(v.mapVal, Entry{Key: key, Value: val})
}

// Delete removes key from a map. It reports whether the key was present.
func (v *Value) Delete(key string) bool {
	if v.Kind() != KindMap {
		panic("replica: cannot delete on non-map")
	}
	i := v.find(key)
	if i < 0 {
		return false
	}
	v.mapVal = append(v.mapVal[:i], v.mapVal[i+1:]...)
	return true
}

// Append adds a value to a list.
func (v *Value) Append(val *Value) {
	if v.Kind() != KindList {
		panic("replica: cannot append to non-list")
	}
	v.listVal = append(v.listVal, val)
}

// SetIndex replaces the i-th element of a list.
func (v *Value) SetIndex(i int, val *Value) {
	if v.Kind() != KindList {
		panic("replica: cannot index non-list")
	}
	v.listVal[i] = val
}

// SetTime moves a date value to another instant.
func (v *Value) SetTime(t time.Time) {
	if v.Kind() != KindTime {
		panic("replica: cannot set time on non-time")
	}
	v.timeVal = t
}

// ============================================================
// Numeric Helpers
// ============================================================

// IsNumeric returns true if int or float.
func (v *Value) IsNumeric() bool {
	k := v.Kind()
	return k == KindInt || k == KindFloat
}

func isNaN(v *Value) bool {
	return v.Kind() == KindFloat && math.IsNaN(v.floatVal)
}
