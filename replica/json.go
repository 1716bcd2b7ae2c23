package replica

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

// ============================================================
// JSON Bridge
// ============================================================
//
// Converts between JSON and Value, keeping object key order.
// Supports two modes:
//   - Strict (default): dates become ISO-8601 strings, fully JSON compatible
//   - Extended: dates use {"$date": ...} markers for lossless round-trip

var (
	jsonAPI    = jsoniter.ConfigCompatibleWithStandardLibrary
	jsonPretty = jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
		IndentionStep:          2,
	}.Froze()
)

const (
	dateMarker = "$date"

	// jsonTimeLayout matches Date.prototype.toISOString.
	jsonTimeLayout = "2006-01-02T15:04:05.000Z07:00"

	// maxDateMillis bounds epoch milliseconds in a $date marker, the range
	// of an ECMAScript Date.
	maxDateMillis = 8.64e15

	numberChars = "0123456789+-.eE"
)

// BridgeOpts configures JSON bridge behavior.
type BridgeOpts struct {
	// Extended enables {"$date": ...} markers for dates. When false
	// (default), dates are written as strings and never read back as dates.
	Extended bool

	// Pretty indents output by two spaces.
	Pretty bool
}

// DefaultBridgeOpts returns the default (strict, compact) options.
func DefaultBridgeOpts() BridgeOpts {
	return BridgeOpts{}
}

// ============================================================
// FromJSON - JSON to Value
// ============================================================

// FromJSON converts JSON bytes to a Value using strict mode.
func FromJSON(data []byte) (*Value, error) {
	return FromJSONWithOpts(data, DefaultBridgeOpts())
}

// FromJSONWithOpts converts JSON bytes to a Value with options.
func FromJSONWithOpts(data []byte, opts BridgeOpts) (*Value, error) {
	iter := jsonAPI.BorrowIterator(data)
	defer jsonAPI.ReturnIterator(iter)

	d := &jsonDecoder{opts: opts}
	v := d.read(iter, rootPath)
	if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
		return nil, fmt.Errorf("replica: JSON parse error: %w", iter.Error)
	}
	if d.err != nil {
		return nil, d.err
	}
	if iter.Error == nil {
		// Reaching the end of input sets io.EOF; anything else is trailing data.
		iter.WhatIsNext()
		if iter.Error == nil {
			return nil, fmt.Errorf("replica: JSON parse error: data after top-level value")
		}
	}
	return v, nil
}

type jsonDecoder struct {
	opts BridgeOpts
	err  error
}

func (d *jsonDecoder) read(iter *jsoniter.Iterator, path string) *Value {
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.ReadNil()
		return Null()

	case jsoniter.BoolValue:
		return Bool(iter.ReadBool())

	case jsoniter.NumberValue:
		n, err := parseNumber(string(iter.ReadNumber()))
		if err != nil {
			d.fail(path, err)
			return Null()
		}
		return n

	case jsoniter.StringValue:
		return Str(iter.ReadString())

	case jsoniter.ArrayValue:
		list := List()
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			list.Append(d.read(it, indexPath(path, list.Len())))
			return d.err == nil
		})
		return list

	case jsoniter.ObjectValue:
		obj := Map()
		iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			obj.Set(key, d.read(it, keyPath(path, key)))
			return d.err == nil
		})
		if d.opts.Extended && obj.Len() == 1 && obj.Has(dateMarker) {
			t, err := parseDateMarker(obj.Get(dateMarker))
			if err != nil {
				d.fail(path, err)
				return Null()
			}
			return Time(t)
		}
		return obj

	default:
		iter.Skip()
		d.fail(path, fmt.Errorf("replica: unexpected JSON token"))
		return Null()
	}
}

func (d *jsonDecoder) fail(path string, err error) {
	if d.err == nil {
		d.err = &PathError{Path: path, Err: err}
	}
}

// parseNumber parses a JSON number literal. The tokenizer accepts any run
// of number characters, so the literal is checked against the JSON grammar
// first. Integers that fit in int64 become Int, everything else Float.
// Literals beyond float64 range become ±Inf.
func parseNumber(s string) (*Value, error) {
	if strings.Trim(s, numberChars) != "" || !gjson.Valid(s) {
		return nil, fmt.Errorf("replica: invalid number %q", s)
	}
	if !strings.ContainsAny(s, ".eE") {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(n), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, fmt.Errorf("replica: invalid number %q: %w", s, err)
	}
	return Float(f), nil
}

func parseDateMarker(v *Value) (time.Time, error) {
	switch v.Kind() {
	case KindStr:
		if t, err := time.Parse(time.RFC3339Nano, v.strVal); err == nil {
			return t, nil
		}
		t, err := dateparse.ParseIn(v.strVal, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("replica: invalid %s: %w", dateMarker, err)
		}
		return t, nil
	case KindInt:
		if v.intVal < -maxDateMillis || v.intVal > maxDateMillis {
			return time.Time{}, fmt.Errorf("replica: %s out of range: %d", dateMarker, v.intVal)
		}
		return time.UnixMilli(v.intVal).UTC(), nil
	case KindFloat:
		// NaN fails both comparisons.
		if !(v.floatVal >= -maxDateMillis && v.floatVal <= maxDateMillis) {
			return time.Time{}, fmt.Errorf("replica: %s out of range: %v", dateMarker, v.floatVal)
		}
		return time.UnixMilli(int64(v.floatVal)).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("replica: %s must be a string or a number, got %s", dateMarker, v.Kind())
	}
}

// ============================================================
// ToJSON - Value to JSON
// ============================================================

// ToJSON converts a Value to JSON bytes using strict mode.
func ToJSON(v *Value) ([]byte, error) {
	return ToJSONWithOpts(v, DefaultBridgeOpts())
}

// ToJSONWithOpts converts a Value to JSON bytes with options.
//
// Undefined map entries are omitted and undefined list elements are
// written as null. NaN and infinities are written as null.
func ToJSONWithOpts(v *Value, opts BridgeOpts) ([]byte, error) {
	api := jsonAPI
	if opts.Pretty {
		api = jsonPretty
	}
	stream := api.BorrowStream(nil)
	defer api.ReturnStream(stream)

	writeJSON(stream, v, opts)
	if stream.Error != nil {
		return nil, fmt.Errorf("replica: JSON encode error: %w", stream.Error)
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

func writeJSON(stream *jsoniter.Stream, v *Value, opts BridgeOpts) {
	switch v.Kind() {
	case KindNull, KindUndefined:
		stream.WriteNil()

	case KindBool:
		stream.WriteBool(v.boolVal)

	case KindInt:
		stream.WriteInt64(v.intVal)

	case KindFloat:
		if math.IsNaN(v.floatVal) || math.IsInf(v.floatVal, 0) {
			stream.WriteNil()
			return
		}
		stream.WriteFloat64(v.floatVal)

	case KindStr:
		stream.WriteString(v.strVal)

	case KindTime:
		if opts.Extended {
			writeDateMarker(stream, v.timeVal)
			return
		}
		stream.WriteString(v.timeVal.UTC().Format(jsonTimeLayout))

	case KindList:
		if len(v.listVal) == 0 {
			stream.WriteEmptyArray()
			return
		}
		stream.WriteArrayStart()
		for i, item := range v.listVal {
			if i > 0 {
				stream.WriteMore()
			}
			writeJSON(stream, item, opts)
		}
		stream.WriteArrayEnd()

	case KindMap:
		first := true
		for _, e := range v.mapVal {
			if e.Value.Kind() == KindUndefined {
				continue
			}
			if first {
				stream.WriteObjectStart()
				first = false
			} else {
				stream.WriteMore()
			}
			stream.WriteObjectField(e.Key)
			writeJSON(stream, e.Value, opts)
		}
		if first {
			stream.WriteEmptyObject()
			return
		}
		stream.WriteObjectEnd()
	}
}

// writeDateMarker writes {"$date": ...}. RFC 3339 only has four-digit
// years, so other years are written as epoch milliseconds; a date that
// has no exact form either way fails the stream.
func writeDateMarker(stream *jsoniter.Stream, t time.Time) {
	stream.WriteObjectStart()
	stream.WriteObjectField(dateMarker)
	defer stream.WriteObjectEnd()

	if y := t.Year(); y >= 0 && y <= 9999 {
		stream.WriteString(t.Format(time.RFC3339Nano))
		return
	}
	ms := t.UnixMilli()
	if ms < -maxDateMillis || ms > maxDateMillis || !t.Equal(time.UnixMilli(ms)) {
		if stream.Error == nil {
			stream.Error = fmt.Errorf("replica: date %s has no exact %s form", t.UTC().Format(time.RFC3339Nano), dateMarker)
		}
		stream.WriteNil()
		return
	}
	stream.WriteInt64(ms)
}
