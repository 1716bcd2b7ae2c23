package replica

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ============================================================
// Canonical Text
// ============================================================
//
// Deterministic text for a Value, used for fingerprints, diffs and
// debugging. Equal values under Equal with identical numeric kinds produce
// identical text.
//
// Canonical rules:
// - null → "∅", undefined → "⊥"
// - bool → "t" / "f"
// - int → decimal
// - float → shortest roundtrip, E→e, -0→0
// - string → bare if a plain ASCII word, otherwise Go-quoted
// - time → RFC 3339 UTC with nanoseconds
// - list → "[" + space-separated elements + "]"
// - map → "{" + key=value pairs sorted by canonical key + "}"

const canonTimeLayout = time.RFC3339Nano

var stringBuilderPool = sync.Pool{
	New: func() interface{} {
		return &strings.Builder{}
	},
}

func getPooledBuilder() *strings.Builder {
	b := stringBuilderPool.Get().(*strings.Builder)
	b.Reset()
	return b
}

func putPooledBuilder(b *strings.Builder) {
	// Only return reasonably sized builders to the pool
	if b.Cap() < 64*1024 {
		stringBuilderPool.Put(b)
	}
}

// Canonical returns the canonical text of v. It does not guard against
// cycles.
func Canonical(v *Value) string {
	b := getPooledBuilder()
	writeCanon(b, v)
	result := b.String()
	putPooledBuilder(b)
	return result
}

// String returns the canonical text.
func (v *Value) String() string {
	return Canonical(v)
}

func writeCanon(b *strings.Builder, v *Value) {
	switch v.Kind() {
	case KindNull:
		b.WriteString("∅")
	case KindUndefined:
		b.WriteString("⊥")
	case KindBool:
		if v.boolVal {
			b.WriteByte('t')
		} else {
			b.WriteByte('f')
		}
	case KindInt:
		b.WriteString(strconv.FormatInt(v.intVal, 10))
	case KindFloat:
		b.WriteString(canonFloat(v.floatVal))
	case KindStr:
		writeCanonString(b, v.strVal)
	case KindTime:
		b.WriteString(v.timeVal.UTC().Format(canonTimeLayout))
	case KindList:
		b.WriteByte('[')
		for i, item := range v.listVal {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeCanon(b, item)
		}
		b.WriteByte(']')
	case KindMap:
		writeCanonMap(b, v.mapVal)
	}
}

type sortableEntry struct {
	key   string
	value *Value
}

func writeCanonMap(b *strings.Builder, entries []Entry) {
	sorted := make([]sortableEntry, len(entries))
	for i, e := range entries {
		sorted[i] = sortableEntry{key: canonString(e.Key), value: e.Value}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].key < sorted[j].key })

	b.WriteByte('{')
	for i, e := range sorted {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.key)
		b.WriteByte('=')
		writeCanon(b, e.value)
	}
	b.WriteByte('}')
}

// canonFloat returns the shortest-roundtrip representation, E→e, -0→0.
func canonFloat(f float64) string {
	if f == 0 {
		return "0"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	return strings.ReplaceAll(s, "E", "e")
}

// canonString writes s bare when it reads as a plain word, otherwise as a
// Go-quoted string. Quoting escapes invalid UTF-8 byte by byte, so distinct
// strings never share a canonical form.
func canonString(s string) string {
	if isBareSafe(s) {
		return s
	}
	return strconv.Quote(s)
}

func writeCanonString(b *strings.Builder, s string) {
	b.WriteString(canonString(s))
}

// reservedWords would read back as another kind if written bare.
var reservedWords = map[string]bool{
	"t": true, "f": true, "true": true, "false": true,
	"null": true, "undefined": true, "NaN": true,
}

// isBareSafe matches ^[A-Za-z_][A-Za-z0-9_\-./]*$ minus reservedWords.
func isBareSafe(s string) bool {
	if s == "" || reservedWords[s] {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '-' || c == '.' || c == '/'):
		default:
			return false
		}
	}
	return true
}
