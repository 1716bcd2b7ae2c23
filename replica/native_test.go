package replica

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type address struct {
	City string `json:"city"`
	Zip  string `json:"-"`
}

type account struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name,omitempty"`
	Created  time.Time `json:"created"`
	Address  *address  `json:"address"`
	Tags     []string  `json:"tags"`
	internal string
}

func (a account) Describe() string { return a.Name }

type level int

// ============================================================
// FromAny
// ============================================================

func TestFromAny_Primitives(t *testing.T) {
	tests := []struct {
		in   any
		want *Value
	}{
		{nil, Null()},
		{true, Bool(true)},
		{"s", Str("s")},
		{int8(-3), Int(-3)},
		{uint32(7), Int(7)},
		{uint(8), Int(8)},
		{uint64(math.MaxUint64), Float(math.MaxUint64)},
		{float32(1.5), Float(1.5)},
		{json.Number("12"), Int(12)},
		{level(3), Int(3)},
		{(*int)(nil), Null()},
	}

	for _, tt := range tests {
		got, err := FromAny(tt.in)
		require.NoError(t, err, "%#v", tt.in)
		require.True(t, Equal(tt.want, got), "%#v: got %s", tt.in, got)
		require.Equal(t, tt.want.Kind(), got.Kind())
	}
}

func TestFromAny_Tree(t *testing.T) {
	when := time.UnixMilli(1000).UTC()
	in := map[string]any{
		"b":    []any{1, "two", when},
		"a":    map[string]any{"x": nil},
		"when": &when,
	}

	v, err := FromAny(in)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "when"}, v.Keys())
	require.Equal(t, "{a={x=∅} b=[1 two 1970-01-01T00:00:01Z] when=1970-01-01T00:00:01Z}", Canonical(v))
}

func TestFromAny_StructIsGenericRecord(t *testing.T) {
	in := &account{
		ID:       1,
		Name:     "alice",
		Created:  time.UnixMilli(5000).UTC(),
		Address:  &address{City: "Oslo", Zip: "0150"},
		Tags:     []string{"x"},
		internal: "hidden",
	}

	v, err := FromAny(in)
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name", "created", "address", "tags"}, v.Keys())
	require.Equal(t, KindTime, v.Get("created").Kind())
	require.Equal(t, []string{"city"}, v.Get("address").Keys())
	require.False(t, v.Has("internal"))
}

func TestFromAny_TypedMapsAndBytes(t *testing.T) {
	v, err := FromAny(map[int]string{10: "ten", 2: "two"})
	require.NoError(t, err)
	require.Equal(t, []string{"10", "2"}, v.Keys())

	v, err = FromAny([]byte{9, 8, 7, 6, 5, 4, 3, 2, 1, 0, 42})
	require.NoError(t, err)
	require.Equal(t, KindMap, v.Kind())
	require.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}, v.Keys())
	got, _ := v.Get("10").AsInt()
	require.Equal(t, int64(42), got)
}

func TestFromAny_Unsupported(t *testing.T) {
	_, err := FromAny(map[string]any{"list": []any{1, func() {}}})
	require.ErrorIs(t, err, ErrUnsupported)

	var pathErr *PathError
	require.ErrorAs(t, err, &pathErr)
	require.Equal(t, "$.list[1]", pathErr.Path)

	_, err = FromAny(make(chan int))
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = FromAny(map[string]any{"n": json.Number("abc")})
	require.ErrorAs(t, err, &pathErr)
	require.Equal(t, "$.n", pathErr.Path)
	require.ErrorContains(t, err, `invalid number "abc"`)
}

func TestFromAny_CollidingMapKeys(t *testing.T) {
	for i := 0; i < 20; i++ {
		_, err := FromAny(map[any]any{1: "a", "1": "b", "2": "c"})
		require.ErrorIs(t, err, ErrUnsupported)

		var pathErr *PathError
		require.ErrorAs(t, err, &pathErr)
		require.Equal(t, "$", pathErr.Path)
	}

	v, err := FromAny(map[any]any{1: "a", "2": "b"})
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, v.Keys())
}

func TestFromAny_ValueIsCloned(t *testing.T) {
	src := Map(Field("l", List()))
	got, err := FromAny(src)
	require.NoError(t, err)
	require.True(t, Equal(src, got))
	_, shared := SharedNode(src, got)
	require.False(t, shared)
}

// ============================================================
// ToAny & Decode
// ============================================================

func TestToAny(t *testing.T) {
	v := Map(
		Field("i", Int(1)),
		Field("f", Float(2.5)),
		Field("l", List(Null(), Undefined(), Str("s"))),
		Field("u", Undefined()),
		Field("t", UnixMilli(0)),
	)

	want := map[string]any{
		"i": int64(1),
		"f": 2.5,
		"l": []any{nil, nil, "s"},
		"t": time.UnixMilli(0).UTC(),
	}
	if diff := cmp.Diff(want, ToAny(v)); diff != "" {
		t.Errorf("ToAny mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_StructRoundTrip(t *testing.T) {
	src := account{
		ID:      9,
		Name:    "bob",
		Created: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Address: &address{City: "Lima"},
		Tags:    []string{"a", "b"},
	}

	v, err := FromAny(src)
	require.NoError(t, err)

	var got account
	require.NoError(t, Decode(Clone(v), &got))
	require.Equal(t, src, got)
}

func TestDecode_DateString(t *testing.T) {
	var got struct {
		When time.Time `json:"when"`
	}
	require.NoError(t, Decode(Map(Field("when", Str("2024-01-02T03:04:05Z"))), &got))
	require.True(t, got.When.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}

// ============================================================
// CloneAny
// ============================================================

func TestCloneAny_Primitives(t *testing.T) {
	fn := func() {}
	for _, in := range []any{nil, true, "s", 1, int64(2), 3.5, level(4), json.Number("5")} {
		require.Equal(t, in, CloneAny(in))
	}
	require.NotNil(t, CloneAny(fn))
}

func TestCloneAny_ScenarioAppendToCopiedList(t *testing.T) {
	src := map[string]any{"a": 1, "b": []any{1, 2, 3}}
	dst := CloneAny(src).(map[string]any)

	require.Equal(t, src, dst)
	dst["b"] = append(dst["b"].([]any), 4)
	require.Equal(t, []any{1, 2, 3}, src["b"])
}

func TestCloneAny_ScenarioNested(t *testing.T) {
	src := map[string]any{"nested": map[string]any{"deep": map[string]any{"value": "x"}}}
	dst := CloneAny(src).(map[string]any)

	srcNested := src["nested"].(map[string]any)
	dstNested := dst["nested"].(map[string]any)
	dstNested["deep"].(map[string]any)["value"] = "y"

	require.Equal(t, "x", srcNested["deep"].(map[string]any)["value"])
	require.Equal(t, "y", dstNested["deep"].(map[string]any)["value"])
}

func TestCloneAny_ListElementsAreIndependent(t *testing.T) {
	inner := []any{1}
	src := []any{inner}
	dst := CloneAny(src).([]any)

	dst[0].([]any)[0] = 2
	require.Equal(t, 1, inner[0])
}

func TestCloneAny_Dates(t *testing.T) {
	when := time.UnixMilli(1000)
	require.Equal(t, when, CloneAny(when))

	ptr := CloneAny(&when).(*time.Time)
	require.NotSame(t, &when, ptr)
	*ptr = ptr.Add(time.Hour)
	require.Equal(t, int64(1000), when.UnixMilli())
}

func TestCloneAny_NilContainersKeepNilness(t *testing.T) {
	require.Nil(t, CloneAny([]any(nil)))
	require.Nil(t, CloneAny(map[string]any(nil)))
}

func TestCloneAny_GenericRecords(t *testing.T) {
	src := &account{ID: 1, Name: "c", Tags: []string{"t"}, internal: "gone"}
	dst := CloneAny(src).(map[string]any)

	require.Equal(t, int64(1), dst["id"])
	require.Equal(t, "c", dst["name"])
	require.Equal(t, []any{"t"}, dst["tags"])
	require.Nil(t, dst["address"])
	require.NotContains(t, dst, "internal")

	require.Equal(t, map[string]any{"1": "one"}, CloneAny(map[int]string{1: "one"}))
	for i := 0; i < 20; i++ {
		require.Equal(t, map[string]any{"2": "c"}, CloneAny(map[any]any{1: "a", "1": "b", 2: "c"}))
	}
	require.Equal(t, map[string]any{"0": uint8(1), "1": uint8(2)}, CloneAny([]byte{1, 2}))
}
