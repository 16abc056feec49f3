package datum

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	assert.True(t, NewString("a").Equal(NewString("a")))
	assert.False(t, NewString("a").Equal(NewString("b")))
	assert.False(t, NewString("a").Equal(NewJSON("a")))
	assert.False(t, NewString("a").Equal(NewBytes([]byte("a"))))
	assert.True(t, NewBytes([]byte("a")).Equal(NewBytes([]byte("a"))))
	assert.True(t, NewCollectionString([]string{"a", "b"}).Equal(NewCollectionString([]string{"a", "b"})))
	assert.False(t, NewCollectionString([]string{"ab"}).Equal(NewCollectionString([]string{"a", "b"})))
	assert.False(t, NewInt(1).Equal(NewDouble(1)))
	assert.False(t, NewString("a").Equal(nil))

	var absent *Datum
	assert.True(t, absent.Equal(nil))
}

func TestEqual_HTTP(t *testing.T) {
	build := func(v string) *Datum {
		return NewHTTP(&HTTP{
			Method:  "GET",
			Headers: map[string]*Datum{"a": NewString("1"), "b": NewString(v)},
			Body:    NewBytes([]byte("hello")),
		})
	}
	assert.True(t, build("2").Equal(build("2")))
	assert.False(t, build("2").Equal(build("3")))
}

func TestKey_MapKey(t *testing.T) {
	seen := map[Key]int{}
	seen[NewString("x").Key()]++
	seen[NewString("x").Key()]++
	seen[NewJSON("x").Key()]++
	seen[NewCollectionSint64([]int64{1, 2}).Key()]++
	seen[NewCollectionSint64([]int64{1, 2}).Key()]++

	assert.Len(t, seen, 3)
	assert.Equal(t, 2, seen[NewString("x").Key()])
	assert.Equal(t, 2, seen[NewCollectionSint64([]int64{1, 2}).Key()])
}

func TestString(t *testing.T) {
	assert.Equal(t, `<Datum string "abc">`, NewString("abc").String())
	assert.Equal(t, `<Datum string "abcdefghi...>`, NewString("abcdefghijklmnop").String())
	assert.Equal(t, `<Datum int 42>`, NewInt(42).String())
	assert.Equal(t, `<Datum bytes b"hi">`, NewBytes([]byte("hi")).String())
	var absent *Datum
	assert.Equal(t, "<Datum absent>", absent.String())
}

func TestKind(t *testing.T) {
	assert.Equal(t, KindJSON, NewJSON("{}").Kind())
	assert.Equal(t, KindHTTP, NewHTTP(&HTTP{}).Kind())
	assert.Equal(t, "collection_double", KindCollectionDouble.String())
	assert.Equal(t, "Kind(0)", Kind(0).String())
	assert.Equal(t, Kind(0), (&Datum{}).Kind())
}

func TestAbsentDatum(t *testing.T) {
	var absent *Datum
	assert.Equal(t, Kind(0), absent.Kind())
	assert.Nil(t, absent.Raw())

	seen := map[Key]int{}
	seen[absent.Key()]++
	seen[(*Datum)(nil).Key()]++
	seen[NewString("").Key()]++
	assert.Len(t, seen, 2)
	assert.Equal(t, 2, seen[absent.Key()])
	assert.NotEqual(t, NewBytes(nil).Key(), absent.Key())
}

func TestDecode_Scalars(t *testing.T) {
	cases := []struct {
		d    *Datum
		want any
	}{
		{NewBytes([]byte("b")), []byte("b")},
		{NewString("s"), "s"},
		{NewInt(-7), int64(-7)},
		{NewDouble(1.5), 1.5},
	}
	for _, c := range cases {
		got, err := c.d.Decode()
		require.NoError(t, err, c.d.Kind().String())
		assert.Equal(t, c.want, got)
	}
}

func TestDecode_JSON(t *testing.T) {
	v, err := NewJSON(`{"a":1}`).Decode()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1)}, v)

	_, err = NewJSON(`{bad`).Decode()
	assert.ErrorIs(t, err, ErrMalformedPayload)

	// construction never validates
	d := NewJSON(`{bad`)
	assert.Equal(t, JSON(`{bad`), d.Raw())
}

func TestDecode_CollectionsKeepOrder(t *testing.T) {
	raw := []string{"a", "b", "c"}
	v, err := NewCollectionString(raw).Decode()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, v)

	v.([]string)[0] = "z"
	assert.Equal(t, "a", raw[0])

	v, err = NewCollectionSint64([]int64{3, 1, 2}).Decode()
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, v)

	v, err = NewCollectionDouble([]float64{0.5, 0.25}).Decode()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.25}, v)

	v, err = NewCollectionBytes([][]byte{[]byte("x"), []byte("y")}).Decode()
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("x"), []byte("y")}, v)
}

func TestDecode_HTTPIsRaw(t *testing.T) {
	h := &HTTP{Method: "POST"}
	v, err := NewHTTP(h).Decode()
	require.NoError(t, err)
	assert.Same(t, h, v)
}

func TestNativeType(t *testing.T) {
	typ, err := NewString("s").NativeType()
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(""), typ)

	typ, err = NewJSON(`[1,2]`).NativeType()
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf([]any{}), typ)

	_, err = NewJSON(`[`).NativeType()
	assert.ErrorIs(t, err, ErrMalformedPayload)

	var absent *Datum
	typ, err = absent.NativeType()
	require.NoError(t, err)
	assert.Nil(t, typ)
}
