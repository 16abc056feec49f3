package datum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/shmbridge/pkg/rpc"
)

func TestFromTypedData_Unset(t *testing.T) {
	d, err := FromTypedData(&rpc.TypedData{})
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = FromTypedData(nil)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestFromTypedData_EmptyIsPresent(t *testing.T) {
	d, err := FromTypedData(rpc.StringData(""))
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, KindString, d.Kind())

	d, err = FromTypedData(rpc.BytesData(nil))
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, KindBytes, d.Kind())
}

func TestFromTypedData_Verbatim(t *testing.T) {
	cases := []struct {
		td   *rpc.TypedData
		want *Datum
	}{
		{rpc.StringData("s"), NewString("s")},
		{rpc.BytesData([]byte("b")), NewBytes([]byte("b"))},
		{rpc.JSONData(`{"x":`), NewJSON(`{"x":`)},
		{rpc.CollectionBytesData([][]byte{[]byte("a")}), NewCollectionBytes([][]byte{[]byte("a")})},
		{rpc.CollectionStringData([]string{"a", "b"}), NewCollectionString([]string{"a", "b"})},
		{rpc.CollectionSint64Data([]int64{1}), NewCollectionSint64([]int64{1})},
	}
	for _, c := range cases {
		got, err := FromTypedData(c.td)
		require.NoError(t, err, c.td.Which.String())
		assert.True(t, c.want.Equal(got), "%s: got %s", c.td.Which, got)
	}
}

func TestFromTypedData_Unsupported(t *testing.T) {
	for _, td := range []*rpc.TypedData{
		rpc.IntData(1),
		rpc.DoubleData(1),
		rpc.CollectionDoubleData([]float64{1}),
		{Which: rpc.DataStream, Stream: []byte("x")},
		{Which: rpc.DataCase(200)},
	} {
		d, err := FromTypedData(td)
		assert.ErrorIs(t, err, ErrUnsupportedKind, td.Which.String())
		assert.Nil(t, d)
	}
}

func TestFromTypedData_HTTP(t *testing.T) {
	td := rpc.HTTPData(&rpc.RpcHttp{
		Method:  "POST",
		URL:     "http://localhost/api/f",
		Headers: map[string]string{"content-type": "application/json"},
		Params:  map[string]string{"id": "7"},
		Query:   map[string]string{"q": "x"},
		Body:    rpc.JSONData(`{"a":1}`),
	})
	d, err := FromTypedData(td)
	require.NoError(t, err)
	require.Equal(t, KindHTTP, d.Kind())

	h := d.Raw().(*HTTP)
	assert.Equal(t, "POST", h.Method)
	assert.Equal(t, "http://localhost/api/f", h.URL)
	assert.True(t, NewString("application/json").Equal(h.Headers["content-type"]))
	assert.True(t, NewString("7").Equal(h.Params["id"]))
	assert.True(t, NewString("x").Equal(h.Query["q"]))
	assert.True(t, NewJSON(`{"a":1}`).Equal(h.Body))
}

func TestFromTypedData_HTTPDefaultsBody(t *testing.T) {
	d, err := FromTypedData(rpc.HTTPData(&rpc.RpcHttp{Method: "GET"}))
	require.NoError(t, err)
	h := d.Raw().(*HTTP)
	require.NotNil(t, h.Body)
	assert.True(t, NewBytes([]byte{}).Equal(h.Body))
	assert.NotNil(t, h.Headers)
}

func TestFromTypedData_HTTPBadBody(t *testing.T) {
	_, err := FromTypedData(rpc.HTTPData(&rpc.RpcHttp{Body: rpc.IntData(3)}))
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestToTypedData_Unsupported(t *testing.T) {
	for _, d := range []*Datum{
		NewInt(1),
		NewDouble(2),
		NewCollectionString([]string{"a"}),
		NewCollectionBytes(nil),
		NewCollectionDouble(nil),
		NewCollectionSint64(nil),
	} {
		_, err := ToTypedData(d)
		assert.ErrorIs(t, err, ErrUnsupportedKind, d.Kind().String())
	}
}

func TestToTypedData_Absent(t *testing.T) {
	td, err := ToTypedData(nil)
	require.NoError(t, err)
	assert.Equal(t, rpc.DataUnset, td.WhichOneof())
}

func TestRoundTrip(t *testing.T) {
	for _, d := range []*Datum{
		NewString("héllo"),
		NewBytes([]byte{0, 1, 2}),
		NewJSON(`{"a":[1,2]}`),
	} {
		want, err := d.Decode()
		require.NoError(t, err)

		td, err := ToTypedData(d)
		require.NoError(t, err)
		back, err := FromTypedData(td)
		require.NoError(t, err)
		got, err := back.Decode()
		require.NoError(t, err)
		assert.Equal(t, want, got, d.Kind().String())
	}
}

func TestRoundTrip_HTTP(t *testing.T) {
	d := NewHTTP(&HTTP{
		StatusCode: "201",
		Headers:    map[string]*Datum{"x-id": NewString("abc")},
		Body:       NewString("created"),
	})
	td, err := ToTypedData(d)
	require.NoError(t, err)
	back, err := FromTypedData(td)
	require.NoError(t, err)

	h := back.Raw().(*HTTP)
	assert.Equal(t, "201", h.StatusCode)
	assert.True(t, NewString("abc").Equal(h.Headers["x-id"]))
	assert.True(t, NewString("created").Equal(h.Body))
}

func TestToTypedData_HTTPBody(t *testing.T) {
	d := NewHTTP(&HTTP{
		StatusCode: "200",
		Headers:    map[string]*Datum{"content-length": NewInt(5)},
		Body:       NewBytes([]byte("hello")),
	})
	td, err := ToTypedData(d)
	require.NoError(t, err)
	require.Equal(t, rpc.DataHTTP, td.WhichOneof())

	want, err := ToTypedData(NewBytes([]byte("hello")))
	require.NoError(t, err)
	assert.Equal(t, want, td.HTTP.Body)
	assert.Equal(t, "5", td.HTTP.Headers["content-length"])
	assert.False(t, td.HTTP.EnableContentNegotiation)
}

func TestToTypedData_HTTPBadHeader(t *testing.T) {
	d := NewHTTP(&HTTP{Headers: map[string]*Datum{"x": NewCollectionString(nil)}})
	_, err := ToTypedData(d)
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestToTypedData_SurvivesMsgpack(t *testing.T) {
	td, err := ToTypedData(NewHTTP(&HTTP{StatusCode: "200", Body: NewBytes([]byte("hello"))}))
	require.NoError(t, err)
	b, err := rpc.Marshal(td)
	require.NoError(t, err)

	var out rpc.TypedData
	require.NoError(t, rpc.Unmarshal(b, &out))
	d, err := FromTypedData(&out)
	require.NoError(t, err)
	assert.True(t, NewBytes([]byte("hello")).Equal(d.Raw().(*HTTP).Body))
}
