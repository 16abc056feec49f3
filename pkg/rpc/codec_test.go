package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_TypedDataKeepsCase(t *testing.T) {
	in := &TypedData{Which: DataHTTP, HTTP: &RpcHttp{
		StatusCode: "200",
		Headers:    map[string]string{"content-type": "text/plain"},
		Body:       BytesData([]byte("hello")),
	}}
	b, err := Marshal(in)
	require.NoError(t, err)

	var out TypedData
	require.NoError(t, Unmarshal(b, &out))
	assert.Equal(t, DataHTTP, out.WhichOneof())
	assert.Equal(t, "200", out.HTTP.StatusCode)
	assert.Equal(t, "text/plain", out.HTTP.Headers["content-type"])
	assert.Equal(t, DataBytes, out.HTTP.Body.WhichOneof())
	assert.Equal(t, []byte("hello"), out.HTTP.Body.Bytes)
	assert.False(t, out.HTTP.EnableContentNegotiation)
}

func TestMarshal_EmptyValueStaysPresent(t *testing.T) {
	b, err := Marshal(StringData(""))
	require.NoError(t, err)
	var out TypedData
	require.NoError(t, Unmarshal(b, &out))
	assert.Equal(t, DataString, out.WhichOneof())
	assert.Equal(t, "", out.String)

	b, err = Marshal(&TypedData{})
	require.NoError(t, err)
	out = TypedData{}
	require.NoError(t, Unmarshal(b, &out))
	assert.Equal(t, DataUnset, out.WhichOneof())
}

func TestMarshal_Binding(t *testing.T) {
	in := ParameterBinding{
		Name: "$return",
		RpcSharedMemory: &RpcSharedMemory{
			Name:   "region",
			Offset: 0,
			Count:  1 << 20,
			Type:   RpcDataTypeBytes,
		},
	}
	b, err := Marshal(in)
	require.NoError(t, err)
	var out ParameterBinding
	require.NoError(t, Unmarshal(b, &out))
	assert.Equal(t, in, out)
	assert.Nil(t, out.Data)
}

func TestUnmarshal_Garbage(t *testing.T) {
	var out TypedData
	assert.Error(t, Unmarshal([]byte{0xc1}, &out))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "collection_sint64", DataCollectionSint64.String())
	assert.Equal(t, "DataCase(99)", DataCase(99).String())
	assert.Equal(t, "bytes", RpcDataTypeBytes.String())
	assert.Equal(t, "RpcDataType(42)", RpcDataType(42).String())
	var td *TypedData
	assert.Equal(t, DataUnset, td.WhichOneof())
}
