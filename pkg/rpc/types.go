// Package rpc defines the messages exchanged with the host process.
//
// TypedData is a tagged union: Which names the populated field and every
// other field is left at its zero value. A TypedData with Which set to
// DataUnset carries no value at all, which is different from a value that is
// present but empty.
package rpc

import "fmt"

// DataCase names the populated field of a TypedData.
type DataCase uint8

const (
	DataUnset DataCase = iota
	DataString
	DataJSON
	DataBytes
	DataStream
	DataHTTP
	DataInt
	DataDouble
	DataCollectionBytes
	DataCollectionString
	DataCollectionDouble
	DataCollectionSint64
)

var dataCaseNames = [...]string{
	DataUnset:            "unset",
	DataString:           "string",
	DataJSON:             "json",
	DataBytes:            "bytes",
	DataStream:           "stream",
	DataHTTP:             "http",
	DataInt:              "int",
	DataDouble:           "double",
	DataCollectionBytes:  "collection_bytes",
	DataCollectionString: "collection_string",
	DataCollectionDouble: "collection_double",
	DataCollectionSint64: "collection_sint64",
}

func (c DataCase) String() string {
	if int(c) < len(dataCaseNames) {
		return dataCaseNames[c]
	}
	return fmt.Sprintf("DataCase(%d)", uint8(c))
}

// TypedData is an inline value sent over the RPC channel.
type TypedData struct {
	Which            DataCase          `msgpack:"which"`
	String           string            `msgpack:"string,omitempty"`
	JSON             string            `msgpack:"json,omitempty"`
	Bytes            []byte            `msgpack:"bytes,omitempty"`
	Stream           []byte            `msgpack:"stream,omitempty"`
	HTTP             *RpcHttp          `msgpack:"http,omitempty"`
	Int              int64             `msgpack:"int,omitempty"`
	Double           float64           `msgpack:"double,omitempty"`
	CollectionBytes  *CollectionBytes  `msgpack:"collection_bytes,omitempty"`
	CollectionString *CollectionString `msgpack:"collection_string,omitempty"`
	CollectionDouble *CollectionDouble `msgpack:"collection_double,omitempty"`
	CollectionSint64 *CollectionSint64 `msgpack:"collection_sint64,omitempty"`
}

// WhichOneof returns the populated field, DataUnset for a nil message.
func (td *TypedData) WhichOneof() DataCase {
	if td == nil {
		return DataUnset
	}
	return td.Which
}

func StringData(s string) *TypedData { return &TypedData{Which: DataString, String: s} }
func JSONData(s string) *TypedData   { return &TypedData{Which: DataJSON, JSON: s} }
func BytesData(b []byte) *TypedData  { return &TypedData{Which: DataBytes, Bytes: b} }
func IntData(n int64) *TypedData     { return &TypedData{Which: DataInt, Int: n} }
func DoubleData(f float64) *TypedData {
	return &TypedData{Which: DataDouble, Double: f}
}
func HTTPData(h *RpcHttp) *TypedData { return &TypedData{Which: DataHTTP, HTTP: h} }

func CollectionBytesData(v [][]byte) *TypedData {
	return &TypedData{Which: DataCollectionBytes, CollectionBytes: &CollectionBytes{Bytes: v}}
}

func CollectionStringData(v []string) *TypedData {
	return &TypedData{Which: DataCollectionString, CollectionString: &CollectionString{String: v}}
}

func CollectionDoubleData(v []float64) *TypedData {
	return &TypedData{Which: DataCollectionDouble, CollectionDouble: &CollectionDouble{Double: v}}
}

func CollectionSint64Data(v []int64) *TypedData {
	return &TypedData{Which: DataCollectionSint64, CollectionSint64: &CollectionSint64{Sint64: v}}
}

type CollectionBytes struct {
	Bytes [][]byte `msgpack:"bytes"`
}

type CollectionString struct {
	String []string `msgpack:"string"`
}

type CollectionDouble struct {
	Double []float64 `msgpack:"double"`
}

type CollectionSint64 struct {
	Sint64 []int64 `msgpack:"sint64"`
}

// RpcHttp carries an HTTP request to the worker or a response back to the host.
// Requests fill Method, URL, Params and Query; responses fill StatusCode.
type RpcHttp struct {
	Method                   string            `msgpack:"method,omitempty"`
	URL                      string            `msgpack:"url,omitempty"`
	Headers                  map[string]string `msgpack:"headers,omitempty"`
	Body                     *TypedData        `msgpack:"body,omitempty"`
	Params                   map[string]string `msgpack:"params,omitempty"`
	Query                    map[string]string `msgpack:"query,omitempty"`
	StatusCode               string            `msgpack:"status_code,omitempty"`
	EnableContentNegotiation bool              `msgpack:"enable_content_negotiation"`
}

// RpcDataType is the value type of a shared memory transfer. The numbering
// matches the host protocol.
type RpcDataType int32

const (
	RpcDataTypeUnknown          RpcDataType = 0
	RpcDataTypeString           RpcDataType = 1
	RpcDataTypeJSON             RpcDataType = 2
	RpcDataTypeBytes            RpcDataType = 3
	RpcDataTypeStream           RpcDataType = 4
	RpcDataTypeHTTP             RpcDataType = 5
	RpcDataTypeInt              RpcDataType = 6
	RpcDataTypeDouble           RpcDataType = 7
	RpcDataTypeCollectionBytes  RpcDataType = 8
	RpcDataTypeCollectionString RpcDataType = 9
	RpcDataTypeCollectionDouble RpcDataType = 10
	RpcDataTypeCollectionSint64 RpcDataType = 11
)

var rpcDataTypeNames = map[RpcDataType]string{
	RpcDataTypeUnknown:          "unknown",
	RpcDataTypeString:           "string",
	RpcDataTypeJSON:             "json",
	RpcDataTypeBytes:            "bytes",
	RpcDataTypeStream:           "stream",
	RpcDataTypeHTTP:             "http",
	RpcDataTypeInt:              "int",
	RpcDataTypeDouble:           "double",
	RpcDataTypeCollectionBytes:  "collection_bytes",
	RpcDataTypeCollectionString: "collection_string",
	RpcDataTypeCollectionDouble: "collection_double",
	RpcDataTypeCollectionSint64: "collection_sint64",
}

func (t RpcDataType) String() string {
	if name, ok := rpcDataTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("RpcDataType(%d)", int32(t))
}

// RpcSharedMemory references Count bytes at Offset in the payload of the
// shared memory region Name.
type RpcSharedMemory struct {
	Name   string      `msgpack:"name"`
	Offset uint64      `msgpack:"offset"`
	Count  uint64      `msgpack:"count"`
	Type   RpcDataType `msgpack:"type"`
}

// ParameterBinding is one named input or output of an invocation. Exactly one
// of Data and RpcSharedMemory is set.
type ParameterBinding struct {
	Name            string           `msgpack:"name"`
	Data            *TypedData       `msgpack:"data,omitempty"`
	RpcSharedMemory *RpcSharedMemory `msgpack:"rpc_shared_memory,omitempty"`
}
