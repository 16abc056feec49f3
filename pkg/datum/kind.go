package datum

import "fmt"

// Kind is the wire kind of a Datum.
type Kind uint8

const (
	KindBytes Kind = iota + 1
	KindString
	KindInt
	KindDouble
	KindJSON
	KindCollectionBytes
	KindCollectionString
	KindCollectionDouble
	KindCollectionSint64
	KindHTTP
)

var kindNames = [...]string{
	KindBytes:            "bytes",
	KindString:           "string",
	KindInt:              "int",
	KindDouble:           "double",
	KindJSON:             "json",
	KindCollectionBytes:  "collection_bytes",
	KindCollectionString: "collection_string",
	KindCollectionDouble: "collection_double",
	KindCollectionSint64: "collection_sint64",
	KindHTTP:             "http",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Raw is the kind-dependent payload of a Datum. The set of implementations
// is closed: one per Kind.
type Raw interface {
	kind() Kind
}

type (
	Bytes            []byte
	String           string
	Int              int64
	Double           float64
	JSON             string
	CollectionBytes  [][]byte
	CollectionString []string
	CollectionDouble []float64
	CollectionSint64 []int64
)

func (Bytes) kind() Kind            { return KindBytes }
func (String) kind() Kind           { return KindString }
func (Int) kind() Kind              { return KindInt }
func (Double) kind() Kind           { return KindDouble }
func (JSON) kind() Kind             { return KindJSON }
func (CollectionBytes) kind() Kind  { return KindCollectionBytes }
func (CollectionString) kind() Kind { return KindCollectionString }
func (CollectionDouble) kind() Kind { return KindCollectionDouble }
func (CollectionSint64) kind() Kind { return KindCollectionSint64 }
func (*HTTP) kind() Kind            { return KindHTTP }

// HTTP is the raw payload of an http datum. Requests from the host fill
// Method, URL, Params and Query; responses to the host fill StatusCode.
// Body is never nil on a datum built by FromTypedData.
type HTTP struct {
	Method     string
	URL        string
	StatusCode string
	Headers    map[string]*Datum
	Body       *Datum
	Params     map[string]*Datum
	Query      map[string]*Datum
}
