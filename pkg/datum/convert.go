package datum

import (
	"fmt"
	"strconv"

	"github.com/srediag/shmbridge/pkg/rpc"
)

// FromTypedData converts an inline wire value into a Datum. It returns nil
// and no error when no field is populated. http values are expanded
// recursively; a missing http body becomes an empty bytes datum.
func FromTypedData(td *rpc.TypedData) (*Datum, error) {
	switch c := td.WhichOneof(); c {
	case rpc.DataUnset:
		return nil, nil
	case rpc.DataString:
		return NewString(td.String), nil
	case rpc.DataBytes:
		return NewBytes(td.Bytes), nil
	case rpc.DataJSON:
		return NewJSON(td.JSON), nil
	case rpc.DataCollectionBytes:
		var v [][]byte
		if td.CollectionBytes != nil {
			v = td.CollectionBytes.Bytes
		}
		return NewCollectionBytes(v), nil
	case rpc.DataCollectionString:
		var v []string
		if td.CollectionString != nil {
			v = td.CollectionString.String
		}
		return NewCollectionString(v), nil
	case rpc.DataCollectionSint64:
		var v []int64
		if td.CollectionSint64 != nil {
			v = td.CollectionSint64.Sint64
		}
		return NewCollectionSint64(v), nil
	case rpc.DataHTTP:
		h, err := httpFromWire(td.HTTP)
		if err != nil {
			return nil, err
		}
		return NewHTTP(h), nil
	default:
		return nil, fmt.Errorf("%w: typed data %s", ErrUnsupportedKind, c)
	}
}

func httpFromWire(w *rpc.RpcHttp) (*HTTP, error) {
	if w == nil {
		w = &rpc.RpcHttp{}
	}
	body, err := FromTypedData(w.Body)
	if err != nil {
		return nil, fmt.Errorf("http body: %w", err)
	}
	if body == nil {
		body = NewBytes([]byte{})
	}
	return &HTTP{
		Method:     w.Method,
		URL:        w.URL,
		StatusCode: w.StatusCode,
		Headers:    stringDatums(w.Headers),
		Body:       body,
		Params:     stringDatums(w.Params),
		Query:      stringDatums(w.Query),
	}, nil
}

func stringDatums(m map[string]string) map[string]*Datum {
	out := make(map[string]*Datum, len(m))
	for k, v := range m {
		out[k] = NewString(v)
	}
	return out
}

// ToTypedData converts d into its inline wire form. Only string, bytes, json
// and http datums can be sent to the host; other kinds fail with
// ErrUnsupportedKind. A nil datum encodes as an unset value.
func ToTypedData(d *Datum) (*rpc.TypedData, error) {
	if d == nil {
		return &rpc.TypedData{}, nil
	}
	switch raw := d.raw.(type) {
	case String:
		return rpc.StringData(string(raw)), nil
	case Bytes:
		return rpc.BytesData([]byte(raw)), nil
	case JSON:
		return rpc.JSONData(string(raw)), nil
	case *HTTP:
		h, err := httpToWire(raw)
		if err != nil {
			return nil, err
		}
		return rpc.HTTPData(h), nil
	default:
		return nil, fmt.Errorf("%w: cannot encode %s", ErrUnsupportedKind, d.Kind())
	}
}

func httpToWire(h *HTTP) (*rpc.RpcHttp, error) {
	if h == nil {
		h = &HTTP{}
	}
	out := &rpc.RpcHttp{
		StatusCode:               h.StatusCode,
		EnableContentNegotiation: false,
	}
	if len(h.Headers) > 0 {
		out.Headers = make(map[string]string, len(h.Headers))
		for k, v := range h.Headers {
			s, err := flatten(v)
			if err != nil {
				return nil, fmt.Errorf("http header %q: %w", k, err)
			}
			out.Headers[k] = s
		}
	}
	if h.Body != nil {
		body, err := ToTypedData(h.Body)
		if err != nil {
			return nil, fmt.Errorf("http body: %w", err)
		}
		out.Body = body
	}
	return out, nil
}

// flatten returns the raw value of a scalar datum as text.
func flatten(d *Datum) (string, error) {
	if d == nil {
		return "", nil
	}
	switch raw := d.raw.(type) {
	case String:
		return string(raw), nil
	case JSON:
		return string(raw), nil
	case Bytes:
		return string(raw), nil
	case Int:
		return strconv.FormatInt(int64(raw), 10), nil
	case Double:
		return strconv.FormatFloat(float64(raw), 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: cannot flatten %s", ErrUnsupportedKind, d.Kind())
	}
}
