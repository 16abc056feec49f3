package datum

import (
	"fmt"
	"reflect"

	"github.com/bytedance/sonic"
)

// jsonAPI keeps json integers as int64 instead of float64.
var jsonAPI = sonic.Config{UseInt64: true}.Froze()

// Decode returns the native value of d. It is recomputed on every call.
//
//	bytes, string, int, double  []byte, string, int64, float64
//	json                        the parsed document (map[string]any, []any, ...)
//	collections                 a copied slice, order preserved
//	http and anything else      the raw payload as held
//
// A nil datum decodes to nil. Text that is not valid json fails with
// ErrMalformedPayload.
func (d *Datum) Decode() (any, error) {
	if d == nil {
		return nil, nil
	}
	switch raw := d.raw.(type) {
	case Bytes:
		return []byte(raw), nil
	case String:
		return string(raw), nil
	case Int:
		return int64(raw), nil
	case Double:
		return float64(raw), nil
	case JSON:
		var v any
		if err := jsonAPI.UnmarshalFromString(string(raw), &v); err != nil {
			return nil, fmt.Errorf("%w: json: %v", ErrMalformedPayload, err)
		}
		return v, nil
	case CollectionBytes:
		return append([][]byte(nil), raw...), nil
	case CollectionString:
		return append([]string(nil), raw...), nil
	case CollectionDouble:
		return append([]float64(nil), raw...), nil
	case CollectionSint64:
		return append([]int64(nil), raw...), nil
	default:
		return raw, nil
	}
}

// NativeType returns the dynamic type of the decoded value, nil when it
// decodes to nil.
func (d *Datum) NativeType() (reflect.Type, error) {
	v, err := d.Decode()
	if err != nil {
		return nil, err
	}
	return reflect.TypeOf(v), nil
}
