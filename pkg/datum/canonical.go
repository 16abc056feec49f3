package datum

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/valyala/bytebufferpool"
)

// writeCanonical appends an unambiguous encoding of d. Every variable length
// field is length prefixed and maps are written in key order.
func writeCanonical(buf *bytebufferpool.ByteBuffer, d *Datum) {
	if d == nil {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(byte(d.Kind()))
	switch raw := d.raw.(type) {
	case Bytes:
		writeField(buf, raw)
	case String:
		writeField(buf, []byte(raw))
	case JSON:
		writeField(buf, []byte(raw))
	case Int:
		writeUint(buf, uint64(raw))
	case Double:
		writeUint(buf, math.Float64bits(float64(raw)))
	case CollectionBytes:
		writeUint(buf, uint64(len(raw)))
		for _, b := range raw {
			writeField(buf, b)
		}
	case CollectionString:
		writeUint(buf, uint64(len(raw)))
		for _, s := range raw {
			writeField(buf, []byte(s))
		}
	case CollectionDouble:
		writeUint(buf, uint64(len(raw)))
		for _, f := range raw {
			writeUint(buf, math.Float64bits(f))
		}
	case CollectionSint64:
		writeUint(buf, uint64(len(raw)))
		for _, n := range raw {
			writeUint(buf, uint64(n))
		}
	case *HTTP:
		if raw == nil {
			buf.WriteByte(0)
			return
		}
		buf.WriteByte(1)
		writeField(buf, []byte(raw.Method))
		writeField(buf, []byte(raw.URL))
		writeField(buf, []byte(raw.StatusCode))
		writeMap(buf, raw.Headers)
		writeCanonical(buf, raw.Body)
		writeMap(buf, raw.Params)
		writeMap(buf, raw.Query)
	}
}

func writeUint(buf *bytebufferpool.ByteBuffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeField(buf *bytebufferpool.ByteBuffer, b []byte) {
	writeUint(buf, uint64(len(b)))
	buf.Write(b)
}

func writeMap(buf *bytebufferpool.ByteBuffer, m map[string]*Datum) {
	keys := sortedKeys(m)
	writeUint(buf, uint64(len(keys)))
	for _, k := range keys {
		writeField(buf, []byte(k))
		writeCanonical(buf, m[k])
	}
}

func sortedKeys(m map[string]*Datum) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeRepr appends a human readable rendering of raw.
func writeRepr(buf *bytebufferpool.ByteBuffer, raw Raw) {
	switch raw := raw.(type) {
	case Bytes:
		buf.B = strconv.AppendQuote(append(buf.B, 'b'), string(raw))
	case String:
		buf.B = strconv.AppendQuote(buf.B, string(raw))
	case JSON:
		buf.B = strconv.AppendQuote(buf.B, string(raw))
	case Int:
		buf.B = strconv.AppendInt(buf.B, int64(raw), 10)
	case Double:
		buf.B = strconv.AppendFloat(buf.B, float64(raw), 'g', -1, 64)
	case *HTTP:
		if raw == nil {
			buf.WriteString("{}")
			return
		}
		fmt.Fprintf(buf, "{method:%s url:%s status:%s}", raw.Method, raw.URL, raw.StatusCode)
	case nil:
		buf.WriteString("<nil>")
	default:
		fmt.Fprintf(buf, "%v", raw)
	}
}
