// Package datum models values exchanged with the host as a tagged union of
// wire kinds, and converts them to and from the wire and native Go values.
//
// A missing value is a nil *Datum. A Datum holding empty content is a value
// that was sent as empty.
package datum

import (
	"unicode/utf8"

	"github.com/valyala/bytebufferpool"
)

// Datum is a value plus its wire kind. It is immutable once built.
type Datum struct {
	raw Raw
}

// New wraps raw. The kind is the one raw's type stands for. Content is not
// validated: a JSON datum may hold text that does not parse.
func New(raw Raw) *Datum {
	return &Datum{raw: raw}
}

func NewBytes(b []byte) *Datum           { return New(Bytes(b)) }
func NewString(s string) *Datum          { return New(String(s)) }
func NewInt(n int64) *Datum              { return New(Int(n)) }
func NewDouble(f float64) *Datum         { return New(Double(f)) }
func NewJSON(s string) *Datum            { return New(JSON(s)) }
func NewCollectionBytes(v [][]byte) *Datum {
	return New(CollectionBytes(v))
}
func NewCollectionString(v []string) *Datum {
	return New(CollectionString(v))
}
func NewCollectionDouble(v []float64) *Datum {
	return New(CollectionDouble(v))
}
func NewCollectionSint64(v []int64) *Datum {
	return New(CollectionSint64(v))
}
func NewHTTP(h *HTTP) *Datum { return New(h) }

// Kind returns the wire kind, zero for a Datum built without a payload.
func (d *Datum) Kind() Kind {
	if d == nil || d.raw == nil {
		return 0
	}
	return d.raw.kind()
}

// Raw returns the payload as held, without decoding.
func (d *Datum) Raw() Raw {
	if d == nil {
		return nil
	}
	return d.raw
}

// Key is a comparable identity of a Datum, usable as a map key.
type Key struct {
	kind Kind
	repr string
}

// Key returns the identity of d. Two datums have the same key iff they have
// the same kind and equal raw content. An absent datum has its own key.
func (d *Datum) Key() Key {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	writeCanonical(buf, d)
	return Key{kind: d.Kind(), repr: buf.String()}
}

// Equal reports whether d and other have the same kind and raw content.
// Two nil datums are equal.
func (d *Datum) Equal(other *Datum) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.Kind() != other.Kind() {
		return false
	}
	return d.Key() == other.Key()
}

const reprLimit = 10

// String renders d as <Datum kind value>, the value cut to a few characters.
func (d *Datum) String() string {
	if d == nil {
		return "<Datum absent>"
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	writeRepr(buf, d.raw)
	val := buf.String()
	if utf8.RuneCountInString(val) > reprLimit {
		val = string([]rune(val)[:reprLimit]) + "..."
	}
	return "<Datum " + d.Kind().String() + " " + val + ">"
}
