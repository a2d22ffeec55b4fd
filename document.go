package burrowdb

// document.go implements Document, an ordered string-keyed mapping of Values.
//
// Wire form (identical to a Map payload without its tag):
//
//	count (lenint) | (String key, Value)*

import (
	"fmt"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/aalhour/burrowdb/internal/logging"
)

// Document is an ordered mapping from unique string keys to Values.
// Keys keep their insertion order; replacing a key keeps its position.
//
// The zero Document is empty and ready to use. A Document is not safe for
// concurrent mutation.
type Document struct {
	m *orderedmap.OrderedMap[string, Value]
}

// NewDocument returns an empty Document.
func NewDocument() *Document {
	return &Document{m: orderedmap.New[string, Value]()}
}

// DocumentOf returns a Document holding fields in order. Keys must be unique
// and valid UTF-8.
func DocumentOf(fields ...Field) (*Document, error) {
	d := NewDocument()
	for _, f := range fields {
		if err := checkKey("document key", f.Key); err != nil {
			return nil, err
		}
		if _, dup := d.m.Set(f.Key, f.Value); dup {
			return nil, fmt.Errorf("document key %q: %w", f.Key, ErrDuplicateKey)
		}
	}
	return d, nil
}

// MustDocumentOf is like DocumentOf but panics on an invalid or duplicate key.
func MustDocumentOf(fields ...Field) *Document {
	d, err := DocumentOf(fields...)
	if err != nil {
		panic(err)
	}
	return d
}

// DocumentFromValue converts a Map value into a Document.
func DocumentFromValue(v Value) (*Document, error) {
	if v.Kind() != KindMap {
		return nil, fmt.Errorf("document from %s value: %w", v.Kind(), ErrInvalidTag)
	}
	return DocumentOf(v.fields...)
}

func (d *Document) init() {
	if d.m == nil {
		d.m = orderedmap.New[string, Value]()
	}
}

// Set stores v under key. If key was present its previous value is returned
// and its position is unchanged; otherwise key is appended. key must be valid
// UTF-8.
func (d *Document) Set(key string, v Value) (old Value, replaced bool, err error) {
	if err := checkKey("document key", key); err != nil {
		return Value{}, false, err
	}
	d.init()
	old, replaced = d.m.Set(key, v)
	return old, replaced, nil
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (Value, bool) {
	if d == nil || d.m == nil {
		return Value{}, false
	}
	return d.m.Get(key)
}

// Delete removes key and returns the value it held.
func (d *Document) Delete(key string) (Value, bool) {
	if d == nil || d.m == nil {
		return Value{}, false
	}
	return d.m.Delete(key)
}

// Len returns the number of fields.
func (d *Document) Len() int {
	if d == nil || d.m == nil {
		return 0
	}
	return d.m.Len()
}

// All returns an iterator over the fields in order. Each call starts a new
// pass from the first field.
func (d *Document) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if d == nil || d.m == nil {
			return
		}
		for p := d.m.Oldest(); p != nil; p = p.Next() {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Keys returns the keys in order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, d.Len())
	for k := range d.All() {
		keys = append(keys, k)
	}
	return keys
}

// Fields returns a copy of the fields in order.
func (d *Document) Fields() []Field {
	fields := make([]Field, 0, d.Len())
	for k, v := range d.All() {
		fields = append(fields, Field{Key: k, Value: v})
	}
	return fields
}

// Value returns the Document as a Map value.
func (d *Document) Value() Value {
	return Value{kind: KindMap, fields: d.Fields()}
}

// Clone returns a copy of d. Values are immutable, so they are shared.
func (d *Document) Clone() *Document {
	c := NewDocument()
	for k, v := range d.All() {
		c.m.Set(k, v)
	}
	return c
}

// Equal reports whether d and o hold equal values under the same keys in
// the same order.
func (d *Document) Equal(o *Document) bool {
	if d.Len() != o.Len() {
		return false
	}
	if d.Len() == 0 {
		return true
	}
	p, q := d.m.Oldest(), o.m.Oldest()
	for ; p != nil && q != nil; p, q = p.Next(), q.Next() {
		if p.Key != q.Key || !p.Value.Equal(q.Value) {
			return false
		}
	}
	return p == nil && q == nil
}

// EncodeDocument encodes d with the default codec.
func EncodeDocument(d *Document) []byte { return defaultCodec.EncodeDocument(d) }

// DecodeDocument decodes one Document from the front of buf with the default codec.
func DecodeDocument(buf []byte) (*Document, int, error) { return defaultCodec.DecodeDocument(buf) }

// EncodeDocument encodes d.
func (c *Codec) EncodeDocument(d *Document) []byte {
	return appendDocument(nil, d)
}

// AppendDocument appends the encoding of d to dst.
func (c *Codec) AppendDocument(dst []byte, d *Document) []byte {
	return appendDocument(dst, d)
}

// DecodeDocument decodes one Document from the front of buf and reports how
// many bytes it consumed.
func (c *Codec) DecodeDocument(buf []byte) (*Document, int, error) {
	dec := c.newDecoder(buf)
	d, err := dec.document()
	if err != nil {
		c.logger.Debugf(logging.NSCodec+"rejected document: %v", err)
		return nil, 0, err
	}
	return d, dec.r.Offset(), nil
}

func appendDocument(dst []byte, d *Document) []byte {
	dst = appendCount(dst, d.Len())
	for k, v := range d.All() {
		dst = appendField(dst, k, v)
	}
	return dst
}

// document reads a Document. Its values sit at depth 0: a Map field is
// the first level of nesting.
func (d *decoder) document() (*Document, error) {
	fields, err := d.fields(0)
	if err != nil {
		return nil, err
	}
	doc := NewDocument()
	for _, f := range fields {
		doc.m.Set(f.Key, f.Value)
	}
	return doc, nil
}
