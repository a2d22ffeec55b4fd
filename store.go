package burrowdb

// store.go implements Store, a named collection of key-addressed Documents.
//
// Standalone wire form:
//
//	name (lenint + UTF-8) | entry count (lenint) | (key (lenint + bytes), Document)*
//
// Inside a database the name is followed by the compression algorithm and
// the body (count and entries), see database.go.

import (
	"fmt"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/aalhour/burrowdb/internal/encoding"
)

// Store is a named collection of Documents addressed by key. Keys are
// arbitrary byte strings. Entries keep insertion order, which is also the
// order they are encoded in.
//
// A Store is not safe for concurrent mutation.
type Store struct {
	name        string
	compression CompressionType
	entries     *orderedmap.OrderedMap[string, *Document]
}

// NewStore returns an empty, uncompressed Store. name must be valid UTF-8.
func NewStore(name string) (*Store, error) {
	if err := checkKey("store name", name); err != nil {
		return nil, err
	}
	return newStore(name), nil
}

// MustNewStore is like NewStore but panics on an invalid name.
func MustNewStore(name string) *Store {
	s, err := NewStore(name)
	if err != nil {
		panic(err)
	}
	return s
}

// newStore skips the name check for names the decoder already validated.
func newStore(name string) *Store {
	return &Store{
		name:    name,
		entries: orderedmap.New[string, *Document](),
	}
}

// Name returns the store name.
func (s *Store) Name() string { return s.name }

// Compression returns the algorithm used when s is written into a Database.
func (s *Store) Compression() CompressionType { return s.compression }

// SetCompression sets the algorithm used when s is written into a Database.
func (s *Store) SetCompression(alg CompressionType) error {
	if !alg.IsSupported() {
		return fmt.Errorf("store %q: algorithm %d: %w", s.name, uint8(alg), ErrUnsupportedAlgorithm)
	}
	s.compression = alg
	return nil
}

// Insert stores doc under key. If key was present, the previous Document is
// returned and the entry keeps its position. A nil doc stores an empty
// Document.
func (s *Store) Insert(key string, doc *Document) (*Document, bool) {
	if doc == nil {
		doc = NewDocument()
	}
	return s.entries.Set(key, doc)
}

// Get returns the Document stored under key.
func (s *Store) Get(key string) (*Document, bool) {
	return s.entries.Get(key)
}

// Remove deletes key and returns the Document it held.
func (s *Store) Remove(key string) (*Document, bool) {
	return s.entries.Delete(key)
}

// Len returns the number of entries.
func (s *Store) Len() int { return s.entries.Len() }

// All returns an iterator over the entries in storage order. Every call
// returns a fresh iterator that starts from the first entry.
func (s *Store) All() iter.Seq2[string, *Document] {
	return func(yield func(string, *Document) bool) {
		for p := s.entries.Oldest(); p != nil; p = p.Next() {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Keys returns the keys in storage order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, s.Len())
	for k := range s.All() {
		keys = append(keys, k)
	}
	return keys
}

// Equal reports whether s and o have the same name and the same entries in
// the same order. Compression settings are not compared.
func (s *Store) Equal(o *Store) bool {
	if s.name != o.name || s.Len() != o.Len() {
		return false
	}
	p, q := s.entries.Oldest(), o.entries.Oldest()
	for ; p != nil && q != nil; p, q = p.Next(), q.Next() {
		if p.Key != q.Key || !p.Value.Equal(q.Value) {
			return false
		}
	}
	return p == nil && q == nil
}

// EncodeStore encodes s with the default codec.
func EncodeStore(s *Store) []byte { return defaultCodec.EncodeStore(s) }

// DecodeStore decodes one Store from the front of buf with the default codec.
func DecodeStore(buf []byte) (*Store, int, error) { return defaultCodec.DecodeStore(buf) }

// EncodeStore encodes s in its standalone form.
func (c *Codec) EncodeStore(s *Store) []byte {
	dst := encoding.AppendLengthPrefixedString(nil, s.name)
	return appendStoreBody(dst, s)
}

// DecodeStore decodes one standalone Store from the front of buf and reports
// how many bytes it consumed.
func (c *Codec) DecodeStore(buf []byte) (*Store, int, error) {
	d := c.newDecoder(buf)
	name, err := d.utf8String()
	if err != nil {
		return nil, 0, err
	}
	s := newStore(name)
	if err := d.storeBody(s); err != nil {
		return nil, 0, err
	}
	return s, d.r.Offset(), nil
}

func appendStoreBody(dst []byte, s *Store) []byte {
	dst = appendCount(dst, s.Len())
	for k, doc := range s.All() {
		dst = encoding.AppendLengthPrefixedString(dst, k)
		dst = appendDocument(dst, doc)
	}
	return dst
}

// storeBody reads an entry count and that many entries into s.
func (d *decoder) storeBody(s *Store) error {
	start := d.r.Offset()
	n, err := d.r.Count()
	if err != nil {
		return decodeErrf(start, err, "read entry count")
	}
	for range n {
		keyOff := d.r.Offset()
		key, err := d.r.LengthPrefixed()
		if err != nil {
			return decodeErrf(keyOff, err, "read entry key")
		}
		doc, err := d.document()
		if err != nil {
			return err
		}
		if _, dup := s.entries.Set(string(key), doc); dup {
			return decodeErrf(keyOff, ErrDuplicateKey, "store %q key %q", s.name, key)
		}
	}
	return nil
}
