package burrowdb

// database.go implements the versioned Database container.
//
// Format version 2:
//
//	+----------+---------+-------------+---------------------------------+-----------+
//	| BURROWDB | version | store count | store*                          | XXHash64  |
//	| (8B)     | (lenint)| (lenint)    |                                 | (8B LE)   |
//	+----------+---------+-------------+---------------------------------+-----------+
//
//	store = name (lenint + UTF-8) | algorithm (1B) | body            if algorithm == 0
//	                                                | frame remainder otherwise
//	body  = entry count (lenint) | (key (lenint + bytes), Document)*
//
// The trailer covers every byte before it. Version 1 is decoded by
// migrate.go.

import (
	"fmt"
	"iter"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/aalhour/burrowdb/internal/checksum"
	"github.com/aalhour/burrowdb/internal/encoding"
	"github.com/aalhour/burrowdb/internal/logging"
)

const (
	// Magic identifies an encoded Database.
	Magic = "BURROWDB"

	// CurrentFormatVersion is the version written by EncodeDatabase.
	CurrentFormatVersion = 2

	// formatVersionV1 is the legacy layout: no compression, no trailer,
	// documents stored as Map values.
	formatVersionV1 = 1
)

// Database is a versioned container of uniquely named Stores, kept in
// insertion order. A Database is not safe for concurrent mutation.
type Database struct {
	stores      *orderedmap.OrderedMap[string, *Store]
	compression CompressionType
	version     int
}

// NewDatabase returns an empty Database whose new stores are uncompressed.
func NewDatabase() *Database { return defaultCodec.NewDatabase() }

// NewDatabase returns an empty Database whose new stores use the codec's
// compression setting.
func (c *Codec) NewDatabase() *Database {
	return &Database{
		stores:      orderedmap.New[string, *Store](),
		compression: c.compression,
	}
}

// SourceVersion returns the format version db was decoded from, or 0 if it
// was built in memory.
func (db *Database) SourceVersion() int { return db.version }

// AddStore adds s. Store names are unique and valid UTF-8.
func (db *Database) AddStore(s *Store) error {
	if err := checkKey("store name", s.name); err != nil {
		return err
	}
	if _, ok := db.stores.Get(s.name); ok {
		return fmt.Errorf("store %q: %w", s.name, ErrDuplicateKey)
	}
	db.stores.Set(s.name, s)
	return nil
}

// CreateStore adds and returns a new empty store named name.
func (db *Database) CreateStore(name string) (*Store, error) {
	s, err := NewStore(name)
	if err != nil {
		return nil, err
	}
	s.compression = db.compression
	if err := db.AddStore(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Store returns the store named name.
func (db *Database) Store(name string) (*Store, bool) {
	return db.stores.Get(name)
}

// RemoveStore deletes and returns the store named name.
func (db *Database) RemoveStore(name string) (*Store, bool) {
	return db.stores.Delete(name)
}

// Len returns the number of stores.
func (db *Database) Len() int { return db.stores.Len() }

// All returns an iterator over the stores in order.
func (db *Database) All() iter.Seq2[string, *Store] {
	return func(yield func(string, *Store) bool) {
		for p := db.stores.Oldest(); p != nil; p = p.Next() {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Names returns the store names in order.
func (db *Database) Names() []string {
	names := make([]string, 0, db.Len())
	for name := range db.All() {
		names = append(names, name)
	}
	return names
}

// Equal reports whether db and o hold equal stores in the same order.
func (db *Database) Equal(o *Database) bool {
	if db.Len() != o.Len() {
		return false
	}
	p, q := db.stores.Oldest(), o.stores.Oldest()
	for ; p != nil && q != nil; p, q = p.Next(), q.Next() {
		if !p.Value.Equal(q.Value) {
			return false
		}
	}
	return p == nil && q == nil
}

// EncodeDatabase encodes db with the default codec.
func EncodeDatabase(db *Database) ([]byte, error) { return defaultCodec.EncodeDatabase(db) }

// DecodeDatabase decodes buf with the default codec.
func DecodeDatabase(buf []byte) (*Database, error) { return defaultCodec.DecodeDatabase(buf) }

// EncodeDatabase encodes db in the current format version. Each store is
// compressed with its own algorithm.
func (c *Codec) EncodeDatabase(db *Database) ([]byte, error) {
	dst := append([]byte(nil), Magic...)
	dst = encoding.AppendUint64(dst, CurrentFormatVersion)
	dst = appendCount(dst, db.Len())
	for name, s := range db.All() {
		dst = encoding.AppendLengthPrefixedString(dst, name)
		dst = append(dst, byte(s.compression))
		if s.compression == CompressionNone {
			dst = appendStoreBody(dst, s)
			continue
		}
		var err error
		dst, err = c.appendFrameBody(dst, s.compression, appendStoreBody(nil, s))
		if err != nil {
			return nil, fmt.Errorf("store %q: %w", name, err)
		}
	}
	return encoding.AppendFixed64(dst, checksum.XXHash64(dst)), nil
}

// PeekVersion checks the magic of buf and returns its format version
// without decoding any store.
func PeekVersion(buf []byte) (int, error) {
	return readHeader(encoding.NewReader(buf))
}

const maxInt32 = 1<<31 - 1

// readHeader reads the magic and the format version, leaving r at the
// store count.
func readHeader(r *encoding.Reader) (int, error) {
	got, err := r.Bytes(min(len(Magic), r.Remaining()))
	if err != nil {
		return 0, decodeErrf(0, err, "read magic")
	}
	if string(got) != Magic {
		if len(got) < len(Magic) && strings.HasPrefix(Magic, string(got)) {
			return 0, decodeErrf(0, ErrUnexpectedEndOfInput, "read magic")
		}
		return 0, decodeErrf(0, ErrBadMagic, "magic %q", got)
	}

	off := r.Offset()
	v, err := r.Uint64()
	if err != nil {
		return 0, decodeErrf(off, err, "read format version")
	}
	if v > uint64(maxInt32) {
		return 0, decodeErrf(off, ErrIntegerOverflow, "format version %d", v)
	}
	return int(v), nil
}

// DecodeDatabase decodes a complete Database from buf. Every byte of buf
// must belong to it. A legacy version 1 database is migrated in memory; the
// result is always in the current shape.
func (c *Codec) DecodeDatabase(buf []byte) (*Database, error) {
	d := c.newDecoder(buf)
	version, err := readHeader(d.r)
	if err != nil {
		return nil, err
	}

	var db *Database
	switch version {
	case CurrentFormatVersion:
		db, err = c.decodeV2(d, buf)
	case formatVersionV1:
		db, err = c.decodeV1(d)
	default:
		return nil, decodeErrf(len(Magic), ErrUnsupportedVersion,
			"format version %d (supported 1..%d)", version, CurrentFormatVersion)
	}
	if err != nil {
		return nil, err
	}
	db.version = version
	c.logger.Debugf(logging.NSDB+"decoded %d stores (format version %d, %d bytes)", db.Len(), version, len(buf))
	return db, nil
}

// decodeV2 decodes the stores and trailer of buf; d is positioned just past
// the header.
func (c *Codec) decodeV2(d *decoder, buf []byte) (*Database, error) {
	hdr := d.r.Offset()
	trailer, err := d.r.Trailer(checksum.Size)
	if err != nil {
		return nil, decodeErrf(len(buf), ErrUnexpectedEndOfInput, "read trailer")
	}
	end := len(buf) - checksum.Size

	// The trailer is verified before any store is handed out.
	if checksum.Verify(checksum.TypeXXHash64, buf[:end], encoding.DecodeFixed64(trailer)) {
		db, err := c.decodeV2Stores(d)
		if err != nil {
			return nil, err
		}
		if d.r.Remaining() != 0 {
			return nil, decodeErrf(d.r.Offset(), ErrTrailingData, "%d bytes before trailer", d.r.Remaining())
		}
		return db, nil
	}

	// When the last eight bytes are not a valid trailer, the store headers
	// are walked, without decompressing any frame, only to tell trailing
	// bytes apart from corruption.
	scan := c.newDecoder(buf[hdr:])
	scan.skipFrames = true
	if _, err := c.decodeV2Stores(scan); err == nil {
		n := hdr + scan.r.Offset()
		if n+checksum.Size < len(buf) &&
			checksum.Verify(checksum.TypeXXHash64, buf[:n], encoding.DecodeFixed64(buf[n:])) {
			return nil, decodeErrf(n+checksum.Size, ErrTrailingData, "%d bytes after database", len(buf)-n-checksum.Size)
		}
	}
	return nil, decodeErrf(end, ErrChecksumMismatch, "database trailer")
}

// decodeV2Stores reads the store count and the stores that follow it.
func (c *Codec) decodeV2Stores(d *decoder) (*Database, error) {
	off := d.r.Offset()
	n, err := d.r.Count()
	if err != nil {
		return nil, decodeErrf(off, err, "read store count")
	}

	db := c.NewDatabase()
	for range n {
		storeOff := d.r.Offset()
		s, err := d.v2Store()
		if err != nil {
			return nil, err
		}
		if err := db.AddStore(s); err != nil {
			return nil, decodeErrf(storeOff, ErrDuplicateKey, "store %q", s.name)
		}
	}
	return db, nil
}

func (d *decoder) v2Store() (*Store, error) {
	name, err := d.utf8String()
	if err != nil {
		return nil, err
	}
	s := newStore(name)

	algOff := d.r.Offset()
	alg, err := d.r.Byte()
	if err != nil {
		return nil, decodeErrf(algOff, err, "store %q: read algorithm", name)
	}
	s.compression = CompressionType(alg)
	if s.compression == CompressionNone {
		if err := d.storeBody(s); err != nil {
			return nil, err
		}
		return s, nil
	}

	if d.skipFrames {
		if _, err := d.frameHeader(s.compression, algOff); err != nil {
			return nil, err
		}
		return s, nil
	}
	payload, err := d.frameBody(s.compression, algOff)
	if err != nil {
		return nil, err
	}
	body := &decoder{r: encoding.NewReader(payload), maxDepth: d.maxDepth, maxFrameSize: d.maxFrameSize}
	if err := body.storeBody(s); err != nil {
		return nil, nestErr(err, algOff, fmt.Sprintf("store %q", name))
	}
	if body.r.Remaining() != 0 {
		return nil, decodeErrf(algOff, ErrTrailingData, "store %q: %d bytes after body", name, body.r.Remaining())
	}
	return s, nil
}
