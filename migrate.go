package burrowdb

// migrate.go decodes the legacy format version 1 and upgrades it in memory.
//
// Format version 1:
//
//	BURROWDB | version 1 (lenint) | store count (lenint) | store*
//
//	store = name (lenint + UTF-8) | entry count (lenint) | (key (lenint + bytes), Map Value)*
//
// There is no compression and no trailer. Each Map value becomes a Document.

import (
	"github.com/aalhour/burrowdb/internal/logging"
)

// decodeV1 decodes the stores of a version 1 database; d is positioned just
// past the header. Upgraded stores take the codec's compression setting.
func (c *Codec) decodeV1(d *decoder) (*Database, error) {
	off := d.r.Offset()
	n, err := d.r.Count()
	if err != nil {
		return nil, decodeErrf(off, err, "read store count")
	}

	db := c.NewDatabase()
	entries := 0
	for range n {
		storeOff := d.r.Offset()
		s, err := d.v1Store()
		if err != nil {
			return nil, err
		}
		s.compression = c.compression
		if err := db.AddStore(s); err != nil {
			return nil, decodeErrf(storeOff, ErrDuplicateKey, "store %q", s.name)
		}
		entries += s.Len()
	}
	if d.r.Remaining() != 0 {
		return nil, decodeErrf(d.r.Offset(), ErrTrailingData, "%d bytes after database", d.r.Remaining())
	}

	c.logger.Warnf(logging.NSMigrate+"upgraded format version %d database to %d (%d stores, %d entries)",
		formatVersionV1, CurrentFormatVersion, db.Len(), entries)
	return db, nil
}

func (d *decoder) v1Store() (*Store, error) {
	name, err := d.utf8String()
	if err != nil {
		return nil, err
	}
	s := newStore(name)

	off := d.r.Offset()
	n, err := d.r.Count()
	if err != nil {
		return nil, decodeErrf(off, err, "store %q: read entry count", name)
	}
	for range n {
		keyOff := d.r.Offset()
		key, err := d.r.LengthPrefixed()
		if err != nil {
			return nil, decodeErrf(keyOff, err, "store %q: read entry key", name)
		}
		valOff := d.r.Offset()
		v, err := d.value(0)
		if err != nil {
			return nil, err
		}
		if v.Kind() != KindMap {
			return nil, decodeErrf(valOff, ErrInvalidTag, "store %q key %q: %s entry, want Map", name, key, v.Kind())
		}
		doc := NewDocument()
		for _, f := range v.fields {
			doc.m.Set(f.Key, f.Value)
		}
		if _, dup := s.entries.Set(string(key), doc); dup {
			return nil, decodeErrf(keyOff, ErrDuplicateKey, "store %q key %q", name, key)
		}
	}
	return s, nil
}
