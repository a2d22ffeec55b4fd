// Package boltstore keeps encoded burrowdb databases in a Bolt file.
//
// Each database is stored as one value under its name in a single bucket.
// The value is exactly what burrowdb.EncodeDatabase produces, so an Archive
// doubles as an opaque blob store for adapters that ship databases around
// without decoding them (see PutRaw and GetRaw).
package boltstore

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.etcd.io/bbolt"

	"github.com/aalhour/burrowdb"
	"github.com/aalhour/burrowdb/internal/logging"
)

var (
	// ErrNotFound is returned when no database is stored under a name.
	ErrNotFound = errors.New("boltstore: database not found")

	// ErrEmptyName is returned for an empty database name.
	ErrEmptyName = errors.New("boltstore: empty database name")
)

var bucketName = []byte("burrowdb")

// Options configures an Archive.
type Options struct {
	// Codec encodes and decodes databases. If nil, a Codec with default
	// options is used.
	Codec *burrowdb.Codec

	// Timeout is how long Open waits for the file lock.
	// Default: 10s
	Timeout time.Duration

	// NoSync skips fsync after each commit. Only for tests and scratch files.
	NoSync bool
}

// Archive is a Bolt-backed collection of named databases.
// It is safe for concurrent use.
type Archive struct {
	bdb    *bbolt.DB
	codec  *burrowdb.Codec
	logger logging.Logger
}

// Open opens or creates the archive file at path.
func Open(path string, opts *Options) (*Archive, error) {
	if opts == nil {
		opts = &Options{}
	}
	codec := opts.Codec
	if codec == nil {
		codec = burrowdb.NewCodec(nil)
	}

	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opts.Timeout > 0 {
		bopt.Timeout = opts.Timeout
	}
	bopt.NoSync = opts.NoSync

	bdb, err := bbolt.Open(path, 0o644, bopt)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}
	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("boltstore: create bucket: %w", err)
	}

	a := &Archive{
		bdb:    bdb,
		codec:  codec,
		logger: logging.OrDefault(codec.Options().Logger),
	}
	a.logger.Debugf(logging.NSBolt+"opened %s", path)
	return a, nil
}

// Close releases the file.
func (a *Archive) Close() error {
	return a.bdb.Close()
}

// Put encodes db and stores it under name, replacing any previous value.
func (a *Archive) Put(name string, db *burrowdb.Database) error {
	data, err := a.codec.EncodeDatabase(db)
	if err != nil {
		return fmt.Errorf("boltstore: encode %q: %w", name, err)
	}
	return a.PutRaw(name, data)
}

// Get decodes the database stored under name. Databases written in a legacy
// format are upgraded in memory; use Migrate to rewrite them on disk.
func (a *Archive) Get(name string) (*burrowdb.Database, error) {
	data, err := a.GetRaw(name)
	if err != nil {
		return nil, err
	}
	db, err := a.codec.DecodeDatabase(data)
	if err != nil {
		return nil, fmt.Errorf("boltstore: decode %q: %w", name, err)
	}
	return db, nil
}

// PutRaw stores already-encoded database bytes under name without
// interpreting them.
func (a *Archive) PutRaw(name string, data []byte) error {
	if name == "" {
		return ErrEmptyName
	}
	err := a.bdb.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(name), data)
	})
	if err != nil {
		return fmt.Errorf("boltstore: put %q: %w", name, err)
	}
	a.logger.Debugf(logging.NSBolt+"put %q (%d bytes)", name, len(data))
	return nil
}

// GetRaw returns a copy of the bytes stored under name.
func (a *Archive) GetRaw(name string) ([]byte, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	var data []byte
	err := a.bdb.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(name))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid for the life of the transaction.
		data = bytes.Clone(v)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("boltstore: get %q: %w", name, err)
	}
	return data, nil
}

// Delete removes the database stored under name. Deleting a missing name
// returns ErrNotFound.
func (a *Archive) Delete(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	err := a.bdb.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get([]byte(name)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(name))
	})
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return err
}

// List returns the stored names in byte order.
func (a *Archive) List() ([]string, error) {
	var names []string
	err := a.bdb.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: list: %w", err)
	}
	return names, nil
}

// Migrate rewrites every database stored in a legacy format version in the
// current format. It returns the names it rewrote. Entries that fail to
// decode are left untouched and reported in the returned error.
func (a *Archive) Migrate() ([]string, error) {
	var (
		migrated []string
		errs     []error
	)
	err := a.bdb.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		type rewrite struct {
			key  []byte
			data []byte
		}
		var pending []rewrite
		err := b.ForEach(func(k, v []byte) error {
			version, err := burrowdb.PeekVersion(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%q: %w", k, err))
				return nil
			}
			if version == burrowdb.CurrentFormatVersion {
				return nil
			}
			db, err := a.codec.DecodeDatabase(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%q: %w", k, err))
				return nil
			}
			data, err := a.codec.EncodeDatabase(db)
			if err != nil {
				errs = append(errs, fmt.Errorf("%q: %w", k, err))
				return nil
			}
			pending = append(pending, rewrite{key: bytes.Clone(k), data: data})
			return nil
		})
		if err != nil {
			return err
		}
		// Bolt forbids modifying a bucket while iterating it.
		for _, r := range pending {
			if err := b.Put(r.key, r.data); err != nil {
				return err
			}
			migrated = append(migrated, string(r.key))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: migrate: %w", err)
	}
	slices.Sort(migrated)
	for _, name := range migrated {
		a.logger.Infof(logging.NSBolt+"rewrote %q in format version %d", name, burrowdb.CurrentFormatVersion)
	}
	return migrated, errors.Join(errs...)
}
