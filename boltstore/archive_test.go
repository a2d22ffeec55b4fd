package boltstore

import (
	"bytes"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/aalhour/burrowdb"
	"github.com/aalhour/burrowdb/internal/logging"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	return openTestArchiveWithLogger(t, burrowdb.DiscardLogger)
}

func openTestArchiveWithLogger(t *testing.T, logger burrowdb.Logger) *Archive {
	t.Helper()
	codec := burrowdb.NewCodec(&burrowdb.Options{
		Compression: burrowdb.CompressionSnappy,
		Logger:      logger,
	})
	a, err := Open(filepath.Join(t.TempDir(), "archive.bolt"), &Options{Codec: codec, NoSync: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func sampleDatabase(t *testing.T) *burrowdb.Database {
	t.Helper()
	db := burrowdb.NewDatabase()
	s, err := db.CreateStore("animals")
	if err != nil {
		t.Fatal(err)
	}
	s.Insert("mouse", burrowdb.MustDocumentOf(
		burrowdb.Field{Key: "name", Value: burrowdb.MustStringValue("Mickey")},
		burrowdb.Field{Key: "age", Value: burrowdb.Uint8Value(95)},
	))
	if err := s.SetCompression(burrowdb.CompressionZstd); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestArchivePutGet(t *testing.T) {
	a := openTestArchive(t)
	db := sampleDatabase(t)

	if err := a.Put("zoo", db); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := a.Get("zoo")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Equal(db) {
		t.Errorf("Get returned %v, want %v", got.Names(), db.Names())
	}
	if s, _ := got.Store("animals"); s.Compression() != burrowdb.CompressionZstd {
		t.Errorf("store compression = %s, want ZSTD", s.Compression())
	}
}

func TestArchiveRaw(t *testing.T) {
	a := openTestArchive(t)
	blob := []byte("not a database at all")

	if err := a.PutRaw("opaque", blob); err != nil {
		t.Fatalf("PutRaw: %v", err)
	}
	got, err := a.GetRaw("opaque")
	if err != nil {
		t.Fatalf("GetRaw: %v", err)
	}
	if !bytes.Equal(got, blob) {
		t.Errorf("GetRaw = %q, want %q", got, blob)
	}
	if _, err := a.Get("opaque"); !errors.Is(err, burrowdb.ErrBadMagic) {
		t.Errorf("Get(opaque) error = %v, want ErrBadMagic", err)
	}
}

func TestArchiveListDelete(t *testing.T) {
	a := openTestArchive(t)
	for _, name := range []string{"b", "a", "c"} {
		if err := a.Put(name, burrowdb.NewDatabase()); err != nil {
			t.Fatalf("Put(%s): %v", name, err)
		}
	}

	names, err := a.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !slices.Equal(names, []string{"a", "b", "c"}) {
		t.Errorf("List = %v, want [a b c]", names)
	}

	if err := a.Delete("b"); err != nil {
		t.Fatalf("Delete(b): %v", err)
	}
	if err := a.Delete("b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete(b) error = %v, want ErrNotFound", err)
	}
	if _, err := a.Get("b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(b) error = %v, want ErrNotFound", err)
	}
}

func TestArchiveEmptyName(t *testing.T) {
	a := openTestArchive(t)
	if err := a.PutRaw("", []byte{1}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("PutRaw error = %v, want ErrEmptyName", err)
	}
	if _, err := a.GetRaw(""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("GetRaw error = %v, want ErrEmptyName", err)
	}
}

func TestArchiveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.bolt")
	a, err := Open(path, &Options{NoSync: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Put("zoo", sampleDatabase(t)); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	a, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer a.Close()
	got, err := a.Get("zoo")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if !got.Equal(sampleDatabase(t)) {
		t.Error("database changed across reopen")
	}
}

func TestArchiveMigrate(t *testing.T) {
	var logs logging.Recorder
	a := openTestArchiveWithLogger(t, &logs)

	legacy := append([]byte(burrowdb.Magic),
		0x01,      // format version 1
		0x01,      // one store
		0x01, 's', // store name
		0x01,      // one entry
		0x01, 'k', // key
		0x41, 0x01, 0x30, 0x01, 'n', 0x00, // {"n": null}
	)
	if err := a.PutRaw("old", legacy); err != nil {
		t.Fatal(err)
	}
	if err := a.Put("new", sampleDatabase(t)); err != nil {
		t.Fatal(err)
	}
	if err := a.PutRaw("broken", []byte("garbage")); err != nil {
		t.Fatal(err)
	}

	migrated, err := a.Migrate()
	if !errors.Is(err, burrowdb.ErrBadMagic) {
		t.Errorf("Migrate error = %v, want the broken entry reported", err)
	}
	if !slices.Equal(migrated, []string{"old"}) {
		t.Errorf("migrated = %v, want [old]", migrated)
	}

	raw, err := a.GetRaw("old")
	if err != nil {
		t.Fatal(err)
	}
	if v, err := burrowdb.PeekVersion(raw); err != nil || v != burrowdb.CurrentFormatVersion {
		t.Errorf("rewritten version = %d, %v", v, err)
	}
	db, err := a.Get("old")
	if err != nil {
		t.Fatalf("Get(old): %v", err)
	}
	s, ok := db.Store("s")
	if !ok {
		t.Fatal("store s missing after migration")
	}
	doc, _ := s.Get("k")
	if v, ok := doc.Get("n"); !ok || !v.IsNull() {
		t.Errorf("k.n = %v, %v", v, ok)
	}

	var sawMigrate, sawRewrite bool
	for _, line := range logs.Lines() {
		sawMigrate = sawMigrate || strings.HasPrefix(line, "WARN [migrate]")
		sawRewrite = sawRewrite || strings.HasPrefix(line, `INFO [bolt] rewrote "old"`)
	}
	if !sawMigrate || !sawRewrite {
		t.Errorf("log lines = %q, want a migrate warning and a rewrite notice", logs.Lines())
	}
}
