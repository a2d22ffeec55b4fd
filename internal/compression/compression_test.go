package compression

import (
	"bytes"
	"errors"
	"testing"
)

func TestNoCompression(t *testing.T) {
	data := []byte("hello world, this is test data for no compression")

	compressed, err := Compress(NoCompression, data)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}

	if !bytes.Equal(compressed, data) {
		t.Error("NoCompression should return data unchanged")
	}

	decompressed, err := Decompress(NoCompression, compressed, len(data))
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}

	if !bytes.Equal(decompressed, data) {
		t.Error("Decompressed data should match original")
	}
}

func TestRoundtripAllTypes(t *testing.T) {
	inputs := map[string][]byte{
		"empty":      {},
		"single":     {0x42},
		"repetitive": bytes.Repeat([]byte("burrowdb compression test "), 200),
		"binary":     binaryPattern(4096),
	}

	for _, typ := range Types() {
		for name, data := range inputs {
			t.Run(typ.String()+"/"+name, func(t *testing.T) {
				compressed, err := Compress(typ, data)
				if err != nil {
					t.Fatalf("Compress failed: %v", err)
				}

				decompressed, err := Decompress(typ, compressed, len(data))
				if err != nil {
					t.Fatalf("Decompress failed: %v", err)
				}

				if !bytes.Equal(decompressed, data) {
					t.Errorf("Decompressed %d bytes, want %d", len(decompressed), len(data))
				}
			})
		}
	}
}

func TestRepetitiveDataShrinks(t *testing.T) {
	data := bytes.Repeat([]byte("hello world "), 100)

	for _, typ := range []Type{SnappyCompression, DeflateCompression, LZ4Compression, ZstdCompression} {
		compressed, err := Compress(typ, data)
		if err != nil {
			t.Fatalf("%s: Compress failed: %v", typ, err)
		}
		t.Logf("%s: %d -> %d bytes (%.1f%%)", typ, len(data), len(compressed),
			float64(len(compressed))/float64(len(data))*100)
		if len(compressed) >= len(data) {
			t.Errorf("%s: compressed size %d >= original %d", typ, len(compressed), len(data))
		}
	}
}

func TestCompressionTypeString(t *testing.T) {
	tests := []struct {
		typ      Type
		expected string
	}{
		{NoCompression, "NoCompression"},
		{SnappyCompression, "Snappy"},
		{DeflateCompression, "Deflate"},
		{LZ4Compression, "LZ4"},
		{ZstdCompression, "ZSTD"},
		{Type(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.expected {
			t.Errorf("Type(%d).String() = %q, want %q", tt.typ, got, tt.expected)
		}
	}
}

func TestCompressionTypeIsSupported(t *testing.T) {
	for _, typ := range Types() {
		if !typ.IsSupported() {
			t.Errorf("%s should be supported", typ)
		}
	}

	for _, typ := range []Type{0x3, 0x5, 0x6, 0x8, 0xFF} {
		if typ.IsSupported() {
			t.Errorf("%s should not be supported", typ)
		}
	}
}

func TestUnsupportedCompressionType(t *testing.T) {
	data := []byte("test data")

	if _, err := Compress(Type(0x3), data); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Compress(0x3) error = %v, want ErrUnsupported", err)
	}

	if _, err := Decompress(Type(0x3), data, len(data)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Decompress(0x3) error = %v, want ErrUnsupported", err)
	}
}

func binaryPattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i * 7 % 251)
	}
	return data
}
