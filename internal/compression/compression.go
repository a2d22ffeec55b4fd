// Package compression provides whole-buffer compression and decompression
// for burrowdb frames.
//
// Every frame carries a 1-byte algorithm id followed by the stored bytes.
// The id is the contract; which library implements an id is a detail of
// this package.
package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type represents a compression algorithm.
type Type uint8

const (
	// NoCompression stores the payload as-is.
	NoCompression Type = 0x0

	// SnappyCompression uses Google Snappy block compression (the fast block compressor).
	SnappyCompression Type = 0x1

	// DeflateCompression uses raw DEFLATE (no zlib header).
	DeflateCompression Type = 0x2

	// LZ4Compression uses the LZ4 frame format.
	LZ4Compression Type = 0x4

	// ZstdCompression uses Zstandard.
	ZstdCompression Type = 0x7
)

var (
	// ErrUnsupported is returned for an unknown algorithm id.
	ErrUnsupported = errors.New("unsupported compression type")

	// ErrCorrupt is returned when the stored bytes cannot be decompressed.
	ErrCorrupt = errors.New("corrupt compressed data")

	// ErrSizeMismatch is returned when the decompressed size differs from the declared size.
	ErrSizeMismatch = errors.New("decompressed size mismatch")
)

// String returns the human-readable name of the compression type.
func (t Type) String() string {
	switch t {
	case NoCompression:
		return "NoCompression"
	case SnappyCompression:
		return "Snappy"
	case DeflateCompression:
		return "Deflate"
	case LZ4Compression:
		return "LZ4"
	case ZstdCompression:
		return "ZSTD"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// IsSupported returns true if the compression type is supported.
func (t Type) IsSupported() bool {
	switch t {
	case NoCompression, SnappyCompression, DeflateCompression, LZ4Compression, ZstdCompression:
		return true
	default:
		return false
	}
}

// Types returns every supported compression type in id order.
func Types() []Type {
	return []Type{NoCompression, SnappyCompression, DeflateCompression, LZ4Compression, ZstdCompression}
}

// Compress compresses data using the specified compression type.
// NoCompression returns data unchanged.
func Compress(t Type, data []byte) ([]byte, error) {
	switch t {
	case NoCompression:
		return data, nil

	case SnappyCompression:
		return snappy.Encode(nil, data), nil

	case DeflateCompression:
		var buf bytes.Buffer
		w, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("deflate writer: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("deflate write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("deflate close: %w", err)
		}
		return buf.Bytes(), nil

	case LZ4Compression:
		return compressLZ4(data, lz4.Fast)

	case ZstdCompression:
		return compressZstd(data, zstd.SpeedDefault)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, t)
	}
}

// compressLZ4 compresses data using LZ4.
func compressLZ4(data []byte, level lz4.CompressionLevel) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if err := w.Apply(lz4.CompressionLevelOption(level)); err != nil {
		return nil, fmt.Errorf("lz4 apply level: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 close: %w", err)
	}
	return buf.Bytes(), nil
}

// compressZstd compresses data using Zstandard.
func compressZstd(data []byte, level zstd.EncoderLevel) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithZeroFrames(true))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	defer func() { _ = encoder.Close() }()
	return encoder.EncodeAll(data, nil), nil
}

// Decompress decompresses data that is declared to expand to exactly size
// bytes. Output is never allowed to grow past size+1 bytes, so a stream that
// lies about its size cannot force a large allocation.
func Decompress(t Type, data []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrSizeMismatch
	}
	switch t {
	case NoCompression:
		if len(data) != size {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, len(data), size)
		}
		return data, nil

	case SnappyCompression:
		n, err := snappy.DecodedLen(data)
		if err != nil {
			return nil, fmt.Errorf("%w: snappy: %v", ErrCorrupt, err)
		}
		if n != size {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, n, size)
		}
		// The output buffer is allocated up front, so a size the stream
		// cannot produce is rejected first.
		if int64(n) > int64(len(data))*snappyMaxExpansion {
			return nil, fmt.Errorf("%w: snappy: %d bytes cannot expand to %d", ErrCorrupt, len(data), n)
		}
		out, err := snappy.Decode(make([]byte, n), data)
		if err != nil {
			return nil, fmt.Errorf("%w: snappy: %v", ErrCorrupt, err)
		}
		return out, nil

	case DeflateCompression:
		r := flate.NewReader(bytes.NewReader(data))
		defer func() { _ = r.Close() }()
		return readBounded(r, size, "deflate")

	case LZ4Compression:
		return readBounded(lz4.NewReader(bytes.NewReader(data)), size, "lz4")

	case ZstdCompression:
		decoder, err := zstd.NewReader(bytes.NewReader(data), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		defer decoder.Close()
		return readBounded(decoder, size, "zstd")

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, t)
	}
}

// snappyMaxExpansion bounds snappy output per input byte: the densest
// element is a 3-byte copy of 64 bytes.
const snappyMaxExpansion = 22

// readBounded drains r, reading at most size+1 bytes.
func readBounded(r io.Reader, size int, name string) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, int64(size)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	if len(out) != size {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, len(out), size)
	}
	return out, nil
}
