package burrowdb

// framing.go implements compression framing.
//
// Frame format:
//
//	+-----------+----------------+-----------------+----------------+--------------+
//	| algorithm | original length| XXH3-64 of      | stored length  | stored bytes |
//	| (1 byte)  | (lenint)       | payload (8B LE) | (lenint)       |              |
//	+-----------+----------------+-----------------+----------------+--------------+
//
// The checksum covers the uncompressed payload, so it also catches a
// decompressor that silently produced the wrong bytes.

import (
	"bytes"
	"fmt"

	"github.com/aalhour/burrowdb/internal/checksum"
	"github.com/aalhour/burrowdb/internal/compression"
	"github.com/aalhour/burrowdb/internal/encoding"
	"github.com/aalhour/burrowdb/internal/logging"
)

// Compress wraps payload in a frame using algorithm alg with the default codec.
func Compress(payload []byte, alg CompressionType) ([]byte, error) {
	return defaultCodec.Compress(payload, alg)
}

// Decompress reads one frame from the front of buf with the default codec.
func Decompress(buf []byte) ([]byte, int, error) { return defaultCodec.Decompress(buf) }

// Compress wraps payload in a frame using algorithm alg. It fails when alg is
// not a supported algorithm id or payload is longer than the codec's
// MaxFrameSize.
func (c *Codec) Compress(payload []byte, alg CompressionType) ([]byte, error) {
	if !alg.IsSupported() {
		return nil, fmt.Errorf("compress with algorithm %d: %w", uint8(alg), ErrUnsupportedAlgorithm)
	}
	dst := []byte{byte(alg)}
	dst, err := c.appendFrameBody(dst, alg, payload)
	if err != nil {
		return nil, err
	}
	c.logger.Debugf(logging.NSFrame+"%s frame: %d -> %d bytes", alg, len(payload), len(dst))
	return dst, nil
}

// Decompress reads one frame from the front of buf and returns its payload
// and the number of bytes the frame occupied. The payload never aliases buf.
func (c *Codec) Decompress(buf []byte) ([]byte, int, error) {
	d := c.newDecoder(buf)
	alg, err := d.r.Byte()
	if err != nil {
		return nil, 0, decodeErrf(0, err, "read frame algorithm")
	}
	payload, err := d.frameBody(CompressionType(alg), 0)
	if err != nil {
		c.logger.Debugf(logging.NSFrame+"rejected frame: %v", err)
		return nil, 0, err
	}
	return payload, d.r.Offset(), nil
}

// appendFrameBody appends everything after the algorithm byte.
func (c *Codec) appendFrameBody(dst []byte, alg CompressionType, payload []byte) ([]byte, error) {
	if len(payload) > c.maxFrameSize {
		return nil, fmt.Errorf("frame length %d exceeds limit %d: %w", len(payload), c.maxFrameSize, ErrIntegerOverflow)
	}
	stored, err := compression.Compress(alg, payload)
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	dst = encoding.AppendUint64(dst, uint64(len(payload)))
	dst = encoding.AppendFixed64(dst, checksum.XXH3(payload))
	return encoding.AppendLengthPrefixed(dst, stored), nil
}

// frameHeader is the part of a frame between the algorithm byte and the
// stored bytes.
type frameHeader struct {
	size   int
	sum    uint64
	stored []byte
}

// frameHeader reads a frame up to and including its stored bytes without
// decompressing them. start is the offset of the algorithm byte, used for
// error reporting.
func (d *decoder) frameHeader(alg CompressionType, start int) (frameHeader, error) {
	if !alg.IsSupported() {
		return frameHeader{}, decodeErrf(start, ErrUnsupportedAlgorithm, "frame algorithm %d", uint8(alg))
	}

	off := d.r.Offset()
	size, err := d.r.Uint64()
	if err != nil {
		return frameHeader{}, decodeErrf(off, err, "read frame length")
	}
	if size > uint64(d.maxFrameSize) {
		return frameHeader{}, decodeErrf(off, ErrIntegerOverflow, "frame length %d exceeds limit %d", size, d.maxFrameSize)
	}
	off = d.r.Offset()
	sum, err := d.r.Fixed64()
	if err != nil {
		return frameHeader{}, decodeErrf(off, err, "read frame checksum")
	}
	off = d.r.Offset()
	stored, err := d.r.LengthPrefixed()
	if err != nil {
		return frameHeader{}, decodeErrf(off, err, "read frame payload")
	}
	return frameHeader{size: int(size), sum: sum, stored: stored}, nil
}

// frameBody reads the part of a frame that follows the algorithm byte and
// returns the verified payload.
func (d *decoder) frameBody(alg CompressionType, start int) ([]byte, error) {
	h, err := d.frameHeader(alg, start)
	if err != nil {
		return nil, err
	}
	payload, err := compression.Decompress(alg, h.stored, h.size)
	if err != nil {
		// A stream that does not inflate to the declared bytes is an integrity failure.
		return nil, decodeErrf(start, ErrChecksumMismatch, "%s frame: %v", alg, err)
	}
	if !checksum.Verify(checksum.TypeXXH3, payload, h.sum) {
		return nil, decodeErrf(start, ErrChecksumMismatch, "%s frame payload", alg)
	}
	if alg == CompressionNone {
		payload = bytes.Clone(payload)
	}
	return payload, nil
}
