// Package encoding provides the binary primitives used by the burrowdb
// format: length-encoded integers, zigzag mapping and fixed-width
// little-endian helpers.
//
// All multi-byte fixed-width integers are encoded in little-endian format.
//
// Length-encoded integers ("lenints") use a one-byte prefix:
//
//	0x00..0xEF  the value itself (0..239), nothing follows
//	0xF0..0xFF  n = prefix - 0xEF magnitude bytes follow (1..16), little-endian
//
// The encoder always emits the shortest form. A decoder never needs to look
// past the magnitude bytes announced by the prefix.
package encoding

import (
	"encoding/binary"
	"errors"
	"math/bits"
)

const (
	// MaxSingleByte is the largest value stored in the prefix byte itself.
	MaxSingleByte = 0xEF

	// MaxLenintLength is the maximum number of bytes a lenint can occupy.
	MaxLenintLength = 17

	prefixBase = 0xEF
)

var (
	// ErrUnexpectedEOF is returned when the input ends before a field does.
	ErrUnexpectedEOF = errors.New("unexpected end of input")

	// ErrOverflow is returned when a decoded integer does not fit its target width.
	ErrOverflow = errors.New("integer overflow")
)

// -----------------------------------------------------------------------------
// Fixed-width encoding (little-endian)
// -----------------------------------------------------------------------------

// AppendFixed32 appends a little-endian uint32 to dst and returns the extended slice.
func AppendFixed32(dst []byte, value uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, value)
}

// AppendFixed64 appends a little-endian uint64 to dst and returns the extended slice.
func AppendFixed64(dst []byte, value uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, value)
}

// DecodeFixed32 decodes a uint32 from a 4-byte little-endian buffer.
// REQUIRES: src has at least 4 bytes.
func DecodeFixed32(src []byte) uint32 {
	return binary.LittleEndian.Uint32(src)
}

// DecodeFixed64 decodes a uint64 from an 8-byte little-endian buffer.
// REQUIRES: src has at least 8 bytes.
func DecodeFixed64(src []byte) uint64 {
	return binary.LittleEndian.Uint64(src)
}

// -----------------------------------------------------------------------------
// Length-encoded integers
// -----------------------------------------------------------------------------

// AppendUint128 appends the 128-bit value hi:lo as a lenint.
func AppendUint128(dst []byte, hi, lo uint64) []byte {
	if hi == 0 && lo <= MaxSingleByte {
		return append(dst, byte(lo))
	}
	n := 16 - bits.LeadingZeros64(hi)/8
	if hi == 0 {
		n = 8 - bits.LeadingZeros64(lo)/8
	}
	dst = append(dst, byte(prefixBase+n))
	for i := 0; i < n; i++ {
		if i < 8 {
			dst = append(dst, byte(lo>>(8*i)))
		} else {
			dst = append(dst, byte(hi>>(8*(i-8))))
		}
	}
	return dst
}

// AppendUint64 appends v as a lenint.
func AppendUint64(dst []byte, v uint64) []byte {
	return AppendUint128(dst, 0, v)
}

// AppendInt64 appends v as a zigzag-mapped lenint.
func AppendInt64(dst []byte, v int64) []byte {
	return AppendUint64(dst, I64ToZigzag(v))
}

// LenintLength returns the number of bytes AppendUint64 writes for v.
func LenintLength(v uint64) int {
	if v <= MaxSingleByte {
		return 1
	}
	return 1 + 8 - bits.LeadingZeros64(v)/8
}

// DecodeUint128 decodes a lenint from src.
// Returns the value, the number of bytes consumed, and any error.
// Returns ErrUnexpectedEOF if src ends before the announced magnitude bytes.
func DecodeUint128(src []byte) (hi, lo uint64, bytesRead int, err error) {
	if len(src) == 0 {
		return 0, 0, 0, ErrUnexpectedEOF
	}
	b := src[0]
	if b <= MaxSingleByte {
		return 0, uint64(b), 1, nil
	}
	n := int(b) - prefixBase
	if len(src) < 1+n {
		return 0, 0, 0, ErrUnexpectedEOF
	}
	for i := 0; i < n; i++ {
		c := uint64(src[1+i])
		if i < 8 {
			lo |= c << (8 * i)
		} else {
			hi |= c << (8 * (i - 8))
		}
	}
	return hi, lo, 1 + n, nil
}

// DecodeUint64 decodes a lenint that must fit in 64 bits.
func DecodeUint64(src []byte) (value uint64, bytesRead int, err error) {
	hi, lo, n, err := DecodeUint128(src)
	if err != nil {
		return 0, 0, err
	}
	if hi != 0 {
		return 0, 0, ErrOverflow
	}
	return lo, n, nil
}

// DecodeInt64 decodes a zigzag-mapped lenint as a signed int64.
func DecodeInt64(src []byte) (value int64, bytesRead int, err error) {
	u, n, err := DecodeUint64(src)
	if err != nil {
		return 0, 0, err
	}
	return ZigzagToI64(u), n, nil
}

// -----------------------------------------------------------------------------
// Signed integers (zigzag encoding)
// -----------------------------------------------------------------------------

// I64ToZigzag converts a signed int64 to an unsigned uint64 using zigzag encoding.
// This allows negative numbers to be encoded efficiently as lenints.
func I64ToZigzag(v int64) uint64 {
	return (uint64(v) << 1) ^ uint64(v>>63)
}

// ZigzagToI64 converts a zigzag-encoded uint64 back to a signed int64.
func ZigzagToI64(n uint64) int64 {
	return int64(n>>1) ^ -int64(n&1)
}

// I128ToZigzag zigzag-maps the two's complement 128-bit value hi:lo.
func I128ToZigzag(hi int64, lo uint64) (zhi, zlo uint64) {
	sign := uint64(hi >> 63)
	zhi = (uint64(hi)<<1 | lo>>63) ^ sign
	zlo = (lo << 1) ^ sign
	return zhi, zlo
}

// ZigzagToI128 reverses I128ToZigzag.
func ZigzagToI128(zhi, zlo uint64) (hi int64, lo uint64) {
	neg := -(zlo & 1)
	lo = (zlo>>1 | zhi<<63) ^ neg
	hi = int64((zhi >> 1) ^ neg)
	return hi, lo
}
