// Package checksum provides the integrity checks used by the burrowdb format.
//
// Two algorithms are in use:
//   - XXH3-64 protects the uncompressed payload of a compression frame.
//   - XXHash64 protects a whole encoded database (the trailer).
//
// Both are stored as 8-byte little-endian values.
package checksum

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/xxh3"
)

// Size is the encoded size of every checksum in bytes.
const Size = 8

// Type represents the type of checksum algorithm.
type Type uint8

const (
	// TypeXXH3 is XXH3-64, used for frame payloads.
	TypeXXH3 Type = 1
	// TypeXXHash64 is XXHash64, used for database trailers.
	TypeXXHash64 Type = 2
)

// String returns a human-readable name for the checksum type.
func (t Type) String() string {
	switch t {
	case TypeXXH3:
		return "XXH3"
	case TypeXXHash64:
		return "XXHash64"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// XXH3 computes the 64-bit XXH3 hash of data.
func XXH3(data []byte) uint64 {
	return xxh3.Hash(data)
}

// XXHash64 computes the 64-bit XXHash of data.
func XXHash64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Compute computes a checksum of the given type.
func Compute(t Type, data []byte) (uint64, error) {
	switch t {
	case TypeXXH3:
		return XXH3(data), nil
	case TypeXXHash64:
		return XXHash64(data), nil
	default:
		return 0, fmt.Errorf("unsupported checksum type: %s", t)
	}
}

// Verify reports whether data hashes to want under the given type.
func Verify(t Type, data []byte, want uint64) bool {
	got, err := Compute(t, data)
	return err == nil && got == want
}
