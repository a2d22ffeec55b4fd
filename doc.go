/*
Package burrowdb provides an embeddable, self-describing binary document
format: a tagged-union Value codec, compression framing, and a versioned
Database container of named Stores of Documents.

All operations work on caller-supplied byte buffers. The package performs
no file or network I/O; see the boltstore package for an optional
persistence adapter and the interop package for JSON and MessagePack
projections.

# Values

Every encoded Value starts with one tag byte:

	0x00        Null
	0x01, 0x02  Bool false, true
	0x10..0x14  Uint8, Uint16, Uint32, Uint64, Uint128 (lenint)
	0x18..0x1C  Int8, Int16, Int32, Int64, Int128 (zigzag lenint)
	0x20, 0x21  Float32, Float64 (little-endian IEEE-754)
	0x30        String (lenint length + UTF-8)
	0x31        Binary (lenint length + bytes)
	0x40        Array (lenint count + Values)
	0x41        Map (lenint count + (String key, Value) pairs)
	0x50        Timestamp (zigzag lenint seconds, lenint nanoseconds, zone name)

Lengths, counts and integers use a length-encoded integer ("lenint"): a
first byte below 0xF0 is the value itself, otherwise the next
(first - 0xEF) bytes hold the little-endian magnitude.

# Decoding

Decoders validate everything before returning: truncated input, unknown
tags, invalid UTF-8, duplicate keys, out-of-range integers, nesting beyond
Options.MaxDepth and unknown time zones are reported as a *DecodeError that
unwraps to one of the Err* sentinels. Decoded data never aliases the input.

# Databases

A Database is written in format version 2: a magic, the version, the
stores (each optionally compressed with Snappy, DEFLATE, LZ4 or Zstandard)
and an XXHash64 trailer. Version 1 databases are upgraded in memory when
decoded; newer versions are rejected with ErrUnsupportedVersion.

# Concurrency

A Codec is immutable and safe for concurrent use. Document, Store and
Database values have no internal locking; callers that share one across
goroutines must synchronize mutation themselves.
*/
package burrowdb
