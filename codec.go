package burrowdb

// codec.go implements the Value codec.
//
// Every encoded value starts with one tag byte. Fixed-width payloads follow
// directly; variable-width payloads are preceded by a lenint length or
// element count. See doc.go for the tag table.

import (
	"bytes"
	"math"
	"time"
	"unicode/utf8"

	"github.com/aalhour/burrowdb/internal/compression"
	"github.com/aalhour/burrowdb/internal/encoding"
	"github.com/aalhour/burrowdb/internal/logging"
)

// Tag bytes.
const (
	tagNull      byte = 0x00
	tagFalse     byte = 0x01
	tagTrue      byte = 0x02
	tagUint8     byte = 0x10
	tagUint16    byte = 0x11
	tagUint32    byte = 0x12
	tagUint64    byte = 0x13
	tagUint128   byte = 0x14
	tagInt8      byte = 0x18
	tagInt16     byte = 0x19
	tagInt32     byte = 0x1A
	tagInt64     byte = 0x1B
	tagInt128    byte = 0x1C
	tagFloat32   byte = 0x20
	tagFloat64   byte = 0x21
	tagString    byte = 0x30
	tagBinary    byte = 0x31
	tagArray     byte = 0x40
	tagMap       byte = 0x41
	tagTimestamp byte = 0x50
)

// preallocation cap for decoded containers; counts are already bounded by
// the remaining input, this bounds the per-element overhead on top of it.
const maxPrealloc = 1024

// Codec encodes and decodes values, documents, stores and databases with a
// fixed set of Options. A Codec is immutable and safe for concurrent use.
type Codec struct {
	maxDepth     int
	maxFrameSize int
	compression  compression.Type
	logger       logging.Logger
}

// NewCodec returns a Codec configured by opts. A nil opts uses DefaultOptions.
func NewCodec(opts *Options) *Codec {
	if opts == nil {
		opts = DefaultOptions()
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	maxFrameSize := opts.MaxFrameSize
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &Codec{
		maxDepth:     maxDepth,
		maxFrameSize: maxFrameSize,
		compression:  opts.Compression,
		logger:       logging.OrDefault(opts.Logger),
	}
}

var defaultCodec = NewCodec(nil)

// MaxDepth returns the nesting limit enforced on decode.
func (c *Codec) MaxDepth() int { return c.maxDepth }

// EncodeValue encodes v with the default codec.
func EncodeValue(v Value) []byte { return defaultCodec.EncodeValue(v) }

// AppendValue appends the encoding of v to dst with the default codec.
func AppendValue(dst []byte, v Value) []byte { return defaultCodec.AppendValue(dst, v) }

// DecodeValue decodes one value from the front of buf with the default codec.
func DecodeValue(buf []byte) (Value, int, error) { return defaultCodec.DecodeValue(buf) }

// EncodeValue encodes v. Encoding never fails.
func (c *Codec) EncodeValue(v Value) []byte {
	return appendValue(nil, v)
}

// AppendValue appends the encoding of v to dst.
func (c *Codec) AppendValue(dst []byte, v Value) []byte {
	return appendValue(dst, v)
}

// DecodeValue decodes one value from the front of buf and reports how many
// bytes it consumed, so that values can be read back-to-back.
// The result never aliases buf.
func (c *Codec) DecodeValue(buf []byte) (Value, int, error) {
	d := c.newDecoder(buf)
	v, err := d.value(0)
	if err != nil {
		c.logger.Debugf(logging.NSCodec+"rejected value: %v", err)
		return Value{}, 0, err
	}
	return v, d.r.Offset(), nil
}

// -----------------------------------------------------------------------------
// Encoding
// -----------------------------------------------------------------------------

var unsignedTags = map[Kind]byte{
	KindUint8: tagUint8, KindUint16: tagUint16, KindUint32: tagUint32,
	KindUint64: tagUint64, KindUint128: tagUint128,
}

var signedTags = map[Kind]byte{
	KindInt8: tagInt8, KindInt16: tagInt16, KindInt32: tagInt32,
	KindInt64: tagInt64, KindInt128: tagInt128,
}

func appendValue(dst []byte, v Value) []byte {
	switch v.kind {
	case KindNull:
		return append(dst, tagNull)
	case KindBool:
		if v.num == 1 {
			return append(dst, tagTrue)
		}
		return append(dst, tagFalse)
	case KindUint8, KindUint16, KindUint32, KindUint64, KindUint128:
		dst = append(dst, unsignedTags[v.kind])
		return encoding.AppendUint128(dst, v.hi, v.num)
	case KindInt8, KindInt16, KindInt32, KindInt64:
		dst = append(dst, signedTags[v.kind])
		return encoding.AppendInt64(dst, int64(v.num))
	case KindInt128:
		dst = append(dst, tagInt128)
		zhi, zlo := encoding.I128ToZigzag(int64(v.hi), v.num)
		return encoding.AppendUint128(dst, zhi, zlo)
	case KindFloat32:
		dst = append(dst, tagFloat32)
		return encoding.AppendFixed32(dst, uint32(v.num))
	case KindFloat64:
		dst = append(dst, tagFloat64)
		return encoding.AppendFixed64(dst, v.num)
	case KindString:
		dst = append(dst, tagString)
		return encoding.AppendLengthPrefixedString(dst, v.str)
	case KindBinary:
		dst = append(dst, tagBinary)
		return encoding.AppendLengthPrefixed(dst, v.bin)
	case KindArray:
		dst = append(dst, tagArray)
		dst = appendCount(dst, len(v.arr))
		for _, e := range v.arr {
			dst = appendValue(dst, e)
		}
		return dst
	case KindMap:
		dst = append(dst, tagMap)
		dst = appendCount(dst, len(v.fields))
		for _, f := range v.fields {
			dst = appendField(dst, f.Key, f.Value)
		}
		return dst
	case KindTimestamp:
		dst = append(dst, tagTimestamp)
		dst = encoding.AppendInt64(dst, v.t.Unix())
		dst = encoding.AppendUint64(dst, uint64(v.t.Nanosecond()))
		return encoding.AppendLengthPrefixedString(dst, v.str)
	default:
		panic("burrowdb: encode of invalid Value kind " + v.kind.String())
	}
}

func appendCount(dst []byte, n int) []byte {
	return encoding.AppendUint64(dst, uint64(n))
}

// appendField writes one Map/Document pair: the key as a String value, then the value.
func appendField(dst []byte, key string, v Value) []byte {
	dst = append(dst, tagString)
	dst = encoding.AppendLengthPrefixedString(dst, key)
	return appendValue(dst, v)
}

// -----------------------------------------------------------------------------
// Decoding
// -----------------------------------------------------------------------------

type decoder struct {
	r            *encoding.Reader
	maxDepth     int
	maxFrameSize int

	// skipFrames makes compressed stores be stepped over by their stored
	// length instead of decompressed.
	skipFrames bool
}

func (c *Codec) newDecoder(buf []byte) *decoder {
	return &decoder{r: encoding.NewReader(buf), maxDepth: c.maxDepth, maxFrameSize: c.maxFrameSize}
}

// unsignedMax holds the largest value of each unsigned width up to 64 bits.
var unsignedMax = map[byte]uint64{
	tagUint8:  math.MaxUint8,
	tagUint16: math.MaxUint16,
	tagUint32: math.MaxUint32,
	tagUint64: math.MaxUint64,
}

var signedRange = map[byte][2]int64{
	tagInt8:  {math.MinInt8, math.MaxInt8},
	tagInt16: {math.MinInt16, math.MaxInt16},
	tagInt32: {math.MinInt32, math.MaxInt32},
	tagInt64: {math.MinInt64, math.MaxInt64},
}

var tagKinds = map[byte]Kind{
	tagUint8: KindUint8, tagUint16: KindUint16, tagUint32: KindUint32, tagUint64: KindUint64,
	tagInt8: KindInt8, tagInt16: KindInt16, tagInt32: KindInt32, tagInt64: KindInt64,
}

// value decodes one value. depth is the number of containers enclosing it.
func (d *decoder) value(depth int) (Value, error) {
	start := d.r.Offset()
	tag, err := d.r.Byte()
	if err != nil {
		return Value{}, decodeErrf(start, err, "read tag")
	}

	switch tag {
	case tagNull:
		return Value{}, nil
	case tagFalse:
		return BoolValue(false), nil
	case tagTrue:
		return BoolValue(true), nil

	case tagUint8, tagUint16, tagUint32, tagUint64:
		hi, lo, err := d.r.Uint128()
		if err != nil {
			return Value{}, decodeErrf(start, err, "read %s", tagKinds[tag])
		}
		if hi != 0 || lo > unsignedMax[tag] {
			return Value{}, decodeErrf(start, ErrIntegerOverflow, "%s payload", tagKinds[tag])
		}
		return Value{kind: tagKinds[tag], num: lo}, nil

	case tagUint128:
		hi, lo, err := d.r.Uint128()
		if err != nil {
			return Value{}, decodeErrf(start, err, "read Uint128")
		}
		return Value{kind: KindUint128, num: lo, hi: hi}, nil

	case tagInt8, tagInt16, tagInt32, tagInt64:
		zhi, zlo, err := d.r.Uint128()
		if err != nil {
			return Value{}, decodeErrf(start, err, "read %s", tagKinds[tag])
		}
		if zhi != 0 {
			return Value{}, decodeErrf(start, ErrIntegerOverflow, "%s payload", tagKinds[tag])
		}
		x := encoding.ZigzagToI64(zlo)
		if r := signedRange[tag]; x < r[0] || x > r[1] {
			return Value{}, decodeErrf(start, ErrIntegerOverflow, "%s payload", tagKinds[tag])
		}
		return Value{kind: tagKinds[tag], num: uint64(x)}, nil

	case tagInt128:
		zhi, zlo, err := d.r.Uint128()
		if err != nil {
			return Value{}, decodeErrf(start, err, "read Int128")
		}
		hi, lo := encoding.ZigzagToI128(zhi, zlo)
		return Value{kind: KindInt128, num: lo, hi: uint64(hi)}, nil

	case tagFloat32:
		bits, err := d.r.Fixed32()
		if err != nil {
			return Value{}, decodeErrf(start, err, "read Float32")
		}
		return Value{kind: KindFloat32, num: uint64(bits)}, nil

	case tagFloat64:
		bits, err := d.r.Fixed64()
		if err != nil {
			return Value{}, decodeErrf(start, err, "read Float64")
		}
		return Value{kind: KindFloat64, num: bits}, nil

	case tagString:
		s, err := d.utf8String()
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindString, str: s}, nil

	case tagBinary:
		b, err := d.r.LengthPrefixed()
		if err != nil {
			return Value{}, decodeErrf(start, err, "read Binary")
		}
		return Value{kind: KindBinary, bin: bytes.Clone(b)}, nil

	case tagArray:
		if depth+1 > d.maxDepth {
			return Value{}, decodeErrf(start, ErrDepthLimitExceeded, "array at depth %d (max %d)", depth+1, d.maxDepth)
		}
		n, err := d.r.Count()
		if err != nil {
			return Value{}, decodeErrf(start, err, "read Array count")
		}
		arr := make([]Value, 0, min(n, maxPrealloc))
		for range n {
			e, err := d.value(depth + 1)
			if err != nil {
				return Value{}, err
			}
			arr = append(arr, e)
		}
		return Value{kind: KindArray, arr: arr}, nil

	case tagMap:
		if depth+1 > d.maxDepth {
			return Value{}, decodeErrf(start, ErrDepthLimitExceeded, "map at depth %d (max %d)", depth+1, d.maxDepth)
		}
		fields, err := d.fields(depth + 1)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindMap, fields: fields}, nil

	case tagTimestamp:
		return d.timestamp(start)

	default:
		return Value{}, decodeErrf(start, ErrInvalidTag, "tag 0x%02x", tag)
	}
}

// utf8String reads a length-prefixed string payload and validates it.
func (d *decoder) utf8String() (string, error) {
	start := d.r.Offset()
	b, err := d.r.LengthPrefixed()
	if err != nil {
		return "", decodeErrf(start, err, "read String")
	}
	if !utf8.Valid(b) {
		return "", decodeErrf(start, ErrInvalidUTF8, "string payload")
	}
	return string(b), nil
}

// key reads a Map/Document key, which must be a String value.
func (d *decoder) key() (string, error) {
	start := d.r.Offset()
	tag, err := d.r.Byte()
	if err != nil {
		return "", decodeErrf(start, err, "read key tag")
	}
	if tag != tagString {
		return "", decodeErrf(start, ErrInvalidTag, "key tag 0x%02x, want String", tag)
	}
	return d.utf8String()
}

// fields reads a pair count and that many (key, value) pairs, rejecting
// duplicate keys. Values are decoded at the given depth.
func (d *decoder) fields(depth int) ([]Field, error) {
	start := d.r.Offset()
	n, err := d.r.Count()
	if err != nil {
		return nil, decodeErrf(start, err, "read pair count")
	}
	fields := make([]Field, 0, min(n, maxPrealloc))
	seen := make(map[string]struct{}, min(n, maxPrealloc))
	for range n {
		keyOff := d.r.Offset()
		k, err := d.key()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[k]; dup {
			return nil, decodeErrf(keyOff, ErrDuplicateKey, "key %q", k)
		}
		seen[k] = struct{}{}
		v, err := d.value(depth)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Key: k, Value: v})
	}
	return fields, nil
}

func (d *decoder) timestamp(start int) (Value, error) {
	sec, err := d.r.Int64()
	if err != nil {
		return Value{}, decodeErrf(start, err, "read Timestamp seconds")
	}
	nsec, err := d.r.Uint64()
	if err != nil {
		return Value{}, decodeErrf(start, err, "read Timestamp nanoseconds")
	}
	if nsec >= uint64(time.Second) {
		return Value{}, decodeErrf(start, ErrIntegerOverflow, "timestamp nanoseconds %d", nsec)
	}
	zone, err := d.utf8String()
	if err != nil {
		return Value{}, err
	}
	loc, err := loadZone(zone)
	if err != nil {
		return Value{}, decodeErrf(start, ErrUnknownTimezone, "zone %q", zone)
	}
	return Value{kind: KindTimestamp, str: zone, t: time.Unix(sec, int64(nsec)).In(loc)}, nil
}
