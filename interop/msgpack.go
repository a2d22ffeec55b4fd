package interop

// msgpack.go projects Values to and from MessagePack.
//
// Fixed-width integers and floats keep their width on the wire (a Uint16 is
// always written with the uint16 code). Uint128, Int128 and Timestamp have no
// native counterpart and travel as extension type 66 whose payload is the
// burrowdb binary encoding of the value.

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/aalhour/burrowdb"
)

// ExtValue is the MessagePack extension type carrying burrowdb-encoded values.
const ExtValue int8 = 66

// MarshalValueMsgpack returns the MessagePack projection of v.
func MarshalValueMsgpack(v burrowdb.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	err := encodeMsgpackValue(enc, v)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalDocumentMsgpack returns doc as a MessagePack map.
func MarshalDocumentMsgpack(doc *burrowdb.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	err := encodeMsgpackFields(enc, doc.Fields())
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeMsgpackValue(enc *msgpack.Encoder, v burrowdb.Value) error {
	switch v.Kind() {
	case burrowdb.KindNull:
		return enc.EncodeNil()
	case burrowdb.KindBool:
		return enc.EncodeBool(v.Bool())
	case burrowdb.KindUint8:
		return enc.EncodeUint8(uint8(v.Uint64()))
	case burrowdb.KindUint16:
		return enc.EncodeUint16(uint16(v.Uint64()))
	case burrowdb.KindUint32:
		return enc.EncodeUint32(uint32(v.Uint64()))
	case burrowdb.KindUint64:
		return enc.EncodeUint64(v.Uint64())
	case burrowdb.KindInt8:
		return enc.EncodeInt8(int8(v.Int64()))
	case burrowdb.KindInt16:
		return enc.EncodeInt16(int16(v.Int64()))
	case burrowdb.KindInt32:
		return enc.EncodeInt32(int32(v.Int64()))
	case burrowdb.KindInt64:
		return enc.EncodeInt64(v.Int64())
	case burrowdb.KindFloat32:
		return enc.EncodeFloat32(v.Float32())
	case burrowdb.KindFloat64:
		return enc.EncodeFloat64(v.Float64())
	case burrowdb.KindString:
		if !utf8.ValidString(v.Text()) {
			return fmt.Errorf("%w: string is not valid UTF-8", ErrNotRepresentable)
		}
		return enc.EncodeString(v.Text())
	case burrowdb.KindBinary:
		// EncodeBytes writes nil for an empty slice; Binary stays Binary.
		if err := enc.EncodeBytesLen(len(v.Bytes())); err != nil {
			return err
		}
		_, err := enc.Writer().Write(v.Bytes())
		return err
	case burrowdb.KindArray:
		if err := enc.EncodeArrayLen(v.Len()); err != nil {
			return err
		}
		for _, e := range v.Array() {
			if err := encodeMsgpackValue(enc, e); err != nil {
				return err
			}
		}
		return nil
	case burrowdb.KindMap:
		return encodeMsgpackFields(enc, v.Map())
	case burrowdb.KindUint128, burrowdb.KindInt128, burrowdb.KindTimestamp:
		payload := burrowdb.EncodeValue(v)
		if err := enc.EncodeExtHeader(ExtValue, len(payload)); err != nil {
			return err
		}
		_, err := enc.Writer().Write(payload)
		return err
	default:
		return fmt.Errorf("%w: kind %s", ErrNotRepresentable, v.Kind())
	}
}

func encodeMsgpackFields(enc *msgpack.Encoder, fields []burrowdb.Field) error {
	if err := enc.EncodeMapLen(len(fields)); err != nil {
		return err
	}
	for _, f := range fields {
		if !utf8.ValidString(f.Key) {
			return fmt.Errorf("%w: key is not valid UTF-8", ErrNotRepresentable)
		}
		if err := enc.EncodeString(f.Key); err != nil {
			return err
		}
		if err := encodeMsgpackValue(enc, f.Value); err != nil {
			return fmt.Errorf("key %q: %w", f.Key, err)
		}
	}
	return nil
}

// msgpackReader decodes one value tree. Raw payloads are read straight from
// r, which the msgpack decoder also reads without buffering.
type msgpackReader struct {
	r   *bytes.Reader
	dec *msgpack.Decoder
}

func withMsgpackReader[T any](data []byte, fn func(*msgpackReader) (T, error)) (T, error) {
	var zero T
	r := bytes.NewReader(data)
	dec := msgpack.GetDecoder()
	dec.Reset(r)
	defer msgpack.PutDecoder(dec)

	out, err := fn(&msgpackReader{r: r, dec: dec})
	if err != nil {
		return zero, err
	}
	if r.Len() > 0 {
		return zero, fmt.Errorf("%w: %d trailing bytes", ErrInvalidMsgpack, r.Len())
	}
	return out, nil
}

// UnmarshalValueMsgpack decodes a single MessagePack value.
func UnmarshalValueMsgpack(data []byte) (burrowdb.Value, error) {
	return withMsgpackReader(data, func(m *msgpackReader) (burrowdb.Value, error) {
		return m.value(0)
	})
}

// DocumentFromMsgpack decodes a MessagePack map into a Document.
func DocumentFromMsgpack(data []byte) (*burrowdb.Document, error) {
	return withMsgpackReader(data, func(m *msgpackReader) (*burrowdb.Document, error) {
		c, err := m.dec.PeekCode()
		if err != nil {
			return nil, m.wrap(err)
		}
		if !msgpcode.IsFixedMap(c) && c != msgpcode.Map16 && c != msgpcode.Map32 {
			return nil, fmt.Errorf("%w: document must be a map, got code 0x%02x", ErrInvalidMsgpack, c)
		}
		fields, err := m.fields(0)
		if err != nil {
			return nil, err
		}
		return burrowdb.DocumentOf(fields...)
	})
}

func (m *msgpackReader) wrap(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidMsgpack, err)
}

func (m *msgpackReader) value(depth int) (burrowdb.Value, error) {
	c, err := m.dec.PeekCode()
	if err != nil {
		return burrowdb.Value{}, m.wrap(err)
	}

	switch {
	case c == msgpcode.Nil:
		if err := m.dec.DecodeNil(); err != nil {
			return burrowdb.Value{}, m.wrap(err)
		}
		return burrowdb.NullValue(), nil
	case c == msgpcode.False || c == msgpcode.True:
		b, err := m.dec.DecodeBool()
		if err != nil {
			return burrowdb.Value{}, m.wrap(err)
		}
		return burrowdb.BoolValue(b), nil
	case msgpcode.IsFixedNum(c):
		n, err := m.dec.DecodeInt64()
		if err != nil {
			return burrowdb.Value{}, m.wrap(err)
		}
		return burrowdb.Int64Value(n), nil
	case c == msgpcode.Uint8 || c == msgpcode.Uint16 || c == msgpcode.Uint32 || c == msgpcode.Uint64:
		n, err := m.dec.DecodeUint64()
		if err != nil {
			return burrowdb.Value{}, m.wrap(err)
		}
		switch c {
		case msgpcode.Uint8:
			return burrowdb.Uint8Value(uint8(n)), nil
		case msgpcode.Uint16:
			return burrowdb.Uint16Value(uint16(n)), nil
		case msgpcode.Uint32:
			return burrowdb.Uint32Value(uint32(n)), nil
		default:
			return burrowdb.Uint64Value(n), nil
		}
	case c == msgpcode.Int8 || c == msgpcode.Int16 || c == msgpcode.Int32 || c == msgpcode.Int64:
		n, err := m.dec.DecodeInt64()
		if err != nil {
			return burrowdb.Value{}, m.wrap(err)
		}
		switch c {
		case msgpcode.Int8:
			return burrowdb.Int8Value(int8(n)), nil
		case msgpcode.Int16:
			return burrowdb.Int16Value(int16(n)), nil
		case msgpcode.Int32:
			return burrowdb.Int32Value(int32(n)), nil
		default:
			return burrowdb.Int64Value(n), nil
		}
	case c == msgpcode.Float:
		f, err := m.dec.DecodeFloat32()
		if err != nil {
			return burrowdb.Value{}, m.wrap(err)
		}
		return burrowdb.Float32Value(f), nil
	case c == msgpcode.Double:
		f, err := m.dec.DecodeFloat64()
		if err != nil {
			return burrowdb.Value{}, m.wrap(err)
		}
		return burrowdb.Float64Value(f), nil
	case msgpcode.IsString(c):
		s, err := m.str()
		if err != nil {
			return burrowdb.Value{}, err
		}
		return burrowdb.StringValue(s)
	case msgpcode.IsBin(c):
		b, err := m.raw()
		if err != nil {
			return burrowdb.Value{}, err
		}
		return burrowdb.BinaryValue(b), nil
	case msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32:
		if depth >= maxDepth {
			return burrowdb.Value{}, fmt.Errorf("%w: nesting deeper than %d", burrowdb.ErrDepthLimitExceeded, maxDepth)
		}
		n, err := m.dec.DecodeArrayLen()
		if err != nil {
			return burrowdb.Value{}, m.wrap(err)
		}
		// Every element takes at least one byte.
		if n > m.r.Len() {
			return burrowdb.Value{}, fmt.Errorf("%w: array of %d elements in %d bytes", ErrInvalidMsgpack, n, m.r.Len())
		}
		elems := make([]burrowdb.Value, 0, n)
		for range n {
			e, err := m.value(depth + 1)
			if err != nil {
				return burrowdb.Value{}, err
			}
			elems = append(elems, e)
		}
		return burrowdb.ArrayValue(elems...), nil
	case msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32:
		if depth >= maxDepth {
			return burrowdb.Value{}, fmt.Errorf("%w: nesting deeper than %d", burrowdb.ErrDepthLimitExceeded, maxDepth)
		}
		fields, err := m.fields(depth + 1)
		if err != nil {
			return burrowdb.Value{}, err
		}
		return burrowdb.MapValue(fields...)
	case msgpcode.IsExt(c):
		return m.ext()
	default:
		return burrowdb.Value{}, fmt.Errorf("%w: unsupported code 0x%02x", ErrInvalidMsgpack, c)
	}
}

// fields reads a map with string keys whose values sit at depth.
func (m *msgpackReader) fields(depth int) ([]burrowdb.Field, error) {
	n, err := m.dec.DecodeMapLen()
	if err != nil {
		return nil, m.wrap(err)
	}
	if n < 0 || n > m.r.Len()/2 {
		return nil, fmt.Errorf("%w: map of %d entries in %d bytes", ErrInvalidMsgpack, n, m.r.Len())
	}
	fields := make([]burrowdb.Field, 0, n)
	for range n {
		c, err := m.dec.PeekCode()
		if err != nil {
			return nil, m.wrap(err)
		}
		if !msgpcode.IsString(c) {
			return nil, fmt.Errorf("%w: map key has code 0x%02x, want a string", ErrInvalidMsgpack, c)
		}
		key, err := m.str()
		if err != nil {
			return nil, err
		}
		v, err := m.value(depth)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		fields = append(fields, burrowdb.Field{Key: key, Value: v})
	}
	return fields, nil
}

func (m *msgpackReader) str() (string, error) {
	b, err := m.raw()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: string is not valid UTF-8", ErrInvalidMsgpack)
	}
	return string(b), nil
}

// raw reads a str or bin payload, bounding its declared length by the input.
func (m *msgpackReader) raw() ([]byte, error) {
	n, err := m.dec.DecodeBytesLen()
	if err != nil {
		return nil, m.wrap(err)
	}
	return m.read(n)
}

func (m *msgpackReader) read(n int) ([]byte, error) {
	if n < 0 || n > m.r.Len() {
		return nil, fmt.Errorf("%w: length %d exceeds remaining %d bytes", ErrInvalidMsgpack, n, m.r.Len())
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(m.r, b); err != nil {
		return nil, m.wrap(err)
	}
	return b, nil
}

func (m *msgpackReader) ext() (burrowdb.Value, error) {
	id, n, err := m.dec.DecodeExtHeader()
	if err != nil {
		return burrowdb.Value{}, m.wrap(err)
	}
	if id != ExtValue {
		return burrowdb.Value{}, fmt.Errorf("%w: extension type %d", ErrInvalidMsgpack, id)
	}
	payload, err := m.read(n)
	if err != nil {
		return burrowdb.Value{}, err
	}
	v, used, err := burrowdb.DecodeValue(payload)
	if err != nil {
		return burrowdb.Value{}, fmt.Errorf("extension payload: %w", err)
	}
	if used != len(payload) {
		return burrowdb.Value{}, fmt.Errorf("%w: %d bytes after extension value", ErrInvalidMsgpack, len(payload)-used)
	}
	switch v.Kind() {
	case burrowdb.KindUint128, burrowdb.KindInt128, burrowdb.KindTimestamp:
		return v, nil
	}
	return burrowdb.Value{}, fmt.Errorf("%w: extension carries %s", ErrInvalidMsgpack, v.Kind())
}
