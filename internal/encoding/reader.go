package encoding

// Reader is a cursor over a byte slice for sequential, bounds-checked reads.
// Every read either advances past a complete field or fails without
// advancing.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a new Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.pos
}

// Remaining returns the number of bytes remaining.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Consumed returns the bytes consumed so far.
func (r *Reader) Consumed() []byte {
	return r.data[:r.pos]
}

// Byte reads a single byte.
func (r *Reader) Byte() (byte, error) {
	if r.Remaining() < 1 {
		return 0, ErrUnexpectedEOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// Bytes reads exactly n bytes. The result aliases the underlying buffer;
// callers that hand it out must copy it.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

// Trailer removes the last n bytes from the readable range and returns them.
// Later reads stop before the trailer.
func (r *Reader) Trailer(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	end := len(r.data) - n
	t := r.data[end:]
	r.data = r.data[:end]
	return t, nil
}

// Fixed32 reads a fixed 32-bit little-endian value.
func (r *Reader) Fixed32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return DecodeFixed32(b), nil
}

// Fixed64 reads a fixed 64-bit little-endian value.
func (r *Reader) Fixed64() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return DecodeFixed64(b), nil
}

// Uint128 reads a lenint of up to 128 bits.
func (r *Reader) Uint128() (hi, lo uint64, err error) {
	hi, lo, n, err := DecodeUint128(r.data[r.pos:])
	if err != nil {
		return 0, 0, err
	}
	r.pos += n
	return hi, lo, nil
}

// Uint64 reads a lenint that must fit in 64 bits.
func (r *Reader) Uint64() (uint64, error) {
	v, n, err := DecodeUint64(r.data[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}

// Int64 reads a zigzag-mapped lenint.
func (r *Reader) Int64() (int64, error) {
	v, n, err := DecodeInt64(r.data[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}

// Length reads a lenint used as a byte length. The length must fit in an
// int and must not exceed the remaining input.
func (r *Reader) Length() (int, error) {
	start := r.pos
	v, err := r.Uint64()
	if err != nil {
		return 0, err
	}
	if v > uint64(maxInt) {
		r.pos = start
		return 0, ErrOverflow
	}
	if int(v) > r.Remaining() {
		r.pos = start
		return 0, ErrUnexpectedEOF
	}
	return int(v), nil
}

// Count reads a lenint used as an element count. Every element occupies at
// least one byte, so a count larger than the remaining input is truncated
// input rather than a reason to allocate.
func (r *Reader) Count() (int, error) {
	return r.Length()
}

// LengthPrefixed reads a length followed by that many bytes.
func (r *Reader) LengthPrefixed() ([]byte, error) {
	start := r.pos
	n, err := r.Length()
	if err != nil {
		return nil, err
	}
	b, err := r.Bytes(n)
	if err != nil {
		r.pos = start
		return nil, err
	}
	return b, nil
}

// AppendLengthPrefixed appends a lenint length followed by value.
func AppendLengthPrefixed(dst []byte, value []byte) []byte {
	dst = AppendUint64(dst, uint64(len(value)))
	return append(dst, value...)
}

// AppendLengthPrefixedString appends a lenint length followed by s.
func AppendLengthPrefixedString(dst []byte, s string) []byte {
	dst = AppendUint64(dst, uint64(len(s)))
	return append(dst, s...)
}

const maxInt = int(^uint(0) >> 1)
