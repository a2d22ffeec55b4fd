package burrowdb

// value.go implements the Value tagged union.

import (
	"bytes"
	"fmt"
	"math"
	"time"
	_ "time/tzdata" // zone validation must not depend on the host's zoneinfo
	"unicode/utf8"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindUint128
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindInt128
	KindFloat32
	KindFloat64
	KindString
	KindBinary
	KindArray
	KindMap
	KindTimestamp
)

var kindNames = [...]string{
	KindNull:      "Null",
	KindBool:      "Bool",
	KindUint8:     "Uint8",
	KindUint16:    "Uint16",
	KindUint32:    "Uint32",
	KindUint64:    "Uint64",
	KindUint128:   "Uint128",
	KindInt8:      "Int8",
	KindInt16:     "Int16",
	KindInt32:     "Int32",
	KindInt64:     "Int64",
	KindInt128:    "Int128",
	KindFloat32:   "Float32",
	KindFloat64:   "Float64",
	KindString:    "String",
	KindBinary:    "Binary",
	KindArray:     "Array",
	KindMap:       "Map",
	KindTimestamp: "Timestamp",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsUnsigned reports whether k is one of the unsigned integer kinds.
func (k Kind) IsUnsigned() bool {
	return k >= KindUint8 && k <= KindUint128
}

// IsSigned reports whether k is one of the signed integer kinds.
func (k Kind) IsSigned() bool {
	return k >= KindInt8 && k <= KindInt128
}

// Field is a single key/value pair of a Map or Document.
type Field struct {
	Key   string
	Value Value
}

// Value is a single self-describing datum. The zero Value is Null.
//
// Values are immutable once built: constructors copy the byte slices and
// element lists they are given.
type Value struct {
	kind   Kind
	num    uint64 // bool, integers (low half), float bits
	hi     uint64 // high half of 128-bit integers
	str    string // String payload, Timestamp zone
	bin    []byte
	arr    []Value
	fields []Field
	t      time.Time
}

// NullValue returns the Null value.
func NullValue() Value { return Value{} }

// BoolValue returns a Bool value.
func BoolValue(b bool) Value {
	var n uint64
	if b {
		n = 1
	}
	return Value{kind: KindBool, num: n}
}

// Uint8Value returns a Uint8 value.
func Uint8Value(v uint8) Value { return Value{kind: KindUint8, num: uint64(v)} }

// Uint16Value returns a Uint16 value.
func Uint16Value(v uint16) Value { return Value{kind: KindUint16, num: uint64(v)} }

// Uint32Value returns a Uint32 value.
func Uint32Value(v uint32) Value { return Value{kind: KindUint32, num: uint64(v)} }

// Uint64Value returns a Uint64 value.
func Uint64Value(v uint64) Value { return Value{kind: KindUint64, num: v} }

// Uint128Value returns a Uint128 value.
func Uint128Value(v Uint128) Value { return Value{kind: KindUint128, num: v.Lo, hi: v.Hi} }

// Int8Value returns an Int8 value.
func Int8Value(v int8) Value { return Value{kind: KindInt8, num: uint64(int64(v))} }

// Int16Value returns an Int16 value.
func Int16Value(v int16) Value { return Value{kind: KindInt16, num: uint64(int64(v))} }

// Int32Value returns an Int32 value.
func Int32Value(v int32) Value { return Value{kind: KindInt32, num: uint64(int64(v))} }

// Int64Value returns an Int64 value.
func Int64Value(v int64) Value { return Value{kind: KindInt64, num: uint64(v)} }

// Int128Value returns an Int128 value.
func Int128Value(v Int128) Value { return Value{kind: KindInt128, num: v.Lo, hi: uint64(v.Hi)} }

// Float32Value returns a Float32 value.
func Float32Value(v float32) Value {
	return Value{kind: KindFloat32, num: uint64(math.Float32bits(v))}
}

// Float64Value returns a Float64 value.
func Float64Value(v float64) Value {
	return Value{kind: KindFloat64, num: math.Float64bits(v)}
}

// StringValue returns a String value. s must be valid UTF-8.
func StringValue(s string) (Value, error) {
	if !utf8.ValidString(s) {
		return Value{}, fmt.Errorf("string %q: %w", s, ErrInvalidUTF8)
	}
	return Value{kind: KindString, str: s}, nil
}

// MustStringValue is like StringValue but panics if s is not valid UTF-8.
func MustStringValue(s string) Value {
	v, err := StringValue(s)
	if err != nil {
		panic(err)
	}
	return v
}

// checkKey rejects a Map, Document or Store key that the decoder would not
// accept back.
func checkKey(what, key string) error {
	if !utf8.ValidString(key) {
		return fmt.Errorf("%s %q: %w", what, key, ErrInvalidUTF8)
	}
	return nil
}

// BinaryValue returns a Binary value holding a copy of b.
func BinaryValue(b []byte) Value {
	return Value{kind: KindBinary, bin: bytes.Clone(b)}
}

// ArrayValue returns an Array value of the given elements.
func ArrayValue(vs ...Value) Value {
	return Value{kind: KindArray, arr: append([]Value(nil), vs...)}
}

// MapValue returns a Map value with the fields in the given order.
// Keys must be unique and valid UTF-8.
func MapValue(fields ...Field) (Value, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if err := checkKey("map key", f.Key); err != nil {
			return Value{}, err
		}
		if _, dup := seen[f.Key]; dup {
			return Value{}, fmt.Errorf("map key %q: %w", f.Key, ErrDuplicateKey)
		}
		seen[f.Key] = struct{}{}
	}
	return Value{kind: KindMap, fields: append([]Field(nil), fields...)}, nil
}

// MustMapValue is like MapValue but panics on an invalid or duplicate key.
// It is meant for literals in tests and examples.
func MustMapValue(fields ...Field) Value {
	v, err := MapValue(fields...)
	if err != nil {
		panic(err)
	}
	return v
}

// TimestampValue returns a Timestamp of instant t in the IANA zone named zone.
func TimestampValue(t time.Time, zone string) (Value, error) {
	loc, err := loadZone(zone)
	if err != nil {
		return Value{}, err
	}
	return Value{kind: KindTimestamp, str: zone, t: t.In(loc)}, nil
}

func loadZone(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("zone %q: %w", name, ErrUnknownTimezone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("zone %q: %w", name, ErrUnknownTimezone)
	}
	return loc, nil
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) mustBe(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("burrowdb: Value kind is %s, not %s", v.kind, k))
	}
}

// Bool returns the value of a Bool. It panics for any other kind.
func (v Value) Bool() bool {
	v.mustBe(KindBool)
	return v.num == 1
}

// Uint64 returns the value of a Uint8, Uint16, Uint32 or Uint64.
func (v Value) Uint64() uint64 {
	if !v.kind.IsUnsigned() || v.kind == KindUint128 {
		panic(fmt.Sprintf("burrowdb: Value kind is %s, not an unsigned integer of at most 64 bits", v.kind))
	}
	return v.num
}

// Int64 returns the value of an Int8, Int16, Int32 or Int64.
func (v Value) Int64() int64 {
	if !v.kind.IsSigned() || v.kind == KindInt128 {
		panic(fmt.Sprintf("burrowdb: Value kind is %s, not a signed integer of at most 64 bits", v.kind))
	}
	return int64(v.num)
}

// Uint128 returns any unsigned integer widened to 128 bits.
func (v Value) Uint128() Uint128 {
	if !v.kind.IsUnsigned() {
		panic(fmt.Sprintf("burrowdb: Value kind is %s, not an unsigned integer", v.kind))
	}
	return Uint128{Hi: v.hi, Lo: v.num}
}

// Int128 returns any signed integer widened to 128 bits.
func (v Value) Int128() Int128 {
	if !v.kind.IsSigned() {
		panic(fmt.Sprintf("burrowdb: Value kind is %s, not a signed integer", v.kind))
	}
	if v.kind == KindInt128 {
		return Int128{Hi: int64(v.hi), Lo: v.num}
	}
	return Int128From64(int64(v.num))
}

// Float32 returns the value of a Float32.
func (v Value) Float32() float32 {
	v.mustBe(KindFloat32)
	return math.Float32frombits(uint32(v.num))
}

// Float64 returns the value of a Float64, or a Float32 widened.
func (v Value) Float64() float64 {
	if v.kind == KindFloat32 {
		return float64(v.Float32())
	}
	v.mustBe(KindFloat64)
	return math.Float64frombits(v.num)
}

// Text returns the payload of a String.
func (v Value) Text() string {
	v.mustBe(KindString)
	return v.str
}

// Bytes returns the payload of a Binary. Callers must not modify it.
func (v Value) Bytes() []byte {
	v.mustBe(KindBinary)
	return v.bin
}

// Array returns the elements of an Array. Callers must not modify it.
func (v Value) Array() []Value {
	v.mustBe(KindArray)
	return v.arr
}

// Map returns the fields of a Map in order. Callers must not modify it.
func (v Value) Map() []Field {
	v.mustBe(KindMap)
	return v.fields
}

// Lookup returns the value stored under key in a Map.
func (v Value) Lookup(key string) (Value, bool) {
	v.mustBe(KindMap)
	for _, f := range v.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Time returns the instant of a Timestamp, in its zone.
func (v Value) Time() time.Time {
	v.mustBe(KindTimestamp)
	return v.t
}

// Zone returns the IANA zone name of a Timestamp.
func (v Value) Zone() string {
	v.mustBe(KindTimestamp)
	return v.str
}

// Len returns the number of elements of an Array or Map, or the byte
// length of a String or Binary. It returns 0 for other kinds.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindMap:
		return len(v.fields)
	case KindString:
		return len(v.str)
	case KindBinary:
		return len(v.bin)
	default:
		return 0
	}
}

// Equal reports whether v and w are structurally equal: same kind, same
// payload and, for Arrays and Maps, the same elements in the same order.
// Floats compare by bit pattern, so a NaN equals itself.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == w.str
	case KindBinary:
		return bytes.Equal(v.bin, w.bin)
	case KindArray:
		if len(v.arr) != len(w.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(w.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return fieldsEqual(v.fields, w.fields)
	case KindTimestamp:
		return v.str == w.str && v.t.Equal(w.t)
	default:
		return v.num == w.num && v.hi == w.hi
	}
}

func fieldsEqual(a, b []Field) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key || !a[i].Value.Equal(b[i].Value) {
			return false
		}
	}
	return true
}
