package interop

// json.go projects Values, Documents and Stores to and from JSON.
//
// Null, Bool, Int64, finite Float64, String, Array and Map are written as
// native JSON. Every other kind is wrapped in an escape object:
//
//	{"$type": "u8", "$value": 7}
//	{"$type": "u64", "$value": "18446744073709551615"}
//	{"$type": "binary", "$value": "AAE="}
//	{"$type": "timestamp", "$value": "2024-07-01T11:00:00+01:00", "$zone": "Europe/London"}
//
// A Map that itself has a "$type" key is escaped as {"$type": "map", "$value": {...}}
// so that reading the output back yields the same Value.

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/buger/jsonparser"

	"github.com/aalhour/burrowdb"
)

const (
	typeKey  = "$type"
	valueKey = "$value"
	zoneKey  = "$zone"
)

// Escape type names, indexed by kind.
var escapeNames = map[burrowdb.Kind]string{
	burrowdb.KindUint8:     "u8",
	burrowdb.KindUint16:    "u16",
	burrowdb.KindUint32:    "u32",
	burrowdb.KindUint64:    "u64",
	burrowdb.KindUint128:   "u128",
	burrowdb.KindInt8:      "i8",
	burrowdb.KindInt16:     "i16",
	burrowdb.KindInt32:     "i32",
	burrowdb.KindInt64:     "i64",
	burrowdb.KindInt128:    "i128",
	burrowdb.KindFloat32:   "f32",
	burrowdb.KindFloat64:   "f64",
	burrowdb.KindBinary:    "binary",
	burrowdb.KindMap:       "map",
	burrowdb.KindTimestamp: "timestamp",
}

var escapeKinds = func() map[string]burrowdb.Kind {
	m := make(map[string]burrowdb.Kind, len(escapeNames))
	for k, name := range escapeNames {
		m[name] = k
	}
	return m
}()

// MarshalValueJSON returns the JSON projection of v.
func MarshalValueJSON(v burrowdb.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSONValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalDocumentJSON returns doc as a JSON object. Top-level keys are
// written verbatim, a "$type" field included.
func MarshalDocumentJSON(doc *burrowdb.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSONFields(&buf, doc.Fields()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalStoreJSON returns s as a JSON object mapping each key to its document.
func MarshalStoreJSON(s *burrowdb.Store) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for key, doc := range s.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		if err := writeJSONString(&buf, key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONFields(&buf, doc.Fields()); err != nil {
			return nil, fmt.Errorf("store %q key %q: %w", s.Name(), key, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONValue(buf *bytes.Buffer, v burrowdb.Value) error {
	switch v.Kind() {
	case burrowdb.KindNull:
		buf.WriteString("null")
	case burrowdb.KindBool:
		buf.WriteString(strconv.FormatBool(v.Bool()))
	case burrowdb.KindInt64:
		buf.WriteString(strconv.FormatInt(v.Int64(), 10))
	case burrowdb.KindFloat64:
		f := v.Float64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			writeEscape(buf, v.Kind(), strconv.Quote(strconv.FormatFloat(f, 'g', -1, 64)), "")
		} else {
			buf.Write(appendJSONFloat(nil, f, 64))
		}
	case burrowdb.KindString:
		return writeJSONString(buf, v.Text())
	case burrowdb.KindArray:
		buf.WriteByte('[')
		for i, e := range v.Array() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case burrowdb.KindMap:
		if _, escaped := v.Lookup(typeKey); escaped {
			buf.WriteString(`{"$type":"map","$value":`)
			if err := writeJSONFields(buf, v.Map()); err != nil {
				return err
			}
			buf.WriteByte('}')
			return nil
		}
		return writeJSONFields(buf, v.Map())
	case burrowdb.KindUint8, burrowdb.KindUint16, burrowdb.KindUint32:
		writeEscape(buf, v.Kind(), strconv.FormatUint(v.Uint64(), 10), "")
	case burrowdb.KindInt8, burrowdb.KindInt16, burrowdb.KindInt32:
		writeEscape(buf, v.Kind(), strconv.FormatInt(v.Int64(), 10), "")
	case burrowdb.KindUint64:
		writeEscape(buf, v.Kind(), strconv.Quote(strconv.FormatUint(v.Uint64(), 10)), "")
	case burrowdb.KindUint128:
		writeEscape(buf, v.Kind(), strconv.Quote(v.Uint128().String()), "")
	case burrowdb.KindInt128:
		writeEscape(buf, v.Kind(), strconv.Quote(v.Int128().String()), "")
	case burrowdb.KindFloat32:
		f := float64(v.Float32())
		if math.IsNaN(f) || math.IsInf(f, 0) {
			writeEscape(buf, v.Kind(), strconv.Quote(strconv.FormatFloat(f, 'g', -1, 32)), "")
		} else {
			writeEscape(buf, v.Kind(), string(appendJSONFloat(nil, f, 32)), "")
		}
	case burrowdb.KindBinary:
		writeEscape(buf, v.Kind(), strconv.Quote(base64.StdEncoding.EncodeToString(v.Bytes())), "")
	case burrowdb.KindTimestamp:
		zone, err := json.Marshal(v.Zone())
		if err != nil {
			return err
		}
		writeEscape(buf, v.Kind(), strconv.Quote(v.Time().Format(time.RFC3339Nano)), string(zone))
	default:
		return fmt.Errorf("%w: kind %s", ErrNotRepresentable, v.Kind())
	}
	return nil
}

// writeEscape writes {"$type": name, "$value": raw[, "$zone": zone]}.
// raw and zone must already be JSON.
func writeEscape(buf *bytes.Buffer, k burrowdb.Kind, raw, zone string) {
	buf.WriteString(`{"$type":"`)
	buf.WriteString(escapeNames[k])
	buf.WriteString(`","$value":`)
	buf.WriteString(raw)
	if zone != "" {
		buf.WriteString(`,"$zone":`)
		buf.WriteString(zone)
	}
	buf.WriteByte('}')
}

func writeJSONFields(buf *bytes.Buffer, fields []burrowdb.Field) error {
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(buf, f.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeJSONValue(buf, f.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: string %q is not valid UTF-8", ErrNotRepresentable, s)
	}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates each value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// appendJSONFloat formats f so that it reads back as a float: a bare
// integer gets a ".0" suffix.
func appendJSONFloat(dst []byte, f float64, bits int) []byte {
	start := len(dst)
	dst = strconv.AppendFloat(dst, f, 'g', -1, bits)
	if !bytes.ContainsAny(dst[start:], ".e") {
		dst = append(dst, ".0"...)
	}
	return dst
}

// UnmarshalValueJSON parses a JSON document produced by MarshalValueJSON, or
// any other JSON text, into a Value.
func UnmarshalValueJSON(data []byte) (burrowdb.Value, error) {
	raw, typ, err := topLevel(data)
	if err != nil {
		return burrowdb.Value{}, err
	}
	return jsonValue(raw, typ, 0)
}

// DocumentFromJSON parses a JSON object into a Document. Top-level keys are
// taken verbatim; nested values follow the escape rules of UnmarshalValueJSON.
func DocumentFromJSON(data []byte) (*burrowdb.Document, error) {
	raw, typ, err := topLevel(data)
	if err != nil {
		return nil, err
	}
	if typ != jsonparser.Object {
		return nil, fmt.Errorf("%w: document must be an object, got %s", ErrInvalidJSON, typ)
	}
	fields, err := jsonFields(raw, 0)
	if err != nil {
		return nil, err
	}
	return burrowdb.DocumentOf(fields...)
}

// StoreFromJSON builds a Store named name from a JSON object whose members are
// document objects, in member order.
func StoreFromJSON(name string, data []byte) (*burrowdb.Store, error) {
	raw, typ, err := topLevel(data)
	if err != nil {
		return nil, err
	}
	if typ != jsonparser.Object {
		return nil, fmt.Errorf("%w: store must be an object, got %s", ErrInvalidJSON, typ)
	}

	s, err := burrowdb.NewStore(name)
	if err != nil {
		return nil, err
	}
	err = jsonparser.ObjectEach(raw, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
		if vt != jsonparser.Object {
			return fmt.Errorf("%w: key %q: document must be an object, got %s", ErrInvalidJSON, key, vt)
		}
		fields, err := jsonFields(value, 0)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		doc, err := burrowdb.DocumentOf(fields...)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		k := string(key)
		if _, dup := s.Get(k); dup {
			return fmt.Errorf("key %q: %w", k, burrowdb.ErrDuplicateKey)
		}
		s.Insert(k, doc)
		return nil
	})
	if err != nil {
		return nil, wrapJSONErr(err)
	}
	return s, nil
}

// topLevel returns the single JSON value in data and rejects anything after it.
func topLevel(data []byte) ([]byte, jsonparser.ValueType, error) {
	raw, typ, end, err := jsonparser.Get(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if rest := bytes.TrimSpace(data[end:]); len(rest) > 0 {
		return nil, 0, fmt.Errorf("%w: trailing data at offset %d", ErrInvalidJSON, end)
	}
	return raw, typ, nil
}

func jsonValue(raw []byte, typ jsonparser.ValueType, depth int) (burrowdb.Value, error) {
	switch typ {
	case jsonparser.Null:
		return burrowdb.NullValue(), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return burrowdb.Value{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		return burrowdb.BoolValue(b), nil
	case jsonparser.Number:
		return jsonNumber(raw)
	case jsonparser.String:
		s, err := jsonString(raw)
		if err != nil {
			return burrowdb.Value{}, err
		}
		return burrowdb.StringValue(s)
	case jsonparser.Array:
		if depth >= maxDepth {
			return burrowdb.Value{}, fmt.Errorf("%w: nesting deeper than %d", burrowdb.ErrDepthLimitExceeded, maxDepth)
		}
		var (
			elems []burrowdb.Value
			inner error
		)
		_, err := jsonparser.ArrayEach(raw, func(value []byte, vt jsonparser.ValueType, _ int, err error) {
			if inner != nil {
				return
			}
			if err != nil {
				inner = fmt.Errorf("%w: %v", ErrInvalidJSON, err)
				return
			}
			e, err := jsonValue(value, vt, depth+1)
			if err != nil {
				inner = err
				return
			}
			elems = append(elems, e)
		})
		if inner != nil {
			return burrowdb.Value{}, inner
		}
		if err != nil {
			return burrowdb.Value{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		return burrowdb.ArrayValue(elems...), nil
	case jsonparser.Object:
		if _, _, _, err := jsonparser.Get(raw, typeKey); err == nil {
			return jsonEscape(raw, depth)
		}
		if depth >= maxDepth {
			return burrowdb.Value{}, fmt.Errorf("%w: nesting deeper than %d", burrowdb.ErrDepthLimitExceeded, maxDepth)
		}
		fields, err := jsonFields(raw, depth+1)
		if err != nil {
			return burrowdb.Value{}, err
		}
		return burrowdb.MapValue(fields...)
	default:
		return burrowdb.Value{}, fmt.Errorf("%w: unexpected %s", ErrInvalidJSON, typ)
	}
}

// jsonFields reads the members of an object whose values sit at depth.
func jsonFields(raw []byte, depth int) ([]burrowdb.Field, error) {
	var fields []burrowdb.Field
	seen := make(map[string]struct{})
	err := jsonparser.ObjectEach(raw, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
		k := string(key)
		if !utf8.ValidString(k) {
			return fmt.Errorf("%w: key is not valid UTF-8", ErrInvalidJSON)
		}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("key %q: %w", k, burrowdb.ErrDuplicateKey)
		}
		seen[k] = struct{}{}
		v, err := jsonValue(value, vt, depth)
		if err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		fields = append(fields, burrowdb.Field{Key: k, Value: v})
		return nil
	})
	if err != nil {
		return nil, wrapJSONErr(err)
	}
	return fields, nil
}

func jsonString(raw []byte) (string, error) {
	s, err := jsonparser.ParseString(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: string is not valid UTF-8", ErrInvalidJSON)
	}
	return s, nil
}

// jsonNumber decodes an untagged number: integers that fit become Int64,
// everything else Float64.
func jsonNumber(raw []byte) (burrowdb.Value, error) {
	if !bytes.ContainsAny(raw, ".eE") {
		if n, err := jsonparser.ParseInt(raw); err == nil {
			return burrowdb.Int64Value(n), nil
		}
	}
	f, err := jsonparser.ParseFloat(raw)
	if err != nil {
		return burrowdb.Value{}, fmt.Errorf("%w: number %q: %v", ErrInvalidJSON, raw, err)
	}
	return burrowdb.Float64Value(f), nil
}

// jsonEscape decodes a {"$type", "$value"[, "$zone"]} object.
func jsonEscape(raw []byte, depth int) (burrowdb.Value, error) {
	var (
		name, zone string
		value      []byte
		valueType  jsonparser.ValueType
		hasValue   bool
		hasZone    bool
	)
	err := jsonparser.ObjectEach(raw, func(key, v []byte, vt jsonparser.ValueType, _ int) error {
		switch string(key) {
		case typeKey:
			if vt != jsonparser.String {
				return fmt.Errorf("%w: %s must be a string", ErrInvalidJSON, typeKey)
			}
			name = string(v)
		case valueKey:
			value, valueType, hasValue = v, vt, true
		case zoneKey:
			if vt != jsonparser.String {
				return fmt.Errorf("%w: %s must be a string", ErrInvalidJSON, zoneKey)
			}
			s, err := jsonString(v)
			if err != nil {
				return err
			}
			zone, hasZone = s, true
		default:
			return fmt.Errorf("%w: unexpected key %q in escape object", ErrInvalidJSON, key)
		}
		return nil
	})
	if err != nil {
		return burrowdb.Value{}, wrapJSONErr(err)
	}

	kind, ok := escapeKinds[name]
	if !ok {
		return burrowdb.Value{}, fmt.Errorf("%w: unknown %s %q", ErrInvalidJSON, typeKey, name)
	}
	if !hasValue {
		return burrowdb.Value{}, fmt.Errorf("%w: %s %q without %s", ErrInvalidJSON, typeKey, name, valueKey)
	}
	if hasZone != (kind == burrowdb.KindTimestamp) {
		return burrowdb.Value{}, fmt.Errorf("%w: %s only applies to timestamps", ErrInvalidJSON, zoneKey)
	}

	switch kind {
	case burrowdb.KindMap:
		if valueType != jsonparser.Object {
			return burrowdb.Value{}, fmt.Errorf("%w: map %s must be an object", ErrInvalidJSON, valueKey)
		}
		if depth >= maxDepth {
			return burrowdb.Value{}, fmt.Errorf("%w: nesting deeper than %d", burrowdb.ErrDepthLimitExceeded, maxDepth)
		}
		fields, err := jsonFields(value, depth+1)
		if err != nil {
			return burrowdb.Value{}, err
		}
		return burrowdb.MapValue(fields...)
	case burrowdb.KindBinary:
		s, err := escapeString(name, value, valueType)
		if err != nil {
			return burrowdb.Value{}, err
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return burrowdb.Value{}, fmt.Errorf("%w: binary: %v", ErrInvalidJSON, err)
		}
		return burrowdb.BinaryValue(b), nil
	case burrowdb.KindTimestamp:
		s, err := escapeString(name, value, valueType)
		if err != nil {
			return burrowdb.Value{}, err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return burrowdb.Value{}, fmt.Errorf("%w: timestamp: %v", ErrInvalidJSON, err)
		}
		return burrowdb.TimestampValue(t, zone)
	case burrowdb.KindFloat32, burrowdb.KindFloat64:
		text := string(value)
		if valueType == jsonparser.String {
			// Strings carry the non-finite values.
			s, err := jsonString(value)
			if err != nil {
				return burrowdb.Value{}, err
			}
			text = s
		} else if valueType != jsonparser.Number {
			return burrowdb.Value{}, fmt.Errorf("%w: %s %s must be a number or string", ErrInvalidJSON, name, valueKey)
		}
		bits := 64
		if kind == burrowdb.KindFloat32 {
			bits = 32
		}
		f, err := strconv.ParseFloat(text, bits)
		if err != nil {
			return burrowdb.Value{}, fmt.Errorf("%w: %s %q: %v", ErrInvalidJSON, name, text, err)
		}
		if kind == burrowdb.KindFloat32 {
			return burrowdb.Float32Value(float32(f)), nil
		}
		return burrowdb.Float64Value(f), nil
	default:
		return escapeInteger(kind, name, value, valueType)
	}
}

func escapeString(name string, value []byte, vt jsonparser.ValueType) (string, error) {
	if vt != jsonparser.String {
		return "", fmt.Errorf("%w: %s %s must be a string", ErrInvalidJSON, name, valueKey)
	}
	return jsonString(value)
}

// escapeInteger accepts an integer written either as a JSON number or as a
// decimal string and range-checks it against kind.
func escapeInteger(kind burrowdb.Kind, name string, value []byte, vt jsonparser.ValueType) (burrowdb.Value, error) {
	text := string(value)
	switch vt {
	case jsonparser.Number:
	case jsonparser.String:
		s, err := jsonString(value)
		if err != nil {
			return burrowdb.Value{}, err
		}
		text = s
	default:
		return burrowdb.Value{}, fmt.Errorf("%w: %s %s must be a number or string", ErrInvalidJSON, name, valueKey)
	}

	switch kind {
	case burrowdb.KindUint128:
		u, err := burrowdb.ParseUint128(text)
		if err != nil {
			return burrowdb.Value{}, err
		}
		return burrowdb.Uint128Value(u), nil
	case burrowdb.KindInt128:
		i, err := burrowdb.ParseInt128(text)
		if err != nil {
			return burrowdb.Value{}, err
		}
		return burrowdb.Int128Value(i), nil
	}

	if kind.IsUnsigned() {
		n, err := strconv.ParseUint(text, 10, unsignedBits[kind])
		if err != nil {
			return burrowdb.Value{}, integerErr(name, text, err)
		}
		switch kind {
		case burrowdb.KindUint8:
			return burrowdb.Uint8Value(uint8(n)), nil
		case burrowdb.KindUint16:
			return burrowdb.Uint16Value(uint16(n)), nil
		case burrowdb.KindUint32:
			return burrowdb.Uint32Value(uint32(n)), nil
		default:
			return burrowdb.Uint64Value(n), nil
		}
	}

	n, err := strconv.ParseInt(text, 10, signedBits[kind])
	if err != nil {
		return burrowdb.Value{}, integerErr(name, text, err)
	}
	switch kind {
	case burrowdb.KindInt8:
		return burrowdb.Int8Value(int8(n)), nil
	case burrowdb.KindInt16:
		return burrowdb.Int16Value(int16(n)), nil
	case burrowdb.KindInt32:
		return burrowdb.Int32Value(int32(n)), nil
	default:
		return burrowdb.Int64Value(n), nil
	}
}

var unsignedBits = map[burrowdb.Kind]int{
	burrowdb.KindUint8:  8,
	burrowdb.KindUint16: 16,
	burrowdb.KindUint32: 32,
	burrowdb.KindUint64: 64,
}

var signedBits = map[burrowdb.Kind]int{
	burrowdb.KindInt8:  8,
	burrowdb.KindInt16: 16,
	burrowdb.KindInt32: 32,
	burrowdb.KindInt64: 64,
}

func integerErr(name, text string, err error) error {
	if errors.Is(err, strconv.ErrRange) {
		return fmt.Errorf("%s %s: %w", name, text, burrowdb.ErrIntegerOverflow)
	}
	return fmt.Errorf("%w: %s %q is not an integer", ErrInvalidJSON, name, text)
}

// wrapJSONErr tags parser failures with ErrInvalidJSON and passes our own
// errors through unchanged.
func wrapJSONErr(err error) error {
	switch {
	case errors.Is(err, jsonparser.MalformedObjectError),
		errors.Is(err, jsonparser.MalformedArrayError),
		errors.Is(err, jsonparser.MalformedJsonError),
		errors.Is(err, jsonparser.MalformedStringError),
		errors.Is(err, jsonparser.MalformedValueError),
		errors.Is(err, jsonparser.MalformedStringEscapeError),
		errors.Is(err, jsonparser.UnknownValueTypeError),
		errors.Is(err, jsonparser.KeyPathNotFoundError),
		errors.Is(err, jsonparser.OverflowIntegerError):
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return err
}
