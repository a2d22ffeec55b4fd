package burrowdb

import (
	"bytes"
	"math"
	"testing"
	"time"
)

func mustTimestamp(t testing.TB, ts time.Time, zone string) Value {
	t.Helper()
	v, err := TimestampValue(ts, zone)
	if err != nil {
		t.Fatalf("TimestampValue(%v, %q): %v", ts, zone, err)
	}
	return v
}

// TestGoldenValueEncoding pins the byte layout of every tag.
func TestGoldenValueEncoding(t *testing.T) {
	testCases := []struct {
		name     string
		value    Value
		expected []byte
	}{
		{"Null", NullValue(), []byte{0x00}},
		{"False", BoolValue(false), []byte{0x01}},
		{"True", BoolValue(true), []byte{0x02}},
		{"Uint8", Uint8Value(3), []byte{0x10, 0x03}},
		{"Uint16", Uint16Value(300), []byte{0x11, 0xF1, 0x2C, 0x01}},
		{"Uint32Max", Uint32Value(math.MaxUint32), []byte{0x12, 0xF3, 0xFF, 0xFF, 0xFF, 0xFF}},
		{"Uint64SingleByteMax", Uint64Value(239), []byte{0x13, 0xEF}},
		{"Uint64FirstTwoByte", Uint64Value(240), []byte{0x13, 0xF0, 0xF0}},
		{"Uint128", Uint128Value(Uint128{Hi: 1}), []byte{0x14, 0xF8, 0, 0, 0, 0, 0, 0, 0, 0, 0x01}},
		{"Int8Neg", Int8Value(-1), []byte{0x18, 0x01}},
		{"Int16", Int16Value(1), []byte{0x19, 0x02}},
		{"Int32Min", Int32Value(math.MinInt32), []byte{0x1A, 0xF3, 0xFF, 0xFF, 0xFF, 0xFF}},
		{"Int64SingleByte", Int64Value(-120), []byte{0x1B, 0xEF}},
		{"Int64TwoByte", Int64Value(120), []byte{0x1B, 0xF0, 0xF0}},
		{"Int128NegOne", Int128Value(Int128From64(-1)), []byte{0x1C, 0x01}},
		{"Float32", Float32Value(1), []byte{0x20, 0x00, 0x00, 0x80, 0x3F}},
		{"Float64", Float64Value(1), []byte{0x21, 0, 0, 0, 0, 0, 0, 0xF0, 0x3F}},
		{"String", MustStringValue("hi"), []byte{0x30, 0x02, 'h', 'i'}},
		{"EmptyString", MustStringValue(""), []byte{0x30, 0x00}},
		{"Binary", BinaryValue([]byte{0xDE, 0xAD}), []byte{0x31, 0x02, 0xDE, 0xAD}},
		{"Array", ArrayValue(NullValue(), BoolValue(true)), []byte{0x40, 0x02, 0x00, 0x02}},
		{"Map", MustMapValue(Field{"a", Uint8Value(1)}), []byte{0x41, 0x01, 0x30, 0x01, 'a', 0x10, 0x01}},
		{
			"Timestamp",
			mustTimestamp(t, time.Unix(1, 5), "UTC"),
			[]byte{0x50, 0x02, 0x05, 0x03, 'U', 'T', 'C'},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := EncodeValue(tc.value)
			if !bytes.Equal(got, tc.expected) {
				t.Fatalf("EncodeValue(%v) = % x, want % x", tc.value, got, tc.expected)
			}
			decoded, n, err := DecodeValue(tc.expected)
			if err != nil {
				t.Fatalf("DecodeValue(% x): %v", tc.expected, err)
			}
			if n != len(tc.expected) {
				t.Errorf("DecodeValue consumed %d bytes, want %d", n, len(tc.expected))
			}
			if !decoded.Equal(tc.value) {
				t.Errorf("DecodeValue(% x) = %v, want %v", tc.expected, decoded, tc.value)
			}
		})
	}
}

// TestGoldenDocumentEncoding pins the Document layout: a Map payload without
// its tag.
func TestGoldenDocumentEncoding(t *testing.T) {
	doc := MustDocumentOf(
		Field{"name", MustStringValue("mouse")},
		Field{"age", Uint8Value(3)},
	)
	expected := []byte{
		0x02,
		0x30, 0x04, 'n', 'a', 'm', 'e', 0x30, 0x05, 'm', 'o', 'u', 's', 'e',
		0x30, 0x03, 'a', 'g', 'e', 0x10, 0x03,
	}

	got := EncodeDocument(doc)
	if !bytes.Equal(got, expected) {
		t.Fatalf("EncodeDocument = % x, want % x", got, expected)
	}

	asMap := EncodeValue(doc.Value())
	if asMap[0] != tagMap || !bytes.Equal(asMap[1:], expected) {
		t.Errorf("Map encoding = % x, want 41 followed by the document bytes", asMap)
	}
}

// TestGoldenStoreEncoding pins the standalone Store layout.
func TestGoldenStoreEncoding(t *testing.T) {
	s := MustNewStore("pets")
	s.Insert("a", NewDocument())
	s.Insert("b", NewDocument())

	expected := []byte{0x04, 'p', 'e', 't', 's', 0x02, 0x01, 'a', 0x00, 0x01, 'b', 0x00}
	if got := EncodeStore(s); !bytes.Equal(got, expected) {
		t.Fatalf("EncodeStore = % x, want % x", got, expected)
	}
}

// TestGoldenDatabaseHeader pins the magic, version and store count.
func TestGoldenDatabaseHeader(t *testing.T) {
	got, err := EncodeDatabase(NewDatabase())
	if err != nil {
		t.Fatalf("EncodeDatabase: %v", err)
	}
	header := append([]byte("BURROWDB"), 0x02, 0x00)
	if !bytes.HasPrefix(got, header) {
		t.Fatalf("EncodeDatabase = % x, want prefix % x", got, header)
	}
	if len(got) != len(header)+8 {
		t.Errorf("empty database is %d bytes, want header plus 8-byte trailer (%d)", len(got), len(header)+8)
	}
}
