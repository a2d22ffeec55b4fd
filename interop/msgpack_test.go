package interop

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aalhour/burrowdb"
)

func TestMsgpackRoundTrip(t *testing.T) {
	for _, v := range sampleValues(t) {
		data, err := MarshalValueMsgpack(v)
		if err != nil {
			t.Fatalf("MarshalValueMsgpack(%v): %v", v, err)
		}
		got, err := UnmarshalValueMsgpack(data)
		if err != nil {
			t.Fatalf("UnmarshalValueMsgpack(% x): %v", data, err)
		}
		if !got.Equal(v) {
			t.Errorf("round trip of %s %v = %s %v", v.Kind(), v, got.Kind(), got)
		}
	}
}

func TestMsgpackWidths(t *testing.T) {
	testCases := []struct {
		value burrowdb.Value
		want  []byte
	}{
		{burrowdb.NullValue(), []byte{0xc0}},
		{burrowdb.Uint8Value(1), []byte{0xcc, 0x01}},
		{burrowdb.Uint16Value(1), []byte{0xcd, 0x00, 0x01}},
		{burrowdb.Int8Value(-1), []byte{0xd0, 0xff}},
		{burrowdb.Int64Value(1), []byte{0xd3, 0, 0, 0, 0, 0, 0, 0, 0x01}},
		{burrowdb.MustStringValue("hi"), []byte{0xa2, 'h', 'i'}},
		{burrowdb.BinaryValue(nil), []byte{0xc4, 0x00}},
		{burrowdb.ArrayValue(burrowdb.BoolValue(true)), []byte{0x91, 0xc3}},
		{burrowdb.Uint128Value(burrowdb.Uint128From64(5)), []byte{0xd5, 0x42, 0x14, 0x05}},
	}
	for _, tc := range testCases {
		got, err := MarshalValueMsgpack(tc.value)
		if err != nil {
			t.Fatalf("MarshalValueMsgpack(%v): %v", tc.value, err)
		}
		if !bytes.Equal(got, tc.want) {
			t.Errorf("MarshalValueMsgpack(%s %v) = % x, want % x", tc.value.Kind(), tc.value, got, tc.want)
		}
	}
}

func TestMsgpackForeignInput(t *testing.T) {
	data, err := msgpack.Marshal(map[string]any{"name": "vole", "tags": []string{"small"}})
	if err != nil {
		t.Fatal(err)
	}
	doc, err := DocumentFromMsgpack(data)
	if err != nil {
		t.Fatalf("DocumentFromMsgpack: %v", err)
	}
	if name, _ := doc.Get("name"); !name.Equal(burrowdb.MustStringValue("vole")) {
		t.Errorf("name = %v", name)
	}
	want := burrowdb.ArrayValue(burrowdb.MustStringValue("small"))
	if tags, _ := doc.Get("tags"); !tags.Equal(want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}

	// Fixnums carry no width and decode as Int64.
	v, err := UnmarshalValueMsgpack([]byte{0x81, 0xa1, 'n', 0x03})
	if err != nil {
		t.Fatalf("UnmarshalValueMsgpack: %v", err)
	}
	if n, _ := v.Lookup("n"); !n.Equal(burrowdb.Int64Value(3)) {
		t.Errorf("n = %s %v, want Int64 3", n.Kind(), n)
	}
}

func TestMsgpackDocument(t *testing.T) {
	doc := burrowdb.MustDocumentOf(
		burrowdb.Field{Key: "z", Value: burrowdb.Uint32Value(1)},
		burrowdb.Field{Key: "a", Value: burrowdb.MustStringValue("x")},
	)
	data, err := MarshalDocumentMsgpack(doc)
	if err != nil {
		t.Fatalf("MarshalDocumentMsgpack: %v", err)
	}
	got, err := DocumentFromMsgpack(data)
	if err != nil {
		t.Fatalf("DocumentFromMsgpack: %v", err)
	}
	if !got.Equal(doc) || !slices.Equal(got.Keys(), []string{"z", "a"}) {
		t.Errorf("round trip = %v, want %v", got, doc)
	}

	if _, err := DocumentFromMsgpack([]byte{0x90}); !errors.Is(err, ErrInvalidMsgpack) {
		t.Errorf("DocumentFromMsgpack(array) error = %v, want ErrInvalidMsgpack", err)
	}
}

func TestMsgpackErrors(t *testing.T) {
	deep := bytes.Repeat([]byte{0x91}, maxDepth+1)
	deep = append(deep, 0xc0)

	testCases := []struct {
		name  string
		input []byte
		want  error
	}{
		{"Empty", nil, ErrInvalidMsgpack},
		{"Trailing", []byte{0xc0, 0xc0}, ErrInvalidMsgpack},
		{"TruncatedString", []byte{0xa5, 'a'}, ErrInvalidMsgpack},
		{"HugeArray", []byte{0xdd, 0xff, 0xff, 0xff, 0xff}, ErrInvalidMsgpack},
		{"HugeBin", []byte{0xc6, 0x7f, 0xff, 0xff, 0xff}, ErrInvalidMsgpack},
		{"NonStringKey", []byte{0x81, 0x01, 0xc0}, ErrInvalidMsgpack},
		{"InvalidUTF8", []byte{0xa1, 0xff}, ErrInvalidMsgpack},
		{"DuplicateKey", []byte{0x82, 0xa1, 'k', 0xc0, 0xa1, 'k', 0xc0}, burrowdb.ErrDuplicateKey},
		{"ForeignExtension", []byte{0xd4, 0x01, 0x00}, ErrInvalidMsgpack},
		{"ExtensionWithPlainValue", []byte{0xd4, 0x42, 0x00}, ErrInvalidMsgpack},
		{"ExtensionBadPayload", []byte{0xd4, 0x42, 0x99}, burrowdb.ErrInvalidTag},
		{"TooDeep", deep, burrowdb.ErrDepthLimitExceeded},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := UnmarshalValueMsgpack(tc.input)
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
		})
	}
}
