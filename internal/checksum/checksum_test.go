package checksum

import (
	"bytes"
	"testing"
)

// TestGoldenEmptyInput pins the reference values for empty input.
func TestGoldenEmptyInput(t *testing.T) {
	if got := XXH3(nil); got != 0x2D06800538D394C2 {
		t.Errorf("XXH3(empty) = 0x%016X, want 0x2D06800538D394C2", got)
	}
	if got := XXHash64(nil); got != 0xEF46DB3751D8E999 {
		t.Errorf("XXHash64(empty) = 0x%016X, want 0xEF46DB3751D8E999", got)
	}
}

func TestComputeMatchesDirectCalls(t *testing.T) {
	data := bytes.Repeat([]byte("burrow"), 100)

	got, err := Compute(TypeXXH3, data)
	if err != nil || got != XXH3(data) {
		t.Errorf("Compute(XXH3) = (%x, %v), want %x", got, err, XXH3(data))
	}
	got, err = Compute(TypeXXHash64, data)
	if err != nil || got != XXHash64(data) {
		t.Errorf("Compute(XXHash64) = (%x, %v), want %x", got, err, XXHash64(data))
	}
	if _, err := Compute(Type(99), data); err == nil {
		t.Error("Compute(99) should fail")
	}
}

func TestVerifyDetectsSingleBitFlip(t *testing.T) {
	data := []byte("the quick brown mouse")
	for _, typ := range []Type{TypeXXH3, TypeXXHash64} {
		sum, _ := Compute(typ, data)
		if !Verify(typ, data, sum) {
			t.Fatalf("%s: Verify failed on unmodified data", typ)
		}
		for i := range data {
			corrupted := bytes.Clone(data)
			corrupted[i] ^= 0x01
			if Verify(typ, corrupted, sum) {
				t.Errorf("%s: flip at byte %d not detected", typ, i)
			}
		}
	}
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{TypeXXH3, "XXH3"},
		{TypeXXHash64, "XXHash64"},
		{Type(7), "Unknown(7)"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("Type(%d).String() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}
