package burrowdb

// options_file_test.go implements tests for options file.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aalhour/burrowdb/internal/compression"
	"github.com/aalhour/burrowdb/internal/logging"
)

func TestWriteAndReadOptionsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "burrowdb.yaml")

	// Create options with non-default values
	opts := DefaultOptions()
	opts.MaxDepth = 12
	opts.MaxFrameSize = 4096
	opts.Compression = compression.LZ4Compression
	opts.Logger = logging.NewDefaultLogger(logging.LevelDebug)

	if err := WriteOptionsFile(path, opts); err != nil {
		t.Fatalf("WriteOptionsFile failed: %v", err)
	}

	parsed, err := ReadOptionsFile(path)
	if err != nil {
		t.Fatalf("ReadOptionsFile failed: %v", err)
	}

	if parsed.MaxDepth != opts.MaxDepth {
		t.Errorf("MaxDepth = %d, want %d", parsed.MaxDepth, opts.MaxDepth)
	}
	if parsed.MaxFrameSize != opts.MaxFrameSize {
		t.Errorf("MaxFrameSize = %d, want %d", parsed.MaxFrameSize, opts.MaxFrameSize)
	}
	if parsed.Compression != opts.Compression {
		t.Errorf("Compression = %s, want %s", parsed.Compression, opts.Compression)
	}
	l, ok := parsed.Logger.(*logging.DefaultLogger)
	if !ok || l.Level() != logging.LevelDebug {
		t.Errorf("Logger = %#v, want a DEBUG DefaultLogger", parsed.Logger)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"max_depth: 12", "max_frame_size: 4096", "compression: lz4", "log_level: debug"} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("options file missing %q:\n%s", want, raw)
		}
	}
}

func TestParseOptionsFile(t *testing.T) {
	input := `
# codec settings
max_depth: 32
compression: zstd
`
	parsed, err := ParseOptionsFile(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseOptionsFile failed: %v", err)
	}
	if parsed.MaxDepth != 32 {
		t.Errorf("MaxDepth = %d, want 32", parsed.MaxDepth)
	}
	if parsed.Compression != compression.ZstdCompression {
		t.Errorf("Compression = %s, want ZSTD", parsed.Compression)
	}
	if parsed.Logger != nil {
		t.Errorf("Logger = %v, want nil without log_level", parsed.Logger)
	}
}

func TestParseOptionsFileDefaults(t *testing.T) {
	parsed, err := ParseOptionsFile(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseOptionsFile(empty) failed: %v", err)
	}
	if parsed.MaxDepth != DefaultMaxDepth || parsed.MaxFrameSize != DefaultMaxFrameSize || parsed.Compression != CompressionNone {
		t.Errorf("defaults = %+v", parsed)
	}
}

func TestParseOptionsFileErrors(t *testing.T) {
	testCases := map[string]string{
		"UnknownKey":         "max_depht: 3\n",
		"NegativeDepth":      "max_depth: -1\n",
		"ZeroFrameSize":      "max_frame_size: 0\n",
		"UnknownCompression": "compression: brotli\n",
		"UnknownLevel":       "log_level: loud\n",
		"NotYAML":            "max_depth: [\n",
	}
	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseOptionsFile(strings.NewReader(input))
			if !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("error = %v, want ErrInvalidOptions", err)
			}
		})
	}
}

func TestCompressionTypeConversions(t *testing.T) {
	for _, typ := range compression.Types() {
		name := compressionTypeToString(typ)
		back, err := stringToCompressionType(name)
		if err != nil || back != typ {
			t.Errorf("%s -> %q -> %s, %v", typ, name, back, err)
		}
	}
	if got, _ := ParseCompression(""); got != CompressionNone {
		t.Errorf("ParseCompression(\"\") = %s", got)
	}
}
