package burrowdb

// options_file.go implements options file persistence.
//
// An options file is a small YAML document; absent keys keep their
// defaults:
//
//	max_depth: 64
//	max_frame_size: 268435456
//	compression: zstd
//	log_level: warn

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aalhour/burrowdb/internal/compression"
	"github.com/aalhour/burrowdb/internal/logging"
)

// ErrInvalidOptions is returned when an options file holds an unknown key or
// an out-of-range value.
var ErrInvalidOptions = errors.New("invalid options")

// optionsFile is the YAML shape of an options file.
type optionsFile struct {
	MaxDepth     int    `yaml:"max_depth"`
	MaxFrameSize int    `yaml:"max_frame_size"`
	Compression  string `yaml:"compression"`
	LogLevel     string `yaml:"log_level,omitempty"`
}

// WriteOptionsFile writes opts to path as YAML.
func WriteOptionsFile(path string, opts *Options) error {
	f := optionsFile{
		MaxDepth:     opts.MaxDepth,
		MaxFrameSize: opts.MaxFrameSize,
		Compression:  compressionTypeToString(opts.Compression),
	}
	if l, ok := opts.Logger.(interface{ Level() logging.Level }); ok && !logging.IsNil(opts.Logger) {
		f.LogLevel = strings.ToLower(l.Level().String())
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ReadOptionsFile reads and parses the options file at path.
func ReadOptionsFile(path string) (*Options, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return ParseOptionsFile(file)
}

// ParseOptionsFile parses options from a reader. When log_level is set, the
// returned Options carry a DefaultLogger at that level.
func ParseOptionsFile(r io.Reader) (*Options, error) {
	f := optionsFile{
		MaxDepth:     DefaultMaxDepth,
		MaxFrameSize: DefaultMaxFrameSize,
		Compression:  compressionTypeToString(CompressionNone),
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	if f.MaxDepth <= 0 {
		return nil, fmt.Errorf("%w: max_depth %d must be positive", ErrInvalidOptions, f.MaxDepth)
	}
	if f.MaxFrameSize <= 0 {
		return nil, fmt.Errorf("%w: max_frame_size %d must be positive", ErrInvalidOptions, f.MaxFrameSize)
	}
	alg, err := stringToCompressionType(f.Compression)
	if err != nil {
		return nil, err
	}

	opts := DefaultOptions()
	opts.MaxDepth = f.MaxDepth
	opts.MaxFrameSize = f.MaxFrameSize
	opts.Compression = alg
	if f.LogLevel != "" {
		level, err := logging.ParseLevel(f.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
		opts.Logger = logging.NewDefaultLogger(level)
	}
	return opts, nil
}

// Helper functions for type conversions

func compressionTypeToString(t compression.Type) string {
	switch t {
	case compression.NoCompression:
		return "none"
	case compression.SnappyCompression:
		return "snappy"
	case compression.DeflateCompression:
		return "deflate"
	case compression.LZ4Compression:
		return "lz4"
	case compression.ZstdCompression:
		return "zstd"
	default:
		return "none"
	}
}

func stringToCompressionType(s string) (compression.Type, error) {
	switch s {
	case "", "none":
		return compression.NoCompression, nil
	case "snappy":
		return compression.SnappyCompression, nil
	case "deflate":
		return compression.DeflateCompression, nil
	case "lz4":
		return compression.LZ4Compression, nil
	case "zstd":
		return compression.ZstdCompression, nil
	default:
		return 0, fmt.Errorf("%w: compression %q", ErrInvalidOptions, s)
	}
}

// ParseCompression returns the algorithm named s: none, snappy, deflate,
// lz4 or zstd.
func ParseCompression(s string) (CompressionType, error) {
	return stringToCompressionType(s)
}

// CompressionName returns the options-file name of alg.
func CompressionName(alg CompressionType) string {
	return compressionTypeToString(alg)
}
