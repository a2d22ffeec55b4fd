package burrowdb

// options.go implements codec configuration options.

import (
	"io"

	"github.com/aalhour/burrowdb/internal/compression"
	"github.com/aalhour/burrowdb/internal/logging"
)

// Logger is an alias for the logging.Logger interface.
// This allows users to pass their own logger implementation.
type Logger = logging.Logger

// LogLevel is an alias for the logging level.
type LogLevel = logging.Level

// Log level constants.
const (
	LogLevelError = logging.LevelError
	LogLevelWarn  = logging.LevelWarn
	LogLevelInfo  = logging.LevelInfo
	LogLevelDebug = logging.LevelDebug
)

// DiscardLogger drops every message.
var DiscardLogger Logger = logging.Discard

// NewLogger returns a Logger writing messages at or above level to w.
func NewLogger(w io.Writer, level LogLevel) Logger {
	return logging.NewLogger(w, level)
}

// CompressionType is an alias for the compression algorithm id.
type CompressionType = compression.Type

// Compression type constants.
const (
	CompressionNone    = compression.NoCompression
	CompressionSnappy  = compression.SnappyCompression
	CompressionDeflate = compression.DeflateCompression
	CompressionLZ4     = compression.LZ4Compression
	CompressionZstd    = compression.ZstdCompression
)

// DefaultMaxDepth is the nesting limit used when Options.MaxDepth is not set.
const DefaultMaxDepth = 64

// DefaultMaxFrameSize is the frame length limit used when
// Options.MaxFrameSize is not set.
const DefaultMaxFrameSize = 256 << 20

// Options configures a Codec.
type Options struct {
	// MaxDepth bounds the nesting of Arrays and Maps accepted on decode.
	// A top-level container counts as depth 1.
	// Default: 64
	MaxDepth int

	// MaxFrameSize bounds the uncompressed length of a compression frame,
	// both when writing one and when reading one. A frame declaring more is
	// rejected before anything is decompressed.
	// Default: 256 MiB
	MaxFrameSize int

	// Compression is the algorithm assigned to stores created through
	// Database.CreateStore on a database built with this codec.
	// Default: CompressionNone
	Compression CompressionType

	// Logger receives decode and migration messages.
	// If nil, a default logger writing warnings to stderr is used.
	Logger Logger
}

// DefaultOptions returns a new Options with default values.
func DefaultOptions() *Options {
	return &Options{
		MaxDepth:     DefaultMaxDepth,
		MaxFrameSize: DefaultMaxFrameSize,
		Compression:  CompressionNone,
		Logger:       nil, // Will use logging.OrDefault
	}
}

// Options returns a copy of the options c was built with.
func (c *Codec) Options() *Options {
	return &Options{
		MaxDepth:     c.maxDepth,
		MaxFrameSize: c.maxFrameSize,
		Compression:  c.compression,
		Logger:       c.logger,
	}
}
