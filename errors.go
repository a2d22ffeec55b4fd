package burrowdb

// errors.go defines the decode error taxonomy.

import (
	"errors"
	"fmt"

	"github.com/aalhour/burrowdb/internal/encoding"
)

var (
	// ErrUnexpectedEndOfInput is returned when the buffer is shorter than a tag or length declares.
	ErrUnexpectedEndOfInput = encoding.ErrUnexpectedEOF

	// ErrIntegerOverflow is returned when a decoded length or integer exceeds its target width.
	ErrIntegerOverflow = encoding.ErrOverflow

	// ErrInvalidTag is returned for an unrecognized variant/width discriminant byte.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrInvalidUTF8 is returned when a string payload is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")

	// ErrDuplicateKey is returned for a repeated key within a Map, Document, Store or Database.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrDepthLimitExceeded is returned when nested Arrays/Maps exceed the configured maximum.
	ErrDepthLimitExceeded = errors.New("depth limit exceeded")

	// ErrUnsupportedAlgorithm is returned for an unknown compression algorithm id.
	ErrUnsupportedAlgorithm = errors.New("unsupported compression algorithm")

	// ErrChecksumMismatch is returned when a payload fails its integrity check.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrUnsupportedVersion is returned when a database format version has no decode path.
	ErrUnsupportedVersion = errors.New("unsupported format version")

	// ErrUnknownTimezone is returned when a timestamp's zone is not in the IANA database.
	ErrUnknownTimezone = errors.New("unknown timezone")

	// ErrBadMagic is returned when a buffer does not start with the database magic.
	ErrBadMagic = errors.New("bad magic")

	// ErrTrailingData is returned when bytes follow a complete database.
	ErrTrailingData = errors.New("trailing data")
)

// DecodeError reports where in the input a decode failed.
// Unwrap yields one of the Err* sentinels above.
type DecodeError struct {
	Off int
	Err error
	Msg string
}

func decodeErrf(off int, err error, format string, args ...any) error {
	return &DecodeError{Off: off, Err: err, Msg: fmt.Sprintf(format, args...)}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("burrowdb: %v at offset %d", e.Err, e.Off)
	}
	return fmt.Sprintf("burrowdb: %s at offset %d: %v", e.Msg, e.Off, e.Err)
}

// nestErr re-anchors a DecodeError produced inside a decompressed payload at
// off, the position of the frame in the enclosing buffer.
func nestErr(err error, off int, what string) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return &DecodeError{
			Off: off,
			Err: de.Err,
			Msg: fmt.Sprintf("%s: %s at payload offset %d", what, de.Msg, de.Off),
		}
	}
	return err
}
