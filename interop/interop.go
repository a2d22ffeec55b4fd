// Package interop converts burrowdb Values, Documents and Stores to and from
// JSON and MessagePack.
//
// Both projections are lossless for every Value: kinds without a native
// counterpart are escaped (JSON) or carried as an extension type
// (MessagePack). Key order is preserved in both directions.
package interop

import (
	"errors"

	"github.com/aalhour/burrowdb"
)

var (
	// ErrInvalidJSON is returned when input is not well-formed JSON or an
	// escape object is malformed.
	ErrInvalidJSON = errors.New("interop: invalid JSON")

	// ErrInvalidMsgpack is returned when input is not well-formed MessagePack
	// or uses a type with no Value counterpart.
	ErrInvalidMsgpack = errors.New("interop: invalid MessagePack")

	// ErrNotRepresentable is returned when a Value cannot be written in the
	// target format, such as a String holding invalid UTF-8.
	ErrNotRepresentable = errors.New("interop: value not representable")
)

// maxDepth bounds Array and Map nesting on input, counted the same way the
// binary codec counts it.
const maxDepth = burrowdb.DefaultMaxDepth
