// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import "errors"

// Error kinds returned by the library. Callers match them with
// [errors.Is]; the returned errors wrap these with a message naming the
// violated precondition.
var (
	// ErrType signals a value-type-incompatible pairing, e.g. combining
	// two grids with different value types.
	ErrType = errors.New("type mismatch")

	// ErrValue signals a semantically invalid argument, e.g. a CSG
	// operation on a tree that does not hold a signed-distance field.
	ErrValue = errors.New("invalid value")

	// ErrIndex signals an out-of-range structural argument, e.g. an
	// invalid level passed to AddTile.
	ErrIndex = errors.New("index out of range")

	// ErrNotImplemented signals an operation deliberately unsupported
	// for the given value type.
	ErrNotImplemented = errors.New("not implemented")
)
