// Copyright 2024 The blockmerkle Authors
// This file is part of the blockmerkle library.

package merkle

import "errors"

var (
	// ErrAlreadyFinalized is returned by AddLeaf once RootHash has been
	// called on the same Hasher; the hasher remains in its finalizing
	// state and the outstanding root future is unaffected.
	ErrAlreadyFinalized = errors.New("merkle: hasher already finalized")

	// ErrTooManyLeaves is returned when the combiner tree would need a
	// level at depth >= MaxDepth, i.e. more leaves were added than
	// 2^(MaxDepth-1). It is fatal for the block: the root future resolves
	// with this error.
	ErrTooManyLeaves = errors.New("merkle: too many leaves for max depth")

	// ErrSerializationFailed wraps a failure from the injected leaf
	// serializer. Fatal for the block.
	ErrSerializationFailed = errors.New("merkle: leaf serialization failed")
)
