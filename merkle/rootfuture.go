// Copyright 2024 The blockmerkle Authors
// This file is part of the blockmerkle library.

package merkle

import "context"

// RootFuture is returned by Hasher.RootHash. It resolves exactly once,
// when the whole pipeline has drained and the final padding has been
// applied; every subsequent Await call observes the same digest (or
// error).
type RootFuture struct {
	done chan struct{}
	val  Digest
	err  error
}

func newRootFuture() *RootFuture {
	return &RootFuture{done: make(chan struct{})}
}

func (f *RootFuture) resolve(d Digest, err error) {
	f.val, f.err = d, err
	close(f.done)
}

// Await blocks until the root has been computed, or ctx is done first.
func (f *RootFuture) Await(ctx context.Context) (Digest, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return Digest{}, ctx.Err()
	}
}
