// Copyright 2024 The blockmerkle Authors
// This file is part of the blockmerkle library.

package merkle

import (
	"context"
	"errors"
	"testing"
)

func TestSerializationFailurePropagates(t *testing.T) {
	boom := errors.New("boom")
	failing := func(b []byte) ([]byte, error) {
		if string(b) == "bad" {
			return nil, boom
		}
		return b, nil
	}

	h := New[[]byte](NewPool(2), failing)
	for _, leaf := range [][]byte{[]byte("good"), []byte("bad"), []byte("good")} {
		if err := h.AddLeaf(leaf); err != nil {
			t.Fatalf("AddLeaf: %v", err)
		}
	}

	_, err := h.RootHash(context.Background()).Await(context.Background())
	if err == nil {
		t.Fatalf("expected an error, got nil")
	}
	if !errors.Is(err, ErrSerializationFailed) {
		t.Fatalf("expected ErrSerializationFailed, got %v", err)
	}
}

func TestRootHashAwaitContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := New[[]byte](NewPool(1), identitySerialize)
	_ = h.AddLeaf([]byte("a"))
	fut := h.RootHash(context.Background())

	if _, err := fut.Await(ctx); err == nil {
		t.Fatalf("expected context cancellation error")
	}
}
