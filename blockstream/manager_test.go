// Copyright 2024 The blockmerkle Authors
// This file is part of the blockmerkle library.

package blockstream

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/holisticode/blockmerkle/blockitem"
)

func TestManagerFinalizeIdempotent(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()

	payloads := [][]byte{[]byte("tx-a"), []byte("tx-b"), []byte("tx-c")}
	for _, p := range payloads {
		if err := m.AddLeaf(42, blockitem.New(p)); err != nil {
			t.Fatalf("AddLeaf: %v", err)
		}
	}

	root, err := m.Finalize(ctx, 42)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	root2, err := m.Finalize(ctx, 42)
	if err != nil {
		t.Fatalf("second Finalize: %v", err)
	}
	if root != root2 {
		t.Fatalf("Finalize is not idempotent: %s vs %s", root, root2)
	}
}

func TestManagerPersistsThroughStore(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenStore(filepath.Join(dir, "roots"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	m := NewManager(store)
	ctx := context.Background()
	_ = m.AddLeaf(7, blockitem.New([]byte("only-leaf")))

	root, err := m.Finalize(ctx, 7)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	got, err := store.GetRoot(7)
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	if got != root {
		t.Fatalf("persisted root %s != finalized root %s", got, root)
	}

	if _, err := store.GetRoot(999); err != ErrRootNotFound {
		t.Fatalf("expected ErrRootNotFound for unknown height, got %v", err)
	}
}
