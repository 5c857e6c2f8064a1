// Copyright 2024 The blockmerkle Authors
// This file is part of the blockmerkle library.

package merkle

import (
	"math/rand"
	"testing"
)

// TestSequentialEquivalenceRandomized samples random leaf sequences and
// asserts the concurrent Hasher's root matches the sequential reference
// root under varying executor parallelism, and that two independent
// hashers fed the same sequence agree.
func TestSequentialEquivalenceRandomized(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping randomized property test in -short mode")
	}
	rnd := rand.New(rand.NewSource(1))

	sizes := []int{0, 1, 2, 3, 5, 15, 16, 17, 31, 32, 33, 63, 64, 65, 200, 513}
	parallelisms := []int{1, 2, 4, 0}

	for _, n := range sizes {
		leaves := make([][]byte, n)
		for i := range leaves {
			buf := make([]byte, 1+rnd.Intn(32))
			rnd.Read(buf)
			leaves[i] = buf
		}
		want := sequentialRoot(leaves)

		for _, p := range parallelisms {
			got1 := computeRoot(t, NewPool(p), leaves)
			if got1 != want {
				t.Fatalf("n=%d parallelism=%d: concurrent root %s != sequential root %s", n, p, got1, want)
			}
			got2 := computeRoot(t, NewPool(p), leaves)
			if got1 != got2 {
				t.Fatalf("n=%d parallelism=%d: two independent hashers disagreed: %s vs %s", n, p, got1, got2)
			}
		}
	}
}

// TestLargeBlockRandomized additionally exercises leaf counts in the
// thousands.
func TestLargeBlockRandomized(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large randomized property test in -short mode")
	}
	rnd := rand.New(rand.NewSource(7))

	for _, n := range []int{1000, 4097, 10000} {
		leaves := make([][]byte, n)
		for i := range leaves {
			buf := make([]byte, 8)
			rnd.Read(buf)
			leaves[i] = buf
		}
		want := sequentialRoot(leaves)
		got := computeRoot(t, NewPool(8), leaves)
		if got != want {
			t.Fatalf("n=%d: concurrent root %s != sequential root %s", n, got, want)
		}
	}
}
