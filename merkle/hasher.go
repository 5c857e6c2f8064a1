// Copyright 2024 The blockmerkle Authors
// This file is part of the blockmerkle library.

package merkle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
)

// ChunkLeaves is the capacity of the open leaf batch before it is
// dispatched to the executor for serialization and hashing.
const ChunkLeaves = 16

type hasherState int32

const (
	stateOpen hasherState = iota
	stateFinalizing
)

var (
	metricLeavesAdded   = metrics.GetOrRegisterCounter("merkle/leaves/added", nil)
	metricLeafBatches   = metrics.GetOrRegisterCounter("merkle/leafbatches/dispatched", nil)
	metricRootsResolved = metrics.GetOrRegisterCounter("merkle/roots/resolved", nil)
	metricRootTimer     = metrics.GetOrRegisterTimer("merkle/root/duration", nil)
)

// Hasher is the concurrent streaming Merkle-tree hasher: callers feed
// leaves one at a time via AddLeaf from a single producer goroutine and
// eventually call RootHash once to obtain the block's root digest. L is
// the opaque leaf item type; the Hasher never inspects it beyond handing
// it to the injected serializer.
type Hasher[L any] struct {
	exec      Executor
	serialize func(L) ([]byte, error)
	ladder    *emptyLadder

	mu        sync.Mutex // guards openBatch and rootFut; see note on AddLeaf
	openBatch []L

	numLeaves uint64 // atomic

	top   *sequencer
	root0 *combinerLevel

	state   int32 // atomic hasherState
	rootFut *RootFuture
}

// New creates a Hasher that offloads serialization, hashing, and
// combination to exec. serialize must be deterministic: two Hashers fed
// the same leaf sequence must observe the same bytes for the same leaf.
func New[L any](exec Executor, serialize func(L) ([]byte, error)) *Hasher[L] {
	ladder := sharedEmptyLadder()
	h := &Hasher[L]{
		exec:      exec,
		serialize: serialize,
		ladder:    ladder,
	}
	h.root0 = newCombinerLevel(0, exec, ladder)
	h.top = newSequencer(h.applyLeafDigests)
	return h
}

// AddLeaf appends item to the current leaf batch, dispatching a chunk of
// ChunkLeaves items for serialization and hashing whenever the batch
// fills. AddLeaf itself never waits for hashing to finish, but handing a
// full chunk to the executor blocks for as long as exec.Submit does: with
// a Pool of positive parallelism, until a worker slot is free. AddLeaf
// fails with ErrAlreadyFinalized once RootHash has been called.
//
// AddLeaf must only be called from a single producer goroutine; the mutex
// below is a cheap guard against a caller violating that contract, not a
// synchronization requirement of the algorithm itself.
func (h *Hasher[L]) AddLeaf(item L) error {
	if hasherState(atomic.LoadInt32(&h.state)) != stateOpen {
		return ErrAlreadyFinalized
	}

	h.mu.Lock()
	h.openBatch = append(h.openBatch, item)
	var dispatchBatch []L
	if len(h.openBatch) == ChunkLeaves {
		dispatchBatch = h.openBatch
		h.openBatch = nil
	}
	h.mu.Unlock()

	atomic.AddUint64(&h.numLeaves, 1)
	metricLeavesAdded.Inc(1)

	if dispatchBatch != nil {
		h.dispatchLeafBatch(dispatchBatch)
	}
	return nil
}

// flushOpenBatch dispatches any non-empty, non-full trailing leaf batch.
// Called only by RootHash.
func (h *Hasher[L]) flushOpenBatch() {
	h.mu.Lock()
	batch := h.openBatch
	h.openBatch = nil
	h.mu.Unlock()

	if len(batch) > 0 {
		h.dispatchLeafBatch(batch)
	}
}

func (h *Hasher[L]) dispatchLeafBatch(batch []L) {
	metricLeafBatches.Inc(1)
	log.Trace("merkle: dispatching leaf batch", "leaves", len(batch))
	fut := h.exec.Submit(func() ([]Digest, error) {
		out := make([]Digest, len(batch))
		for i, item := range batch {
			raw, err := h.serialize(item)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
			}
			out[i] = Hash(raw)
		}
		return out, nil
	})
	h.top.push(fut)
}

// applyLeafDigests feeds each leaf digest from one dispatched batch into
// combiner level 0, in order.
func (h *Hasher[L]) applyLeafDigests(digests []Digest) error {
	for _, d := range digests {
		if err := h.root0.combine(d); err != nil {
			return err
		}
	}
	return nil
}

// RootHash finalizes the Hasher and returns a future for the block's
// root digest. Further AddLeaf calls fail with ErrAlreadyFinalized. Only
// the first call actually starts finalization; subsequent calls return
// the same future (repeat calls are otherwise undefined behavior beyond
// returning that future).
func (h *Hasher[L]) RootHash(ctx context.Context) *RootFuture {
	h.mu.Lock()
	if hasherState(atomic.LoadInt32(&h.state)) != stateOpen {
		fut := h.rootFut
		h.mu.Unlock()
		return fut
	}
	atomic.StoreInt32(&h.state, int32(stateFinalizing))
	fut := newRootFuture()
	h.rootFut = fut
	h.mu.Unlock()

	h.flushOpenBatch()
	targetDepth := targetDepthFor(atomic.LoadUint64(&h.numLeaves))

	go func() {
		start := time.Now()
		defer metricRootTimer.UpdateSince(start)

		if err := h.top.drain(); err != nil {
			fut.resolve(Digest{}, err)
			return
		}
		root, err := finalizeLevel(h.root0, 0, targetDepth, h.ladder)
		if err == nil {
			metricRootsResolved.Inc(1)
		}
		fut.resolve(root, err)
	}()
	return fut
}

// targetDepthFor computes ceil_log2(max(n, 1)), the depth at which exactly
// one digest remains once every level has been fully dispatched and
// padded.
func targetDepthFor(n uint64) int {
	if n == 0 {
		return 0
	}
	depth := 0
	size := uint64(1)
	for size < n {
		size <<= 1
		depth++
	}
	return depth
}

// finalizeLevel implements the recursive final-combination step: dispatch
// any pending batch (now legitimately padded if odd), drain this level's
// chain, and recurse into the child, until depth reaches target, where
// exactly one digest (or, only for the zero-leaf block, none) remains.
func finalizeLevel(lvl *combinerLevel, depth, target int, ladder *emptyLadder) (Digest, error) {
	if depth == target {
		switch {
		case len(lvl.pending) == 1:
			return lvl.pending[0], nil
		case len(lvl.pending) == 0 && depth == 0:
			return ladder.at(0), nil
		default:
			return Digest{}, fmt.Errorf("merkle: inconsistent tree state at depth %d (pending=%d)", depth, len(lvl.pending))
		}
	}

	if len(lvl.pending) > 0 {
		if err := lvl.dispatch(); err != nil {
			return Digest{}, err
		}
	}
	if err := lvl.drain(); err != nil {
		return Digest{}, err
	}
	if lvl.child == nil {
		return Digest{}, fmt.Errorf("merkle: level %d produced no child before target depth %d", depth, target)
	}
	return finalizeLevel(lvl.child, depth+1, target, ladder)
}
