// Copyright 2024 The blockmerkle Authors
// This file is part of the blockmerkle library.

package merkle

import "github.com/ethereum/go-ethereum/log"

// ChunkNodes is the capacity of a combiner level's pending digest batch
// before it is dispatched to the executor.
const ChunkNodes = 32

// combinerLevel is one level of the hash combiner tree: it pairs adjacent
// digests, hashes each pair, and feeds the results to its child level.
// The child is allocated lazily, the first time this level dispatches
// work.
//
// A combinerLevel's pending batch and child pointer are touched only by
// the single goroutine that drains the parent level's sequencer (or, for
// level 0, the Hasher's top sequencer) and, once that sequencer has been
// drained, by the finalizer goroutine started in RootHash. That
// single-writer-at-a-time discipline is enforced by construction rather
// than a lock.
type combinerLevel struct {
	depth   int
	pending []Digest
	child   *combinerLevel
	seq     *sequencer
	exec    Executor
	ladder  *emptyLadder
}

func newCombinerLevel(depth int, exec Executor, ladder *emptyLadder) *combinerLevel {
	lvl := &combinerLevel{
		depth:  depth,
		exec:   exec,
		ladder: ladder,
	}
	lvl.seq = newSequencer(lvl.applyChildDigests)
	return lvl
}

func newChildLevel(depth int, exec Executor, ladder *emptyLadder) (*combinerLevel, error) {
	if depth >= MaxDepth {
		return nil, ErrTooManyLeaves
	}
	return newCombinerLevel(depth, exec, ladder), nil
}

// combine appends d to this level's pending batch, dispatching it once it
// reaches ChunkNodes.
func (lvl *combinerLevel) combine(d Digest) error {
	lvl.pending = append(lvl.pending, d)
	if len(lvl.pending) == ChunkNodes {
		return lvl.dispatch()
	}
	return nil
}

// dispatch submits the current pending batch to the executor and resets
// it, allocating the child level on first use. A full (ChunkNodes == 32)
// batch always produces an even number of pairs and never consults the
// empty ladder; only a short trailing batch, possible only once
// finalization flushes it, can have an odd length and be padded.
func (lvl *combinerLevel) dispatch() error {
	if len(lvl.pending) == 0 {
		return nil
	}
	if lvl.child == nil {
		child, err := newChildLevel(lvl.depth+1, lvl.exec, lvl.ladder)
		if err != nil {
			return err
		}
		lvl.child = child
	}

	batch := lvl.pending
	lvl.pending = nil
	padding := lvl.ladder.at(lvl.depth)
	depth := lvl.depth

	log.Trace("merkle: dispatching combiner level", "depth", depth, "nodes", len(batch))
	fut := lvl.exec.Submit(func() ([]Digest, error) {
		return combinePairs(batch, padding), nil
	})
	lvl.seq.push(fut)
	return nil
}

// applyChildDigests feeds each digest produced by a dispatch into the
// child level, in order.
func (lvl *combinerLevel) applyChildDigests(digests []Digest) error {
	for _, d := range digests {
		if err := lvl.child.combine(d); err != nil {
			return err
		}
	}
	return nil
}

// drain waits for every dispatch submitted by this level to be applied to
// its child, in order.
func (lvl *combinerLevel) drain() error {
	return lvl.seq.drain()
}

// combinePairs hashes adjacent digests left to right. A dangling final
// digest (odd-length batch) is paired with padding, the empty-ladder rung
// for this level's depth.
func combinePairs(batch []Digest, padding Digest) []Digest {
	out := make([]Digest, 0, (len(batch)+1)/2)
	i := 0
	for ; i+1 < len(batch); i += 2 {
		out = append(out, HashPair(batch[i], batch[i+1]))
	}
	if i < len(batch) {
		out = append(out, HashPair(batch[i], padding))
	}
	return out
}
