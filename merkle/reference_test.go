// Copyright 2024 The blockmerkle Authors
// This file is part of the blockmerkle library.

package merkle

// sequentialRoot computes the root the straightforward, non-pipelined
// way: hash every leaf, then iteratively combine adjacent pairs left to
// right, padding a dangling digest with the empty ladder's rung for that
// level's depth, until one digest remains at ceil_log2(max(n,1)). Used as
// the ground truth the concurrent Hasher's output is checked against.
func sequentialRoot(leaves [][]byte) Digest {
	ladder := sharedEmptyLadder()
	if len(leaves) == 0 {
		return ladder.at(0)
	}

	level := make([]Digest, len(leaves))
	for i, raw := range leaves {
		level[i] = Hash(raw)
	}

	depth := 0
	for len(level) > 1 {
		level = combinePairs(level, ladder.at(depth))
		depth++
	}
	return level[0]
}
