// Copyright 2024 The blockmerkle Authors
// This file is part of the blockmerkle library.

// Package blockstream manages the lifecycle of one merkle.Hasher per
// block height: deciding when a block opens, forwarding leaves to it,
// closing it to obtain a root, and persisting that root. It is a thin
// consumer of merkle.Hasher and never reaches into the hasher's
// internals.
package blockstream

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"

	"github.com/ethereum/go-ethereum/log"

	"github.com/holisticode/blockmerkle/blockitem"
	"github.com/holisticode/blockmerkle/merkle"
)

// recentRootsCapacity bounds the LRU of finalized roots kept in memory
// for readers that ask about a block shortly after it closed.
const recentRootsCapacity = 4096

// Parallelism is the default executor width handed to each block's
// Hasher.
const Parallelism = 16

// Manager opens one merkle.Hasher per block height, forwards leaves to
// it, and finalizes + persists its root on Finalize.
type Manager struct {
	store       *Store
	parallelism int

	mu     sync.Mutex
	open   map[uint64]*merkle.Hasher[*blockitem.Item]
	recent *lru.Cache // height -> merkle.Digest

	group singleflight.Group
}

// NewManager creates a Manager that persists finalized roots through
// store. store may be nil, in which case finalized roots are only kept
// in the in-memory LRU. Each block's Hasher runs on an executor pool of
// the default Parallelism width.
func NewManager(store *Store) *Manager {
	return NewManagerWithParallelism(store, Parallelism)
}

// NewManagerWithParallelism is NewManager with an explicit executor
// width per block, e.g. for a CLI's --parallelism flag.
func NewManagerWithParallelism(store *Store, parallelism int) *Manager {
	cache, err := lru.New(recentRootsCapacity)
	if err != nil {
		// lru.New only errors on a non-positive size, a programmer error.
		panic(err)
	}
	return &Manager{
		store:       store,
		parallelism: parallelism,
		open:        make(map[uint64]*merkle.Hasher[*blockitem.Item]),
		recent:      cache,
	}
}

// AddLeaf appends item to the block at height, opening a new Hasher for
// that height on first use.
func (m *Manager) AddLeaf(height uint64, item *blockitem.Item) error {
	h := m.hasherFor(height)
	if err := h.AddLeaf(item); err != nil {
		return fmt.Errorf("blockstream: height %d: %w", height, err)
	}
	return nil
}

func (m *Manager) hasherFor(height uint64) *merkle.Hasher[*blockitem.Item] {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.open[height]
	if !ok {
		h = merkle.New[*blockitem.Item](merkle.NewPool(m.parallelism), blockitem.Serialize)
		m.open[height] = h
		log.Debug("blockstream: opened block", "height", height)
	}
	return h
}

// Finalize closes the block at height and returns its root, computing it
// at most once even if called concurrently by multiple callers.
func (m *Manager) Finalize(ctx context.Context, height uint64) (merkle.Digest, error) {
	if root, ok := m.recent.Get(height); ok {
		return root.(merkle.Digest), nil
	}

	key := fmt.Sprintf("%d", height)
	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		m.mu.Lock()
		h, ok := m.open[height]
		if ok {
			delete(m.open, height)
		}
		m.mu.Unlock()
		if !ok {
			h = merkle.New[*blockitem.Item](merkle.NewPool(m.parallelism), blockitem.Serialize)
		}

		root, err := h.RootHash(ctx).Await(ctx)
		if err != nil {
			return merkle.Digest{}, err
		}

		m.recent.Add(height, root)
		log.Info("blockstream: finalized block", "height", height, "root", root)

		if m.store != nil {
			if err := m.store.PutRoot(height, root); err != nil {
				return merkle.Digest{}, fmt.Errorf("blockstream: persisting root for height %d: %w", height, err)
			}
		}
		return root, nil
	})
	if err != nil {
		return merkle.Digest{}, err
	}
	return v.(merkle.Digest), nil
}
