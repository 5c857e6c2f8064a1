// Copyright 2024 The blockmerkle Authors
// This file is part of the blockmerkle library.

package blockstream

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/holisticode/blockmerkle/merkle"
)

// ErrRootNotFound is returned by Store.GetRoot when no root has been
// persisted for the given height.
var ErrRootNotFound = errors.New("blockstream: root not found")

// Store persists finalized (height, root) pairs. It lives outside merkle
// and is never imported by it.
type Store struct {
	db *leveldb.DB
}

// OpenStore opens (creating if necessary) a leveldb database at path to
// hold finalized block roots.
func OpenStore(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("blockstream: opening root store at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying leveldb database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutRoot persists root as the finalized root for height.
func (s *Store) PutRoot(height uint64, root merkle.Digest) error {
	return s.db.Put(heightKey(height), root[:], nil)
}

// GetRoot returns the previously persisted root for height, or
// ErrRootNotFound if none was ever stored.
func (s *Store) GetRoot(height uint64) (merkle.Digest, error) {
	raw, err := s.db.Get(heightKey(height), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return merkle.Digest{}, ErrRootNotFound
		}
		return merkle.Digest{}, err
	}
	var root merkle.Digest
	copy(root[:], raw)
	return root, nil
}

func heightKey(height uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, height)
	return key
}
