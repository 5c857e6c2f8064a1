// Copyright 2024 The blockmerkle Authors
// This file is part of the blockmerkle library.

// Package blockitem provides a concrete, protobuf-backed realization of
// the leaf type fed to merkle.Hasher: an opaque payload plus a
// deterministic Serialize function the hasher uses to turn each leaf
// into bytes before hashing it.
package blockitem

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Item is an opaque block-item payload. merkle.Hasher never looks inside
// one; it only calls Serialize.
type Item struct {
	// Payload is the item's application-defined bytes, e.g. a previously
	// protobuf-marshaled transaction or state-diff record.
	Payload []byte
}

// New wraps payload in an Item.
func New(payload []byte) *Item {
	return &Item{Payload: payload}
}

// Serialize deterministically encodes the item by wrapping its payload in
// the well-known protobuf BytesValue message and marshaling it. Using the
// well-known wrapper (rather than a hand-rolled codec) keeps the leaf wire
// format self-describing and interoperable with the rest of a protobuf-
// based block-stream pipeline, without requiring this repository to carry
// its own generated message types.
func Serialize(item *Item) ([]byte, error) {
	return proto.Marshal(wrapperspb.Bytes(item.Payload))
}
