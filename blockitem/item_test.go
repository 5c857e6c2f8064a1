// Copyright 2024 The blockmerkle Authors
// This file is part of the blockmerkle library.

package blockitem

import (
	"bytes"
	"testing"
)

func TestSerializeDeterministic(t *testing.T) {
	item := New([]byte("hello block"))

	a, err := Serialize(item)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	b, err := Serialize(item)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("Serialize is not deterministic: %x vs %x", a, b)
	}
}

func TestSerializeDistinguishesPayloads(t *testing.T) {
	a, err := Serialize(New([]byte("one")))
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	b, err := Serialize(New([]byte("two")))
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("expected different payloads to serialize differently")
	}
}
