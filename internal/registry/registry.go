// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry maps image content hashes to the identifier of the first
// stored copy, so that each distinct image is written exactly once.
package registry

import (
	"context"
	"sync"
)

// Registry records which image hashes have been stored and under which name.
// Implementations are safe for concurrent use.
type Registry interface {
	// Claim registers hash under name unless it is already known. It returns
	// the canonical identifier for hash and fresh == true when this call made
	// the registration, in which case the caller must persist the image.
	Claim(ctx context.Context, hash, name string) (id string, fresh bool, err error)

	// Forget drops a registration made by a fresh Claim whose image could not
	// be persisted.
	Forget(ctx context.Context, hash string) error

	// Lookup returns the identifier registered for hash.
	Lookup(ctx context.Context, hash string) (id string, ok bool, err error)

	Close() error
}

// Memory is a Registry that lives for the duration of the process.
type Memory struct {
	mu     sync.Mutex
	byHash map[string]string
}

// NewMemory returns an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{byHash: make(map[string]string)}
}

func (m *Memory) Claim(_ context.Context, hash, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byHash[hash]; ok {
		return id, false, nil
	}
	m.byHash[hash] = name
	return name, true, nil
}

func (m *Memory) Forget(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byHash, hash)
	return nil
}

func (m *Memory) Lookup(_ context.Context, hash string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byHash[hash]
	return id, ok, nil
}

func (m *Memory) Close() error { return nil }

// Open returns a SQLite registry stored at path, or a Memory registry when
// path is empty. A SQLite registry only sees the registrations made under
// scope; a Memory registry lives for one run and ignores it.
func Open(path, scope string) (Registry, error) {
	if path == "" {
		return NewMemory(), nil
	}
	return OpenSQLite(path, scope)
}
