package storage

import (
	"context"
	"errors"
	"sync"

	"debtledger/internal/ledger"
)

// ErrQuotaExceeded is returned by MemoryStore when saves are made to fail.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// ErrUnavailable is returned by MemoryStore when loads are made to fail.
var ErrUnavailable = errors.New("storage unavailable")

// MemoryStore keeps blobs in a map. It is the "memory" backend and the
// persister used in tests.
type MemoryStore struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	failSaves bool
	failLoads int
}

var _ ledger.Persister = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: map[string][]byte{}}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLoads > 0 {
		m.failLoads--
		return nil, ErrUnavailable
	}
	b, ok := m.blobs[key]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryStore) Save(_ context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaves {
		return ErrQuotaExceeded
	}
	m.blobs[key] = append([]byte(nil), blob...)
	return nil
}

// Put stores a raw blob, bypassing any failure injection.
func (m *MemoryStore) Put(key string, blob []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), blob...)
}

// FailSaves makes every following Save return ErrQuotaExceeded until
// called again with false.
func (m *MemoryStore) FailSaves(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSaves = fail
}

// FailLoads makes the next n Loads return ErrUnavailable.
func (m *MemoryStore) FailLoads(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoads = n
}

// Blob returns a copy of the stored blob for key, bypassing failure
// injection.
func (m *MemoryStore) Blob(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	return append([]byte(nil), b...), ok
}
