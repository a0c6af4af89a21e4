package storage

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// Memory is a BlobStore kept in process memory. Fail makes every Put fail,
// which tests use to simulate a full disk.
type Memory struct {
	mu    sync.Mutex
	blobs map[string][]byte
	fail  error
	puts  int
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Get implements BlobStore.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, ErrNoBlob
	}
	return slices.Clone(data), nil
}

// Put implements BlobStore.
func (m *Memory) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.blobs[key] = slices.Clone(data)
	m.puts++
	return nil
}

// Fail makes subsequent writes return err. A nil err restores writes.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Puts returns the number of successful writes.
func (m *Memory) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Close implements BlobStore.
func (m *Memory) Close() error { return nil }

var _ BlobStore = (*Memory)(nil)

// ErrInjected is a convenience error for Memory.Fail.
var ErrInjected = errors.New("storage: injected failure")
