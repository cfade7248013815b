package stubs

import (
	"context"
	"errors"
	"sync"

	"bookcatalog/internal/storage"
)

var _ storage.KV = (*MockKV)(nil)

// ErrWriteFailed is returned by Set while FailWrites is enabled
var ErrWriteFailed = errors.New("mock write failed")

// MockKV is an in-memory implementation of the storage.KV interface for testing
type MockKV struct {
	mu         sync.RWMutex
	values     map[string]string
	writes     int
	failWrites bool
}

// NewMockKV creates a new in-memory key-value store
func NewMockKV() *MockKV {
	return &MockKV{
		values: make(map[string]string),
	}
}

// Initialize does nothing for the mock store
func (m *MockKV) Initialize(ctx context.Context) error {
	return nil
}

// Get returns the value stored under key
func (m *MockKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	return value, ok, nil
}

// Set replaces the value stored under key and counts the write
func (m *MockKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWrites {
		return ErrWriteFailed
	}

	m.values[key] = value
	m.writes++
	return nil
}

// Seed stores a raw value without counting it as a write
func (m *MockKV) Seed(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
}

// Writes returns the number of successful Set calls
func (m *MockKV) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.writes
}

// FailWrites makes every following Set return ErrWriteFailed until switched off
func (m *MockKV) FailWrites(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failWrites = fail
}

// Close does nothing for the mock store
func (m *MockKV) Close() error {
	return nil
}
