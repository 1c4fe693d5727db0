package snapshot

import (
	"context"
	"sync"
)

// MemoryBackend keeps bucket payloads in process memory. It lets tests and
// ephemeral deployments exercise the full encode/decode path.
type MemoryBackend struct {
	mu      sync.Mutex
	buckets map[string][]byte
	saves   int
	// FailSave, when set, is returned by Save.
	FailSave error
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{buckets: make(map[string][]byte)}
}

// Load implements Backend.
func (m *MemoryBackend) Load(_ context.Context, bucket string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.buckets[bucket]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// Save implements Backend.
func (m *MemoryBackend) Save(_ context.Context, buckets []Bucket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	for _, b := range buckets {
		m.buckets[b.Name] = append([]byte(nil), b.Payload...)
	}
	m.saves++
	return nil
}

// Put seeds a raw payload.
func (m *MemoryBackend) Put(bucket string, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets[bucket] = append([]byte(nil), payload...)
}

// Saves returns how many successful Save calls were made.
func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Close implements Backend.
func (m *MemoryBackend) Close() error { return nil }
