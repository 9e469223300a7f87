package uploads

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// Memory keeps blobs in a map; it backs tests and ephemeral runs
type Memory struct {
	mu    sync.Mutex
	blobs map[string][]byte

	// SaveErr and RemoveErr, when set, are returned instead of doing the work
	SaveErr   error
	RemoveErr error
}

// NewMemory returns an empty in-memory backend
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Name() string {
	return "memory"
}

func (m *Memory) Save(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if m.SaveErr != nil {
		return m.SaveErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = buf.Bytes()
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *Memory) URL(key string) string {
	return "/uploads/" + key
}

// Get returns a stored blob
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	return b, ok
}

// Len returns the number of stored blobs
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}
