package slot

import (
	"context"
	"errors"
	"sync"
)

// ErrEmpty is returned by Read when the slot has never been written.
var ErrEmpty = errors.New("slot: empty")

// Slot is a single named storage location holding one document.
// Every Write replaces the whole document; Read returns the last write.
type Slot interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Healthy(ctx context.Context) bool
}

// Memory is an in-process slot for dev/testing.
type Memory struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

// NewMemory creates an empty in-memory slot.
func NewMemory() *Memory {
	return &Memory{}
}

// Read returns the stored document.
func (m *Memory) Read(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, ErrEmpty
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

// Write replaces the stored document.
func (m *Memory) Write(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make([]byte, len(data))
	copy(m.data, data)
	m.set = true
	return nil
}

// Healthy always reports true for the memory backend.
func (m *Memory) Healthy(ctx context.Context) bool { return true }
