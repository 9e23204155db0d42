package store

import (
	"sort"
	"sync"

	"payscript/internal/eval"
)

// Memory is an in-memory store for testing.
type Memory struct {
	mu       sync.RWMutex
	data     map[string][]eval.CodedEvent
	metadata map[string]string
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data:     make(map[string][]eval.CodedEvent),
		metadata: make(map[string]string),
	}
}

// Get retrieves a stream's coded events by name.
func (m *Memory) Get(name string) ([]eval.CodedEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if events, ok := m.data[name]; ok {
		out := make([]eval.CodedEvent, len(events))
		copy(out, events)
		return out, nil
	}
	return nil, nil
}

// Put stores a stream by name.
func (m *Memory) Put(name string, events []eval.CodedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]eval.CodedEvent, len(events))
	copy(stored, events)
	m.data[name] = stored
	return nil
}

// Delete removes a stream by name.
func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, name)
	return nil
}

// List returns all stored stream names, sorted.
func (m *Memory) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.data))
	for name := range m.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}

// GetMetadata retrieves a metadata value by key.
func (m *Memory) GetMetadata(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[key], nil
}

// SetMetadata stores a metadata value by key.
func (m *Memory) SetMetadata(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[key] = value
	return nil
}
