// Package store provides persistence for named payscript event streams.
package store

import "payscript/internal/eval"

// Store is the interface for event stream persistence.
type Store interface {
	// Get retrieves a stream's coded events by name. Returns nil if not found.
	Get(name string) ([]eval.CodedEvent, error)
	// Put stores a stream by name, overwriting if it exists.
	Put(name string, events []eval.CodedEvent) error
	// Delete removes a stream by name.
	Delete(name string) error
	// List returns all stored stream names, sorted.
	List() ([]string, error)
	// Close releases resources.
	Close() error
}
