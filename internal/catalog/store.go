// Package catalog provides storage interfaces and implementations for the
// indexed candidates used by the SemRank service.
package catalog

import (
	"time"

	"github.com/localrivet/semrank/internal/ranker"
)

// Entry is a stored candidate together with its embedding and index time.
type Entry struct {
	Candidate ranker.Candidate
	Embedding []float32
	IndexedAt time.Time
}

// Store defines the interface for storing and retrieving indexed candidates.
type Store interface {
	// Initialize initializes the store with configuration options.
	Initialize(dbPath string) error

	// Close closes the store and releases any resources.
	Close() error

	// Put stores a candidate and its embedding, replacing any existing
	// entry with the same ID.
	Put(candidate ranker.Candidate, embedding []float32, indexedAt time.Time) error

	// Get retrieves a single entry by ID. It returns (nil, nil) when no
	// entry with that ID exists.
	Get(id string) (*Entry, error)

	// Delete removes the entry with the given ID. Deleting a missing ID
	// is not an error.
	Delete(id string) error

	// Clear removes all entries from the store.
	Clear() error

	// List returns all entries of the given kind in insertion order. An
	// empty kind returns every entry.
	List(kind string) ([]Entry, error)
}
