package storage

import (
	"errors"

	"github.com/getmockd/apictl/pkg/api"
)

var (
	// ErrNotFound is returned when no definition has the requested ID.
	ErrNotFound = errors.New("api not found")
	// ErrConflict is returned when the ETag of a write does not match the
	// stored revision.
	ErrConflict = errors.New("api was modified concurrently")
)

// APIStore defines the interface for storing and retrieving API definitions.
// Returned definitions are copies; editing them does not change the store.
type APIStore interface {
	// Get retrieves a definition by ID with its current ETag.
	Get(id string) (*api.API, error)

	// Put stores a definition. A non-empty ETag on a must match the stored
	// revision. The stored copy is returned with its new ETag.
	Put(a *api.API) (*api.API, error)

	// Delete removes a definition by ID. Returns true if deleted, false if not found.
	Delete(id string) bool

	// List returns all stored definitions ordered by ID.
	List() []*api.API

	// Count returns the number of stored definitions.
	Count() int
}
