// Package storage provides in-memory storage of API definitions.
//
// Every stored definition carries a revision. Writes may name the revision
// they were based on (as an ETag) and fail with ErrConflict when the stored
// definition has moved on, which is how the management API detects lost
// updates.
//
// Key types:
//
//   - APIStore: Interface defining the contract for definition storage
//   - InMemoryAPIStore: Thread-safe in-memory implementation of APIStore
package storage
