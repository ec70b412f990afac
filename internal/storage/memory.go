package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/getmockd/apictl/pkg/api"
)

type entry struct {
	api      *api.API
	revision int
}

// InMemoryAPIStore is a thread-safe in-memory implementation of APIStore.
// It also satisfies session.Persister, so sessions can commit into it
// directly.
type InMemoryAPIStore struct {
	mu   sync.RWMutex
	apis map[string]*entry
}

// NewInMemoryAPIStore creates a store holding copies of apis.
func NewInMemoryAPIStore(apis ...*api.API) *InMemoryAPIStore {
	s := &InMemoryAPIStore{apis: make(map[string]*entry)}
	for _, a := range apis {
		if a != nil {
			s.apis[a.ID] = &entry{api: stripped(a), revision: 1}
		}
	}
	return s
}

func etagOf(revision int) string {
	return fmt.Sprintf(`"%d"`, revision)
}

func stripped(a *api.API) *api.API {
	cp := a.Clone()
	cp.ETag = ""
	return cp
}

func (e *entry) out() *api.API {
	cp := e.api.Clone()
	cp.ETag = etagOf(e.revision)
	return cp
}

// Get retrieves a definition by ID.
func (s *InMemoryAPIStore) Get(id string) (*api.API, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.apis[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.out(), nil
}

// Put stores or updates a definition.
func (s *InMemoryAPIStore) Put(a *api.API) (*api.API, error) {
	if a == nil || a.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.apis[a.ID]
	if a.ETag != "" {
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, a.ID)
		}
		if a.ETag != etagOf(e.revision) {
			return nil, ErrConflict
		}
	}
	if !exists {
		e = &entry{}
		s.apis[a.ID] = e
	}
	e.api = stripped(a)
	e.revision++
	return e.out(), nil
}

// UpdateAPI stores a in the shape of session.Persister. Unlike Put it never
// creates a definition.
func (s *InMemoryAPIStore) UpdateAPI(_ context.Context, a *api.API) (*api.API, string, error) {
	if !s.Exists(a.ID) {
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, a.ID)
	}
	updated, err := s.Put(a)
	if err != nil {
		return nil, "", err
	}
	return updated, updated.ETag, nil
}

// Touch bumps the revision of a definition without changing it, the way an
// unrelated edit by someone else would.
func (s *InMemoryAPIStore) Touch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.apis[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.revision++
	return nil
}

// Delete removes a definition by ID.
func (s *InMemoryAPIStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apis[id]; exists {
		delete(s.apis, id)
		return true
	}
	return false
}

// Exists checks if a definition with the given ID exists.
func (s *InMemoryAPIStore) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.apis[id]
	return ok
}

// List returns all stored definitions ordered by ID.
func (s *InMemoryAPIStore) List() []*api.API {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*api.API, 0, len(s.apis))
	for _, e := range s.apis {
		result = append(result, e.out())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Count returns the number of stored definitions.
func (s *InMemoryAPIStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.apis)
}
