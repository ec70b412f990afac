package session

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/getmockd/apictl/pkg/api"
)

// Session edits one item of a list-backed container.
//
// The target of an existing item is the item inside the API itself, so edits
// are visible in API() immediately. Snapshots are always deep copies.
type Session[T Item[T]] struct {
	mu         sync.Mutex
	committing atomic.Bool
	opts       options

	binding  Binding[T]
	agg      *api.API
	key      string
	creation bool

	target   T
	snapshot T
	siblings []T
	dups     []string
}

// Open starts a session on the item keyed key in the container b locates in
// a. When no item matches, the target is a deep copy of defaults and the
// session is in creation mode. Open never mutates a.
func Open[T Item[T]](a *api.API, b Binding[T], key string, defaults T, opts ...Option) (*Session[T], error) {
	if a == nil {
		return nil, ErrNilAPI
	}
	items, err := b.Items(a)
	if err != nil {
		return nil, err
	}

	s := &Session[T]{
		opts:    buildOptions(opts),
		binding: b,
		agg:     a,
		key:     key,
	}

	ix := NewIndex(items)
	s.dups = ix.Duplicates()
	if len(s.dups) > 0 {
		s.opts.log.Warn("duplicate keys in container, first match wins",
			"container", b.Name, "keys", s.dups)
	}

	if found, ok := ix.Get(key); ok {
		s.target = found
	} else {
		s.target = defaults.Clone()
		s.creation = true
	}
	s.snapshot = s.target.Clone()
	s.siblings = api.CloneAll(items)

	s.opts.log.Debug("session opened",
		"container", b.Name, "key", key, "creation", s.creation)
	return s, nil
}

// Target returns the item being edited.
func (s *Session[T]) Target() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Snapshot returns a copy of the state Revert would restore.
func (s *Session[T]) Snapshot() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// IsCreation reports whether the item did not exist when the session opened
// and has not been committed since.
func (s *Session[T]) IsCreation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creation
}

// Key returns the key the session resolves the item by.
func (s *Session[T]) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// API returns the aggregate the session edits. After a commit this is the
// definition returned by the Persister.
func (s *Session[T]) API() *api.API {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agg
}

// ETag returns the concurrency token of the current aggregate.
func (s *Session[T]) ETag() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agg.ETag
}

// Duplicates returns keys that occurred more than once in the container when
// the session opened.
func (s *Session[T]) Duplicates() []string {
	return slices.Clone(s.dups)
}

// Commit persists the API with the edited item in its container.
//
// A target missing from the container (by identity) is appended before the
// Persister runs and stays there if the call fails. Persist errors are
// returned as is. On success the session adopts the returned API, re-points
// the target into it, refreshes both snapshots and publishes an
// api.changed event.
func (s *Session[T]) Commit(ctx context.Context, p Persister) (*api.API, error) {
	if p == nil {
		return nil, ErrNoPersister
	}
	if !s.committing.CompareAndSwap(false, true) {
		return nil, ErrCommitInProgress
	}
	defer s.committing.Store(false)

	agg, err := s.insertTarget()
	if err != nil {
		return nil, err
	}

	updated, etag, err := p.UpdateAPI(ctx, agg)
	if err != nil {
		s.opts.log.Warn("persist failed", "container", s.binding.Name, "key", s.Key(), "error", err)
		return nil, err
	}
	if updated == nil {
		updated = agg
	}
	if etag != "" {
		updated.ETag = etag
	}

	s.adopt(updated)
	s.opts.log.Debug("session committed", "container", s.binding.Name, "key", s.Key(), "etag", updated.ETag)
	s.opts.publish(updated)
	return updated, nil
}

func (s *Session[T]) insertTarget() (*api.API, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creation && s.target.Key() == "" && s.key != "" && s.binding.AssignKey != nil {
		s.binding.AssignKey(s.target, s.key)
	}

	items, err := s.binding.Items(s.agg)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(items, s.target) {
		if err := s.binding.SetItems(s.agg, append(items, s.target)); err != nil {
			return nil, err
		}
	}
	return s.agg, nil
}

func (s *Session[T]) adopt(updated *api.API) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.agg = updated
	s.key = s.target.Key()
	s.creation = false

	items, err := s.binding.Items(updated)
	if err != nil {
		s.opts.log.Warn("committed API lacks container", "container", s.binding.Name, "error", err)
	} else {
		if found, ok := NewIndex(items).Get(s.key); ok {
			s.target = found
		}
		s.siblings = api.CloneAll(items)
	}
	s.snapshot = s.target.Clone()
}

// Revert discards edits: the container list is restored from the sibling
// snapshot and the target from the item snapshot.
func (s *Session[T]) Revert() error {
	if s.committing.Load() {
		return ErrCommitInProgress
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restored := api.CloneAll(s.siblings)
	if err := s.binding.SetItems(s.agg, restored); err != nil {
		return err
	}

	s.target = s.snapshot.Clone()
	if !s.creation {
		if found, ok := NewIndex(restored).Get(s.key); ok {
			s.target = found
		}
	}
	s.opts.log.Debug("session reverted", "container", s.binding.Name, "key", s.key)
	return nil
}
