// Package store holds the in-memory storage shared by every registry whose
// entries are subordinate to a live connection.
package store

import (
	"log/slog"
	"slices"
	"sync"
)

// SessionLookup answers whether a connection ID is still live.
type SessionLookup interface {
	Contains(id string) bool
}

// SessionGated is a concurrent map keyed by connection ID. Every keyed
// operation first checks the connection registry; when the connection is
// gone the operation is logged and has no effect. This keeps a close racing
// an in-flight request from leaving orphaned entries behind.
type SessionGated[T any] struct {
	mu       sync.RWMutex
	entries  map[string]T
	sessions SessionLookup
	keyOf    func(T) string
	name     string
	log      *slog.Logger
}

// NewSessionGated builds a store for entities called name. keyOf extracts
// the owning connection ID from an entity.
func NewSessionGated[T any](name string, sessions SessionLookup, keyOf func(T) string, log *slog.Logger) *SessionGated[T] {
	return &SessionGated[T]{
		entries:  make(map[string]T),
		sessions: sessions,
		keyOf:    keyOf,
		name:     name,
		log:      log,
	}
}

// Add stores entity unless its connection is gone or an entry already
// exists for it. It reports whether the entity was stored.
func (s *SessionGated[T]) Add(entity T) bool {
	id := s.keyOf(entity)
	if s.sessionOmitted(id) {
		return false
	}

	s.mu.Lock()
	if _, exists := s.entries[id]; exists {
		s.mu.Unlock()
		return false
	}
	s.entries[id] = entity
	s.mu.Unlock()

	s.log.Info("Stored "+s.name, "connection_id", id)
	return true
}

// Update replaces the entry for id with the result of fn. fn runs under the
// store lock and receives the current entity; returning false aborts.
func (s *SessionGated[T]) Update(id string, fn func(T) (T, bool)) bool {
	if s.sessionOmitted(id) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.entries[id]
	if !exists {
		return false
	}
	next, ok := fn(current)
	if !ok {
		return false
	}
	s.entries[id] = next
	return true
}

// Remove deletes the entry for id and reports whether one existed.
func (s *SessionGated[T]) Remove(id string) bool {
	if s.sessionOmitted(id) {
		return false
	}

	s.mu.Lock()
	if _, exists := s.entries[id]; !exists {
		s.mu.Unlock()
		return false
	}
	delete(s.entries, id)
	s.mu.Unlock()

	s.log.Info("Removed "+s.name, "connection_id", id)
	return true
}

// Contains reports whether an entry exists for a live connection id.
func (s *SessionGated[T]) Contains(id string) bool {
	if s.sessionOmitted(id) {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[id]
	return ok
}

// Get returns the entry for a live connection id.
func (s *SessionGated[T]) Get(id string) (T, bool) {
	var zero T
	if s.sessionOmitted(id) {
		return zero, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entity, ok := s.entries[id]
	if !ok {
		return zero, false
	}
	return entity, true
}

// List returns a snapshot of every entry ordered by connection ID.
func (s *SessionGated[T]) List() []T {
	s.mu.RLock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.entries[id])
	}
	s.mu.RUnlock()
	return out
}

// Len returns the number of stored entries.
func (s *SessionGated[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *SessionGated[T]) sessionOmitted(id string) bool {
	if s.sessions.Contains(id) {
		return false
	}
	s.log.Warn(s.name+" requires a live connection", "connection_id", id)
	return true
}
