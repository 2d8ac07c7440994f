// Package room keeps the chat rooms of the process: their unique names and
// ordered member sets. Each room carries its own lock so traffic in one room
// never contends with another.
package room

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRoomExists    = errors.New("room already exists")
	ErrRoomNotFound  = errors.New("room does not exist")
	ErrEmptyRoomName = errors.New("room name is empty")
)

// Room is a named broadcast group of connections.
type Room struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time

	mu      sync.RWMutex
	members []string
	closed  bool
}

func newRoom(id uuid.UUID, name string, createdAt time.Time) *Room {
	return &Room{ID: id, Name: name, CreatedAt: createdAt}
}

// Members returns the member connection IDs in join order.
func (r *Room) Members() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.members)
}

// HasMember reports whether connectionID is in the room.
func (r *Room) HasMember(connectionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.members, connectionID)
}

// Len returns the number of members.
func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// join appends connectionID and returns the members afterwards. A room that
// was emptied and closed cannot be joined again.
func (r *Room) join(connectionID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRoomNotFound
	}
	if !slices.Contains(r.members, connectionID) {
		r.members = append(r.members, connectionID)
	}
	return slices.Clone(r.members), nil
}

// leave removes connectionID if present. It returns the members as they were
// before the removal and whether the room is now empty, in which case it is
// closed.
func (r *Room) leave(connectionID string) ([]string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, false, ErrRoomNotFound
	}
	before := slices.Clone(r.members)
	if idx := slices.Index(r.members, connectionID); idx >= 0 {
		r.members = slices.Delete(r.members, idx, idx+1)
	}
	if len(r.members) == 0 {
		r.closed = true
	}
	return before, r.closed, nil
}
