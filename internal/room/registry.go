package room

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Registry indexes rooms by ID and by name. Names are unique and case
// sensitive; the first creator of a name wins.
type Registry struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*Room
	byName map[string]uuid.UUID
	now    func() time.Time
	log    *slog.Logger
}

// Option customises a Registry.
type Option func(*Registry)

// WithClock overrides the time source used to stamp new rooms.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry returns an empty room registry.
func NewRegistry(log *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		byID:   make(map[uuid.UUID]*Room),
		byName: make(map[string]uuid.UUID),
		now:    time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create allocates a new empty room called name.
func (r *Registry) Create(name string) (*Room, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyRoomName
	}

	r.mu.Lock()
	if _, taken := r.byName[name]; taken {
		r.mu.Unlock()
		return nil, ErrRoomExists
	}
	room := newRoom(uuid.New(), name, r.now())
	r.byID[room.ID] = room
	r.byName[name] = room.ID
	r.mu.Unlock()

	r.log.Info("Room created", "room_id", room.ID, "room", name)
	return room, nil
}

// Add stores an existing room unless its ID or name is already taken.
func (r *Registry) Add(room *Room) bool {
	if room == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[room.ID]; exists {
		return false
	}
	if _, taken := r.byName[room.Name]; taken {
		return false
	}
	r.byID[room.ID] = room
	r.byName[room.Name] = room.ID
	return true
}

// Remove deletes the room with the given ID.
func (r *Registry) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	room, exists := r.byID[id]
	if !exists {
		r.mu.Unlock()
		return false
	}
	delete(r.byID, id)
	if r.byName[room.Name] == id {
		delete(r.byName, room.Name)
	}
	r.mu.Unlock()

	r.log.Info("Room removed", "room_id", id, "room", room.Name)
	return true
}

// Contains reports whether a room with the given ID exists.
func (r *Registry) Contains(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

// Get returns the room with the given ID.
func (r *Registry) Get(id uuid.UUID) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.byID[id]
	return room, ok
}

// FindByName returns the room called name.
func (r *Registry) FindByName(name string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.byID[id], true
}

// List returns every room ordered by creation time.
func (r *Registry) List() []*Room {
	r.mu.RLock()
	rooms := lo.Values(r.byID)
	r.mu.RUnlock()

	slices.SortFunc(rooms, func(a, b *Room) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return rooms
}

// Len returns the number of rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Join adds connectionID to the room and returns the room together with its
// members after the addition.
func (r *Registry) Join(id uuid.UUID, connectionID string) (*Room, []string, error) {
	room, ok := r.Get(id)
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	members, err := room.join(connectionID)
	if err != nil {
		return nil, nil, err
	}
	return room, members, nil
}

// LeaveResult describes a completed leave.
type LeaveResult struct {
	Room *Room
	// Members holds the membership before the removal, the leaver included.
	Members []string
	// Deleted is set when the room became empty and was removed.
	Deleted bool
}

// Leave removes connectionID from the room. A room left empty is deleted
// from the registry within the same call.
func (r *Registry) Leave(id uuid.UUID, connectionID string) (LeaveResult, error) {
	room, ok := r.Get(id)
	if !ok {
		return LeaveResult{}, ErrRoomNotFound
	}
	before, empty, err := room.leave(connectionID)
	if err != nil {
		return LeaveResult{}, err
	}
	if empty {
		r.Remove(id)
	}
	return LeaveResult{Room: room, Members: before, Deleted: empty}, nil
}

// Purge removes connectionID from every room it belongs to.
func (r *Registry) Purge(connectionID string) []LeaveResult {
	joined := lo.Filter(r.List(), func(room *Room, _ int) bool {
		return room.HasMember(connectionID)
	})

	results := make([]LeaveResult, 0, len(joined))
	for _, room := range joined {
		res, err := r.Leave(room.ID, connectionID)
		if err != nil {
			continue
		}
		results = append(results, res)
	}
	return results
}
