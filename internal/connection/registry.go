package connection

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Registry indexes live connections by ID. Every operation is idempotent:
// adding a known ID or removing an unknown one is a no-op.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
	log   *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		conns: make(map[string]Conn),
		log:   log,
	}
}

// Add stores conn under its ID unless that ID is already present.
func (r *Registry) Add(conn Conn) {
	if conn == nil {
		return
	}
	id := conn.ID()

	r.mu.Lock()
	if _, exists := r.conns[id]; exists {
		r.mu.Unlock()
		return
	}
	r.conns[id] = conn
	total := len(r.conns)
	r.mu.Unlock()

	r.log.Info("Stored connection", "connection_id", id, "total", total)
}

// Remove forgets the connection with the given ID.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	if _, exists := r.conns[id]; !exists {
		r.mu.Unlock()
		return
	}
	delete(r.conns, id)
	total := len(r.conns)
	r.mu.Unlock()

	r.log.Info("Removed connection", "connection_id", id, "total", total)
}

// Contains reports whether id is a live connection.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[id]
	return ok
}

// Get returns the connection stored under id.
func (r *Registry) Get(id string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

// List returns a snapshot of every live connection ordered by ID.
func (r *Registry) List() []Conn {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	slices.SortFunc(conns, func(a, b Conn) int { return strings.Compare(a.ID(), b.ID()) })
	return conns
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
