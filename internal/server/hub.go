package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Tyrowin/roomchat/internal/connection"
	"github.com/Tyrowin/roomchat/internal/event"
)

// Events receives everything the transport observes. The event dispatch hub
// implements it.
type Events interface {
	ConnectionOpened(conn connection.Conn)
	ConnectionClosed(connectionID string, reason event.CloseReason)
	TextFrame(connectionID string, text []byte)
}

// Hub manages the WebSocket clients. Registration and removal go through
// the Run loop; lookups take the read lock.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}

	events  Events
	config  Config
	origins *originPolicy
	log     *slog.Logger
}

// NewHub returns a hub reporting to events. Run must be started before
// clients can register.
func NewHub(cfg Config, events Events, log *slog.Logger) *Hub {
	cfg = sanitizeConfig(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		events:     events,
		config:     cfg,
		origins:    newOriginPolicy(cfg.AllowedOrigins, log),
		log:        log,
	}
}

// Run is the hub's main loop. It returns once Shutdown is called and every
// client connection has been closed.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.id] = client
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Info("Client registered", "connection_id", client.id, "addr", client.addr, "total", total)

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			client.markClosed()
			h.mutex.Lock()
			_, ok := h.clients[client.id]
			delete(h.clients, client.id)
			total := len(h.clients)
			h.mutex.Unlock()
			if ok {
				h.log.Info("Client unregistered", "connection_id", client.id, "addr", client.addr, "total", total)
			}
		}
	}
}

// Register hands a new client to the Run loop. It returns false when the hub
// is shutting down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.markClosed()
	}
}

// Client returns the registered client with the given connection ID.
func (h *Hub) Client(id string) (*Client, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	c, ok := h.clients[id]
	return c, ok
}

// Len returns the number of registered clients.
func (h *Hub) Len() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdownClients() {
	h.mutex.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.RUnlock()

	for _, client := range clients {
		client.closeConn()
	}
	h.log.Info("Closed client connections", "total", len(clients))
}

// Shutdown stops the Run loop, closes every client connection and waits for
// the client goroutines to finish or ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.log.Info("Initiating hub shutdown")
	h.cancel()

	select {
	case <-h.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		h.log.Info("Hub shutdown completed")
		return nil
	case <-ctx.Done():
		h.log.Warn("Hub shutdown timed out, some client goroutines are still running")
		return ctx.Err()
	}
}
