package event

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Tyrowin/roomchat/internal/connection"
	"github.com/Tyrowin/roomchat/internal/protocol"
)

var (
	ErrHubClosed             = errors.New("event hub closed")
	ErrListenerNotComparable = errors.New("listener is not comparable")
	ErrListenerPanic         = errors.New("listener panicked")
)

// Hub fans events out to registered listeners in registration order.
//
// The listener list is copy-on-write: Register and Unregister publish a new
// slice and every dispatch iterates the snapshot it loaded, so listeners may
// (un)register from any goroutine, including from inside a callback.
// A listener that returns an error or panics is logged and skipped; the
// remaining listeners still run.
type Hub struct {
	mu        sync.Mutex
	listeners atomic.Pointer[[]Listener]
	closed    atomic.Bool
	log       *slog.Logger
}

// NewHub returns an empty hub.
func NewHub(log *slog.Logger) *Hub {
	h := &Hub{log: log}
	empty := []Listener{}
	h.listeners.Store(&empty)
	return h
}

// Register appends l to the listener list.
func (h *Hub) Register(l Listener) error {
	if l == nil || !reflect.TypeOf(l).Comparable() {
		return ErrListenerNotComparable
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed.Load() {
		return ErrHubClosed
	}
	current := *h.listeners.Load()
	next := make([]Listener, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, l)
	h.listeners.Store(&next)

	h.log.Debug("Listener registered", "listener", fmt.Sprintf("%T", l), "total", len(next))
	return nil
}

// Unregister removes the first occurrence of l. Unknown listeners are ignored.
func (h *Hub) Unregister(l Listener) {
	if l == nil || !reflect.TypeOf(l).Comparable() {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	current := *h.listeners.Load()
	idx := slices.Index(current, l)
	if idx < 0 {
		return
	}
	next := slices.Concat(current[:idx], current[idx+1:])
	h.listeners.Store(&next)

	h.log.Debug("Listener unregistered", "listener", fmt.Sprintf("%T", l), "total", len(next))
}

// Close stops accepting registrations. Listeners already registered keep
// receiving events until the transport stops producing them.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed.Store(true)
}

// Len returns the number of registered listeners.
func (h *Hub) Len() int {
	return len(*h.listeners.Load())
}

// ConnectionOpened notifies every ConnectionOpenListener.
func (h *Hub) ConnectionOpened(conn connection.Conn) {
	dispatch(h, KindConnectionOpen, conn.ID(), func(l ConnectionOpenListener) error {
		return l.OnConnectionOpen(conn)
	})
}

// ConnectionClosed notifies every ConnectionCloseListener.
func (h *Hub) ConnectionClosed(connectionID string, reason CloseReason) {
	dispatch(h, KindConnectionClose, connectionID, func(l ConnectionCloseListener) error {
		return l.OnConnectionClose(connectionID, reason)
	})
}

// TextFrame notifies every TextFrameListener.
func (h *Hub) TextFrame(connectionID string, text []byte) {
	dispatch(h, KindTextFrame, connectionID, func(l TextFrameListener) error {
		return l.OnTextFrame(connectionID, text)
	})
}

// Message notifies every MessageListener.
func (h *Hub) Message(connectionID string, msg protocol.Message) {
	dispatch(h, KindMessage, connectionID, func(l MessageListener) error {
		return l.OnMessage(connectionID, msg)
	})
}

func dispatch[L any](h *Hub, kind Kind, connectionID string, call func(L) error) {
	for _, registered := range *h.listeners.Load() {
		l, ok := registered.(L)
		if !ok {
			continue
		}
		if err := invoke(l, call); err != nil {
			h.log.Error("Listener failed",
				"kind", kind,
				"connection_id", connectionID,
				"listener", fmt.Sprintf("%T", registered),
				"error", err)
		}
	}
}

func invoke[L any](l L, call func(L) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrListenerPanic, r)
		}
	}()
	return call(l)
}
