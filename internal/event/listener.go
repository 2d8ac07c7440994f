// Package event is the dispatch hub between the transport and the chat
// services. Listeners declare what they care about by implementing one or
// more of the capability interfaces below; the hub fans every event out to
// the listeners that implement the matching capability.
package event

import (
	"fmt"

	"github.com/Tyrowin/roomchat/internal/connection"
	"github.com/Tyrowin/roomchat/internal/protocol"
)

// Listener is any value registered with the hub. It must be comparable so it
// can be unregistered later; pointers are the usual choice.
type Listener any

// ConnectionOpenListener is notified when the transport accepts a connection.
type ConnectionOpenListener interface {
	OnConnectionOpen(conn connection.Conn) error
}

// ConnectionCloseListener is notified when a connection goes away.
type ConnectionCloseListener interface {
	OnConnectionClose(connectionID string, reason CloseReason) error
}

// TextFrameListener receives every raw inbound text frame.
type TextFrameListener interface {
	OnTextFrame(connectionID string, text []byte) error
}

// MessageListener receives inbound frames once they have been decoded.
type MessageListener interface {
	OnMessage(connectionID string, msg protocol.Message) error
}

// CloseReason describes why a connection closed.
type CloseReason struct {
	Code int
	Text string
}

func (r CloseReason) String() string {
	if r.Text == "" {
		return fmt.Sprintf("code %d", r.Code)
	}
	return fmt.Sprintf("code %d: %s", r.Code, r.Text)
}

// Kind names an event for logging.
type Kind string

const (
	KindConnectionOpen  Kind = "connection_open"
	KindConnectionClose Kind = "connection_close"
	KindTextFrame       Kind = "text_frame"
	KindMessage         Kind = "message"
)
