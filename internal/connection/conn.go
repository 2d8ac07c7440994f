//go:generate go run go.uber.org/mock/mockgen -source=conn.go -destination=../mocks/mock_conn.go -package=mocks

// Package connection tracks the live transport connections of the chat
// backend. The registry only ever holds references: the transport layer owns
// the lifecycle of every Conn it hands over.
package connection

import "errors"

var (
	// ErrConnectionClosed is returned by SendText once the transport side of
	// the connection has gone away.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrSendBufferFull is returned by SendText when the outbound buffer of
	// the connection cannot take another frame right now.
	ErrSendBufferFull = errors.New("connection send buffer full")
)

// Conn is a single live bidirectional endpoint as seen by the core.
type Conn interface {
	// ID returns the opaque identifier assigned by the transport.
	ID() string
	// SendText queues one encoded text frame for the remote peer.
	SendText(payload []byte) error
}
