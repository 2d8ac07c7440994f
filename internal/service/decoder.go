package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/Tyrowin/roomchat/internal/connection"
	"github.com/Tyrowin/roomchat/internal/protocol"
)

// Decoder turns raw text frames into decoded message events. Frames that
// cannot be decoded are answered with an error envelope and go no further.
type Decoder struct {
	conns    *connection.Registry
	dispatch Dispatcher
	out      Sender
	now      func() time.Time
	log      *slog.Logger
}

// NewDecoder returns a decoder that hands valid messages to dispatcher.
func NewDecoder(deps Deps, dispatcher Dispatcher) *Decoder {
	return &Decoder{
		conns:    deps.Connections,
		dispatch: dispatcher,
		out:      deps.Sender,
		now:      deps.clock(),
		log:      deps.Log,
	}
}

// OnTextFrame decodes a frame from a live connection and dispatches it,
// answering undecodable or unroutable frames with an error envelope.
func (d *Decoder) OnTextFrame(connectionID string, text []byte) error {
	if !d.conns.Contains(connectionID) {
		d.log.Debug("Frame from unknown connection ignored", "connection_id", connectionID)
		return nil
	}

	msg, err := protocol.Decode(text)
	if err != nil {
		reason := protocol.MsgInvalidPayload
		if errors.Is(err, protocol.ErrMissingKind) {
			reason = protocol.MsgMissingKind
		}
		d.log.Warn("Rejected inbound frame", "connection_id", connectionID, "error", err)
		reject(d.out, d.now, connectionID, reason)
		return nil
	}

	if !protocol.IsAuthKind(msg.Kind) && !protocol.IsRoomKind(msg.Kind) {
		d.log.Warn("Unknown message kind", "connection_id", connectionID, "kind", msg.Kind)
		reject(d.out, d.now, connectionID, protocol.MsgUnknownKind)
		return nil
	}

	d.log.Debug("Decoded message", "connection_id", connectionID, "kind", msg.Kind)
	d.dispatch.Message(connectionID, msg)
	return nil
}
