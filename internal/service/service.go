// Package service holds the chat protocol logic: decoding inbound frames,
// the authentication flow and the room lifecycle. Each service is an
// event listener; Attach registers them with the dispatch hub.
package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Tyrowin/roomchat/internal/connection"
	"github.com/Tyrowin/roomchat/internal/event"
	"github.com/Tyrowin/roomchat/internal/identity"
	"github.com/Tyrowin/roomchat/internal/protocol"
	"github.com/Tyrowin/roomchat/internal/room"
)

// Sender hands an outbound message to the delivery layer without blocking.
type Sender interface {
	SendMessage(connectionID string, message any)
}

// Dispatcher raises decoded-message events.
type Dispatcher interface {
	Message(connectionID string, msg protocol.Message)
}

// Deps are the shared registries and collaborators the services work on.
type Deps struct {
	Connections *connection.Registry
	Identities  *identity.Registry
	Auths       *identity.AuthRegistry
	Rooms       *room.Registry
	Sender      Sender
	// Now defaults to time.Now.
	Now func() time.Time
	Log *slog.Logger
}

func (d Deps) clock() func() time.Time {
	if d.Now != nil {
		return d.Now
	}
	return time.Now
}

// Services groups the protocol listeners.
type Services struct {
	Decoder *Decoder
	Auth    *AuthService
	Rooms   *RoomService
}

// New builds every service on deps. Decoded messages are raised on
// dispatcher, normally the same hub the services are attached to.
func New(deps Deps, dispatcher Dispatcher) *Services {
	return &Services{
		Decoder: NewDecoder(deps, dispatcher),
		Auth:    NewAuthService(deps),
		Rooms:   NewRoomService(deps),
	}
}

// Attach registers the services with hub. The room service comes before the
// auth service so that on close a user leaves its rooms while its identity
// still exists.
func (s *Services) Attach(hub *event.Hub) error {
	for _, l := range []event.Listener{s.Decoder, s.Rooms, s.Auth} {
		if err := hub.Register(l); err != nil {
			return fmt.Errorf("register %T: %w", l, err)
		}
	}
	return nil
}

// Detach removes the services from hub.
func (s *Services) Detach(hub *event.Hub) {
	hub.Unregister(s.Auth)
	hub.Unregister(s.Rooms)
	hub.Unregister(s.Decoder)
}

func reject(out Sender, now func() time.Time, connectionID, message string) {
	out.SendMessage(connectionID, protocol.NewError(connectionID, message, now()))
}
