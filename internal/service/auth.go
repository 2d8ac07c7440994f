package service

import (
	"log/slog"
	"time"

	"github.com/Tyrowin/roomchat/internal/connection"
	"github.com/Tyrowin/roomchat/internal/event"
	"github.com/Tyrowin/roomchat/internal/identity"
	"github.com/Tyrowin/roomchat/internal/protocol"
)

// AuthService owns the connection lifecycle and moves each connection from
// IN_PROGRESS to SUCCESS once it registers a username.
type AuthService struct {
	conns      *connection.Registry
	identities *identity.Registry
	auths      *identity.AuthRegistry
	out        Sender
	now        func() time.Time
	log        *slog.Logger
}

// NewAuthService returns the auth state machine over deps.
func NewAuthService(deps Deps) *AuthService {
	return &AuthService{
		conns:      deps.Connections,
		identities: deps.Identities,
		auths:      deps.Auths,
		out:        deps.Sender,
		now:        deps.clock(),
		log:        deps.Log,
	}
}

// OnConnectionOpen registers the connection, starts its auth record and asks
// the client for a username.
func (s *AuthService) OnConnectionOpen(conn connection.Conn) error {
	id := conn.ID()
	s.conns.Add(conn)
	s.auths.Begin(id)
	s.out.SendMessage(id, protocol.NewUsernameRequest(id))
	return nil
}

// OnConnectionClose removes everything bound to the connection, the
// connection itself last.
func (s *AuthService) OnConnectionClose(connectionID string, reason event.CloseReason) error {
	s.identities.Remove(connectionID)
	s.auths.Remove(connectionID)
	s.conns.Remove(connectionID)
	s.log.Info("Connection closed", "connection_id", connectionID, "reason", reason.String())
	return nil
}

// OnMessage handles Auth# messages, moving the connection to Success on a
// valid createUser request.
func (s *AuthService) OnMessage(connectionID string, msg protocol.Message) error {
	if !protocol.IsAuthKind(msg.Kind) {
		return nil
	}

	record, ok := s.auths.Get(connectionID)
	if !ok {
		return nil
	}
	if msg.Kind != protocol.KindCreateUser {
		reject(s.out, s.now, connectionID, protocol.MsgUnknownKind)
		return nil
	}
	if record.State == identity.Success {
		reject(s.out, s.now, connectionID, protocol.MsgAlreadyAuthed)
		return nil
	}

	req := msg.CreateUser()
	if req.ConnectionID != connectionID {
		s.log.Warn("Username registration for another connection",
			"connection_id", connectionID, "declared", req.ConnectionID)
		reject(s.out, s.now, connectionID, protocol.MsgInvalidSession)
		return nil
	}
	if err := protocol.Validate(req); err != nil {
		reject(s.out, s.now, connectionID, protocol.MsgInvalidUsername)
		return nil
	}

	user := identity.Identity{ConnectionID: connectionID, DisplayName: req.Username, JoinedAt: s.now()}
	// The identity goes in before the state flips so that an authenticated
	// connection always has a profile.
	if !s.identities.Add(user) {
		return nil
	}
	if !s.auths.MarkSuccess(connectionID) {
		return nil
	}

	s.log.Info("User authenticated", "connection_id", connectionID, "name", user.DisplayName)
	s.out.SendMessage(connectionID,
		protocol.NewAuthUserResponse(protocol.NewUser(connectionID, user.DisplayName, user.JoinedAt)))
	return nil
}
