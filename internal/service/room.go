package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Tyrowin/roomchat/internal/event"
	"github.com/Tyrowin/roomchat/internal/identity"
	"github.com/Tyrowin/roomchat/internal/protocol"
	"github.com/Tyrowin/roomchat/internal/room"
)

// RoomService runs the room commands of authenticated connections.
type RoomService struct {
	rooms      *room.Registry
	identities *identity.Registry
	auths      *identity.AuthRegistry
	out        Sender
	now        func() time.Time
	log        *slog.Logger
}

// NewRoomService returns the room state machine over deps.
func NewRoomService(deps Deps) *RoomService {
	return &RoomService{
		rooms:      deps.Rooms,
		identities: deps.Identities,
		auths:      deps.Auths,
		out:        deps.Sender,
		now:        deps.clock(),
		log:        deps.Log,
	}
}

// OnMessage handles Room# messages from authenticated connections.
func (s *RoomService) OnMessage(connectionID string, msg protocol.Message) error {
	if !protocol.IsRoomKind(msg.Kind) {
		return nil
	}

	state, ok := s.auths.State(connectionID)
	if !ok {
		return nil
	}
	if state != identity.Success {
		s.log.Warn("Unauthenticated room access", "connection_id", connectionID, "kind", msg.Kind)
		s.reject(connectionID, protocol.MsgUnauthenticated)
		return nil
	}
	user, ok := s.identities.Get(connectionID)
	if !ok {
		return nil
	}

	switch msg.Kind {
	case protocol.KindFetchRooms:
		s.fetchRooms(connectionID)
	case protocol.KindCreateRoom:
		s.createRoom(connectionID, msg.CreateRoom())
	case protocol.KindJoin:
		s.join(user, msg.Room())
	case protocol.KindLeave:
		s.leave(user, msg.Room())
	case protocol.KindSendChat:
		s.sendChat(user, msg.SendChat())
	default:
		s.reject(connectionID, protocol.MsgUnknownRoomCommand)
	}
	return nil
}

// OnConnectionClose takes the connection out of every room it joined and
// tells the remaining members.
func (s *RoomService) OnConnectionClose(connectionID string, _ event.CloseReason) error {
	user, ok := s.identities.Get(connectionID)
	for _, res := range s.rooms.Purge(connectionID) {
		if res.Deleted {
			s.log.Info("Room removed", "room_id", res.Room.ID.String(), "room", res.Room.Name)
		}
		if !ok {
			continue
		}
		s.broadcast(lo.Without(res.Members, connectionID),
			protocol.NewRoomEvent(protocol.KindLeave, res.Room.ID.String(), view(user), s.now()))
	}
	return nil
}

func (s *RoomService) fetchRooms(connectionID string) {
	summaries := lo.Map(s.rooms.List(), func(r *room.Room, _ int) protocol.RoomSummary {
		return summary(r)
	})
	s.out.SendMessage(connectionID, protocol.NewFetchRoomsResponse(connectionID, summaries))
}

func (s *RoomService) createRoom(connectionID string, req protocol.CreateRoomRequest) {
	if err := protocol.Validate(req); err != nil {
		s.reject(connectionID, protocol.MsgInvalidRoomRequest)
		return
	}
	created, err := s.rooms.Create(req.Name)
	if err != nil {
		s.fail(connectionID, err)
		return
	}
	s.out.SendMessage(connectionID, protocol.NewCreateRoomResponse(summary(created)))
}

func (s *RoomService) join(user identity.Identity, req protocol.RoomRequest) {
	id, ok := s.roomID(user.ConnectionID, req)
	if !ok {
		return
	}
	_, members, err := s.rooms.Join(id, user.ConnectionID)
	if err != nil {
		s.fail(user.ConnectionID, err)
		return
	}
	s.broadcast(members, protocol.NewRoomEvent(protocol.KindJoin, id.String(), view(user), s.now()))
}

func (s *RoomService) leave(user identity.Identity, req protocol.RoomRequest) {
	id, ok := s.roomID(user.ConnectionID, req)
	if !ok {
		return
	}
	res, err := s.rooms.Leave(id, user.ConnectionID)
	if err != nil {
		s.fail(user.ConnectionID, err)
		return
	}
	s.broadcast(res.Members, protocol.NewRoomEvent(protocol.KindLeave, id.String(), view(user), s.now()))
	if res.Deleted {
		s.log.Info("Room removed", "room_id", id.String(), "room", res.Room.Name)
	}
}

func (s *RoomService) sendChat(user identity.Identity, req protocol.SendChatRequest) {
	if err := protocol.Validate(req); err != nil {
		s.reject(user.ConnectionID, protocol.MsgInvalidRoomRequest)
		return
	}
	id, ok := s.roomID(user.ConnectionID, protocol.RoomRequest{RoomID: req.RoomID})
	if !ok {
		return
	}
	target, ok := s.rooms.Get(id)
	if !ok {
		s.reject(user.ConnectionID, protocol.MsgRoomNotFound)
		return
	}
	msg := protocol.NewRoomEvent(protocol.KindSendChat, id.String(), view(user), s.now())
	msg.Content = req.Content
	s.broadcast(target.Members(), msg)
}

func (s *RoomService) roomID(connectionID string, req protocol.RoomRequest) (uuid.UUID, bool) {
	if err := protocol.Validate(req); err != nil {
		s.reject(connectionID, protocol.MsgInvalidRoomRequest)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.RoomID)
	if err != nil {
		s.reject(connectionID, protocol.MsgInvalidRoomRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (s *RoomService) broadcast(members []string, message any) {
	for _, member := range members {
		s.out.SendMessage(member, message)
	}
}

func (s *RoomService) fail(connectionID string, err error) {
	switch {
	case errors.Is(err, room.ErrRoomExists):
		s.reject(connectionID, protocol.MsgRoomExists)
	case errors.Is(err, room.ErrRoomNotFound):
		s.reject(connectionID, protocol.MsgRoomNotFound)
	default:
		s.reject(connectionID, protocol.MsgInvalidRoomRequest)
	}
}

func (s *RoomService) reject(connectionID, message string) {
	reject(s.out, s.now, connectionID, message)
}

func summary(r *room.Room) protocol.RoomSummary {
	return protocol.RoomSummary{RoomID: r.ID.String(), Name: r.Name}
}

func view(user identity.Identity) protocol.User {
	return protocol.NewUser(user.ConnectionID, user.DisplayName, user.JoinedAt)
}
