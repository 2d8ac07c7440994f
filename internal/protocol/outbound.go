package protocol

import (
	"encoding/json"
	"time"
)

// TimeLayout formats every timestamp on the wire.
const TimeLayout = time.RFC3339Nano

// FormatTime renders t in the wire layout.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// Encode serialises an outbound message.
func Encode(message any) ([]byte, error) {
	return json.Marshal(message)
}

// UsernameRequest asks a freshly connected client to register a name.
type UsernameRequest struct {
	Kind         string `json:"kind"`
	ConnectionID string `json:"connectionId"`
	Message      string `json:"message"`
}

func NewUsernameRequest(connectionID string) UsernameRequest {
	return UsernameRequest{Kind: KindRequireUsername, ConnectionID: connectionID, Message: "require username"}
}

// User is the public view of an authenticated identity.
type User struct {
	ConnectionID string `json:"connectionId"`
	Name         string `json:"name"`
	JoinedTime   string `json:"joinedTime"`
}

func NewUser(connectionID, name string, joinedAt time.Time) User {
	return User{ConnectionID: connectionID, Name: name, JoinedTime: FormatTime(joinedAt)}
}

// AuthUserResponse confirms a successful registration.
type AuthUserResponse struct {
	Kind string `json:"kind"`
	User
}

func NewAuthUserResponse(user User) AuthUserResponse {
	return AuthUserResponse{Kind: KindAuthUser, User: user}
}

// RoomSummary identifies a room in listings.
type RoomSummary struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

// FetchRoomsResponse lists every room.
type FetchRoomsResponse struct {
	Kind         string        `json:"kind"`
	ConnectionID string        `json:"connectionId"`
	Rooms        []RoomSummary `json:"rooms"`
}

func NewFetchRoomsResponse(connectionID string, rooms []RoomSummary) FetchRoomsResponse {
	if rooms == nil {
		rooms = []RoomSummary{}
	}
	return FetchRoomsResponse{Kind: KindFetchRooms, ConnectionID: connectionID, Rooms: rooms}
}

// CreateRoomResponse returns the room that was just created.
type CreateRoomResponse struct {
	Kind string `json:"kind"`
	RoomSummary
}

func NewCreateRoomResponse(summary RoomSummary) CreateRoomResponse {
	return CreateRoomResponse{Kind: KindCreateRoom, RoomSummary: summary}
}

// RoomEvent is broadcast to room members on join, leave and chat.
type RoomEvent struct {
	Kind      string `json:"kind"`
	RoomID    string `json:"roomId"`
	Timestamp string `json:"timestamp"`
	User      User   `json:"user"`
	Content   string `json:"content,omitempty"`
}

func NewRoomEvent(kind, roomID string, user User, at time.Time) RoomEvent {
	return RoomEvent{Kind: kind, RoomID: roomID, Timestamp: FormatTime(at), User: user}
}

// ErrorMessage is the envelope for every rejected request.
type ErrorMessage struct {
	Kind         string `json:"kind"`
	ConnectionID string `json:"connectionId"`
	Message      string `json:"message"`
	Timestamp    string `json:"timestamp"`
}

func NewError(connectionID, message string, at time.Time) ErrorMessage {
	return ErrorMessage{Kind: KindError, ConnectionID: connectionID, Message: message, Timestamp: FormatTime(at)}
}
