package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidPayload = errors.New("invalid payload")
	ErrMissingKind    = errors.New("missing message kind")
	ErrInvalidRequest = errors.New("invalid request")
)

var validate = validator.New()

// Message is a decoded inbound frame. Only the fields relevant to Kind are
// populated by well-behaved clients.
type Message struct {
	Kind         string `json:"kind"`
	ConnectionID string `json:"connectionId,omitempty"`
	SessionID    string `json:"sessionId,omitempty"`
	Username     string `json:"username,omitempty"`
	Name         string `json:"name,omitempty"`
	RoomID       string `json:"roomId,omitempty"`
	Content      string `json:"content,omitempty"`
}

// Origin returns the connection ID declared by the client, accepting the
// legacy sessionId field.
func (m Message) Origin() string {
	if m.ConnectionID != "" {
		return m.ConnectionID
	}
	return m.SessionID
}

// Decode parses one text frame.
func Decode(raw []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	msg.Kind = strings.TrimSpace(msg.Kind)
	if msg.Kind == "" {
		return Message{}, ErrMissingKind
	}
	return msg, nil
}

// CreateUserRequest registers a display name for a connection.
type CreateUserRequest struct {
	ConnectionID string `validate:"required"`
	Username     string `validate:"required,max=32,printascii|alphanumunicode"`
}

// CreateRoomRequest allocates a new room.
type CreateRoomRequest struct {
	Name string `validate:"required,max=64"`
}

// RoomRequest targets an existing room (join and leave).
type RoomRequest struct {
	RoomID string `validate:"required,uuid"`
}

// SendChatRequest posts content to a room.
type SendChatRequest struct {
	RoomID  string `validate:"required,uuid"`
	Content string `validate:"required,max=2000"`
}

// Validate checks a typed request against its validation tags.
func Validate(request any) error {
	if err := validate.Struct(request); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func (m Message) CreateUser() CreateUserRequest {
	return CreateUserRequest{ConnectionID: m.Origin(), Username: strings.TrimSpace(m.Username)}
}

func (m Message) CreateRoom() CreateRoomRequest {
	return CreateRoomRequest{Name: m.Name}
}

func (m Message) Room() RoomRequest {
	return RoomRequest{RoomID: m.RoomID}
}

func (m Message) SendChat() SendChatRequest {
	return SendChatRequest{RoomID: m.RoomID, Content: m.Content}
}
