// Package protocol defines the JSON messages exchanged with chat clients.
// Every message is an object carrying a kind discriminator and the ID of
// the connection it originates from or is addressed to.
package protocol

import "strings"

const (
	KindRequireUsername = "Auth#requireUsername"
	KindCreateUser      = "Auth#createUser"
	KindAuthUser        = "Auth#authUser"

	KindFetchRooms = "Room#fetchRooms"
	KindCreateRoom = "Room#createRoom"
	KindJoin       = "Room#join"
	KindLeave      = "Room#leave"
	KindSendChat   = "Room#sendChat"

	KindError = "error"
)

const (
	authPrefix = "Auth#"
	roomPrefix = "Room#"
)

// IsAuthKind reports whether kind belongs to the authentication flow.
func IsAuthKind(kind string) bool { return strings.HasPrefix(kind, authPrefix) }

// IsRoomKind reports whether kind is a room operation.
func IsRoomKind(kind string) bool { return strings.HasPrefix(kind, roomPrefix) }

// Error messages sent back in the error envelope.
const (
	MsgInvalidPayload     = "invalid payload"
	MsgMissingKind        = "missing message kind"
	MsgUnknownKind        = "unknown message kind"
	MsgInvalidSession     = "invalid session"
	MsgInvalidUsername    = "invalid username"
	MsgAlreadyAuthed      = "user already authenticated"
	MsgUnauthenticated    = "unauthenticated user tried to access room service"
	MsgUnknownRoomCommand = "unknown room service command"
	MsgInvalidRoomRequest = "invalid room request"
	MsgRoomExists         = "room already exists"
	MsgRoomNotFound       = "room does not exist"
)
