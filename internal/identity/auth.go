package identity

import (
	"log/slog"

	"github.com/Tyrowin/roomchat/internal/store"
)

// AuthState is the authentication progress of a connection.
type AuthState int

const (
	InProgress AuthState = iota
	Success
)

func (s AuthState) String() string {
	switch s {
	case InProgress:
		return "IN_PROGRESS"
	case Success:
		return "SUCCESS"
	default:
		return "UNKNOWN"
	}
}

// AuthRecord marks where a connection is in the authentication flow.
type AuthRecord struct {
	ConnectionID string
	State        AuthState
}

// AuthRegistry stores one AuthRecord per live connection. A record only
// ever moves from InProgress to Success.
type AuthRegistry struct {
	records *store.SessionGated[AuthRecord]
	log     *slog.Logger
}

// NewAuthRegistry returns an auth registry gated on sessions.
func NewAuthRegistry(sessions store.SessionLookup, log *slog.Logger) *AuthRegistry {
	return &AuthRegistry{
		records: store.NewSessionGated("auth record", sessions,
			func(r AuthRecord) string { return r.ConnectionID }, log),
		log: log,
	}
}

// Begin creates the InProgress record for a freshly opened connection.
func (a *AuthRegistry) Begin(connectionID string) bool {
	return a.records.Add(AuthRecord{ConnectionID: connectionID, State: InProgress})
}

// MarkSuccess moves the record to Success. It returns false when there is
// no record or the connection was already authenticated.
func (a *AuthRegistry) MarkSuccess(connectionID string) bool {
	return a.records.Update(connectionID, func(r AuthRecord) (AuthRecord, bool) {
		if r.State == Success {
			return r, false
		}
		r.State = Success
		return r, true
	})
}

// Get returns the record of connectionID.
func (a *AuthRegistry) Get(connectionID string) (AuthRecord, bool) {
	return a.records.Get(connectionID)
}

// State returns the auth state of connectionID and whether a record exists.
func (a *AuthRegistry) State(connectionID string) (AuthState, bool) {
	r, ok := a.records.Get(connectionID)
	return r.State, ok
}

// IsAuthenticated reports whether connectionID reached Success.
func (a *AuthRegistry) IsAuthenticated(connectionID string) bool {
	state, ok := a.State(connectionID)
	return ok && state == Success
}

// Remove drops the record of connectionID.
func (a *AuthRegistry) Remove(connectionID string) bool {
	return a.records.Remove(connectionID)
}

// Contains reports whether a record exists for connectionID.
func (a *AuthRegistry) Contains(connectionID string) bool {
	return a.records.Contains(connectionID)
}

// List returns every record ordered by connection ID.
func (a *AuthRegistry) List() []AuthRecord {
	return a.records.List()
}
