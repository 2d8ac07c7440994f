// Package identity keeps the per-connection authentication progress and the
// authenticated user profiles. Both registries are session gated: they only
// accept and answer for connection IDs present in the connection registry.
package identity

import (
	"log/slog"
	"time"

	"github.com/Tyrowin/roomchat/internal/store"
)

// Identity is the authenticated profile bound to one connection.
type Identity struct {
	ConnectionID string
	DisplayName  string
	JoinedAt     time.Time
}

// Registry stores identities keyed by connection ID.
type Registry struct {
	*store.SessionGated[Identity]
}

// NewRegistry returns an identity registry gated on sessions.
func NewRegistry(sessions store.SessionLookup, log *slog.Logger) *Registry {
	return &Registry{
		SessionGated: store.NewSessionGated("identity", sessions,
			func(i Identity) string { return i.ConnectionID }, log),
	}
}
