package identity_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/internal/connection"
	"github.com/Tyrowin/roomchat/internal/connection/connectiontest"
	"github.com/Tyrowin/roomchat/internal/identity"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func setup() (*connection.Registry, *identity.Registry, *identity.AuthRegistry) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	conns := connection.NewRegistry(log)
	return conns, identity.NewRegistry(conns, log), identity.NewAuthRegistry(conns, log)
}

func TestAuthRegistry_Monotonic(t *testing.T) {
	req := require.New(t)
	conns, _, auths := setup()
	conns.Add(connectiontest.New("c1"))

	req.True(auths.Begin("c1"))
	req.False(auths.Begin("c1"))
	state, ok := auths.State("c1")
	req.True(ok)
	req.Equal(identity.InProgress, state)
	req.False(auths.IsAuthenticated("c1"))

	req.True(auths.MarkSuccess("c1"))
	req.False(auths.MarkSuccess("c1"), "success is terminal")
	// Begin must not reset a successful record
	req.False(auths.Begin("c1"))

	state, _ = auths.State("c1")
	req.Equal(identity.Success, state)
	req.True(auths.IsAuthenticated("c1"))
	req.Equal("SUCCESS", state.String())
}

func TestAuthRegistry_RequiresLiveConnection(t *testing.T) {
	req := require.New(t)
	_, _, auths := setup()

	req.False(auths.Begin("ghost"))
	req.False(auths.MarkSuccess("ghost"))
	req.False(auths.Contains("ghost"))
	_, ok := auths.State("ghost")
	req.False(ok)
	req.Empty(auths.List())
}

func TestIdentityRegistry(t *testing.T) {
	req := require.New(t)
	conns, identities, _ := setup()
	conns.Add(connectiontest.New("c1"))
	joined := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	req.True(identities.Add(identity.Identity{ConnectionID: "c1", DisplayName: "alice", JoinedAt: joined}))
	req.False(identities.Add(identity.Identity{ConnectionID: "ghost", DisplayName: "bob"}))

	got, ok := identities.Get("c1")
	req.True(ok)
	req.Equal("alice", got.DisplayName)
	req.Equal(joined, got.JoinedAt)
	req.Len(identities.List(), 1)

	req.True(identities.Remove("c1"))
	req.False(identities.Contains("c1"))
}
