package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomchat/internal/protocol"
	"github.com/Tyrowin/roomchat/test/testhelpers"
)

func TestGracefulShutdownWithClients(t *testing.T) {
	req := require.New(t)
	chat := testhelpers.StartChat(t, nil)

	clients := make([]*testhelpers.Client, 5)
	for i := range clients {
		clients[i] = chat.Connect(t)
	}
	req.Equal(5, chat.App.Transport.Len())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req.NoError(chat.App.Shutdown(ctx))

	for i, c := range clients {
		req.NoError(c.Conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, _, err := c.Conn.ReadMessage()
		req.Error(err, "client %d still connected", i)
	}
	req.Zero(chat.App.Connections.Len())
	req.Empty(chat.App.Auths.List())
}

func TestShutdownWithActiveTraffic(t *testing.T) {
	chat := testhelpers.StartChat(t, nil)
	alice := chat.Login(t, "alice")
	roomID := alice.CreateRoom(t, "busy")
	alice.Join(t, roomID)
	alice.Receive(t)

	for i := 0; i < 20; i++ {
		alice.Send(t, map[string]any{"kind": protocol.KindSendChat, "roomId": roomID, "content": "x"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, chat.App.Shutdown(ctx))

	stats := chat.App.Broker.Stats()
	require.Equal(t, stats.Enqueued, stats.Delivered+stats.Discarded+stats.Dropped)
}

func TestShutdownWithoutClients(t *testing.T) {
	chat := testhelpers.StartChat(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, chat.App.Shutdown(ctx))
	// listeners stay registered after the hub is closed
	require.Equal(t, 3, chat.App.Events.Len())
}
