package integration

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomchat/internal/protocol"
	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/Tyrowin/roomchat/test/testhelpers"
)

func TestOriginValidation(t *testing.T) {
	chat := testhelpers.StartChat(t, func(cfg *server.Config) {
		cfg.AllowedOrigins = []string{"http://example.com"}
	})

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"missing", "", false},
		{"other host", "http://evil.com", false},
		{"other scheme", "https://example.com", false},
		{"malformed", "not-a-url", false},
		{"script", "javascript:alert(1)", false},
		{"exact", "http://example.com", true},
		{"upper case", "HTTP://EXAMPLE.COM", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := testhelpers.Dial(chat.WSURL, tt.origin)
			if resp != nil {
				_ = resp.Body.Close()
			}
			if tt.allowed {
				require.NoError(t, err)
				_ = conn.Close()
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			require.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestWildcardOrigin(t *testing.T) {
	chat := testhelpers.StartChat(t, func(cfg *server.Config) {
		cfg.AllowedOrigins = []string{"*"}
	})

	conn, resp, err := testhelpers.Dial(chat.WSURL, "https://anywhere.example")
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	_ = conn.Close()
}

func TestMessageSizeLimit(t *testing.T) {
	chat := testhelpers.StartChat(t, func(cfg *server.Config) {
		cfg.MaxMessageSize = 512
	})
	alice := chat.Login(t, "alice")

	alice.Send(t, map[string]any{"kind": protocol.KindFetchRooms, "pad": strings.Repeat("x", 100)})
	require.Equal(t, protocol.KindFetchRooms, alice.Receive(t)["kind"])

	alice.SendRaw(t, `{"kind":"Room#fetchRooms","pad":"`+strings.Repeat("x", 1024)+`"}`)

	require.NoError(t, alice.Conn.SetReadDeadline(time.Now().Add(testhelpers.ReadTimeout)))
	_, _, err := alice.Conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "%v", err)
	require.Eventually(t, func() bool { return !chat.App.Connections.Contains(alice.ID) },
		time.Second, 10*time.Millisecond)
}

func TestRateLimiting(t *testing.T) {
	chat := testhelpers.StartChat(t, func(cfg *server.Config) {
		cfg.RateLimit = server.RateLimitConfig{Burst: 4, RefillInterval: time.Hour}
	})
	// the login consumes one token
	alice := chat.Login(t, "alice")

	for i := 0; i < 6; i++ {
		alice.Send(t, map[string]any{"kind": protocol.KindFetchRooms})
	}

	for i := 0; i < 3; i++ {
		require.Equal(t, protocol.KindFetchRooms, alice.Receive(t)["kind"])
	}
	alice.ExpectSilence(t, 200*time.Millisecond)
}
