// Package testhelpers starts a fully wired chat backend behind an httptest
// server and drives it through real WebSocket clients.
package testhelpers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomchat/internal/app"
	"github.com/Tyrowin/roomchat/internal/protocol"
	"github.com/Tyrowin/roomchat/internal/server"
)

// TestOrigin is the only origin allowed by the default test configuration.
const TestOrigin = "http://localhost:8080"

// ReadTimeout bounds every Receive.
const ReadTimeout = 2 * time.Second

// Chat is a running backend.
type Chat struct {
	App    *app.App
	Server *httptest.Server
	WSURL  string
}

// StartChat wires and starts a backend. customize may adjust the
// configuration before anything is built. Everything is shut down when the
// test ends.
func StartChat(t *testing.T, customize func(cfg *server.Config)) *Chat {
	t.Helper()
	cfg := server.NewConfig()
	cfg.AllowedOrigins = []string{TestOrigin}
	cfg.RateLimit = server.RateLimitConfig{Burst: 100, RefillInterval: time.Second}
	if customize != nil {
		customize(&cfg)
	}

	chat, err := app.New(cfg, logs.GetLoggerFromLevel(slog.LevelDebug))
	require.NoError(t, err)
	require.NoError(t, chat.Start(context.Background()))

	srv := httptest.NewServer(chat.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = chat.Shutdown(ctx)
		srv.Close()
	})

	return &Chat{
		App:    chat,
		Server: srv,
		WSURL:  "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
}

// Client is one WebSocket connection to the backend.
type Client struct {
	Conn *websocket.Conn
	// ID is the connection ID announced by Auth#requireUsername.
	ID string
}

// Dial opens a WebSocket with the given Origin header.
func Dial(url, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}
	return dialer.Dial(url, headers)
}

// Connect opens a connection and consumes the username request.
func (c *Chat) Connect(t *testing.T) *Client {
	t.Helper()
	conn, resp, err := Dial(c.WSURL, TestOrigin)
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := &Client{Conn: conn}
	hello := client.Receive(t)
	require.Equal(t, protocol.KindRequireUsername, hello["kind"])
	client.ID = hello["connectionId"].(string)
	return client
}

// Login connects and authenticates as name.
func (c *Chat) Login(t *testing.T, name string) *Client {
	t.Helper()
	client := c.Connect(t)
	client.Send(t, map[string]any{
		"kind":         protocol.KindCreateUser,
		"connectionId": client.ID,
		"username":     name,
	})
	auth := client.Receive(t)
	require.Equal(t, protocol.KindAuthUser, auth["kind"], "%v", auth)
	require.Equal(t, name, auth["name"])
	return client
}

// Send writes msg as a JSON text frame.
func (c *Client) Send(t *testing.T, msg map[string]any) {
	t.Helper()
	require.NoError(t, c.Conn.WriteJSON(msg))
}

// SendRaw writes a raw text frame.
func (c *Client) SendRaw(t *testing.T, text string) {
	t.Helper()
	require.NoError(t, c.Conn.WriteMessage(websocket.TextMessage, []byte(text)))
}

// Receive reads the next JSON message.
func (c *Client) Receive(t *testing.T) map[string]any {
	t.Helper()
	require.NoError(t, c.Conn.SetReadDeadline(time.Now().Add(ReadTimeout)))
	var msg map[string]any
	require.NoError(t, c.Conn.ReadJSON(&msg))
	return msg
}

// ReceiveError reads the next message and checks it is an error envelope
// carrying text.
func (c *Client) ReceiveError(t *testing.T, text string) {
	t.Helper()
	msg := c.Receive(t)
	require.Equal(t, protocol.KindError, msg["kind"], "%v", msg)
	require.Equal(t, text, msg["message"])
	require.Equal(t, c.ID, msg["connectionId"])
}

// ExpectSilence fails if a message arrives within d.
func (c *Client) ExpectSilence(t *testing.T, d time.Duration) {
	t.Helper()
	require.NoError(t, c.Conn.SetReadDeadline(time.Now().Add(d)))
	_, data, err := c.Conn.ReadMessage()
	require.Error(t, err, "unexpected message %s", data)
}

// Close performs a normal close handshake.
func (c *Client) Close(t *testing.T) {
	t.Helper()
	err := c.Conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	require.NoError(t, err)
	_ = c.Conn.Close()
}

// CreateRoom creates a room and returns its ID.
func (c *Client) CreateRoom(t *testing.T, name string) string {
	t.Helper()
	c.Send(t, map[string]any{"kind": protocol.KindCreateRoom, "name": name})
	msg := c.Receive(t)
	require.Equal(t, protocol.KindCreateRoom, msg["kind"], "%v", msg)
	require.Equal(t, name, msg["name"])
	return msg["roomId"].(string)
}

// Join sends Room#join without reading the broadcast.
func (c *Client) Join(t *testing.T, roomID string) {
	t.Helper()
	c.Send(t, map[string]any{"kind": protocol.KindJoin, "roomId": roomID})
}

// UserOf extracts the user object of a room broadcast.
func UserOf(t *testing.T, msg map[string]any) map[string]any {
	t.Helper()
	user, ok := msg["user"].(map[string]any)
	require.True(t, ok, fmt.Sprintf("no user in %v", msg))
	return user
}
