package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomchat/internal/connection"
	"github.com/Tyrowin/roomchat/internal/event"
)

type closed struct {
	id     string
	reason event.CloseReason
}

type frame struct {
	id   string
	text string
}

// recorder is an Events sink backed by buffered channels.
type recorder struct {
	opened chan connection.Conn
	closed chan closed
	frames chan frame
}

func newRecorder() *recorder {
	return &recorder{
		opened: make(chan connection.Conn, 16),
		closed: make(chan closed, 16),
		frames: make(chan frame, 64),
	}
}

func (r *recorder) ConnectionOpened(conn connection.Conn) { r.opened <- conn }

func (r *recorder) ConnectionClosed(id string, reason event.CloseReason) {
	r.closed <- closed{id: id, reason: reason}
}

func (r *recorder) TextFrame(id string, text []byte) { r.frames <- frame{id: id, text: string(text)} }

func receive[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		var zero T
		return zero
	}
}

func testConfig() Config {
	cfg := NewConfig()
	cfg.AllowedOrigins = []string{"http://localhost:8080"}
	cfg.MaxMessageSize = 256
	cfg.RateLimit = RateLimitConfig{Burst: 100, RefillInterval: time.Second}
	return cfg
}

func startHub(t *testing.T, cfg Config) (*Hub, *recorder, string) {
	t.Helper()
	events := newRecorder()
	hub := NewHub(cfg, events, logs.GetLoggerFromLevel(slog.LevelDebug))
	go hub.Run()

	srv := httptest.NewServer(SetupRoutes(hub))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
		srv.Close()
	})
	return hub, events, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, resp, err := dialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, resp, err
}

func TestHub_ConnectionLifecycle(t *testing.T) {
	req := require.New(t)
	hub, events, url := startHub(t, testConfig())

	ws, _, err := dial(t, url, "http://localhost:8080")
	req.NoError(err)

	// open
	conn := receive(t, events.opened)
	_, err = uuid.Parse(conn.ID())
	req.NoError(err)
	req.Eventually(func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)
	client, ok := hub.Client(conn.ID())
	req.True(ok)
	req.Same(client, conn)

	// inbound text frame
	req.NoError(ws.WriteMessage(websocket.TextMessage, []byte(`{"kind":"Room#fetchRooms"}`)))
	req.Equal(frame{id: conn.ID(), text: `{"kind":"Room#fetchRooms"}`}, receive(t, events.frames))

	// binary frames are ignored
	req.NoError(ws.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}))

	// outbound frames, one per message
	req.NoError(conn.SendText([]byte(`{"n":1}`)))
	req.NoError(conn.SendText([]byte(`{"n":2}`)))
	for _, want := range []string{`{"n":1}`, `{"n":2}`} {
		_, data, err := ws.ReadMessage()
		req.NoError(err)
		req.Equal(want, string(data))
	}

	// close
	req.NoError(ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	got := receive(t, events.closed)
	req.Equal(conn.ID(), got.id)
	req.Equal(event.CloseReason{Code: websocket.CloseNormalClosure, Text: "bye"}, got.reason)
	req.Eventually(func() bool { return hub.Len() == 0 }, time.Second, 10*time.Millisecond)
	req.ErrorIs(conn.SendText([]byte("late")), connection.ErrConnectionClosed)
	req.Empty(events.frames)
}

func TestHub_RejectsDisallowedOrigin(t *testing.T) {
	_, events, url := startHub(t, testConfig())

	for _, origin := range []string{"", "http://evil.example", "not-a-url"} {
		_, resp, err := dial(t, url, origin)
		require.Error(t, err, origin)
		require.NotNil(t, resp)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		_ = resp.Body.Close()
	}
	require.Empty(t, events.opened)
}

func TestHub_OversizedFrameClosesConnection(t *testing.T) {
	_, events, url := startHub(t, testConfig())
	ws, _, err := dial(t, url, "http://localhost:8080")
	require.NoError(t, err)
	receive(t, events.opened)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 1024))))

	got := receive(t, events.closed)
	require.Equal(t, websocket.CloseMessageTooBig, got.reason.Code)
}

func TestHub_RateLimitDropsFrames(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = RateLimitConfig{Burst: 2, RefillInterval: time.Hour}
	_, events, url := startHub(t, cfg)
	ws, _, err := dial(t, url, "http://localhost:8080")
	require.NoError(t, err)
	receive(t, events.opened)

	for i := 0; i < 5; i++ {
		require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("{}")))
	}

	receive(t, events.frames)
	receive(t, events.frames)
	require.Never(t, func() bool { return len(events.frames) > 0 }, 200*time.Millisecond, 20*time.Millisecond)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	req := require.New(t)
	hub, events, url := startHub(t, testConfig())
	ws, _, err := dial(t, url, "http://localhost:8080")
	req.NoError(err)
	conn := receive(t, events.opened)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req.NoError(hub.Shutdown(ctx))

	req.Equal(conn.ID(), receive(t, events.closed).id)
	_, _, err = ws.ReadMessage()
	req.Error(err)
	req.False(hub.Register(NewClient(nil, hub, "test")))
}

func TestHub_ShutdownWithoutRun(t *testing.T) {
	hub := NewHub(testConfig(), newRecorder(), logs.GetLoggerFromLevel(slog.LevelDebug))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, hub.Shutdown(ctx), context.DeadlineExceeded)
}

func TestClient_SendTextNeverBlocks(t *testing.T) {
	req := require.New(t)
	cfg := testConfig()
	cfg.SendBufferSize = 2
	hub := NewHub(cfg, newRecorder(), logs.GetLoggerFromLevel(slog.LevelDebug))
	client := NewClient(nil, hub, "test")

	req.NoError(client.SendText([]byte("a")))
	req.NoError(client.SendText([]byte("b")))
	req.ErrorIs(client.SendText([]byte("c")), connection.ErrSendBufferFull)

	client.markClosed()
	client.markClosed()
	req.ErrorIs(client.SendText([]byte("d")), connection.ErrConnectionClosed)
}

func TestHandlers(t *testing.T) {
	hub := NewHub(testConfig(), newRecorder(), logs.GetLoggerFromLevel(slog.LevelDebug))
	srv := httptest.NewServer(SetupRoutes(hub))
	defer srv.Close()

	tests := []struct {
		name        string
		method      string
		path        string
		status      int
		contentType string
		body        string
	}{
		{"health", http.MethodGet, "/", http.StatusOK, "text/plain", "Room chat server is running!"},
		{"test page", http.MethodGet, "/test", http.StatusOK, "text/html", "Auth#createUser"},
		{"ws rejects post", http.MethodPost, "/ws", http.StatusMethodNotAllowed, "text/plain; charset=utf-8", "Method not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := http.NewRequest(tt.method, srv.URL+tt.path, http.NoBody)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(r)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			buf := new(strings.Builder)
			_, err = io.Copy(buf, resp.Body)
			require.NoError(t, err)
			require.Equal(t, tt.status, resp.StatusCode)
			require.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			require.Contains(t, buf.String(), tt.body)
		})
	}
}

func TestCreateServer(t *testing.T) {
	srv := CreateServer(":0", http.NewServeMux())

	require.Equal(t, ":0", srv.Addr)
	require.Equal(t, 15*time.Second, srv.ReadTimeout)
	require.Equal(t, 60*time.Second, srv.IdleTimeout)
}
