package server

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomchat/internal/connection"
	"github.com/Tyrowin/roomchat/internal/event"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one WebSocket connection. Outbound frames are queued on send
// and written by writePump; inbound frames are read by readPump and reported
// to the hub's events.
type Client struct {
	id          string
	conn        *websocket.Conn
	hub         *Hub
	addr        string
	rateLimiter *rateLimiter
	log         *slog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

var _ connection.Conn = (*Client)(nil)

// NewClient wraps conn under a freshly generated connection ID.
func NewClient(conn *websocket.Conn, hub *Hub, addr string) *Client {
	cfg := hub.config
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	id := uuid.NewString()

	return &Client{
		id:          id,
		conn:        conn,
		hub:         hub,
		addr:        addr,
		rateLimiter: newRateLimiter(cfg.RateLimit, nil),
		log:         hub.log.With("connection_id", id),
		send:        make(chan []byte, cfg.SendBufferSize),
	}
}

func (c *Client) ID() string { return c.id }

// SendText queues payload for writing. It never blocks: a full buffer or a
// closed client is reported as an error so the caller can retry later.
func (c *Client) SendText(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return connection.ErrConnectionClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return connection.ErrSendBufferFull
	}
}

// markClosed rejects further sends and lets writePump drain and exit.
func (c *Client) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) closeConn() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.Warn("Error closing connection", "error", err)
	}
}

func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("Error setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// closeReason logs the read error that ended the connection and maps it to
// a close code.
func (c *Client) closeReason(err error) event.CloseReason {
	var closeErr *websocket.CloseError
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("Message exceeded maximum size", "limit", c.hub.config.MaxMessageSize)
		return event.CloseReason{Code: websocket.CloseMessageTooBig, Text: "message too big"}
	case errors.As(err, &closeErr):
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.log.Warn("Unexpected close", "error", err)
		} else {
			c.log.Debug("Client disconnected", "error", err)
		}
		return event.CloseReason{Code: closeErr.Code, Text: closeErr.Text}
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.log.Debug("Connection closed", "error", err)
	default:
		c.log.Warn("WebSocket read error", "error", err)
	}
	return event.CloseReason{Code: websocket.CloseAbnormalClosure, Text: "connection lost"}
}

func (c *Client) checkRateLimit() bool {
	if c.rateLimiter.allow() {
		return true
	}
	c.log.Warn("Rate limit exceeded, discarding message",
		"burst", c.hub.config.RateLimit.Burst,
		"interval", c.hub.config.RateLimit.RefillInterval)
	return false
}

func (c *Client) readPump() {
	events := c.hub.events
	events.ConnectionOpened(c)

	reason := event.CloseReason{Code: websocket.CloseAbnormalClosure}
	defer func() {
		events.ConnectionClosed(c.id, reason)
		c.hub.remove(c)
		c.closeConn()
	}()

	c.setupReadConnection()

	for {
		messageType, raw, err := c.conn.ReadMessage()
		if err != nil {
			reason = c.closeReason(err)
			return
		}
		if messageType != websocket.TextMessage {
			c.log.Debug("Ignoring non-text frame", "type", messageType)
			continue
		}
		if !c.checkRateLimit() {
			continue
		}
		events.TextFrame(c.id, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.writeClose()
				return
			}
			if !c.write(websocket.TextMessage, message) {
				return
			}
		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

// write sends one frame; every outbound message is a frame of its own.
func (c *Client) write(messageType int, payload []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("Error setting write deadline", "error", err)
		return false
	}
	if err := c.conn.WriteMessage(messageType, payload); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("Error writing frame", "error", err)
		}
		return false
	}
	return true
}

func (c *Client) writeClose() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteMessage(websocket.CloseMessage, msg); err != nil && !isExpectedCloseError(err) {
		c.log.Debug("Error writing close message", "error", err)
	}
}

// isExpectedCloseError reports errors that only mean the peer is gone.
func isExpectedCloseError(err error) bool {
	if err == nil || errors.Is(err, websocket.ErrCloseSent) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "broken pipe")
}
