// Package connectiontest provides an in-memory connection.Conn that records
// every frame it is asked to send.
package connectiontest

import (
	"encoding/json"
	"sync"

	"github.com/Tyrowin/roomchat/internal/connection"
)

// Conn is a recording connection. Set Fail to make every SendText return
// that error instead of recording the frame.
type Conn struct {
	id string

	mu     sync.Mutex
	frames [][]byte
	fail   error
	notify chan struct{}
}

var _ connection.Conn = (*Conn)(nil)

// New returns a recording connection with the given ID.
func New(id string) *Conn {
	return &Conn{id: id, notify: make(chan struct{}, 1024)}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) SendText(payload []byte) error {
	c.mu.Lock()
	if c.fail != nil {
		err := c.fail
		c.mu.Unlock()
		return err
	}
	c.frames = append(c.frames, append([]byte(nil), payload...))
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
	return nil
}

// Fail makes subsequent sends fail with err; nil restores normal behaviour.
func (c *Conn) Fail(err error) {
	c.mu.Lock()
	c.fail = err
	c.mu.Unlock()
}

// Frames returns a copy of every recorded frame.
func (c *Conn) Frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.frames))
	copy(out, c.frames)
	return out
}

// Messages decodes every recorded frame as a JSON object.
func (c *Conn) Messages() []map[string]any {
	frames := c.Frames()
	out := make([]map[string]any, 0, len(frames))
	for _, frame := range frames {
		var msg map[string]any
		if err := json.Unmarshal(frame, &msg); err == nil {
			out = append(out, msg)
		}
	}
	return out
}

// Kinds returns the kind field of every recorded frame, in order.
func (c *Conn) Kinds() []string {
	msgs := c.Messages()
	kinds := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		kind, _ := msg["kind"].(string)
		kinds = append(kinds, kind)
	}
	return kinds
}

// Sent returns a channel that receives a value after each recorded frame.
func (c *Conn) Sent() <-chan struct{} { return c.notify }

// Reset drops every recorded frame.
func (c *Conn) Reset() {
	c.mu.Lock()
	c.frames = nil
	c.mu.Unlock()
}
