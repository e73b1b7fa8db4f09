package hub

import (
	"sync"
	"time"

	"github.com/parleychat/parley/src/types"
)

// Client wraps a single transport connection. It is ephemeral: created on
// connect, destroyed on disconnect, never persisted.
type Client struct {
	ID          string
	conn        types.Conn
	hub         *Hub
	Send        chan types.ServerEvent
	connectedAt time.Time
	mu          sync.Mutex
	done        chan struct{}
	closed      bool
}

// NewClient creates a client wrapper around conn.
func NewClient(id string, conn types.Conn, h *Hub) *Client {
	return &Client{
		ID:          id,
		conn:        conn,
		hub:         h,
		Send:        make(chan types.ServerEvent, 256),
		connectedAt: time.Now(),
		done:        make(chan struct{}),
	}
}

// ReadPump reads events from the connection and forwards them to the hub
// loop. Events from one connection are forwarded strictly in arrival
// order. A read error ends the connection.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		var e types.ClientEvent
		if err := c.conn.ReadJSON(&e); err != nil {
			return
		}
		c.hub.incoming <- inbound{client: c, event: e}
	}
}

// WritePump writes queued events to the connection. The Gorilla-style
// websocket libraries allow only one concurrent writer, so all writes
// funnel through the Send channel.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		select {
		case e, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(e); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// trySend enqueues an event without blocking the hub loop. A full buffer
// means the receiver is too slow; the event is dropped, never queued or
// retried. Safe after Close: a closed client drops instead of panicking
// on the closed channel.
func (c *Client) trySend(e types.ServerEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- e:
		return true
	default:
		return false
	}
}

// Close signals the pumps to stop. Idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
		close(c.Send)
	}
}
