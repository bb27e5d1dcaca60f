// internal/handlers/ws_client.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

// wsWriteTimeout bounds a single outbound write.
const wsWriteTimeout = 10 * time.Second

// wsSendBuffer is the per-connection outbound queue depth; a client
// that cannot drain it gets disconnected rather than stalling the room.
const wsSendBuffer = 64

// wsClient adapts one websocket connection to the room.Sender contract:
// Send enqueues without blocking the room's lock, and a write pump owns
// the socket.
type wsClient struct {
	conn *websocket.Conn
	log  *logrus.Logger

	mu     sync.Mutex
	out    chan []byte
	closed bool
}

func newWSClient(conn *websocket.Conn, log *logrus.Logger) *wsClient {
	return &wsClient{
		conn: conn,
		log:  log,
		out:  make(chan []byte, wsSendBuffer),
	}
}

// Send marshals and enqueues one message. A full queue counts as a dead
// client.
func (c *wsClient) Send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal outbound message: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("connection closed")
	}
	select {
	case c.out <- data:
		return nil
	default:
		c.closed = true
		close(c.out)
		return fmt.Errorf("send buffer full; dropping client")
	}
}

// Close tears the connection down with a normal closure.
func (c *wsClient) Close(reason string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.out)
	c.mu.Unlock()
	_ = c.conn.Close(websocket.StatusNormalClosure, reason)
}

// writePump drains the outbound queue onto the socket until the queue
// closes or a write fails.
func (c *wsClient) writePump(ctx context.Context) {
	for data := range c.out {
		writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
		err := c.conn.Write(writeCtx, websocket.MessageText, data)
		cancel()
		if err != nil {
			c.log.WithError(err).Debug("WebSocket write failed")
			return
		}
	}
}

// sendError pushes a protocol/rule error to the client without touching
// room state.
func (c *wsClient) sendError(msg string) {
	_ = c.Send(map[string]interface{}{"type": "error", "message": msg})
}
