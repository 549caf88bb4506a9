// Package ws adapts websocket channels to the coordinator's event
// surface. The adapter owns transport resources: it upgrades, pumps,
// and closes connections; coordination state never touches the socket.
package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/avorin/huddle/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// wsConn implements core.Conn over a gorilla websocket. Outbound
// frames go through a bounded queue drained by the write pump; TrySend
// never blocks the caller.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWSConn(conn *websocket.Conn, sendBuffer int) *wsConn {
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	return &wsConn{
		conn: conn,
		send: make(chan core.Frame, sendBuffer),
	}
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
