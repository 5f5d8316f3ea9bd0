package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	readDeadline  = 300 * time.Second
	writeDeadline = 30 * time.Second
	pingInterval  = 240 * time.Second
	maxFrameSize  = 1 << 20
	sendBuffer    = 256
)

// Client is one live, authenticated connection. The userID is set exactly
// once, before the read loop starts; there is no way back to an
// unauthenticated state.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	log  *slog.Logger

	// sendMu guards send and closed. All writers go through trySend, so a
	// send can never race the close.
	sendMu sync.Mutex
	send   chan []byte
	closed bool

	userID   int
	userName string
}

func newClient(hub *Hub, conn *websocket.Conn, log *slog.Logger) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		log:  log,
	}
}

// Emit queues a server-to-client event on this connection only. Delivery is
// best-effort; a full buffer or a closing connection drops the event rather
// than blocking.
func (c *Client) Emit(event string, data any) {
	frame, err := marshalEvent(event, data)
	if err != nil {
		c.log.Error("marshaling event", "event", event, "err", err)
		return
	}
	if !c.trySend(frame) {
		c.log.Warn("dropping event", "userId", c.userID, "event", event)
	}
}

// trySend queues a frame without blocking. It reports false when the buffer
// is full or the connection is closing; it never panics after closeSend.
func (c *Client) trySend(frame []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// closeSend releases the writePump. Safe to call more than once and safe to
// race with Emit or a hub broadcast.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump reads frames and hands them to handle, one at a time, so a single
// connection's events are processed in the order received. It returns when
// the connection drops.
func (c *Client) readPump(handle func(*Client, []byte)) {
	defer func() {
		c.hub.RemoveClient(c)
		c.closeSend()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.log.Debug("client read ended", "userId", c.userID, "err", err)
			return
		}
		handle(c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("client write ended", "userId", c.userID, "err", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
