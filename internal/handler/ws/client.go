package ws

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound buffer per connection. A peer that falls this far behind
	// starts dropping messages instead of blocking the whole gateway.
	sendBufferSize = 64
)

// Client is one live websocket connection. Reads and writes each run on their
// own goroutine; the send channel is the only way to write to the peer.
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger

	onMessage func(connID string, payload []byte)
	onClose   func(connID string)
}

func newClient(id string, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: logger,
	}
}

// Send queues a message for delivery. It never blocks; when the buffer is
// full the message is dropped and Send reports false.
func (c *Client) Send(message []byte) bool {
	select {
	case c.send <- message:
		return true
	default:
		c.logger.Warn("dropping message for slow websocket client",
			slog.String("conn_id", c.id),
		)
		return false
	}
}

// readPump reads messages from the peer until the connection dies, handing
// each one to the gateway. It owns the read side of the connection.
func (c *Client) readPump() {
	defer func() {
		if c.onClose != nil {
			c.onClose(c.id)
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error",
					slog.String("conn_id", c.id),
					slog.String("error", err.Error()),
				)
			}
			return
		}
		if c.onMessage != nil {
			c.onMessage(c.id, payload)
		}
	}
}

// writePump drains the send channel to the peer and keeps the connection
// alive with periodic pings. It owns the write side of the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
