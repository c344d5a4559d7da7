package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// inboundFrame is what a participant sends over the socket.
type inboundFrame struct {
	Text       string `json:"text"`
	Attachment string `json:"attachment,omitempty"`
}

// Client is one live subscriber of a room.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	room   string
	userID uint64
	send   chan []byte

	// onInbound persists and rebroadcasts a frame read from this socket.
	onInbound func(text, attachment string)

	// sendMu and closed guard send against a concurrent Close; only Close
	// ever closes the channel, and only with the flag set under the lock.
	sendMu sync.Mutex
	closed bool

	closeOnce sync.Once
}

func newClient(h *Hub, room string, userID uint64, conn *websocket.Conn, onInbound func(text, attachment string)) *Client {
	return &Client{
		conn:      conn,
		hub:       h,
		room:      room,
		userID:    userID,
		send:      make(chan []byte, h.sendBuffer),
		onInbound: onInbound,
	}
}

// trySend enqueues b for delivery. It reports false when the subscriber is
// closed or its queue is full; the caller decides whether to disconnect.
func (c *Client) trySend(b []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *Client) readPump() {
	defer c.Close()
	c.conn.SetReadLimit(maxInbound)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var f inboundFrame
		if err := json.Unmarshal(data, &f); err != nil || f.Text == "" && f.Attachment == "" {
			continue
		}
		c.onInbound(f.Text, f.Attachment)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// Close detaches the subscriber and tears down the socket. Safe to call
// more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.hub.Leave(c.room, c)
		c.sendMu.Lock()
		c.closed = true
		close(c.send)
		c.sendMu.Unlock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}
