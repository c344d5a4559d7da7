// Package chat runs the realtime transport for query threads. Messages are
// persisted before they are broadcast, so the database is the source of
// truth and the socket is only a delivery optimization; a subscriber that
// falls behind is disconnected and reconnects with since_id to catch up.
package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxInbound = 8 * 1024
)

// Hub tracks live subscribers per room token.
type Hub struct {
	rooms map[string]map[*Client]bool
	// roomMu serializes Send per room so broadcast order matches insert
	// order. The DB assigns ids; this lock keeps delivery in id order.
	roomMu     map[string]*sync.Mutex
	mu         sync.RWMutex
	sendBuffer int
}

// NewHub builds the hub. sendBuffer is each subscriber's outbound queue
// size; a full queue disconnects the subscriber.
func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		roomMu:     make(map[string]*sync.Mutex),
		sendBuffer: sendBuffer,
	}
}

// Join registers a subscriber in its room.
func (h *Hub) Join(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
}

// Leave removes a subscriber; the last one out drops the room.
func (h *Hub) Leave(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.rooms[room]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.rooms, room)
			delete(h.roomMu, room)
		}
	}
}

// lockRoom returns the per-room write lock, creating it on first use.
func (h *Hub) lockRoom(room string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	mu := h.roomMu[room]
	if mu == nil {
		mu = &sync.Mutex{}
		h.roomMu[room] = mu
	}
	return mu
}

// Broadcast fans payload out to every live subscriber of room. A subscriber
// whose queue is full is closed instead of blocking the room.
func (h *Hub) Broadcast(room string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	conns := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		if !c.trySend(b) {
			go c.Close()
		}
	}
}

// Shutdown sends a going-away close to every live subscriber. Used on
// graceful server stop.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	conns := make([]*Client, 0)
	for _, m := range h.rooms {
		for c := range m {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range conns {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.conn.WriteMessage(websocket.CloseMessage, msg)
		c.Close()
	}
}
