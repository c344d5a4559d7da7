package chat

import (
	"encoding/json"
	"sync"
	"testing"
)

func recvFrame(t *testing.T, c *Client) outboundFrame {
	t.Helper()
	select {
	case b := <-c.send:
		var f outboundFrame
		if err := json.Unmarshal(b, &f); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		return f
	default:
		t.Fatal("no frame queued")
	}
	return outboundFrame{}
}

func TestBroadcastReachesRoomOnly(t *testing.T) {
	h := NewHub(8)
	a := newClient(h, "room-a", 1, nil, nil)
	b := newClient(h, "room-a", 2, nil, nil)
	other := newClient(h, "room-b", 3, nil, nil)
	h.Join("room-a", a)
	h.Join("room-a", b)
	h.Join("room-b", other)

	h.Broadcast("room-a", outboundFrame{ID: 5, Text: "hi"})

	if f := recvFrame(t, a); f.ID != 5 || f.Text != "hi" {
		t.Fatalf("client a got %+v", f)
	}
	if f := recvFrame(t, b); f.ID != 5 {
		t.Fatalf("client b got %+v", f)
	}
	select {
	case <-other.send:
		t.Fatal("broadcast leaked into another room")
	default:
	}
}

func TestLeaveDropsEmptyRoom(t *testing.T) {
	h := NewHub(8)
	a := newClient(h, "room", 1, nil, nil)
	b := newClient(h, "room", 2, nil, nil)
	h.Join("room", a)
	h.Join("room", b)

	h.Leave("room", a)
	if h.rooms["room"] == nil {
		t.Fatal("room dropped while a subscriber remains")
	}
	h.Leave("room", b)
	if h.rooms["room"] != nil {
		t.Fatal("empty room not dropped")
	}
	if h.roomMu["room"] != nil {
		t.Fatal("room lock not dropped with the room")
	}
}

func TestLockRoomIsStablePerRoom(t *testing.T) {
	h := NewHub(8)
	m1 := h.lockRoom("room")
	m2 := h.lockRoom("room")
	if m1 != m2 {
		t.Fatal("same room handed out different locks")
	}
	if h.lockRoom("other") == m1 {
		t.Fatal("distinct rooms share a lock")
	}
}

func TestBroadcastToEmptyRoomIsNoop(t *testing.T) {
	h := NewHub(8)
	h.Broadcast("nobody-here", outboundFrame{ID: 1})
}

func TestBroadcastRacingClose(t *testing.T) {
	h := NewHub(1)
	for i := 0; i < 200; i++ {
		c := newClient(h, "room", 1, nil, nil)
		h.Join("room", c)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				h.Broadcast("room", outboundFrame{ID: uint64(j + 1)})
			}
		}()
		go func() {
			defer wg.Done()
			c.Close()
		}()
		wg.Wait()
	}
}

func TestTrySendAfterClose(t *testing.T) {
	h := NewHub(8)
	c := newClient(h, "room", 1, nil, nil)
	h.Join("room", c)
	c.Close()
	if c.trySend([]byte(`{}`)) {
		t.Fatal("send accepted after close")
	}
}
