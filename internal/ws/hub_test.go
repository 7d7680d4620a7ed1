package ws

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestClient(playerID, sessionID string) *Client {
	return &Client{
		playerID:  playerID,
		sessionID: sessionID,
		send:      make(chan []byte, 4),
	}
}

func addClient(h *Hub, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.playerID] = c
	if _, ok := h.sessionRooms[c.sessionID]; !ok {
		h.sessionRooms[c.sessionID] = make(map[string]*Client)
	}
	h.sessionRooms[c.sessionID][c.playerID] = c
}

func TestBroadcastToSessionReachesRoomOnly(t *testing.T) {
	h := NewHub()
	p1 := newTestClient("p1", "match_a")
	p2 := newTestClient("p2", "match_a")
	outsider := newTestClient("p3", "match_b")
	addClient(h, p1)
	addClient(h, p2)
	addClient(h, outsider)

	h.BroadcastToSession("match_a", map[string]any{"type": "turn_change"})

	for _, c := range []*Client{p1, p2} {
		select {
		case data := <-c.send:
			var msg map[string]any
			if err := json.Unmarshal(data, &msg); err != nil || msg["type"] != "turn_change" {
				t.Errorf("Player %s got malformed broadcast: %s", c.playerID, data)
			}
		default:
			t.Errorf("Player %s missed the broadcast", c.playerID)
		}
	}

	select {
	case data := <-outsider.send:
		t.Errorf("Other session received the broadcast: %s", data)
	default:
	}
}

func TestSendToPlayerIsDirect(t *testing.T) {
	h := NewHub()
	p1 := newTestClient("p1", "match_a")
	p2 := newTestClient("p2", "match_a")
	addClient(h, p1)
	addClient(h, p2)

	h.SendToPlayer("p1", map[string]any{"type": "waiting_for_opponent"})

	select {
	case <-p1.send:
	default:
		t.Error("Target player missed the direct message")
	}
	select {
	case <-p2.send:
		t.Error("Direct message leaked to another player")
	default:
	}
}

func TestDetachClosesBufferedSendChannel(t *testing.T) {
	h := NewHub()
	c := newTestClient("p1", "match_a")
	addClient(h, c)

	// A buffered message must not keep the channel open: the write pump
	// drains it and then sees the close.
	c.send <- []byte("pending")

	h.mu.Lock()
	h.detachLocked(c)
	h.mu.Unlock()

	if got := <-c.send; string(got) != "pending" {
		t.Errorf("Buffered message lost on detach: %q", got)
	}
	if _, ok := <-c.send; ok {
		t.Error("Send channel should be closed after detach")
	}

	h.mu.RLock()
	_, stillIndexed := h.clients["p1"]
	_, roomExists := h.sessionRooms["match_a"]
	h.mu.RUnlock()
	if stillIndexed {
		t.Error("Detached client still indexed by player id")
	}
	if roomExists {
		t.Error("Empty session room should be dropped on detach")
	}

	// Sends after detach are no-ops, never a panic on a closed channel.
	h.SendToPlayer("p1", map[string]any{"type": "turn_change"})
	h.BroadcastToSession("match_a", map[string]any{"type": "turn_change"})
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	c := newTestClient("p1", "match_a")
	addClient(h, c)

	// Fill the buffer; further broadcasts must drop, not block.
	for i := 0; i < cap(c.send); i++ {
		c.send <- []byte("x")
	}
	done := make(chan struct{})
	go func() {
		h.BroadcastToSession("match_a", map[string]any{"type": "goal"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a full client buffer")
	}
}
