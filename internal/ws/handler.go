package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// Client represents a connected WebSocket client
type Client struct {
	conn         *websocket.Conn
	playerID     string
	opponentID   string
	sessionID    string
	sessionToken string
	send         chan []byte
}

// Hub maintains the set of active clients. It implements
// game.Broadcaster for the session goroutines.
type Hub struct {
	clients      map[string]*Client            // playerID -> Client
	sessionRooms map[string]map[string]*Client // sessionID -> playerID -> Client
	register     chan *Client
	unregister   chan *Client
	mu           sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:      make(map[string]*Client),
		sessionRooms: make(map[string]map[string]*Client),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
	}
}

// BroadcastToSession sends a message to every player in a session room.
func (h *Hub) BroadcastToSession(sessionID string, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, exists := h.sessionRooms[sessionID]; exists {
		for _, client := range room {
			select {
			case client.send <- data:
			default:
				// Client's buffer is full
				log.Printf("Client send buffer full for player %s in session %s, dropping message", client.playerID, sessionID)
			}
		}
	}
}

// SendToPlayer sends a message to a specific player
func (h *Hub) SendToPlayer(playerID string, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, exists := h.clients[playerID]; exists {
		select {
		case client.send <- data:
			// sent
		default:
			log.Printf("[WS] SendToPlayer dropped message for player %s (buffer full)", playerID)
		}
	}
}

// detachLocked removes a client from both indexes and closes its send
// channel. Callers must hold h.mu for writing. Close happens only here,
// under the write lock, so the non-blocking senders above can never race
// into a closed channel.
func (h *Hub) detachLocked(c *Client) {
	delete(h.clients, c.playerID)
	if room, exists := h.sessionRooms[c.sessionID]; exists {
		delete(room, c.playerID)
		if len(room) == 0 {
			delete(h.sessionRooms, c.sessionID)
		}
	}
	close(c.send)
}

// WSMessage is the envelope for every client message.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed — connection is being replaced or cleaned up.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error for player %s: %v", c.playerID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("WebSocket ping error for player %s: %v", c.playerID, err)
				return
			}
		}
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	GameHub.SendToPlayer(c.playerID, map[string]any{
		"type":    "error",
		"message": message,
	})
}

// resetTurnTimers stores last_move and re-arms the warning/forfeit
// sorted sets for the player whose turn begins.
func resetTurnTimers(sessionToken, playerID string) {
	if rdbClient == nil || wsConfig == nil {
		return
	}
	ctx := context.Background()
	now := time.Now().Unix()
	m := fmt.Sprintf("s:%s:p:%s", sessionToken, playerID)
	rdbClient.Set(ctx, "last_move:"+m, fmt.Sprintf("%d", now), 0)
	rdbClient.ZAdd(ctx, "turn_warning", redis.Z{Score: float64(now + int64(wsConfig.TurnWarningSeconds)), Member: m})
	rdbClient.ZAdd(ctx, "turn_forfeit", redis.Z{Score: float64(now + int64(wsConfig.TurnForfeitSeconds)), Member: m})
}

// clearTurnTimers drops a player's pending warning/forfeit entries.
func clearTurnTimers(sessionToken, playerID string) {
	if rdbClient == nil {
		return
	}
	ctx := context.Background()
	m := fmt.Sprintf("s:%s:p:%s", sessionToken, playerID)
	rdbClient.ZRem(ctx, "turn_warning", m)
	rdbClient.ZRem(ctx, "turn_forfeit", m)
}
