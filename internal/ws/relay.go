package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playstriker/backend/internal/game"
)

// LaunchData is a local pull-and-release gesture.
type LaunchData struct {
	DiscID int     `json:"disc_id"`
	Angle  float64 `json:"angle"` // radians
	Power  float64 `json:"power"` // drag units, clamped server-side
}

// MoveData is a peer's move vector, relayed opaquely for bit-for-bit
// replay.
type MoveData struct {
	DiscID    int       `json:"disc_id"`
	Position  game.Vec2 `json:"position"`
	Direction game.Vec2 `json:"direction"`
	Power     float64   `json:"power"`
}

// GameHub is the single hub for all sessions.
var GameHub *Hub

func init() {
	GameHub = NewHub()
	go runGameHub(GameHub)
}

// HandleWebSocket handles WebSocket connections for match sessions.
func HandleWebSocket(c *gin.Context) {
	sessionToken := c.Query("token")
	playerToken := c.Query("pt")

	if sessionToken == "" || playerToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token and pt required"})
		return
	}

	s, err := game.Manager.GetSessionByToken(sessionToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	player := s.PlayerByToken(playerToken)
	if player == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid player token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := &Client{
		conn:         conn,
		playerID:     player.ID,
		opponentID:   s.OpponentID(player.ID),
		sessionID:    s.ID,
		sessionToken: sessionToken,
		send:         make(chan []byte, 256),
	}

	GameHub.register <- client

	go client.writePump()
	go client.readPump()
}

// runGameHub runs the hub with session lifecycle logic.
func runGameHub(h *Hub) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if oldClient, exists := h.clients[client.playerID]; exists {
				log.Printf("[WS] Player %s reconnecting - closing old connection", client.playerID)
				oldClient.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"),
					time.Now().Add(5*time.Second))
				oldClient.conn.Close()
				h.detachLocked(oldClient)
			}

			h.clients[client.playerID] = client
			if _, exists := h.sessionRooms[client.sessionID]; !exists {
				h.sessionRooms[client.sessionID] = make(map[string]*Client)
			}
			h.sessionRooms[client.sessionID][client.playerID] = client
			h.mu.Unlock()

			log.Printf("[WS] Player %s connected to session %s", client.playerID, client.sessionID)
			client.onJoin()

		case client := <-h.unregister:
			h.mu.Lock()
			cur, ok := h.clients[client.playerID]
			active := ok && cur == client
			if active {
				h.detachLocked(client)
			}
			h.mu.Unlock()

			// onLeave notifies the opponent through SendToPlayer, which
			// takes the hub lock itself, so it must run outside ours.
			if active {
				log.Printf("[WS] Player %s disconnected from session %s", client.playerID, client.sessionID)
				client.onLeave()
			}
		}
	}
}

// onJoin marks the player connected and starts the session once every
// participant is present (immediately for solo matches).
func (c *Client) onJoin() {
	s, err := game.Manager.GetSessionByToken(c.sessionToken)
	if err != nil {
		log.Printf("[WS] Session not found for token %s: %v", c.sessionToken, err)
		return
	}

	p := s.PlayerByID(c.playerID)
	if p != nil {
		p.Connected = true
		p.DisconnectedAt = nil
	}

	bothReady := s.Mode == game.ModeSoloAI ||
		(s.Player1 != nil && s.Player1.Connected && s.Player2 != nil && s.Player2.Connected)

	if s.Status() == game.StatusWaiting && bothReady {
		go func() {
			// Small delay so both write pumps are running before the
			// opening state lands.
			time.Sleep(150 * time.Millisecond)
			s.Start()
			resetTurnTimers(s.Token, playerIDOfTeam(s, game.Team1))
		}()
		GameHub.BroadcastToSession(c.sessionID, map[string]any{
			"type":    "game_starting",
			"message": "Match starting...",
		})
	} else if s.Status() == game.StatusWaiting {
		GameHub.SendToPlayer(c.playerID, map[string]any{
			"type":    "waiting_for_opponent",
			"message": "Waiting for opponent...",
		})
	} else {
		if st := s.Snapshot(); st != nil {
			GameHub.SendToPlayer(c.playerID, map[string]any{
				"type":  "game_state",
				"state": st,
			})
		}
		GameHub.BroadcastToSession(c.sessionID, map[string]any{
			"type":   "player_connected",
			"player": c.playerID,
		})
	}
}

// onLeave marks the player disconnected and informs the opponent.
func (c *Client) onLeave() {
	s, err := game.Manager.GetSessionByToken(c.sessionToken)
	if err != nil {
		return
	}
	p := s.PlayerByID(c.playerID)
	if p != nil {
		now := time.Now()
		p.Connected = false
		p.DisconnectedAt = &now
	}
	if s.Status() == game.StatusInProgress && c.opponentID != "" {
		grace := game.Manager.GetConfig().DisconnectGraceSeconds
		GameHub.SendToPlayer(c.opponentID, map[string]any{
			"type":          "player_disconnected",
			"player":        c.playerID,
			"grace_seconds": grace,
		})
	}
}

// readPump reads and dispatches client messages.
func (c *Client) readPump() {
	defer func() {
		GameHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error (unexpected) for player %s: %v", c.playerID, err)
			} else {
				log.Printf("WebSocket read error for player %s: %v", c.playerID, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage processes one incoming relay message.
func (c *Client) handleMessage(msg WSMessage) {
	s, err := game.Manager.GetSessionByToken(c.sessionToken)
	if err != nil {
		c.sendError("Session not found")
		return
	}
	player := s.PlayerByID(c.playerID)
	if player == nil {
		c.sendError("Not a participant")
		return
	}

	switch msg.Type {
	case "launch":
		var data LaunchData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid launch data")
			return
		}
		s.Launch(player.Team, data.DiscID, data.Angle, data.Power)
		c.afterMove(s, player.Team)

	case "move":
		// A peer's finished gesture, relayed without interpretation.
		var data MoveData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid move data")
			return
		}
		s.RemoteMove(c.playerID, data.DiscID, data.Position, data.Direction, data.Power)
		c.afterMove(s, player.Team)

	case "state_snapshot":
		var state game.RoundState
		if err := json.Unmarshal(msg.Data, &state); err != nil {
			c.sendError("Invalid snapshot")
			return
		}
		s.RemoteSnapshot(&state)

	case "get_state":
		if st := s.Snapshot(); st != nil {
			GameHub.SendToPlayer(c.playerID, map[string]any{
				"type":  "game_state",
				"state": st,
			})
		}

	case "concede":
		s.Concede(player.Team)

	default:
		c.sendError("Unknown message type")
	}
}

// afterMove re-arms the turn timers: the mover's timers are cleared and
// the opponent's start counting once motion settles.
func (c *Client) afterMove(s *game.Session, moved game.Team) {
	clearTurnTimers(s.Token, c.playerID)
	if next := playerIDOfTeam(s, moved.Opponent()); next != "" {
		resetTurnTimers(s.Token, next)
	}
}

func playerIDOfTeam(s *game.Session, t game.Team) string {
	if s.Player1 != nil && s.Player1.Team == t {
		return s.Player1.ID
	}
	if s.Player2 != nil && s.Player2.Team == t {
		return s.Player2.ID
	}
	return ""
}
