package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playstriker/backend/internal/config"
	"github.com/playstriker/backend/internal/game"
	"github.com/redis/go-redis/v9"
)

// CreateSoloGame starts a vs-AI session for the authenticated player.
func CreateSoloGame(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		pid, ok := playerIDFromContext(c)
		if !ok {
			return
		}

		var req struct {
			Level int `json:"level"`
		}
		// Body is optional; default level comes from config.
		c.ShouldBindJSON(&req)
		level := req.Level
		if level < 1 || level > 3 {
			level = cfg.DefaultAILevel
		}

		var displayName string
		if err := db.Get(&displayName, `SELECT display_name FROM players WHERE id=$1`, pid); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown player"})
			return
		}

		s, err := game.Manager.CreateSoloSession(pid, displayName, level)
		if err != nil {
			log.Printf("[GAME] Failed to create solo session: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"session_id":    s.ID,
			"session_token": s.Token,
			"player_id":     s.Player1.ID,
			"player_token":  s.Player1.PlayerToken,
			"mode":          s.Mode,
			"level":         level,
		})
	}
}

// JoinQuickmatch places the player in the pairing queue, or returns the
// match credentials when an opponent was already waiting.
func JoinQuickmatch(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		pid, ok := playerIDFromContext(c)
		if !ok {
			return
		}

		var displayName string
		if err := db.Get(&displayName, `SELECT display_name FROM players WHERE id=$1`, pid); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown player"})
			return
		}

		result, entry, err := game.Manager.JoinQuickmatch(pid, displayName)
		if err != nil {
			log.Printf("[GAME] Quickmatch join failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join queue"})
			return
		}

		if result == nil {
			c.JSON(http.StatusOK, gin.H{
				"matched":      false,
				"player_id":    entry.PlayerID,
				"player_token": entry.PlayerToken,
				"queue_length": game.Manager.QueueLength(),
			})
			return
		}

		// The caller is always player 2; player 1 was waiting first and
		// learns of the match over their websocket.
		c.JSON(http.StatusOK, gin.H{
			"matched":       true,
			"session_id":    result.SessionID,
			"session_token": result.SessionToken,
			"player_id":     result.Player2ID,
			"player_token":  result.Player2Token,
		})
	}
}

// LeaveQuickmatch removes a waiting player from the queue.
func LeaveQuickmatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PlayerID string `json:"player_id"`
		}
		if err := c.BindJSON(&req); err != nil || req.PlayerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "player_id required"})
			return
		}
		removed := game.Manager.LeaveQueue(req.PlayerID)
		c.JSON(http.StatusOK, gin.H{"removed": removed})
	}
}

// QuickmatchStatus reports whether a queued player has been paired yet.
func QuickmatchStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID := c.Query("player_id")
		if playerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "player_id required"})
			return
		}

		s, err := game.Manager.GetSessionForPlayer(playerID)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{
				"matched":      false,
				"queue_length": game.Manager.QueueLength(),
			})
			return
		}

		p := s.PlayerByID(playerID)
		resp := gin.H{
			"matched":       true,
			"session_id":    s.ID,
			"session_token": s.Token,
		}
		if p != nil {
			resp["player_token"] = p.PlayerToken
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetGameState returns the current round state for a session token. Live
// sessions answer through their goroutine; finished or evicted ones are
// served from the Redis snapshot cache.
func GetGameState(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}

		if s, err := game.Manager.GetSessionByToken(token); err == nil {
			st := s.Snapshot()
			if st == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session busy"})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"session_id": s.ID,
				"status":     s.Status(),
				"mode":       s.Mode,
				"state":      st,
			})
			return
		}

		if rdb != nil {
			ctx := context.Background()
			if data, err := rdb.Get(ctx, "session:"+token+":state").Result(); err == nil {
				c.Data(http.StatusOK, "application/json", []byte(data))
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	}
}
