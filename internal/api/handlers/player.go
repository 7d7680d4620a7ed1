package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playstriker/backend/internal/models"
)

// GetMe returns the authenticated player's profile and aggregate stats.
func GetMe(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		pid, ok := playerIDFromContext(c)
		if !ok {
			return
		}

		var player models.Player
		if err := db.Get(&player, `SELECT * FROM players WHERE id=$1`, pid); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":                 player.ID,
			"handle":             player.Handle,
			"display_name":       player.DisplayName,
			"total_games_played": player.TotalGamesPlayed,
			"total_games_won":    player.TotalGamesWon,
			"has_pin":            player.PINHash.Valid,
		})
	}
}

// UpdateDisplayName changes the authenticated player's display name.
func UpdateDisplayName(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		pid, ok := playerIDFromContext(c)
		if !ok {
			return
		}

		var req struct {
			DisplayName string `json:"display_name"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "display_name required"})
			return
		}
		name := strings.TrimSpace(req.DisplayName)
		if name == "" || len(name) > 64 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "display_name must be 1-64 chars"})
			return
		}

		if _, err := db.Exec(`UPDATE players SET display_name=$1 WHERE id=$2`, name, pid); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"display_name": name})
	}
}

// GetPlayerStats returns the public aggregate stats for a handle.
func GetPlayerStats(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		handle := strings.ToLower(strings.TrimSpace(c.Param("handle")))
		if handle == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "handle required"})
			return
		}

		var player models.Player
		if err := db.Get(&player, `SELECT * FROM players WHERE handle=$1 AND is_active=true`, handle); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}

		winRate := 0.0
		if player.TotalGamesPlayed > 0 {
			winRate = float64(player.TotalGamesWon) / float64(player.TotalGamesPlayed)
		}
		c.JSON(http.StatusOK, gin.H{
			"handle":             player.Handle,
			"display_name":       player.DisplayName,
			"total_games_played": player.TotalGamesPlayed,
			"total_games_won":    player.TotalGamesWon,
			"win_rate":           winRate,
		})
	}
}
