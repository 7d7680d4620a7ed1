package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playstriker/backend/internal/game"
)

var startedAt = time.Now()

// HealthCheck reports service liveness and a few runtime counters.
func HealthCheck(c *gin.Context) {
	resp := gin.H{
		"status":  "ok",
		"uptime":  time.Since(startedAt).Round(time.Second).String(),
		"service": "playstriker-backend",
	}
	if game.Manager != nil {
		resp["active_sessions"] = game.Manager.ActiveSessionCount()
		resp["queue_length"] = game.Manager.QueueLength()
	}
	c.JSON(http.StatusOK, resp)
}
