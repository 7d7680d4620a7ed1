package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playstriker/backend/internal/api/handlers"
	"github.com/playstriker/backend/internal/config"
	"github.com/playstriker/backend/internal/middleware"
	"github.com/playstriker/backend/internal/ws"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		// Auth endpoints
		auth := v1.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db, cfg))
			auth.POST("/login", handlers.Login(db, cfg))
		}

		// Authenticated player endpoints
		me := v1.Group("/me")
		me.Use(handlers.AuthMiddleware(cfg))
		{
			me.GET("", handlers.GetMe(db))
			me.PUT("/display-name", handlers.UpdateDisplayName(db))
			me.PUT("/pin", handlers.SetPIN(db))
		}

		// Public player stats
		v1.GET("/player/:handle/stats", handlers.GetPlayerStats(db))

		// Game endpoints
		gameGroup := v1.Group("/game")
		{
			solo := gameGroup.Group("")
			solo.Use(handlers.AuthMiddleware(cfg))
			{
				solo.POST("/solo", handlers.CreateSoloGame(db, cfg))
				solo.POST("/quickmatch", handlers.JoinQuickmatch(db))
			}

			gameGroup.POST("/quickmatch/leave", handlers.LeaveQuickmatch())
			gameGroup.GET("/quickmatch/status", handlers.QuickmatchStatus())
			gameGroup.GET("/:token", handlers.GetGameState(rdb))
		}

		// WebSocket relay entry point; auth is the session/player token pair
		// in the query string, not a JWT.
		v1.GET("/ws", middleware.WebSocketCORSCheck(cfg), ws.HandleWebSocket)
	}
}
