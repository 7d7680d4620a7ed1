package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/playstriker/backend/internal/api"
	"github.com/playstriker/backend/internal/config"
	"github.com/playstriker/backend/internal/database"
	"github.com/playstriker/backend/internal/game"
	"github.com/playstriker/backend/internal/migrations"
	"github.com/playstriker/backend/internal/redis"
	"github.com/playstriker/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// Initialize session manager with Redis and config
	game.InitializeManager(db, rdb, cfg)
	game.Manager.SetBroadcaster(ws.GameHub)

	// Wire Redis into the WS layer and start the session event subscriber
	ws.SetRedisClient(rdb, cfg)
	ws.StartSessionEventSubscriber(context.Background())

	// Start the turn worker (warning -> forfeit on turn timers)
	game.StartTurnWorker(context.Background(), db, rdb, cfg)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Initialize API handlers
	api.SetupRoutes(router, db, rdb, cfg)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting PlayStriker server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
