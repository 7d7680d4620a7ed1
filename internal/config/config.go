package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Game settings
	GameExpiryMinutes      int
	QueueExpiryMinutes     int
	DisconnectGraceSeconds int
	TurnWarningSeconds     int
	TurnForfeitSeconds     int
	TurnWorkerPollInterval int
	AIDelayMs              int
	DefaultAILevel         int

	// Security
	JWTSecret         string
	SessionTimeoutMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/playstriker?sslmode=disable"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		GameExpiryMinutes:      getEnvInt("GAME_EXPIRY_MINUTES", 30),
		QueueExpiryMinutes:     getEnvInt("QUEUE_EXPIRY_MINUTES", 10),
		DisconnectGraceSeconds: getEnvInt("DISCONNECT_GRACE_PERIOD_SECONDS", 120),
		TurnWarningSeconds:     getEnvInt("TURN_WARNING_SECONDS", 45),
		TurnForfeitSeconds:     getEnvInt("TURN_FORFEIT_SECONDS", 90),
		TurnWorkerPollInterval: getEnvInt("TURN_WORKER_POLL_INTERVAL_SECONDS", 5),
		AIDelayMs:              getEnvInt("AI_DELAY_MS", 900),
		DefaultAILevel:         getEnvInt("DEFAULT_AI_LEVEL", 2),

		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 30),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
