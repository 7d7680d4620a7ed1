package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/playstriker/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

var rdbClient *redis.Client
var wsConfig *config.Config

func SetRedisClient(r *redis.Client, cfg *config.Config) {
	rdbClient = r
	wsConfig = cfg
}

// StartSessionEventSubscriber subscribes to the session_events channel
// (published by the turn worker) and forwards events into session rooms.
func StartSessionEventSubscriber(ctx context.Context) {
	if rdbClient == nil {
		log.Println("[WS] Redis client not set; session event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, "session_events")
	ch := pubsub.Channel()
	go func() {
		log.Println("[WS] session_events subscriber started")
		for msg := range ch {
			var payload map[string]any
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				log.Printf("[WS] invalid event payload: %v", err)
				continue
			}

			typeStr, _ := payload["type"].(string)
			sessionID, _ := payload["session_id"].(string)
			if sessionID == "" {
				continue
			}

			switch typeStr {
			case "turn_warning":
				GameHub.BroadcastToSession(sessionID, map[string]any{
					"type":       "turn_warning",
					"player":     payload["player"],
					"forfeit_at": payload["forfeit_at"],
					"message":    payload["message"],
				})

			case "turn_forfeit":
				// The worker already posted the forfeit into the session;
				// the session broadcasts match_over itself. This is just the
				// human-readable notice.
				GameHub.BroadcastToSession(sessionID, map[string]any{
					"type":    "turn_forfeit",
					"player":  payload["player"],
					"message": payload["message"],
				})

			default:
				log.Printf("[WS] unknown event type: %s", typeStr)
			}
		}
	}()
}
