package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playstriker/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// StartTurnWorker starts a background worker that processes turn-timer
// warnings and forfeits using Redis sorted sets. The ws layer arms the
// timers on every accepted move; this worker fires them.
func StartTurnWorker(ctx context.Context, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	if rdb == nil || cfg == nil {
		log.Println("[TURN] Redis or config missing; turn worker not started")
		return
	}

	log.Println("[TURN] Turn worker started")
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.TurnWorkerPollInterval) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[TURN] Turn worker stopping")
				return
			case <-ticker.C:
				now := time.Now().Unix()
				processWarnings(ctx, rdb, cfg, now)
				processForfeits(ctx, rdb, cfg, now)
			}
		}
	}()
}

func processWarnings(ctx context.Context, rdb *redis.Client, cfg *config.Config, now int64) {
	members, err := rdb.ZRangeByScore(ctx, "turn_warning", &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%d", now)}).Result()
	if err != nil {
		log.Printf("[TURN] Failed to fetch turn warnings: %v", err)
		return
	}
	for _, m := range members {
		// Remove first so only one worker claims the member.
		if removed, _ := rdb.ZRem(ctx, "turn_warning", m).Result(); removed == 0 {
			continue
		}
		token, playerID := parseTurnMember(m)
		if token == "" || playerID == "" {
			continue
		}
		if !turnStillPending(ctx, rdb, m, int64(cfg.TurnWarningSeconds)) {
			continue
		}
		s, err := Manager.GetSessionByToken(token)
		if err != nil || s.Status() != StatusInProgress {
			continue
		}
		p := s.PlayerByID(playerID)
		st := s.Snapshot()
		if p == nil || st == nil || st.ActingTeam != p.Team || st.Phase != PhaseIdle {
			continue
		}

		lastTs := lastMoveAt(ctx, rdb, m)
		forfeitAt := time.Unix(lastTs, 0).Add(time.Duration(cfg.TurnForfeitSeconds) * time.Second)
		payload := map[string]any{
			"type":              "turn_warning",
			"session_token":     token,
			"session_id":        s.ID,
			"player":            playerID,
			"forfeit_at":        forfeitAt.Format(time.RFC3339),
			"remaining_seconds": int(time.Until(forfeitAt).Seconds()),
			"message":           "Player idle; turn will be forfeited soon.",
		}
		b, _ := json.Marshal(payload)
		if err := rdb.Publish(ctx, "session_events", b).Err(); err != nil {
			log.Printf("[TURN] publish warning failed: session=%s player=%s err=%v", token, playerID, err)
		}
	}
}

func processForfeits(ctx context.Context, rdb *redis.Client, cfg *config.Config, now int64) {
	members, err := rdb.ZRangeByScore(ctx, "turn_forfeit", &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%d", now)}).Result()
	if err != nil {
		log.Printf("[TURN] Failed to fetch turn forfeits: %v", err)
		return
	}
	for _, m := range members {
		if removed, _ := rdb.ZRem(ctx, "turn_forfeit", m).Result(); removed == 0 {
			continue
		}
		token, playerID := parseTurnMember(m)
		if token == "" || playerID == "" {
			continue
		}
		if !turnStillPending(ctx, rdb, m, int64(cfg.TurnForfeitSeconds)) {
			continue
		}
		s, err := Manager.GetSessionByToken(token)
		if err != nil || s.Status() != StatusInProgress {
			continue
		}
		p := s.PlayerByID(playerID)
		st := s.Snapshot()
		if p == nil || st == nil || st.ActingTeam != p.Team || st.Phase != PhaseIdle {
			continue
		}

		log.Printf("[TURN] Forfeiting player %s in session %s due to inactivity", playerID, token)
		s.Forfeit(p.Team, "timeout")

		payload := map[string]any{
			"type":          "turn_forfeit",
			"session_token": token,
			"session_id":    s.ID,
			"player":        playerID,
			"message":       "Player forfeited due to inactivity",
		}
		b, _ := json.Marshal(payload)
		if err := rdb.Publish(ctx, "session_events", b).Err(); err != nil {
			log.Printf("[TURN] publish forfeit failed: session=%s player=%s err=%v", token, playerID, err)
		}
	}
}

// turnStillPending re-checks last_move so a timer armed before a recent
// move does not fire.
func turnStillPending(ctx context.Context, rdb *redis.Client, member string, thresholdSecs int64) bool {
	return time.Now().Unix()-lastMoveAt(ctx, rdb, member) >= thresholdSecs
}

func lastMoveAt(ctx context.Context, rdb *redis.Client, member string) int64 {
	last, _ := rdb.Get(ctx, "last_move:"+member).Result()
	ts, _ := strconv.ParseInt(last, 10, 64)
	return ts
}

// parseTurnMember expects member format s:<sessionToken>:p:<playerID>
func parseTurnMember(m string) (string, string) {
	parts := strings.Split(m, ":")
	if len(parts) >= 4 && parts[0] == "s" && parts[2] == "p" {
		return parts[1], parts[3]
	}
	return "", ""
}
