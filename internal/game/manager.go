package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playstriker/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// SessionManager is the explicit session registry: sessions are reached
// through handles issued here, never through ambient shared maps. Each
// session runs its own goroutine; the registry only indexes them.
type SessionManager struct {
	sessions        map[string]*Session // keyed by session ID
	tokenIndex      map[string]string   // session token -> session ID
	playerToSession map[string]string   // player ID -> session ID
	queue           []QueueEntry        // quickmatch FIFO

	db          *sqlx.DB
	rdb         *redis.Client
	config      *config.Config
	broadcaster Broadcaster
	mu          sync.RWMutex
}

// QueueEntry is a player waiting for a quickmatch opponent.
type QueueEntry struct {
	PlayerID    string
	PlayerToken string
	DBPlayerID  int
	DisplayName string
	JoinedAt    time.Time
}

// MatchResult describes a successful pairing.
type MatchResult struct {
	SessionID    string
	SessionToken string
	Player1ID    string
	Player1Token string
	Player2ID    string
	Player2Token string
}

// Manager is the global session manager instance.
var Manager *SessionManager

// InitializeManager initializes the global session manager with Redis, DB
// and config, and starts the background expiry checker.
func InitializeManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	Manager = NewSessionManager(db, rdb, cfg)
	go Manager.StartExpiryChecker()
}

func NewSessionManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *SessionManager {
	return &SessionManager{
		sessions:        make(map[string]*Session),
		tokenIndex:      make(map[string]string),
		playerToSession: make(map[string]string),
		db:              db,
		rdb:             rdb,
		config:          cfg,
	}
}

// SetBroadcaster wires the ws hub in. Must be called before sessions are
// created.
func (sm *SessionManager) SetBroadcaster(b Broadcaster) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.broadcaster = b
}

// GetConfig exposes the app config to collaborators that hold a manager
// handle.
func (sm *SessionManager) GetConfig() *config.Config {
	return sm.config
}

// generateToken generates a secure random token.
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func generateSessionID() string {
	return "match_" + generateToken(8)
}

// CreateSoloSession creates a vs-AI session for one human player. The AI
// plays team 2 at the given difficulty level.
func (sm *SessionManager) CreateSoloSession(dbPlayerID int, displayName string, level int) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	playerID := "p_" + generateToken(6)
	s := sm.newSessionLocked(ModeSoloAI, level)
	s.Player1 = &SessionPlayer{
		ID:          playerID,
		PlayerToken: generateToken(16),
		DBPlayerID:  dbPlayerID,
		DisplayName: displayName,
		Team:        Team1,
	}
	sm.registerLocked(s)
	sm.playerToSession[playerID] = s.ID

	log.Printf("[MATCH] Solo session created: %s (level=%d)", s.ID, level)
	return s, nil
}

// JoinQuickmatch pairs the caller with a waiting player, or enqueues the
// caller. Returns a MatchResult when a pairing happened, nil otherwise.
func (sm *SessionManager) JoinQuickmatch(dbPlayerID int, displayName string) (*MatchResult, *QueueEntry, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	playerID := "p_" + generateToken(6)
	entry := QueueEntry{
		PlayerID:    playerID,
		PlayerToken: generateToken(16),
		DBPlayerID:  dbPlayerID,
		DisplayName: displayName,
		JoinedAt:    time.Now(),
	}

	// Drop stale queue entries first.
	maxAge := time.Duration(sm.config.QueueExpiryMinutes) * time.Minute
	fresh := sm.queue[:0]
	for _, e := range sm.queue {
		if time.Since(e.JoinedAt) < maxAge {
			fresh = append(fresh, e)
		}
	}
	sm.queue = fresh

	if len(sm.queue) == 0 {
		sm.queue = append(sm.queue, entry)
		return nil, &entry, nil
	}

	opponent := sm.queue[0]
	sm.queue = sm.queue[1:]

	s := sm.newSessionLocked(ModeVersus, 0)
	s.Player1 = &SessionPlayer{
		ID:          opponent.PlayerID,
		PlayerToken: opponent.PlayerToken,
		DBPlayerID:  opponent.DBPlayerID,
		DisplayName: opponent.DisplayName,
		Team:        Team1,
	}
	s.Player2 = &SessionPlayer{
		ID:          entry.PlayerID,
		PlayerToken: entry.PlayerToken,
		DBPlayerID:  entry.DBPlayerID,
		DisplayName: entry.DisplayName,
		Team:        Team2,
	}
	sm.registerLocked(s)
	sm.playerToSession[opponent.PlayerID] = s.ID
	sm.playerToSession[entry.PlayerID] = s.ID

	log.Printf("[MATCH] Quickmatch paired: %s (%s vs %s)", s.ID, opponent.PlayerID, entry.PlayerID)
	return &MatchResult{
		SessionID:    s.ID,
		SessionToken: s.Token,
		Player1ID:    s.Player1.ID,
		Player1Token: s.Player1.PlayerToken,
		Player2ID:    s.Player2.ID,
		Player2Token: s.Player2.PlayerToken,
	}, &entry, nil
}

// LeaveQueue removes a waiting player. Returns whether an entry was
// removed.
func (sm *SessionManager) LeaveQueue(playerID string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for i, e := range sm.queue {
		if e.PlayerID == playerID {
			sm.queue = append(sm.queue[:i], sm.queue[i+1:]...)
			return true
		}
	}
	return false
}

// QueueLength returns the number of players waiting for a quickmatch.
func (sm *SessionManager) QueueLength() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.queue)
}

func (sm *SessionManager) newSessionLocked(mode SessionMode, level int) *Session {
	expiry := time.Duration(sm.config.GameExpiryMinutes) * time.Minute
	s := NewSession(generateSessionID(), generateToken(16), mode, level, expiry)
	s.SetAIDelay(time.Duration(sm.config.AIDelayMs) * time.Millisecond)
	s.Configure(sm.broadcaster, sm.onSessionComplete, sm.saveSessionToRedis)
	return s
}

func (sm *SessionManager) registerLocked(s *Session) {
	sm.sessions[s.ID] = s
	sm.tokenIndex[s.Token] = s.ID
	go s.Run()
}

// GetSession returns a session handle by ID.
func (sm *SessionManager) GetSession(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if s, ok := sm.sessions[id]; ok {
		return s, nil
	}
	return nil, errors.New("session not found")
}

// GetSessionByToken returns a session handle by its token.
func (sm *SessionManager) GetSessionByToken(token string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if id, ok := sm.tokenIndex[token]; ok {
		if s, ok := sm.sessions[id]; ok {
			return s, nil
		}
	}
	return nil, errors.New("session not found")
}

// GetSessionForPlayer returns the session a player belongs to.
func (sm *SessionManager) GetSessionForPlayer(playerID string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if id, ok := sm.playerToSession[playerID]; ok {
		if s, ok := sm.sessions[id]; ok {
			return s, nil
		}
	}
	return nil, errors.New("no session for player")
}

// ActiveSessionCount returns the number of registered sessions.
func (sm *SessionManager) ActiveSessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// EndSession stops a session's goroutine and removes it from the
// registry.
func (sm *SessionManager) EndSession(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	s, ok := sm.sessions[id]
	if !ok {
		return
	}
	s.Stop()
	delete(sm.sessions, id)
	delete(sm.tokenIndex, s.Token)
	if s.Player1 != nil {
		delete(sm.playerToSession, s.Player1.ID)
	}
	if s.Player2 != nil {
		delete(sm.playerToSession, s.Player2.ID)
	}
	log.Printf("[MATCH] Session %s removed", id)
}

// onSessionComplete records aggregate win/loss stats. Only aggregates:
// there is deliberately no per-move or per-match history table.
func (sm *SessionManager) onSessionComplete(s *Session, winner Team, winType string) {
	log.Printf("[MATCH] Session %s over: winner=team%d (%s)", s.ID, winner, winType)
	if sm.db == nil {
		return
	}
	record := func(p *SessionPlayer, won bool) {
		if p == nil || p.DBPlayerID == 0 {
			return
		}
		q := `UPDATE players SET total_games_played = total_games_played + 1, last_active = NOW() WHERE id = $1`
		if won {
			q = `UPDATE players SET total_games_played = total_games_played + 1, total_games_won = total_games_won + 1, last_active = NOW() WHERE id = $1`
		}
		if _, err := sm.db.Exec(q, p.DBPlayerID); err != nil {
			log.Printf("[DB] Failed to update stats for player %d: %v", p.DBPlayerID, err)
		}
	}
	record(s.Player1, winner == Team1)
	record(s.Player2, winner == Team2)
}

// saveSessionToRedis caches a live state snapshot so a reconnecting
// client can be served without waking the session goroutine.
func (sm *SessionManager) saveSessionToRedis(s *Session, st *RoundState) {
	if sm.rdb == nil {
		return
	}
	payload := map[string]any{
		"id":     s.ID,
		"token":  s.Token,
		"mode":   s.Mode,
		"status": s.Status(),
		"state":  st,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[REDIS] Failed to marshal session %s: %v", s.ID, err)
		return
	}
	ctx := context.Background()
	if err := sm.rdb.SetEx(ctx, "session:"+s.Token+":state", data, time.Hour).Err(); err != nil {
		log.Printf("[REDIS] Failed to cache session %s: %v", s.ID, err)
	}
}

// StartExpiryChecker periodically sweeps expired and finished sessions
// out of the registry.
func (sm *SessionManager) StartExpiryChecker() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		sm.sweepExpired()
	}
}

func (sm *SessionManager) sweepExpired() {
	sm.mu.RLock()
	var expired []string
	now := time.Now()
	for id, s := range sm.sessions {
		switch s.Status() {
		case StatusCompleted, StatusCancelled:
			if done := s.CompletedAt(); done != nil && now.Sub(*done) > 5*time.Minute {
				expired = append(expired, id)
			}
		default:
			if now.After(s.ExpiresAt) {
				expired = append(expired, id)
			}
		}
	}
	sm.mu.RUnlock()

	for _, id := range expired {
		log.Printf("[MATCH] Session %s expired", id)
		sm.EndSession(id)
	}
}
