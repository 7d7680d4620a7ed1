package game

import (
	"log"
	"sync"
	"time"
)

// SessionMode distinguishes two-human relay matches from vs-AI matches.
type SessionMode string

const (
	ModeVersus SessionMode = "versus"
	ModeSoloAI SessionMode = "solo_ai"
)

// SessionPlayer is one human participant.
type SessionPlayer struct {
	ID             string     `json:"id"`
	PlayerToken    string     `json:"-"`
	DBPlayerID     int        `json:"db_player_id,omitempty"`
	DisplayName    string     `json:"display_name,omitempty"`
	Team           Team       `json:"team"`
	Connected      bool       `json:"connected"`
	DisconnectedAt *time.Time `json:"-"`
}

// Broadcaster delivers session messages to connected clients. The ws
// layer implements it; sessions never touch sockets directly.
type Broadcaster interface {
	BroadcastToSession(sessionID string, message any)
	SendToPlayer(playerID string, message any)
}

// Session owns exactly one RoundState and runs it on a single goroutine.
// All mutation — ticks, launches, remote updates — flows through the
// inbox, so there is exactly one mutator at a time and no locks around
// the round state itself.
type Session struct {
	ID    string
	Token string
	Mode  SessionMode

	Player1 *SessionPlayer // team 1
	Player2 *SessionPlayer // team 2, nil in solo mode

	CreatedAt time.Time
	ExpiresAt time.Time

	// Lifecycle fields are written by the session goroutine but read from
	// HTTP handlers, the turn worker and the registry sweeper, so they get
	// their own lock instead of flowing through the inbox.
	lifecycleMu sync.RWMutex
	status      SessionStatus
	winner      Team
	winType     string
	completedAt *time.Time

	match   *Match
	planner *Planner
	aiTeam  Team
	aiDelay time.Duration

	inbox chan command
	quit  chan struct{}

	// aiTimer schedules the planner after a perceptual pacing delay; gen
	// guards against a stale timer firing into a later round.
	aiTimer *time.Timer
	gen     int

	// pendingSnapshot holds a remote snapshot deferred while local
	// physics resolves.
	pendingSnapshot *RoundState

	broadcast Broadcaster

	// onComplete is invoked once when the session reaches a terminal
	// state (win, forfeit, concede). Set by the manager.
	onComplete func(s *Session, winner Team, winType string)

	// persist saves a state snapshot out-of-band (Redis cache).
	persist func(s *Session, st *RoundState)
}

type command any

type (
	launchCmd struct {
		team   Team
		discID int
		angle  float64
		power  float64
	}
	remoteMoveCmd struct {
		fromPlayer string
		discID     int
		position   Vec2
		direction  Vec2
		power      float64
	}
	remoteSnapshotCmd struct{ state *RoundState }
	getStateCmd       struct{ reply chan *RoundState }
	concedeCmd        struct{ team Team }
	forfeitCmd        struct {
		team    Team
		winType string
	}
	aiFireCmd struct{ gen int }
	stopCmd   struct{}
)

// NewSession builds a session. For solo mode the AI plays team 2.
func NewSession(id, token string, mode SessionMode, aiLevel int, expiry time.Duration) *Session {
	s := &Session{
		ID:        id,
		Token:     token,
		Mode:      mode,
		status:    StatusWaiting,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(expiry),
		match:     NewMatch(),
		inbox:     make(chan command, 64),
		quit:      make(chan struct{}),
		aiDelay:   900 * time.Millisecond,
	}
	if mode == ModeSoloAI {
		s.aiTeam = Team2
		s.planner = NewPlanner(s.match.Board, ProfileFor(aiLevel))
	}
	return s
}

// Status returns the lifecycle status. Safe from any goroutine.
func (s *Session) Status() SessionStatus {
	s.lifecycleMu.RLock()
	defer s.lifecycleMu.RUnlock()
	return s.status
}

// Result returns the winner and win type once the session completed.
func (s *Session) Result() (Team, string) {
	s.lifecycleMu.RLock()
	defer s.lifecycleMu.RUnlock()
	return s.winner, s.winType
}

// CompletedAt returns when the session reached a terminal state, or nil
// while it is live.
func (s *Session) CompletedAt() *time.Time {
	s.lifecycleMu.RLock()
	defer s.lifecycleMu.RUnlock()
	return s.completedAt
}

func (s *Session) setStatus(st SessionStatus) {
	s.lifecycleMu.Lock()
	s.status = st
	s.lifecycleMu.Unlock()
}

// Configure wires the session's external collaborators. Must be called
// before Run.
func (s *Session) Configure(b Broadcaster, onComplete func(*Session, Team, string), persist func(*Session, *RoundState)) {
	s.broadcast = b
	s.onComplete = onComplete
	s.persist = persist
}

// SetAIDelay overrides the pacing delay before the planner fires.
func (s *Session) SetAIDelay(d time.Duration) {
	s.aiDelay = d
}

// Post delivers a command to the session goroutine. Posting to a stopped
// session is a silent no-op.
func (s *Session) Post(cmd command) {
	select {
	case s.inbox <- cmd:
	case <-s.quit:
	}
}

// Stop tears the session down, cancelling any pending AI callback.
func (s *Session) Stop() {
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
}

// Snapshot returns a copy of the current round state, synchronized
// through the session goroutine.
func (s *Session) Snapshot() *RoundState {
	reply := make(chan *RoundState, 1)
	s.Post(getStateCmd{reply: reply})
	select {
	case st := <-reply:
		return st
	case <-time.After(2 * time.Second):
		return nil
	case <-s.quit:
		return nil
	}
}

// Run is the session loop: one ticker driving simulation frames while
// discs move, and the inbox serializing every other mutation.
func (s *Session) Run() {
	ticker := time.NewTicker(time.Second / TickHz)
	defer func() {
		ticker.Stop()
		s.cancelAITimer()
	}()

	for {
		select {
		case <-s.quit:
			return
		case cmd := <-s.inbox:
			s.handleCommand(cmd)
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Session) handleCommand(cmd command) {
	switch c := cmd.(type) {
	case launchCmd:
		s.handleLaunch(c)
	case remoteMoveCmd:
		s.handleRemoteMove(c)
	case remoteSnapshotCmd:
		s.handleRemoteSnapshot(c.state)
	case getStateCmd:
		c.reply <- s.match.State.Clone()
	case concedeCmd:
		s.finish(c.team.Opponent(), "concede")
	case forfeitCmd:
		s.finish(c.team.Opponent(), c.winType)
	case aiFireCmd:
		s.handleAIFire(c.gen)
	case startCmd:
		s.handleStart()
	case stopCmd:
		s.Stop()
	}
}

func (s *Session) handleLaunch(c launchCmd) {
	if s.Status() != StatusInProgress {
		return
	}
	if !s.match.Launch(c.team, c.discID, c.angle, c.power) {
		// Input guard, not an error: wrong team, wrong phase, bad disc or
		// a drag below the minimum. Drop silently.
		log.Printf("[SESSION %s] launch rejected (team=%d disc=%d)", s.ID, c.team, c.discID)
		return
	}
	s.cancelAITimer()

	// The direction/speed pair is recomputed from the same inputs the
	// launch applied, so a peer replaying direction x speed reproduces the
	// local velocity bit for bit.
	dir, speed := launchVelocity(c.angle, c.power)
	d := s.match.State.Disc(c.discID)
	s.send(map[string]any{
		"type":      "move",
		"disc_id":   c.discID,
		"position":  d.Position,
		"direction": dir,
		"power":     speed,
		"team":      c.team,
	})
}

func (s *Session) handleRemoteMove(c remoteMoveCmd) {
	if s.Status() != StatusInProgress {
		return
	}
	if !s.match.ApplyRemoteMove(c.discID, c.position, c.direction, c.power) {
		return
	}
	s.cancelAITimer()

	// Forward the opaque move vector to the other side for bit-for-bit
	// replay; the relay never re-derives it.
	s.send(map[string]any{
		"type":      "move",
		"disc_id":   c.discID,
		"position":  c.position,
		"direction": c.direction,
		"power":     c.power,
		"player":    c.fromPlayer,
	})
}

// handleRemoteSnapshot applies a peer's full state per the reconciliation
// rule: a snapshot whose score differs is a goal authority update and is
// accepted immediately; otherwise local physics wins until it settles.
func (s *Session) handleRemoteSnapshot(remote *RoundState) {
	if s.Status() != StatusInProgress || remote == nil {
		return
	}
	local := s.match.State
	if remote.Score != local.Score {
		s.cancelAITimer()
		s.match.ApplySnapshot(remote)
		s.pendingSnapshot = nil
		s.afterStateChange()
		return
	}
	if local.Phase == PhaseResolving {
		s.pendingSnapshot = remote
		return
	}
	s.match.ApplySnapshot(remote)
	s.afterStateChange()
}

func (s *Session) tick() {
	if s.Status() != StatusInProgress {
		return
	}
	res := s.match.Tick()

	if res.Goal != nil {
		s.handleGoal(res.Goal)
		return
	}
	if res.Settled {
		if s.pendingSnapshot != nil {
			s.match.ApplySnapshot(s.pendingSnapshot)
			s.pendingSnapshot = nil
		}
		s.send(map[string]any{
			"type":        "turn_change",
			"acting_team": s.match.State.ActingTeam,
			"state":       s.match.State.Clone(),
		})
		s.afterStateChange()
	}
}

func (s *Session) handleGoal(goal *GoalEvent) {
	s.pendingSnapshot = nil
	s.send(map[string]any{
		"type":  "goal",
		"goal":  goal,
		"state": s.match.State.Clone(),
	})
	if goal.MatchOver {
		s.finish(goal.Winner, "score")
		return
	}
	s.afterStateChange()
}

// afterStateChange persists the snapshot and schedules the AI if the
// idle turn now belongs to it.
func (s *Session) afterStateChange() {
	if s.persist != nil {
		s.persist(s, s.match.State)
	}
	s.scheduleAI()
}

// scheduleAI arms the pacing timer for the planner. The generation
// counter makes an already-armed timer from a previous round harmless:
// the fire command carries the generation it was armed with and is
// dropped if the session has since moved on.
func (s *Session) scheduleAI() {
	if s.Mode != ModeSoloAI {
		return
	}
	st := s.match.State
	if st.Phase != PhaseIdle || st.ActingTeam != s.aiTeam {
		return
	}
	s.cancelAITimer()
	gen := s.gen
	s.aiTimer = time.AfterFunc(s.aiDelay, func() {
		s.Post(aiFireCmd{gen: gen})
	})
}

func (s *Session) cancelAITimer() {
	if s.aiTimer != nil {
		s.aiTimer.Stop()
		s.aiTimer = nil
	}
	s.gen++
}

func (s *Session) handleAIFire(gen int) {
	if gen != s.gen {
		return // stale timer from a superseded round
	}
	st := s.match.State
	if s.Status() != StatusInProgress || st.Phase != PhaseIdle || st.ActingTeam != s.aiTeam {
		return
	}

	plan := s.planner.Plan(st.Clone(), s.aiTeam)
	if plan.DiscID == 0 || st.Disc(plan.DiscID) == nil {
		// Planned disc vanished (reset raced the plan). No-op; the next
		// state change re-evaluates the turn.
		log.Printf("[SESSION %s] AI plan referenced missing disc %d", s.ID, plan.DiscID)
		s.scheduleAI()
		return
	}

	s.handleLaunch(launchCmd{
		team:   s.aiTeam,
		discID: plan.DiscID,
		angle:  plan.Angle,
		power:  plan.Power,
	})
}

// Start moves the session into play once participants are ready.
func (s *Session) Start() {
	s.Post(startCmd{})
}

type startCmd struct{}

func (s *Session) handleStart() {
	if s.Status() != StatusWaiting {
		return
	}
	s.setStatus(StatusInProgress)
	s.send(map[string]any{
		"type":  "game_state",
		"state": s.match.State.Clone(),
	})
	s.afterStateChange()
}

func (s *Session) finish(winner Team, winType string) {
	if s.Status() != StatusInProgress {
		return
	}
	s.cancelAITimer()
	now := time.Now()
	s.lifecycleMu.Lock()
	s.status = StatusCompleted
	s.winner = winner
	s.winType = winType
	s.completedAt = &now
	s.lifecycleMu.Unlock()

	s.send(map[string]any{
		"type":         "match_over",
		"winning_team": winner,
		"win_type":     winType,
		"score":        s.match.State.Score,
	})
	if s.onComplete != nil {
		s.onComplete(s, winner, winType)
	}
}

func (s *Session) send(message any) {
	if s.broadcast != nil {
		s.broadcast.BroadcastToSession(s.ID, message)
	}
}

// Launch posts a launch command on behalf of a team.
func (s *Session) Launch(team Team, discID int, angle, power float64) {
	s.Post(launchCmd{team: team, discID: discID, angle: angle, power: power})
}

// RemoteMove posts a peer move event for bit-for-bit replay.
func (s *Session) RemoteMove(fromPlayer string, discID int, position, direction Vec2, power float64) {
	s.Post(remoteMoveCmd{
		fromPlayer: fromPlayer,
		discID:     discID,
		position:   position,
		direction:  direction,
		power:      power,
	})
}

// RemoteSnapshot posts a peer's full state for reconciliation.
func (s *Session) RemoteSnapshot(state *RoundState) {
	s.Post(remoteSnapshotCmd{state: state})
}

// Concede posts a concession by the given team.
func (s *Session) Concede(team Team) {
	s.Post(concedeCmd{team: team})
}

// Forfeit posts a forfeit against the given team (turn timer,
// disconnect).
func (s *Session) Forfeit(team Team, winType string) {
	s.Post(forfeitCmd{team: team, winType: winType})
}

// PlayerByID returns the session player with the given id, or nil.
func (s *Session) PlayerByID(playerID string) *SessionPlayer {
	if s.Player1 != nil && s.Player1.ID == playerID {
		return s.Player1
	}
	if s.Player2 != nil && s.Player2.ID == playerID {
		return s.Player2
	}
	return nil
}

// PlayerByToken resolves a player by their per-session token.
func (s *Session) PlayerByToken(token string) *SessionPlayer {
	if s.Player1 != nil && s.Player1.PlayerToken == token {
		return s.Player1
	}
	if s.Player2 != nil && s.Player2.PlayerToken == token {
		return s.Player2
	}
	return nil
}

// OpponentID returns the other human's player id, or "".
func (s *Session) OpponentID(playerID string) string {
	if s.Player1 != nil && s.Player1.ID == playerID && s.Player2 != nil {
		return s.Player2.ID
	}
	if s.Player2 != nil && s.Player2.ID == playerID && s.Player1 != nil {
		return s.Player1.ID
	}
	return ""
}
