package game

import "log"

// Phase is the round state machine phase.
type Phase string

const (
	PhaseIdle      Phase = "IDLE"      // acting team may launch
	PhaseResolving Phase = "RESOLVING" // discs in motion, ticks running
	PhaseMatchOver Phase = "MATCH_OVER"
)

// Score holds the cumulative goal count per team.
type Score struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

func (s Score) Of(t Team) int {
	if t == Team1 {
		return s.Team1
	}
	return s.Team2
}

func (s *Score) add(t Team) {
	if t == Team1 {
		s.Team1++
	} else if t == Team2 {
		s.Team2++
	}
}

// RoundState is the complete mutable state of one round. It has exactly
// one owner (the session goroutine); everything else sees copies.
type RoundState struct {
	Discs      []*Disc `json:"discs"`
	ActingTeam Team    `json:"acting_team"`
	// SelectedDiscID is the disc of the last accepted launch, 0 if none.
	// Player disc ids start at 1, so 0 is free to mean "none".
	SelectedDiscID int   `json:"selected_disc_id"`
	InMotion       bool  `json:"in_motion"`
	Score          Score `json:"score"`
	Phase          Phase `json:"phase"`
	Winner         Team  `json:"winner,omitempty"`
}

// Disc returns the disc with the given id, or nil.
func (s *RoundState) Disc(id int) *Disc {
	for _, d := range s.Discs {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// Ball returns the ball disc.
func (s *RoundState) Ball() *Disc {
	return s.Disc(BallID)
}

// Clone deep-copies the round state for serialization or planner input.
func (s *RoundState) Clone() *RoundState {
	c := *s
	c.Discs = make([]*Disc, len(s.Discs))
	for i, d := range s.Discs {
		c.Discs[i] = d.Clone()
	}
	return &c
}

// GoalEvent describes a goal detected during a tick.
type GoalEvent struct {
	ScoringTeam Team  `json:"scoring_team"`
	Against     Team  `json:"against"`
	Score       Score `json:"score"`
	MatchOver   bool  `json:"match_over"`
	Winner      Team  `json:"winner,omitempty"`
}

// TickResult summarizes what one simulation tick produced.
type TickResult struct {
	AnyMoving bool
	Goal      *GoalEvent
	Settled   bool // motion ended with no goal; turn flipped
}

// Match binds a board, a round state and the physics engine into the
// turn/scoring state machine.
type Match struct {
	Board  *Board
	State  *RoundState
	engine *Engine
}

// NewMatch creates a match with the standard board and layout.
// Team 1 acts first.
func NewMatch() *Match {
	board := NewBoard()
	return &Match{
		Board: board,
		State: &RoundState{
			Discs:      StandardLayout(),
			ActingTeam: Team1,
			Phase:      PhaseIdle,
		},
		engine: NewEngine(board),
	}
}

// Launch validates and applies a launch for the given team. Invalid
// requests (wrong phase, unknown disc, wrong team, drag below the
// minimum) are input guards, not errors: they return false and change
// nothing.
func (m *Match) Launch(team Team, discID int, angle, power float64) bool {
	s := m.State
	if s.Phase != PhaseIdle || s.ActingTeam != team {
		return false
	}
	d := s.Disc(discID)
	if d == nil || d.Role != RolePlayer || d.Team != team {
		return false
	}
	if power < MinDragLength {
		return false
	}

	dir, speed := launchVelocity(angle, power)
	d.Velocity = dir.Times(speed)
	s.SelectedDiscID = discID
	s.InMotion = true
	s.Phase = PhaseResolving
	return true
}

// launchVelocity maps a drag gesture onto the wire pair the relay
// broadcasts: a unit direction and a scalar speed. Both the launcher and
// every replaying peer compute the disc velocity as direction x speed,
// so the fixed-precision rounding lands identically on every side.
func launchVelocity(angle, power float64) (Vec2, float64) {
	if power > MaxDragLength {
		power = MaxDragLength
	}
	return VecFromAngle(angle, 1), fix(power * PowerFactor)
}

// ApplyRemoteMove replays a peer's shot bit-for-bit: position and
// velocity are set directly rather than re-derived, so both sides
// resolve the identical motion. Unknown disc ids are a no-op.
func (m *Match) ApplyRemoteMove(discID int, position, direction Vec2, power float64) bool {
	s := m.State
	d := s.Disc(discID)
	if d == nil {
		log.Printf("[MATCH] remote move for unknown disc %d ignored", discID)
		return false
	}
	d.Position = position
	d.Velocity = direction.Times(power)
	s.SelectedDiscID = discID
	s.InMotion = true
	s.Phase = PhaseResolving
	return true
}

// Tick advances the simulation one frame while resolving. Goal checks run
// in a fixed scan order (team 1's mouth first), so a single tick can
// never register goals for both teams.
func (m *Match) Tick() TickResult {
	s := m.State
	if s.Phase != PhaseResolving {
		return TickResult{}
	}

	anyMoving := m.engine.Step(s.Discs)
	s.InMotion = anyMoving

	if goal := m.detectGoal(); goal != nil {
		return TickResult{AnyMoving: anyMoving, Goal: goal}
	}

	if !anyMoving {
		s.Phase = PhaseIdle
		s.SelectedDiscID = 0
		s.ActingTeam = s.ActingTeam.Opponent()
		return TickResult{Settled: true}
	}

	return TickResult{AnyMoving: true}
}

// detectGoal checks whether the ball center has entered a goal mouth and,
// if so, applies scoring and either resets the round or ends the match.
// A goal fires the instant it is detected, even while other discs move.
func (m *Match) detectGoal() *GoalEvent {
	s := m.State
	ball := s.Ball()
	if ball == nil {
		return nil
	}

	for _, mouth := range m.Board.Goals {
		if !mouth.Contains(ball.Position.X) {
			continue
		}
		entered := false
		if mouth.EdgeY == 0 {
			entered = ball.Position.Y <= mouth.EdgeY
		} else {
			entered = ball.Position.Y >= mouth.EdgeY
		}
		if !entered {
			continue
		}

		scorer := mouth.DefendingTeam.Opponent()
		s.Score.add(scorer)
		event := &GoalEvent{
			ScoringTeam: scorer,
			Against:     mouth.DefendingTeam,
			Score:       s.Score,
		}

		if s.Score.Of(scorer) >= WinThreshold {
			s.Phase = PhaseMatchOver
			s.Winner = scorer
			s.InMotion = false
			s.SelectedDiscID = 0
			event.MatchOver = true
			event.Winner = scorer
		} else {
			m.ResetRound()
		}
		return event
	}
	return nil
}

// ResetRound re-instantiates the discs from the layout template and hands
// the opening launch to team 1, preserving the cumulative score. Calling
// it twice in a row yields the identical disc model.
func (m *Match) ResetRound() {
	s := m.State
	s.Discs = StandardLayout()
	s.ActingTeam = Team1
	s.SelectedDiscID = 0
	s.InMotion = false
	s.Phase = PhaseIdle
}

// ApplySnapshot replaces the whole round state wholesale. Partial
// mutation of someone else's state is never allowed; this is the only
// write path for remote snapshots.
func (m *Match) ApplySnapshot(remote *RoundState) {
	m.State = remote.Clone()
}
