package game

import (
	"math"
	"testing"
)

// minimalState builds a round state with just the ball and the given
// player discs.
func minimalState(ball *Disc, players ...*Disc) *RoundState {
	discs := append([]*Disc{ball}, players...)
	return &RoundState{Discs: discs, ActingTeam: Team2, Phase: PhaseIdle}
}

func TestSampleMouthIncludesCenter(t *testing.T) {
	board := NewBoard()
	p := NewPlanner(board, DifficultyNormal)
	goal := board.AttackGoalOf(Team1) // top mouth

	targets := p.sampleMouth(goal)
	if len(targets) != DifficultyNormal.GoalSamples {
		t.Fatalf("Expected %d samples, got %d", DifficultyNormal.GoalSamples, len(targets))
	}

	center := goal.Center()
	found := false
	for _, g := range targets {
		if g.Y != goal.EdgeY {
			t.Errorf("Sample off the edge line: %+v", g)
		}
		if !goal.Contains(g.X) {
			t.Errorf("Sample outside the mouth: %+v", g)
		}
		if math.Abs(g.X-center.X) < 0.001 {
			found = true
		}
	}
	if !found {
		t.Error("Odd sample count should include the mouth center")
	}
}

func TestDirectShotOnOpenLane(t *testing.T) {
	// Attacker directly behind the ball on the line to the mouth center:
	// the direct search must find it, and the aim is straight up.
	board := NewBoard()
	ball := discAt(BallID, BoardWidth/2, 600, 0, 0, RoleBall, TeamNone)
	attacker := discAt(1, BoardWidth/2, 800, 0, 0, RolePlayer, Team1)

	p := NewPlanner(board, DifficultyNormal)
	plan := p.Plan(minimalState(ball, attacker), Team1)

	if plan.DiscID != 1 {
		t.Fatalf("Expected the collinear attacker, got disc %d", plan.DiscID)
	}
	if plan.ViaBankPoint != nil {
		t.Error("Open lane should produce a direct shot, not a bank")
	}
	if math.Abs(plan.Angle-(-math.Pi/2)) > 0.001 {
		t.Errorf("Aim should be straight at the mouth center: angle=%.4f", plan.Angle)
	}
	if plan.Power < MinDragLength || plan.Power > MaxDragLength {
		t.Errorf("Power outside drag range: %.4f", plan.Power)
	}
}

func TestBlockedLaneRejectsDirectCandidate(t *testing.T) {
	board := NewBoard()
	ball := discAt(BallID, BoardWidth/2, 600, 0, 0, RoleBall, TeamNone)
	attacker := discAt(1, BoardWidth/2, 800, 0, 0, RolePlayer, Team1)
	blocker := discAt(6, BoardWidth/2, 300, 0, 0, RolePlayer, Team2)

	p := NewPlanner(board, DifficultyEasy) // no bank samples
	_, ok := p.searchDirect(ball, []*Disc{attacker}, []*Disc{blocker},
		[]Vec2{board.AttackGoalOf(Team1).Center()})
	if ok {
		t.Error("A blocker on the lane should reject the candidate")
	}
}

func TestBankGeometryRejectsStraightLines(t *testing.T) {
	ballPos := NewVec2(450, 750)
	leftBank := NewVec2(BallRadius, 400)

	if !bankGeometryValid(ballPos, leftBank, NewVec2(450, 0), true) {
		t.Error("Genuine left-wall reflection should validate")
	}
	// Outgoing leg continuing toward the wall is not a reflection.
	if bankGeometryValid(ballPos, leftBank, NewVec2(10, 0), true) {
		t.Error("Path continuing into the wall must not validate")
	}
	// Right-wall orientation check.
	rightBank := NewVec2(BoardWidth-BallRadius, 400)
	if !bankGeometryValid(ballPos, rightBank, NewVec2(450, 0), false) {
		t.Error("Genuine right-wall reflection should validate")
	}
}

func TestFallbackAlwaysProducesLaunch(t *testing.T) {
	// Attacker out of reach for every profile: the search fails and the
	// fallback still yields a launchable plan with the nearest disc.
	board := NewBoard()
	ball := discAt(BallID, 100, 100, 0, 0, RoleBall, TeamNone)
	far := discAt(1, 800, 1400, 0, 0, RolePlayer, Team1)

	for _, prof := range []DifficultyProfile{DifficultyEasy, DifficultyNormal, DifficultyHard} {
		p := NewPlanner(board, prof)
		plan := p.Plan(minimalState(ball, far), Team1)
		if plan.DiscID != 1 {
			t.Errorf("%s: fallback should pick the nearest attacker, got disc %d", prof.Name, plan.DiscID)
		}
		if plan.Power < MinDragLength || plan.Power > MaxDragLength {
			t.Errorf("%s: fallback power outside drag range: %.4f", prof.Name, plan.Power)
		}
	}
}

func TestPlanOnStandardLayout(t *testing.T) {
	// Whatever the difficulty, a fresh layout must yield a launch for the
	// planning team using one of its own discs.
	for _, prof := range []DifficultyProfile{DifficultyEasy, DifficultyNormal, DifficultyHard} {
		m := NewMatch()
		p := NewPlanner(m.Board, prof)
		plan := p.Plan(m.State.Clone(), Team2)

		d := m.State.Disc(plan.DiscID)
		if d == nil || d.Team != Team2 || d.Role != RolePlayer {
			t.Fatalf("%s: plan targets disc %d, not a team 2 player disc", prof.Name, plan.DiscID)
		}
		if plan.Power < MinDragLength || plan.Power > MaxDragLength {
			t.Errorf("%s: power outside drag range: %.4f", prof.Name, plan.Power)
		}
		if !m.Launch(Team2, plan.DiscID, plan.Angle, plan.Power) {
			// Team 1 opens; hand the turn over first.
			m.State.ActingTeam = Team2
			if !m.Launch(Team2, plan.DiscID, plan.Angle, plan.Power) {
				t.Errorf("%s: planned launch rejected by the match", prof.Name)
			}
		}
	}
}

func TestProfileForLevels(t *testing.T) {
	if ProfileFor(0).Name != "easy" || ProfileFor(1).Name != "easy" {
		t.Error("Levels <=1 should map to easy")
	}
	if ProfileFor(2).Name != "normal" {
		t.Error("Level 2 should map to normal")
	}
	if ProfileFor(3).Name != "hard" || ProfileFor(9).Name != "hard" {
		t.Error("Levels >=3 should map to hard")
	}
}
