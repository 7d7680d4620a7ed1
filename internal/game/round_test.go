package game

import (
	"math"
	"testing"
)

func TestNewMatchStartState(t *testing.T) {
	m := NewMatch()

	if m.State.ActingTeam != Team1 {
		t.Errorf("Team 1 should open: got team %d", m.State.ActingTeam)
	}
	if m.State.Phase != PhaseIdle {
		t.Errorf("Match should start idle: got %s", m.State.Phase)
	}
	if len(m.State.Discs) != NumDiscs {
		t.Fatalf("Expected %d discs, got %d", NumDiscs, len(m.State.Discs))
	}

	ball := m.State.Ball()
	if ball == nil || ball.Position != NewVec2(BoardWidth/2, BoardHeight/2) {
		t.Errorf("Ball should start at board center: %+v", ball)
	}
}

func TestLaunchGuards(t *testing.T) {
	cases := []struct {
		name   string
		team   Team
		discID int
		power  float64
	}{
		{"wrong team acting", Team2, 6, 100},
		{"opponent disc", Team1, 6, 100},
		{"ball is not launchable", Team1, BallID, 100},
		{"unknown disc", Team1, 99, 100},
		{"drag below minimum", Team1, 1, MinDragLength - 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMatch()
			if m.Launch(tc.team, tc.discID, 0, tc.power) {
				t.Error("Launch should have been rejected")
			}
			if m.State.Phase != PhaseIdle || m.State.SelectedDiscID != 0 {
				t.Error("Rejected launch must not change state")
			}
		})
	}
}

func TestLaunchClampsDragAndSetsVelocity(t *testing.T) {
	m := NewMatch()
	if !m.Launch(Team1, 1, 0, MaxDragLength*2) {
		t.Fatal("Valid launch rejected")
	}

	d := m.State.Disc(1)
	want := fix(MaxDragLength * PowerFactor)
	if got := d.Velocity.Magnitude(); math.Abs(got-want) > 0.001 {
		t.Errorf("Over-long drag should clamp: speed=%.4f want=%.4f", got, want)
	}
	if m.State.Phase != PhaseResolving || !m.State.InMotion {
		t.Error("Accepted launch should enter the resolving phase")
	}
	if m.State.SelectedDiscID != 1 {
		t.Errorf("Selected disc should be recorded: got %d", m.State.SelectedDiscID)
	}
}

func TestTurnAlternatesAfterSettle(t *testing.T) {
	m := NewMatch()
	// A minimal shot aimed at open board: settles without touching anything.
	if !m.Launch(Team1, 1, 0, MinDragLength) {
		t.Fatal("Launch rejected")
	}

	settled := false
	for i := 0; i < 1000; i++ {
		if res := m.Tick(); res.Settled {
			settled = true
			break
		}
	}
	if !settled {
		t.Fatal("Round never settled")
	}
	if m.State.ActingTeam != Team2 {
		t.Errorf("Turn should pass to team 2: got team %d", m.State.ActingTeam)
	}
	if m.State.Phase != PhaseIdle || m.State.SelectedDiscID != 0 {
		t.Error("Settle should clear selection and return to idle")
	}
}

func TestGoalAgainstTeam2ScoresAndResets(t *testing.T) {
	m := NewMatch()
	m.State.Phase = PhaseResolving
	ball := m.State.Ball()
	ball.Position = NewVec2(BoardWidth/2, -1) // inside team 2's mouth
	ball.Velocity = NewVec2(0, -5)

	res := m.Tick()
	if res.Goal == nil {
		t.Fatal("Expected a goal event")
	}
	if res.Goal.ScoringTeam != Team1 || res.Goal.Against != Team2 {
		t.Errorf("Wrong attribution: scorer=%d against=%d", res.Goal.ScoringTeam, res.Goal.Against)
	}
	if m.State.Score.Team1 != 1 || m.State.Score.Team2 != 0 {
		t.Errorf("Score not applied: %+v", m.State.Score)
	}

	// Round resets: fresh layout, team 1 opens, score preserved.
	if m.State.Phase != PhaseIdle || m.State.ActingTeam != Team1 {
		t.Error("Goal should reset the round to team 1's open")
	}
	if got := m.State.Ball().Position; got != NewVec2(BoardWidth/2, BoardHeight/2) {
		t.Errorf("Ball not back at center after reset: %+v", got)
	}
}

func TestGoalScanOrderIsExclusive(t *testing.T) {
	// A ball can only ever be inside one mouth, but the scan must still be
	// a fixed order so one tick registers exactly one goal.
	m := NewMatch()
	if m.Board.Goals[0].DefendingTeam != Team1 {
		t.Fatal("Team 1's goal must be scanned first")
	}

	m.State.Phase = PhaseResolving
	ball := m.State.Ball()
	ball.Position = NewVec2(BoardWidth/2, BoardHeight+1)

	res := m.Tick()
	if res.Goal == nil {
		t.Fatal("Expected a goal event")
	}
	if res.Goal.ScoringTeam != Team2 {
		t.Errorf("Ball in team 1's mouth should credit team 2: scorer=%d", res.Goal.ScoringTeam)
	}
	if m.State.Score.Team1 != 0 || m.State.Score.Team2 != 1 {
		t.Errorf("Exactly one goal expected: %+v", m.State.Score)
	}
}

func TestWinThresholdEndsMatch(t *testing.T) {
	m := NewMatch()
	m.State.Score.Team1 = WinThreshold - 1
	m.State.Phase = PhaseResolving
	m.State.Ball().Position = NewVec2(BoardWidth/2, -1)

	res := m.Tick()
	if res.Goal == nil || !res.Goal.MatchOver {
		t.Fatal("Third goal should end the match")
	}
	if res.Goal.Winner != Team1 || m.State.Winner != Team1 {
		t.Errorf("Winner should be team 1: %+v", res.Goal)
	}
	if m.State.Phase != PhaseMatchOver {
		t.Errorf("Phase should be match over: %s", m.State.Phase)
	}

	// No further launches accepted.
	if m.Launch(Team1, 1, 0, 100) {
		t.Error("Launch must be rejected after match over")
	}
}

func TestResetRoundIsIdempotent(t *testing.T) {
	m := NewMatch()
	m.ResetRound()
	first := m.State.Clone()
	m.ResetRound()

	for i, d := range m.State.Discs {
		if d.Position != first.Discs[i].Position || !d.Velocity.IsZero() {
			t.Errorf("Disc %d differs between resets: %+v vs %+v", d.ID, d.Position, first.Discs[i].Position)
		}
	}
}

func TestApplyRemoteMoveIsExactReplay(t *testing.T) {
	m := NewMatch()
	pos := NewVec2(300, 1200)
	dir := NewVec2(0.6, -0.8)
	power := 18.5

	if !m.ApplyRemoteMove(2, pos, dir, power) {
		t.Fatal("Remote move rejected")
	}
	d := m.State.Disc(2)
	if d.Position != pos {
		t.Errorf("Position must be taken verbatim: %+v", d.Position)
	}
	// Velocity is direction*power with no re-derivation, so both peers
	// integrate identical motion.
	if want := dir.Times(power); d.Velocity != want {
		t.Errorf("Velocity should be exactly direction*power: got %+v want %+v", d.Velocity, want)
	}
	if m.State.Phase != PhaseResolving {
		t.Error("Remote move should force the resolving phase")
	}

	if m.ApplyRemoteMove(99, pos, dir, power) {
		t.Error("Unknown disc id should be a no-op")
	}
}

func TestApplySnapshotReplacesWholeState(t *testing.T) {
	m := NewMatch()
	remote := m.State.Clone()
	remote.Score.Team2 = 2
	remote.ActingTeam = Team2
	remote.Ball().Position = NewVec2(100, 100)

	m.ApplySnapshot(remote)

	if m.State.Score.Team2 != 2 || m.State.ActingTeam != Team2 {
		t.Errorf("Snapshot not applied: %+v", m.State.Score)
	}
	if m.State.Ball().Position != NewVec2(100, 100) {
		t.Errorf("Disc positions not applied: %+v", m.State.Ball().Position)
	}
	// The applied state is a copy, not an alias of the remote.
	remote.Ball().Position = NewVec2(1, 1)
	if m.State.Ball().Position == NewVec2(1, 1) {
		t.Error("ApplySnapshot must copy, not alias")
	}
}
