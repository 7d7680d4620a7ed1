package game

import (
	"math"
	"testing"
)

// Helper to build a minimal disc set: the ball plus whatever extras the
// test needs. Unused formation discs are omitted entirely.
func discAt(id int, x, y, vx, vy float64, role Role, team Team) *Disc {
	r := PlayerDiscRadius
	if role == RoleBall {
		r = BallRadius
	}
	return &Disc{
		ID:       id,
		Position: NewVec2(x, y),
		Velocity: NewVec2(vx, vy),
		Radius:   r,
		Role:     role,
		Team:     team,
	}
}

func TestHeadOnCollisionTransfersVelocity(t *testing.T) {
	// Disc 1 moving right into stationary disc 2, slight overlap so the
	// contact resolves this tick.
	a := discAt(1, 400, 400, 10, 0, RolePlayer, Team1)
	b := discAt(2, 479, 400, 0, 0, RolePlayer, Team1)
	engine := NewEngine(NewBoard())

	engine.Step([]*Disc{a, b})

	// Equal masses head-on: the mover's normal component transfers to the
	// target (scaled by restitution), leaving the mover near rest.
	if b.Velocity.X <= 0 {
		t.Errorf("Target disc should move right after head-on hit: vx=%.4f", b.Velocity.X)
	}
	if math.Abs(a.Velocity.X) > 1 {
		t.Errorf("Striker should have shed its normal velocity: vx=%.4f", a.Velocity.X)
	}
	if b.Velocity.X > 10 {
		t.Errorf("Restitution must not add energy: vx=%.4f", b.Velocity.X)
	}
}

func TestHeadOnEqualSpeedsReverseSymmetrically(t *testing.T) {
	// Equal and opposite approach speeds: both discs come out reversed,
	// scaled by restitution, and the symmetry survives the exchange.
	a := discAt(1, 400, 400, 10, 0, RolePlayer, Team1)
	b := discAt(2, 479, 400, -10, 0, RolePlayer, Team2)
	engine := NewEngine(NewBoard())

	engine.Step([]*Disc{a, b})

	if a.Velocity.X >= 0 || b.Velocity.X <= 0 {
		t.Fatalf("Both discs should reverse: a=%+v b=%+v", a.Velocity, b.Velocity)
	}
	if a.Velocity.X != -b.Velocity.X {
		t.Errorf("Symmetric collision should stay symmetric: a=%.4f b=%.4f", a.Velocity.X, b.Velocity.X)
	}
	want := fix(fix(10*DiscRestitution) * DampingFactor)
	if math.Abs(b.Velocity.X-want) > 0.0001 {
		t.Errorf("Speed should be restitution then damping: got %.4f want %.4f", b.Velocity.X, want)
	}
	if a.Velocity.Y != 0 || b.Velocity.Y != 0 {
		t.Errorf("Head-on hit must stay on the axis: a=%+v b=%+v", a.Velocity, b.Velocity)
	}
}

func TestDampingStopsDiscExactly(t *testing.T) {
	d := discAt(1, 450, 750, 10, 0, RolePlayer, Team1)
	engine := NewEngine(NewBoard())

	ticks := 0
	for engine.Step([]*Disc{d}) {
		ticks++
		if ticks > 1000 {
			t.Fatal("Disc never stopped")
		}
	}

	// Snap-to-zero means exactly zero, not merely small.
	if !d.Velocity.IsZero() {
		t.Errorf("Velocity should be exactly zero after settling: %+v", d.Velocity)
	}
	if ticks == 0 {
		t.Error("Disc should have moved for at least one tick")
	}
}

func TestWallBounceReflectsAndDamps(t *testing.T) {
	// Heading right into the side wall.
	d := discAt(1, BoardWidth-PlayerDiscRadius-5, 750, 20, 0, RolePlayer, Team1)
	engine := NewEngine(NewBoard())

	bounced := false
	for i := 0; i < 20; i++ {
		engine.Step([]*Disc{d})
		if d.Velocity.X < 0 {
			bounced = true
			break
		}
	}
	if !bounced {
		t.Fatal("Disc never reflected off the right wall")
	}
	// Wall restitution sheds energy on reflection.
	if math.Abs(d.Velocity.X) >= 20 {
		t.Errorf("Reflected speed should be below incoming speed: vx=%.4f", d.Velocity.X)
	}
	if d.Position.X+d.Radius > BoardWidth {
		t.Errorf("Disc left the board: x=%.4f", d.Position.X)
	}
}

func TestBallPassesThroughGoalMouth(t *testing.T) {
	// Ball aimed straight at the center of the top mouth.
	ball := discAt(BallID, BoardWidth/2, 60, 0, -15, RoleBall, TeamNone)
	engine := NewEngine(NewBoard())

	for i := 0; i < 30; i++ {
		engine.Step([]*Disc{ball})
		if ball.Position.Y < 0 {
			return // crossed the edge, as it should
		}
	}
	t.Errorf("Ball should have crossed the goal edge: y=%.4f vy=%.4f", ball.Position.Y, ball.Velocity.Y)
}

func TestPlayerDiscCannotEnterGoalMouth(t *testing.T) {
	// Same trajectory as the ball test, but a player disc: the mouth must
	// behave like solid wall for it.
	d := discAt(1, BoardWidth/2, 60, 0, -15, RolePlayer, Team1)
	engine := NewEngine(NewBoard())

	for i := 0; i < 60; i++ {
		engine.Step([]*Disc{d})
		if d.Position.Y-d.Radius < 0 {
			t.Fatalf("Player disc crossed the goal edge: y=%.4f", d.Position.Y)
		}
	}
	if d.Position.Y < d.Radius {
		t.Errorf("Player disc clamped outside bounds: y=%.4f", d.Position.Y)
	}
}

func TestSimulationIsDeterministic(t *testing.T) {
	run := func() []Vec2 {
		discs := StandardLayout()
		// Kick a forward into the pack.
		discs[3].Velocity = VecFromAngle(-math.Pi/2, 200*PowerFactor)
		engine := NewEngine(NewBoard())
		for i := 0; i < 600; i++ {
			if !engine.Step(discs) {
				break
			}
		}
		out := make([]Vec2, len(discs))
		for i, d := range discs {
			out[i] = d.Position
		}
		return out
	}

	first := run()
	second := run()
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Non-deterministic disc %d: run1=%+v run2=%+v", i, first[i], second[i])
		}
	}
}

func TestOverlappingRestingDiscsSeparateWithoutEnergy(t *testing.T) {
	// Two resting discs forced into overlap must be pushed apart by the
	// resolver without inventing velocity.
	a := discAt(1, 400, 400, 0, 0, RolePlayer, Team1)
	b := discAt(2, 460, 400, 0, 0, RolePlayer, Team2)
	engine := NewEngine(NewBoard())

	engine.Step([]*Disc{a, b})

	if gap := a.Position.DistanceTo(b.Position); gap < a.Radius+b.Radius-0.001 {
		t.Errorf("Discs still overlap: distance=%.4f", gap)
	}
	if !a.Velocity.IsZero() || !b.Velocity.IsZero() {
		t.Errorf("Separation must not add velocity: a=%+v b=%+v", a.Velocity, b.Velocity)
	}
}

func TestStepReportsMotion(t *testing.T) {
	engine := NewEngine(NewBoard())
	discs := StandardLayout()

	if engine.Step(discs) {
		t.Error("Resting layout should report no motion")
	}

	discs[1].Velocity = NewVec2(10, 0)
	if !engine.Step(discs) {
		t.Error("Step should report motion while a disc moves")
	}
}
