package game

// Engine advances disc physics one tick at a time against a fixed board.
// It is a pure function of the disc list: no allocation, no events, no
// goal logic — the round state machine inspects positions afterwards.
type Engine struct {
	Board *Board
}

func NewEngine(board *Board) *Engine {
	return &Engine{Board: board}
}

// Step runs one simulation tick: collision resolution on current
// positions, then the position/damping update. Returns whether any disc
// is still moving. Per-tick displacement is small relative to the disc
// radii at TickHz, so current-position tests are sufficient (no sweep).
func (e *Engine) Step(discs []*Disc) bool {
	for i := 0; i < len(discs); i++ {
		for j := i + 1; j < len(discs); j++ {
			resolveDiscPair(discs[i], discs[j])
		}
	}
	for _, d := range discs {
		e.resolveWalls(d)
	}

	anyMoving := false
	for _, d := range discs {
		e.integrate(d)
		if d.Moving() {
			anyMoving = true
		}
	}
	return anyMoving
}

// resolveDiscPair applies the equal-mass frictionless impulse response:
// separate the overlap 50/50 along the contact normal, exchange the
// normal velocity components scaled by the restitution, keep the
// tangential components untouched.
func resolveDiscPair(a, b *Disc) {
	delta := b.Position.Minus(a.Position)
	dist := delta.Magnitude()
	combined := a.Radius + b.Radius
	if dist >= combined {
		return
	}
	if dist == 0 {
		// Exactly coincident centers: no usable contact normal. Skip this
		// tick instead of dividing by zero; damping or another contact will
		// break the tie. Known approximation.
		return
	}

	n := delta.Times(1.0 / dist)
	t := n.RightNormal()

	overlap := combined - dist
	a.Position = a.Position.Minus(n.Times(overlap / 2))
	b.Position = b.Position.Plus(n.Times(overlap / 2))

	aNormal := a.Velocity.Dot(n)
	aTangent := a.Velocity.Dot(t)
	bNormal := b.Velocity.Dot(n)
	bTangent := b.Velocity.Dot(t)

	a.Velocity = n.Times(bNormal * DiscRestitution).Plus(t.Times(aTangent))
	b.Velocity = n.Times(aNormal * DiscRestitution).Plus(t.Times(bTangent))
}

// resolveWalls reflects a disc off the board edges. The two goal edges
// carry a mouth segment that lets the ball through while still
// reflecting player discs.
func (e *Engine) resolveWalls(d *Disc) {
	r := d.Radius
	b := e.Board

	if d.Position.X-r < 0 && d.Velocity.X < 0 {
		d.Velocity = NewVec2(-d.Velocity.X*WallRestitution, d.Velocity.Y)
		d.Position = NewVec2(r, d.Position.Y)
	}
	if d.Position.X+r > b.Width && d.Velocity.X > 0 {
		d.Velocity = NewVec2(-d.Velocity.X*WallRestitution, d.Velocity.Y)
		d.Position = NewVec2(b.Width-r, d.Position.Y)
	}

	if d.Position.Y-r < 0 && d.Velocity.Y < 0 {
		if !(d.Role == RoleBall && b.GoalOf(Team2).Contains(d.Position.X)) {
			d.Velocity = NewVec2(d.Velocity.X, -d.Velocity.Y*WallRestitution)
			d.Position = NewVec2(d.Position.X, r)
		}
	}
	if d.Position.Y+r > b.Height && d.Velocity.Y > 0 {
		if !(d.Role == RoleBall && b.GoalOf(Team1).Contains(d.Position.X)) {
			d.Velocity = NewVec2(d.Velocity.X, -d.Velocity.Y*WallRestitution)
			d.Position = NewVec2(d.Position.X, b.Height-r)
		}
	}
}

// integrate applies the per-tick position update, damping and the
// snap-to-zero threshold, then hard-clamps player discs inside the board
// so imprecise corner reflections can never push one out of bounds.
func (e *Engine) integrate(d *Disc) {
	d.Position = d.Position.Plus(d.Velocity)
	d.Velocity = d.Velocity.Times(DampingFactor)
	if d.Velocity.Magnitude() < MinVelocity {
		d.Velocity = Vec2{}
	}

	if d.Role == RolePlayer {
		d.Position = NewVec2(
			clamp(d.Position.X, d.Radius, e.Board.Width-d.Radius),
			clamp(d.Position.Y, d.Radius, e.Board.Height-d.Radius),
		)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
