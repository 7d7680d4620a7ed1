package game

import "math"

// ShotPlan is the planner's output: one launch for one disc. ViaBankPoint
// is set for one-cushion bank shots, nil for direct shots. Plans live for
// a single decision cycle and are never persisted.
type ShotPlan struct {
	DiscID       int     `json:"disc_id"`
	Angle        float64 `json:"angle"`
	Power        float64 `json:"power"`
	ViaBankPoint *Vec2   `json:"via_bank_point,omitempty"`
}

// DifficultyProfile parameterizes the single candidate scorer instead of
// branching code paths per skill level.
type DifficultyProfile struct {
	Name             string  `json:"name"`
	GoalSamples      int     `json:"goal_samples"` // odd, so the mouth center is always sampled
	WallSamples      int     `json:"wall_samples"` // bank points per side wall
	MaxReach         float64 `json:"max_reach"`
	PowerScale       float64 `json:"power_scale"`
	BankPenalty      float64 `json:"bank_penalty"`
	BankPowerBoost   float64 `json:"bank_power_boost"` // compensates wall energy loss
	AngleBonusWeight float64 `json:"angle_bonus_weight"`
	GoalBias         float64 `json:"goal_bias"` // fallback aim bias toward the goal, 0..1
}

var (
	DifficultyEasy = DifficultyProfile{
		Name: "easy", GoalSamples: 3, WallSamples: 0, MaxReach: 450,
		PowerScale: 0.8, BankPenalty: 1.0, BankPowerBoost: 1.0,
		AngleBonusWeight: 0, GoalBias: 0,
	}
	DifficultyNormal = DifficultyProfile{
		Name: "normal", GoalSamples: 5, WallSamples: 5, MaxReach: 650,
		PowerScale: 1.0, BankPenalty: 0.6, BankPowerBoost: 1.25,
		AngleBonusWeight: 0.3, GoalBias: 0.5,
	}
	DifficultyHard = DifficultyProfile{
		Name: "hard", GoalSamples: 7, WallSamples: 9, MaxReach: 900,
		PowerScale: 1.15, BankPenalty: 0.4, BankPowerBoost: 1.3,
		AngleBonusWeight: 0.5, GoalBias: 1.0,
	}
)

// ProfileFor maps a difficulty level (1..3) onto a profile.
func ProfileFor(level int) DifficultyProfile {
	switch {
	case level <= 1:
		return DifficultyEasy
	case level == 2:
		return DifficultyNormal
	default:
		return DifficultyHard
	}
}

// Candidate scoring weights, shared by direct and bank shots.
const (
	alignWeight     = 2.0
	proximityWeight = 1.0
	minAlignment    = 0.25
)

// Planner searches the physical model for a launch on behalf of the
// non-human side. It is pure computation over an immutable snapshot.
type Planner struct {
	Board   *Board
	Profile DifficultyProfile
}

func NewPlanner(board *Board, profile DifficultyProfile) *Planner {
	return &Planner{Board: board, Profile: profile}
}

type candidate struct {
	plan  ShotPlan
	score float64
}

// Plan picks a launch for the given team. Search order: direct shots,
// then bank shots, then the deterministic fallback — a turn always
// produces a launch.
func (p *Planner) Plan(state *RoundState, team Team) ShotPlan {
	ball := state.Ball()
	if ball == nil {
		return ShotPlan{}
	}

	attackers := make([]*Disc, 0, DiscsPerTeam)
	obstacles := make([]*Disc, 0, DiscsPerTeam)
	for _, d := range state.Discs {
		if d.Role != RolePlayer {
			continue
		}
		if d.Team == team {
			attackers = append(attackers, d)
		} else {
			obstacles = append(obstacles, d)
		}
	}
	if len(attackers) == 0 {
		return ShotPlan{}
	}

	goal := p.Board.AttackGoalOf(team)
	targets := p.sampleMouth(goal)

	best, ok := p.searchDirect(ball, attackers, obstacles, targets)
	if bank, bok := p.searchBank(ball, attackers, obstacles, targets); bok {
		if !ok || bank.score > best.score {
			best, ok = bank, true
		}
	}
	if ok {
		return best.plan
	}
	return p.fallback(ball, attackers, goal)
}

// sampleMouth returns interior aim points spread across the mouth. With
// an odd sample count the mouth center is always one of them.
func (p *Planner) sampleMouth(goal GoalMouth) []Vec2 {
	n := p.Profile.GoalSamples
	if n < 1 {
		n = 1
	}
	width := goal.MaxX - goal.MinX
	targets := make([]Vec2, 0, n)
	for i := 0; i < n; i++ {
		x := goal.MinX + width*float64(i+1)/float64(n+1)
		targets = append(targets, NewVec2(x, goal.EdgeY))
	}
	return targets
}

// searchDirect evaluates straight ball-to-goal shots for every attacker
// within reach.
func (p *Planner) searchDirect(ball *Disc, attackers, obstacles []*Disc, targets []Vec2) (candidate, bool) {
	var best candidate
	found := false

	for _, d := range attackers {
		reach := d.Position.DistanceTo(ball.Position)
		if reach > p.Profile.MaxReach {
			continue
		}
		for _, g := range targets {
			c, ok := p.evaluate(d, ball, obstacles, ball.Position, g, nil)
			if !ok {
				continue
			}
			if !found || c.score > best.score {
				best, found = c, true
			}
		}
	}
	return best, found
}

// searchBank evaluates one-cushion shots off both side walls.
func (p *Planner) searchBank(ball *Disc, attackers, obstacles []*Disc, targets []Vec2) (candidate, bool) {
	var best candidate
	found := false

	if p.Profile.WallSamples <= 0 {
		return best, false
	}

	// Reflection lines for the ball center, one per side wall.
	wallX := []float64{ball.Radius, p.Board.Width - ball.Radius}
	for _, wx := range wallX {
		for i := 0; i < p.Profile.WallSamples; i++ {
			wy := p.Board.Height * float64(i+1) / float64(p.Profile.WallSamples+1)
			bank := NewVec2(wx, wy)

			for _, g := range targets {
				if !bankGeometryValid(ball.Position, bank, g, wx == ball.Radius) {
					continue
				}
				for _, d := range attackers {
					if d.Position.DistanceTo(ball.Position) > p.Profile.MaxReach {
						continue
					}
					c, ok := p.evaluate(d, ball, obstacles, bank, g, &bank)
					if !ok {
						continue
					}
					if !found || c.score > best.score {
						best, found = c, true
					}
				}
			}
		}
	}
	return best, found
}

// bankGeometryValid checks that ball→bank→goal is a real reflection: the
// incoming and outgoing wall-normal components must have opposite sign,
// not a straight line mislabeled as a bank.
func bankGeometryValid(ballPos, bank, goal Vec2, leftWall bool) bool {
	in := bank.Minus(ballPos)
	out := goal.Minus(bank)
	if leftWall {
		return in.X < 0 && out.X > 0
	}
	return in.X > 0 && out.X < 0
}

// evaluate scores one attacker/first-leg-target/goal-point combination.
// firstLeg is where the ball should initially travel (the goal point for
// direct shots, the bank point for cushion shots). Returns false when
// the geometry is blocked or the attacker cannot line up the hit.
func (p *Planner) evaluate(d, ball *Disc, obstacles []*Disc, firstLeg, goalPoint Vec2, via *Vec2) (candidate, bool) {
	shotDir := firstLeg.Minus(ball.Position)
	shotLen := shotDir.Magnitude()
	if shotLen == 0 {
		return candidate{}, false
	}
	shotDir = shotDir.Times(1.0 / shotLen)

	// The ball's path must clear every opponent disc; for banks, both legs.
	if !segmentClear(ball.Position, firstLeg, obstacles, ball.Radius) {
		return candidate{}, false
	}
	if via != nil && !segmentClear(*via, goalPoint, obstacles, ball.Radius) {
		return candidate{}, false
	}

	// Strike point on the far side of the ball from the intended direction.
	contact := ball.Position.Minus(shotDir.Times(ball.Radius + d.Radius))
	approach := contact.Minus(d.Position)
	approachLen := approach.Magnitude()
	if approachLen == 0 {
		return candidate{}, false
	}

	align := approach.Times(1.0 / approachLen).Dot(shotDir)
	if align < minAlignment {
		return candidate{}, false
	}

	totalLen := shotLen
	if via != nil {
		totalLen += goalPoint.Minus(*via).Magnitude()
	}
	diag := math.Hypot(p.Board.Width, p.Board.Height)

	score := alignWeight*align +
		proximityWeight*(1-approachLen/p.Profile.MaxReach) +
		p.Profile.AngleBonusWeight*(totalLen/diag)

	power := (approachLen + totalLen) * 0.35 * p.Profile.PowerScale
	if via != nil {
		score -= p.Profile.BankPenalty
		power *= p.Profile.BankPowerBoost
	}
	power = clamp(power, MinDragLength, MaxDragLength)

	return candidate{
		plan: ShotPlan{
			DiscID:       d.ID,
			Angle:        approach.Bearing(),
			Power:        fix(power),
			ViaBankPoint: via,
		},
		score: score,
	}, true
}

// fallback nudges the ball with the nearest attacker when no scored
// candidate exists. Higher skill biases the strike so the ball travels
// goalward instead of merely away.
func (p *Planner) fallback(ball *Disc, attackers []*Disc, goal GoalMouth) ShotPlan {
	nearest := attackers[0]
	for _, d := range attackers[1:] {
		if d.Position.DistanceTo(ball.Position) < nearest.Position.DistanceTo(ball.Position) {
			nearest = d
		}
	}

	aim := ball.Position
	toGoal := goal.Center().Minus(ball.Position)
	if p.Profile.GoalBias > 0 && !toGoal.IsZero() {
		behind := ball.Position.Minus(toGoal.Normalize().Times(ball.Radius + nearest.Radius))
		aim = aim.Times(1 - p.Profile.GoalBias).Plus(behind.Times(p.Profile.GoalBias))
	}

	dir := aim.Minus(nearest.Position)
	angle := dir.Bearing()
	if dir.IsZero() {
		angle = toGoal.Bearing()
	}

	return ShotPlan{
		DiscID: nearest.ID,
		Angle:  angle,
		Power:  fix(MaxDragLength * 0.6 * p.Profile.PowerScale),
	}
}
