package game

// GoalMouth is the opening in a goal edge. The ball passes through it,
// player discs do not.
type GoalMouth struct {
	DefendingTeam Team    `json:"defending_team"`
	EdgeY         float64 `json:"edge_y"` // the edge line the ball must cross
	MinX          float64 `json:"min_x"`
	MaxX          float64 `json:"max_x"`
}

// Contains reports whether an x coordinate falls inside the mouth opening.
func (m GoalMouth) Contains(x float64) bool {
	return x >= m.MinX && x <= m.MaxX
}

// Center returns the midpoint of the mouth on its edge line.
func (m GoalMouth) Center() Vec2 {
	return NewVec2((m.MinX+m.MaxX)/2, m.EdgeY)
}

// Board holds the immutable-per-round playfield geometry. Team 1 defends
// the bottom edge (y = Height), team 2 the top edge (y = 0).
type Board struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GoalWidth float64 `json:"goal_width"`

	Goals [2]GoalMouth `json:"goals"` // index 0 = team 1's goal, checked first
}

// NewBoard creates the standard board geometry.
func NewBoard() *Board {
	halfMouth := GoalWidth / 2
	cx := BoardWidth / 2

	return &Board{
		Width:     BoardWidth,
		Height:    BoardHeight,
		GoalWidth: GoalWidth,
		Goals: [2]GoalMouth{
			{DefendingTeam: Team1, EdgeY: BoardHeight, MinX: cx - halfMouth, MaxX: cx + halfMouth},
			{DefendingTeam: Team2, EdgeY: 0, MinX: cx - halfMouth, MaxX: cx + halfMouth},
		},
	}
}

// GoalOf returns the mouth the given team defends.
func (b *Board) GoalOf(t Team) GoalMouth {
	for _, g := range b.Goals {
		if g.DefendingTeam == t {
			return g
		}
	}
	return GoalMouth{}
}

// AttackGoalOf returns the mouth the given team shoots at.
func (b *Board) AttackGoalOf(t Team) GoalMouth {
	return b.GoalOf(t.Opponent())
}

// StandardLayout returns the fixed starting formation: the ball at board
// center and five discs per team in a 2-1-2 shape. Positions are fixed
// (no jitter) so resets are deterministic.
func StandardLayout() []*Disc {
	w, h := BoardWidth, BoardHeight

	discs := make([]*Disc, 0, NumDiscs)
	discs = append(discs, &Disc{
		ID:       BallID,
		Position: NewVec2(w/2, h/2),
		Radius:   BallRadius,
		Role:     RoleBall,
		Team:     TeamNone,
	})

	// Team 1 occupies the bottom half; team 2 mirrors it across midfield.
	formation := []Vec2{
		NewVec2(0.30*w, 0.85*h), // defenders
		NewVec2(0.70*w, 0.85*h),
		NewVec2(0.50*w, 0.72*h), // midfielder
		NewVec2(0.25*w, 0.60*h), // forwards
		NewVec2(0.75*w, 0.60*h),
	}

	for i, pos := range formation {
		discs = append(discs, &Disc{
			ID:       1 + i,
			Position: pos,
			Radius:   PlayerDiscRadius,
			Role:     RolePlayer,
			Team:     Team1,
		})
	}
	for i, pos := range formation {
		discs = append(discs, &Disc{
			ID:       1 + DiscsPerTeam + i,
			Position: NewVec2(pos.X, h-pos.Y),
			Radius:   PlayerDiscRadius,
			Role:     RolePlayer,
			Team:     Team2,
		})
	}

	return discs
}
