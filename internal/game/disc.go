package game

// Team identifies which side a disc belongs to. The ball belongs to neither.
type Team int

const (
	TeamNone Team = 0
	Team1    Team = 1
	Team2    Team = 2
)

// Opponent returns the other team.
func (t Team) Opponent() Team {
	switch t {
	case Team1:
		return Team2
	case Team2:
		return Team1
	}
	return TeamNone
}

// Role distinguishes the ball from the player pieces.
type Role string

const (
	RoleBall   Role = "ball"
	RolePlayer Role = "player"
)

// Disc is a movable circular entity: the ball or a player piece.
type Disc struct {
	ID       int     `json:"id"`
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Radius   float64 `json:"radius"`
	Role     Role    `json:"role"`
	Team     Team    `json:"team"`
}

// Speed returns the disc's current speed.
func (d *Disc) Speed() float64 {
	return d.Velocity.Magnitude()
}

// Moving reports whether the disc is above the settle threshold.
// Velocities below it are snapped to exactly zero by the integrator,
// so a simple non-zero check suffices.
func (d *Disc) Moving() bool {
	return !d.Velocity.IsZero()
}

// Clone returns a copy of the disc. Planner snapshots use this so AI
// search never touches live round state.
func (d *Disc) Clone() *Disc {
	c := *d
	return &c
}
