package game

// Physics and board constants. These MUST match the client-side constants
// exactly — both sides run the same integrator and compare results, so any
// drift here desyncs replays.

const (
	BoardWidth  = 900.0
	BoardHeight = 1500.0
	GoalWidth   = 300.0

	PlayerDiscRadius = 40.0
	BallRadius       = 30.0

	DampingFactor   = 0.975
	MinVelocity     = 0.15
	DiscRestitution = 0.92
	WallRestitution = 0.75

	// Launch input: drag distance maps linearly onto launch speed.
	PowerFactor   = 0.12
	MinDragLength = 12.0
	MaxDragLength = 260.0
	MaxPower      = MaxDragLength // power arrives pre-clamped in drag units

	WinThreshold = 3

	TickHz = 60

	DiscsPerTeam = 5
	NumDiscs     = 1 + 2*DiscsPerTeam // ball + both teams
	BallID       = 0
)
