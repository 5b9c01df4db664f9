package core

// AxisID identifies one of the two gantry axes.
type AxisID uint8

const (
	Horizontal AxisID = iota
	Vertical
)

// AxisStateKind is the lifecycle state of an axis.
type AxisStateKind uint8

const (
	AxisIdle AxisStateKind = iota
	AxisMoving
)

// Axis holds the motion state of one axis.
//
// CurrentPosition is written only by the step scheduler while a move is in
// flight; all other fields are written only from the main loop while the
// axis is idle. Main-loop reads of CurrentPosition during a move go through
// a critical section.
type Axis struct {
	ID      AxisID
	Name    string
	Enabled bool
	State   AxisStateKind

	CurrentPosition int32
	TargetPosition  int32
	Direction       bool // true = positive (right / up)

	MaxSpeed     float64 // steps/s, runtime-settable up to the machine cap
	Acceleration float64 // steps/s²
	StepsPerMM   int32

	Profile Profile

	// moveBase is the position when the relative-distance counter was last
	// reset (move start or stop_all).
	moveBase int32

	// done is the deferred completion flag: set by the step scheduler in
	// interrupt context, consumed by the controller on the next tick.
	done bool
}

// RelativeSteps returns steps travelled since the counter was last reset.
func (a *Axis) RelativeSteps() int32 {
	return a.CurrentPosition - a.moveBase
}

// ResetRelative rebases the relative-distance counter at the current position.
func (a *Axis) ResetRelative() {
	a.moveBase = a.CurrentPosition
}

// MMFromSteps converts a step count on this axis to whole millimeters,
// rounding to nearest and preserving sign.
func (a *Axis) MMFromSteps(steps int32) int32 {
	per := a.StepsPerMM
	if per <= 0 {
		return 0
	}
	if steps >= 0 {
		return (steps + per/2) / per
	}
	return -((-steps + per/2) / per)
}

// StepsFromMM converts millimeters to steps on this axis.
func (a *Axis) StepsFromMM(mm int32) int32 {
	return mm * a.StepsPerMM
}
