package actuator

import "gantry/core"

// GripperStepper moves the gripper motor by a signed number of half-steps.
// Positive closes. Implementations: CoilStepper (bit-banged coils, any
// GPIO target), easystepper on TinyGo builds, mocks in tests.
type GripperStepper interface {
	Move(steps int32)
}

// CoilDriver energizes the four coils of a unipolar geared stepper.
type CoilDriver interface {
	SetCoils(a, b, c, d bool)
}

// halfStepSequence is the 8-entry coil pattern for half-stepping a
// unipolar geared stepper (28BYJ class).
var halfStepSequence = [8][4]bool{
	{true, false, false, false},
	{true, true, false, false},
	{false, true, false, false},
	{false, true, true, false},
	{false, false, true, false},
	{false, false, true, true},
	{false, false, false, true},
	{true, false, false, true},
}

// CoilStepper is a GripperStepper that bit-bangs the half-step sequence
// onto a CoilDriver.
type CoilStepper struct {
	coils    CoilDriver
	seqIndex uint8
}

// NewCoilStepper wraps a coil driver.
func NewCoilStepper(coils CoilDriver) *CoilStepper {
	return &CoilStepper{coils: coils}
}

// Move advances the sequence by the given half-steps, positive forward.
func (c *CoilStepper) Move(steps int32) {
	dir := int32(1)
	if steps < 0 {
		dir = -1
		steps = -steps
	}
	for ; steps > 0; steps-- {
		c.seqIndex = uint8((int32(c.seqIndex) + dir + 8) % 8)
		p := halfStepSequence[c.seqIndex]
		c.coils.SetCoils(p[0], p[1], p[2], p[3])
	}
}

// Release de-energizes all coils so the motor does not cook while parked.
func (c *CoilStepper) Release() {
	c.coils.SetCoils(false, false, false, false)
}

// GripperState is the gripper lifecycle state.
type GripperState uint8

const (
	GripperOpen GripperState = iota
	GripperOpening
	GripperClosed
	GripperClosing
)

// GripperStepInterval is the minimum dwell between half-steps, in timer
// ticks. The old firmware enforced this with a busy-wait; here Update
// simply declines to advance until the dwell has passed, so the main loop
// keeps running.
const GripperStepInterval = 2 * (core.TimerFreq / 1000) // 2ms

// Gripper is the tick-driven gripper state machine. Open and Close start a
// traversal; Update advances it one half-step at a time from the main loop.
type Gripper struct {
	stepper GripperStepper
	report  core.Reporter

	state     GripperState
	remaining int
	travel    int
	lastStep  uint32
}

// NewGripper builds the gripper. travel is the number of half-steps
// between fully open and fully closed. report may be nil.
func NewGripper(stepper GripperStepper, travel int, report core.Reporter) *Gripper {
	if travel <= 0 {
		travel = 512
	}
	return &Gripper{
		stepper: stepper,
		report:  report,
		state:   GripperOpen,
		travel:  travel,
	}
}

// Open starts opening. No-op if already open or opening.
func (g *Gripper) Open() {
	if g.state == GripperOpen || g.state == GripperOpening {
		return
	}
	g.begin(GripperOpening, "OPEN")
}

// Close starts closing. No-op if already closed or closing.
func (g *Gripper) Close() {
	if g.state == GripperClosed || g.state == GripperClosing {
		return
	}
	g.begin(GripperClosing, "CLOSE")
}

// Toggle opens a closed gripper and closes an open one. This is the GT
// command. A traversal in flight is reversed.
func (g *Gripper) Toggle() {
	switch g.state {
	case GripperOpen, GripperOpening:
		g.begin(GripperClosing, "CLOSE")
	default:
		g.begin(GripperOpening, "OPEN")
	}
}

func (g *Gripper) begin(state GripperState, action string) {
	steps := g.travel
	if g.Busy() {
		// Reversing mid-traversal: retrace only the distance already
		// covered, or the jaws overrun the opposite stop.
		steps = g.travel - g.remaining
	}
	g.state = state
	g.remaining = steps
	g.lastStep = core.GetTime() - GripperStepInterval
	g.emit("GRIPPER_ACTION_STARTED:" + action)
}

// Update advances the traversal if the inter-step dwell has passed. Call
// from the main loop.
func (g *Gripper) Update() {
	if g.state != GripperOpening && g.state != GripperClosing {
		return
	}
	if g.remaining > 0 {
		now := core.GetTime()
		if now-g.lastStep < GripperStepInterval {
			return
		}
		g.lastStep = now

		if g.state == GripperClosing {
			g.stepper.Move(1)
		} else {
			g.stepper.Move(-1)
		}

		g.remaining--
		if g.remaining > 0 {
			return
		}
	}

	if r, ok := g.stepper.(interface{ Release() }); ok {
		r.Release()
	}
	if g.state == GripperClosing {
		g.state = GripperClosed
		g.emit("GRIPPER_ACTION_COMPLETED:CLOSE")
	} else {
		g.state = GripperOpen
		g.emit("GRIPPER_ACTION_COMPLETED:OPEN")
	}
}

// State returns the current lifecycle state.
func (g *Gripper) State() GripperState {
	return g.state
}

// StateName returns the state as protocol text.
func (g *Gripper) StateName() string {
	switch g.state {
	case GripperOpen:
		return "OPEN"
	case GripperOpening:
		return "OPENING"
	case GripperClosed:
		return "CLOSED"
	default:
		return "CLOSING"
	}
}

// Busy reports whether a traversal is in flight.
func (g *Gripper) Busy() bool {
	return g.state == GripperOpening || g.state == GripperClosing
}

func (g *Gripper) emit(line string) {
	if g.report != nil {
		g.report(line)
	}
}
