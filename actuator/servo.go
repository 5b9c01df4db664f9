package actuator

import (
	"errors"
	"strconv"

	"gantry/core"
)

// ServoBackend drives the physical servo channels. Implementations exist
// per platform (rp2040 PWM, periph.io, mocks).
type ServoBackend interface {
	SetAngle(channel int, angle uint8) error
}

// ArmChannels is the number of servo channels on the arm.
const ArmChannels = 2

// DefaultArmAngle is the home position used by Reset and first boot.
const DefaultArmAngle = 90

// ErrServoChannel is returned for a channel outside [0, ArmChannels).
var ErrServoChannel = errors.New("servo channel out of range")

// ErrServoAngle is returned for an angle outside the channel's travel.
var ErrServoAngle = errors.New("servo angle out of range")

// ArmChannelLimits clamps one channel's travel.
type ArmChannelLimits struct {
	Min uint8
	Max uint8
}

// Arm is the two-servo end effector. Instant moves apply immediately;
// smooth moves interpolate both channels over a wall-clock duration, driven
// by Update from the main loop so motion control is never blocked.
type Arm struct {
	backend ServoBackend
	store   Store
	report  core.Reporter

	limits [ArmChannels]ArmChannelLimits
	angles [ArmChannels]uint8

	moving    bool
	from      [ArmChannels]uint8
	to        [ArmChannels]uint8
	startTime uint32
	duration  uint32 // ticks
}

// NewArm builds the arm over a backend and a state store. store and report
// may be nil.
func NewArm(backend ServoBackend, store Store, report core.Reporter) *Arm {
	a := &Arm{backend: backend, store: store, report: report}
	for i := range a.limits {
		a.limits[i] = ArmChannelLimits{Min: 0, Max: 180}
	}
	for i := range a.angles {
		a.angles[i] = DefaultArmAngle
	}
	return a
}

// SetLimits restricts one channel's travel.
func (a *Arm) SetLimits(channel int, min, max uint8) error {
	if channel < 0 || channel >= ArmChannels {
		return ErrServoChannel
	}
	a.limits[channel] = ArmChannelLimits{Min: min, Max: max}
	return nil
}

// Restore applies the persisted position, if a valid one exists. Call once
// at startup, before the first command.
func (a *Arm) Restore() {
	if a.store == nil {
		return
	}
	st, ok := a.store.Load()
	if !ok {
		return
	}
	a.apply(0, st.Servo1)
	a.apply(1, st.Servo2)
}

// SetAngle moves one channel immediately. This is the P command.
func (a *Arm) SetAngle(channel int, angle uint8) error {
	if channel < 0 || channel >= ArmChannels {
		return ErrServoChannel
	}
	if angle < a.limits[channel].Min || angle > a.limits[channel].Max {
		return ErrServoAngle
	}
	a.apply(channel, angle)
	a.emit("SERVO_CHANGED:" + strconv.Itoa(channel+1) + "," + strconv.Itoa(int(angle)))
	a.persist()
	return nil
}

// StartMove begins a smooth move of both channels over durationMS. This is
// the A command. An in-flight smooth move is replaced.
func (a *Arm) StartMove(a1, a2 uint8, durationMS uint32) error {
	if a1 < a.limits[0].Min || a1 > a.limits[0].Max ||
		a2 < a.limits[1].Min || a2 > a.limits[1].Max {
		return ErrServoAngle
	}
	a.from = a.angles
	a.to = [ArmChannels]uint8{a1, a2}
	a.startTime = core.GetTime()
	a.duration = durationMS * (core.TimerFreq / 1000)
	a.moving = true
	a.emit("SERVO_MOVE_STARTED:" + strconv.Itoa(int(a1)) + "," + strconv.Itoa(int(a2)))
	if a.duration == 0 {
		a.finishMove()
	}
	return nil
}

// Update advances an in-flight smooth move. Call from the main loop.
func (a *Arm) Update() {
	if !a.moving {
		return
	}
	elapsed := core.GetTime() - a.startTime
	if elapsed >= a.duration {
		a.finishMove()
		return
	}
	for ch := 0; ch < ArmChannels; ch++ {
		a.apply(ch, interpolate(a.from[ch], a.to[ch], elapsed, a.duration))
	}
}

func (a *Arm) finishMove() {
	a.moving = false
	for ch := 0; ch < ArmChannels; ch++ {
		a.apply(ch, a.to[ch])
	}
	a.emit("SERVO_MOVE_COMPLETED:" + strconv.Itoa(int(a.angles[0])) + "," + strconv.Itoa(int(a.angles[1])))
	a.persist()
}

// Reset snaps both channels to the home position. This is the RA command.
func (a *Arm) Reset() {
	a.moving = false
	for ch := 0; ch < ArmChannels; ch++ {
		a.apply(ch, a.clampTo(ch, DefaultArmAngle))
	}
	a.persist()
}

// Moving reports whether a smooth move is in flight.
func (a *Arm) Moving() bool {
	return a.moving
}

// Angles returns the current channel angles.
func (a *Arm) Angles() (uint8, uint8) {
	return a.angles[0], a.angles[1]
}

func (a *Arm) apply(channel int, angle uint8) {
	a.angles[channel] = angle
	if a.backend != nil {
		a.backend.SetAngle(channel, angle)
	}
}

func (a *Arm) clampTo(channel int, angle uint8) uint8 {
	if angle < a.limits[channel].Min {
		return a.limits[channel].Min
	}
	if angle > a.limits[channel].Max {
		return a.limits[channel].Max
	}
	return angle
}

func (a *Arm) persist() {
	if a.store == nil {
		return
	}
	a.store.Save(State{Servo1: a.angles[0], Servo2: a.angles[1]})
}

func (a *Arm) emit(line string) {
	if a.report != nil {
		a.report(line)
	}
}

// interpolate returns the angle at the given fraction of the move.
func interpolate(from, to uint8, elapsed, duration uint32) uint8 {
	if duration == 0 {
		return to
	}
	delta := int64(to) - int64(from)
	return uint8(int64(from) + delta*int64(elapsed)/int64(duration))
}
