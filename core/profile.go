package core

import "math"

// ProfilePhase is the current segment of a motion profile.
type ProfilePhase uint8

const (
	ProfileIdle ProfilePhase = iota
	ProfileAccelerating
	ProfileConstant
	ProfileDecelerating
	ProfileCompleted
)

// Profile is a trapezoidal velocity profile for one axis move. Speeds are
// computed closed-form from distance travelled, so the profile needs no
// per-tick integration state and recovers cleanly if ticks are missed:
//
//	v(d) = sqrt(MinSpeed² + 2·a·d)
//
// clamped to [MinSpeed, TargetSpeed]. Short moves degenerate to a triangle
// whose peak never exceeds the axis speed limit.
type Profile struct {
	StartPosition  int32
	TargetPosition int32

	TotalSteps    int32
	AccelSteps    int32
	ConstantSteps int32
	DecelSteps    int32

	TargetSpeed  float64
	CurrentSpeed float64
	Acceleration float64

	Phase ProfilePhase
}

// Setup plans a move from current to target at up to maxSpeed. The phase
// segmentation always satisfies AccelSteps+ConstantSteps+DecelSteps ==
// TotalSteps exactly.
func (p *Profile) Setup(current, target int32, maxSpeed, accel float64) {
	p.StartPosition = current
	p.TargetPosition = target
	p.TotalSteps = abs32(target - current)
	p.Acceleration = accel

	if p.TotalSteps == 0 {
		p.Reset()
		return
	}
	if maxSpeed < MinSpeed {
		maxSpeed = MinSpeed
	}

	// Distance needed to reach maxSpeed from the floor.
	accelDist := int32((maxSpeed*maxSpeed - MinSpeed*MinSpeed) / (2 * accel))

	if p.TotalSteps <= 2*accelDist {
		// Triangular: split the move, peak below the configured limit.
		p.AccelSteps = p.TotalSteps / 2
		p.DecelSteps = p.TotalSteps - p.AccelSteps
		p.ConstantSteps = 0
		peak := math.Sqrt(MinSpeed*MinSpeed + 2*accel*float64(p.AccelSteps))
		if peak > maxSpeed {
			peak = maxSpeed
		}
		p.TargetSpeed = peak
	} else {
		p.AccelSteps = accelDist
		p.DecelSteps = accelDist
		p.ConstantSteps = p.TotalSteps - 2*accelDist
		p.TargetSpeed = maxSpeed
	}
	if p.TargetSpeed < MinSpeed {
		p.TargetSpeed = MinSpeed
	}

	p.CurrentSpeed = MinSpeed
	p.Phase = ProfileAccelerating
}

// Update advances the profile given the axis position and returns the speed
// to command, in steps/s. Returns 0 once the move is complete. Safe to call
// at any tick cadence; phase is derived from position, not time.
func (p *Profile) Update(current int32) float64 {
	if p.Phase == ProfileIdle || p.Phase == ProfileCompleted {
		return 0
	}

	remaining := abs32(p.TargetPosition - current)
	if remaining == 0 {
		p.CurrentSpeed = 0
		p.Phase = ProfileCompleted
		return 0
	}
	travelled := abs32(current - p.StartPosition)

	var want float64
	switch {
	case remaining <= p.DecelSteps:
		p.Phase = ProfileDecelerating
		want = math.Sqrt(MinSpeed*MinSpeed + 2*p.Acceleration*float64(remaining))
	case travelled < p.AccelSteps:
		p.Phase = ProfileAccelerating
		want = math.Sqrt(MinSpeed*MinSpeed + 2*p.Acceleration*float64(travelled))
	default:
		p.Phase = ProfileConstant
		want = p.TargetSpeed
	}
	if want > p.TargetSpeed {
		want = p.TargetSpeed
	}
	if want < MinSpeed {
		want = MinSpeed
	}

	// Slew-rate limit so a late tick cannot command a speed jump the
	// motor would stall on.
	maxDelta := p.Acceleration / ProfileTickRate
	if maxDelta < SpeedDeltaFloor {
		maxDelta = SpeedDeltaFloor
	}
	diff := want - p.CurrentSpeed
	switch {
	case diff > maxDelta:
		p.CurrentSpeed += maxDelta
	case diff < -maxDelta:
		p.CurrentSpeed -= maxDelta
	default:
		p.CurrentSpeed = want
	}
	if p.CurrentSpeed > p.TargetSpeed {
		p.CurrentSpeed = p.TargetSpeed
	}
	if p.CurrentSpeed < MinSpeed {
		p.CurrentSpeed = MinSpeed
	}
	return p.CurrentSpeed
}

// IsActive reports whether the profile still has steps to deliver.
func (p *Profile) IsActive() bool {
	return p.Phase != ProfileIdle && p.Phase != ProfileCompleted
}

// Reset returns the profile to idle.
func (p *Profile) Reset() {
	p.Phase = ProfileIdle
	p.CurrentSpeed = 0
	p.TargetSpeed = 0
	p.TotalSteps = 0
	p.AccelSteps = 0
	p.ConstantSteps = 0
	p.DecelSteps = 0
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
