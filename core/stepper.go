package core

// StepperBackend abstracts step/dir pin drive for one motor. Implementations
// exist per platform (rp2040 machine pins, PIO, periph.io, host mocks).
type StepperBackend interface {
	// Init configures the step and direction pins
	Init(stepPin, dirPin uint8, invertStep, invertDir bool) error

	// SetStepLevel drives the step output to the given level. The
	// scheduler toggles this at twice the step rate; the driver counts a
	// step on the falling edge.
	SetStepLevel(high bool)

	// SetDirection sets the direction output (true = reverse)
	SetDirection(reverse bool)

	// SetEnabled energizes or releases the motor driver
	SetEnabled(on bool)

	// Stop forces the step output low immediately
	Stop()

	// GetName returns the backend name
	GetName() string
}

// StepScheduler emits step pulses for one axis from the timer list. Its
// timer fires at twice the step rate and toggles the step line; position
// advances on the falling edge, when the driver has latched the pulse.
//
// Rate changes arriving within GuardTicks of the next edge are deferred one
// full pulse so an in-flight high phase is never shortened.
type StepScheduler struct {
	Axis    *Axis
	Backend StepperBackend

	timer Timer
	calib *Calibration

	halfInterval    uint32
	pendingInterval uint32
	rateHz          float64
	stepLevel       bool
	armed           bool
}

// NewStepScheduler wires a scheduler to its axis and pin backend. calib may
// be nil when no calibration counting is wanted.
func NewStepScheduler(axis *Axis, backend StepperBackend, calib *Calibration) *StepScheduler {
	s := &StepScheduler{
		Axis:    axis,
		Backend: backend,
		calib:   calib,
	}
	s.timer.Handler = s.stepEvent
	return s
}

// Arm starts pulse generation toward Axis.TargetPosition at the given
// initial rate. The axis direction must already be set; it is latched to
// the driver here and not touched again until the move ends.
func (s *StepScheduler) Arm(hz float64) {
	if s.Axis.TargetPosition == s.Axis.CurrentPosition {
		return
	}
	half := halfIntervalFor(hz)

	s.Backend.SetEnabled(true)
	s.Backend.SetDirection(!s.Axis.Direction)
	s.Backend.SetStepLevel(false)

	state := disableInterrupts()
	s.stepLevel = false
	s.halfInterval = half
	s.pendingInterval = 0
	s.rateHz = hz
	s.armed = true
	s.Axis.State = AxisMoving
	s.Axis.done = false
	s.timer.WakeTime = GetTime() + half
	insertTimer(&s.timer)
	restoreInterrupts(state)
}

// SetSpeed reprograms the step rate of an armed scheduler. A rate of 0
// stops pulse generation. If the next edge is imminent the new period takes
// effect on the following pulse.
func (s *StepScheduler) SetSpeed(hz float64) {
	if hz <= 0 {
		s.Stop()
		return
	}
	half := halfIntervalFor(hz)

	state := disableInterrupts()
	if s.armed {
		s.rateHz = hz
		if s.timer.WakeTime-GetTime() < GuardTicks {
			s.pendingInterval = half
		} else {
			s.halfInterval = half
			s.pendingInterval = 0
		}
	}
	restoreInterrupts(state)
}

// Stop halts pulse generation and forces the step line low. The axis keeps
// its current position; no completion is signalled.
func (s *StepScheduler) Stop() {
	state := disableInterrupts()
	if s.armed {
		s.armed = false
		CancelTimer(&s.timer)
	}
	s.stepLevel = false
	restoreInterrupts(state)
	s.Backend.SetStepLevel(false)
}

// IsArmed reports whether pulses are being generated.
func (s *StepScheduler) IsArmed() bool {
	state := disableInterrupts()
	armed := s.armed
	restoreInterrupts(state)
	return armed
}

// Rate returns the currently programmed step rate in Hz.
func (s *StepScheduler) Rate() float64 {
	state := disableInterrupts()
	hz := s.rateHz
	restoreInterrupts(state)
	return hz
}

// stepEvent is the timer handler. Interrupt context: no allocation.
func (s *StepScheduler) stepEvent(t *Timer) uint8 {
	if !s.armed {
		return SF_DONE
	}

	s.stepLevel = !s.stepLevel
	s.Backend.SetStepLevel(s.stepLevel)

	if !s.stepLevel {
		// Falling edge: the driver has taken the step.
		if s.Axis.Direction {
			s.Axis.CurrentPosition++
		} else {
			s.Axis.CurrentPosition--
		}
		if s.calib != nil {
			s.calib.countStep()
		}

		if s.arrived() {
			// The profile itself belongs to the main loop; only the
			// flags are touched here.
			s.armed = false
			s.Axis.State = AxisIdle
			s.Axis.done = true
			return SF_DONE
		}

		// Deferred rate change applies on full pulse boundaries only.
		if s.pendingInterval != 0 {
			s.halfInterval = s.pendingInterval
			s.pendingInterval = 0
		}
	}

	t.WakeTime += s.halfInterval
	return SF_RESCHEDULE
}

// arrived reports whether the axis has reached (or, after a rounding error,
// passed) its target in the direction of travel.
func (s *StepScheduler) arrived() bool {
	if s.Axis.Direction {
		return s.Axis.CurrentPosition >= s.Axis.TargetPosition
	}
	return s.Axis.CurrentPosition <= s.Axis.TargetPosition
}

// halfIntervalFor converts a step rate to the timer half-period, clamped so
// the pulse train never exceeds MaxStepRate.
func halfIntervalFor(hz float64) uint32 {
	if hz <= 0 {
		return 0
	}
	half := uint32(float64(TimerFreq) / (2 * hz))
	if half < MinHalfInterval {
		half = MinHalfInterval
	}
	return half
}
