package core

import "testing"

func newTestScheduler() (*StepScheduler, *Axis, *mockStepperBackend) {
	axis := &Axis{
		ID: Horizontal, Name: "H", Enabled: true,
		MaxSpeed: MaxSpeedH, Acceleration: AccelH, StepsPerMM: StepsPerMMH,
	}
	backend := &mockStepperBackend{}
	return NewStepScheduler(axis, backend, nil), axis, backend
}

func TestStepSchedulerCompletesMove(t *testing.T) {
	resetMotion(t)
	s, axis, backend := newTestScheduler()

	axis.TargetPosition = 10
	axis.Direction = true
	s.Arm(1000)

	if axis.State != AxisMoving {
		t.Fatal("axis not marked moving after Arm")
	}
	if !backend.enabled {
		t.Error("backend not enabled")
	}

	spin(nil, TimerFreq) // one simulated second, plenty for 10 steps at 1kHz
	if axis.CurrentPosition != 10 {
		t.Errorf("position = %d, want 10", axis.CurrentPosition)
	}
	if s.IsArmed() {
		t.Error("scheduler still armed after arrival")
	}
	if !axis.done {
		t.Error("completion flag not set")
	}
	if axis.State != AxisIdle {
		t.Error("axis not idle after arrival")
	}
	if backend.fallingEdges != 10 {
		t.Errorf("falling edges = %d, want 10", backend.fallingEdges)
	}
	if backend.level {
		t.Error("step line left high")
	}
}

func TestStepSchedulerNegativeMove(t *testing.T) {
	resetMotion(t)
	s, axis, backend := newTestScheduler()

	axis.CurrentPosition = 0
	axis.TargetPosition = -5
	axis.Direction = false
	s.Arm(1000)

	if !backend.reverse {
		t.Error("direction output not reversed")
	}
	spin(nil, TimerFreq)
	if axis.CurrentPosition != -5 {
		t.Errorf("position = %d, want -5", axis.CurrentPosition)
	}
}

func TestStepSchedulerStepRate(t *testing.T) {
	resetMotion(t)
	s, axis, backend := newTestScheduler()

	axis.TargetPosition = 1000000 // effectively endless
	axis.Direction = true
	s.Arm(2000)

	spin(nil, TimerFreq/10) // 100ms
	// 2kHz for 100ms = 200 steps. The quantized spin loop leaves a
	// small margin.
	if backend.fallingEdges < 195 || backend.fallingEdges > 205 {
		t.Errorf("steps in 100ms at 2kHz = %d, want ~200", backend.fallingEdges)
	}
	s.Stop()
}

func TestStepSchedulerStop(t *testing.T) {
	resetMotion(t)
	s, axis, backend := newTestScheduler()

	axis.TargetPosition = 1000
	axis.Direction = true
	s.Arm(1000)
	spin(nil, TimerFreq/100)
	s.Stop()
	pos := axis.CurrentPosition

	if s.IsArmed() {
		t.Error("still armed after Stop")
	}
	if backend.level {
		t.Error("step line not forced low")
	}
	spin(nil, TimerFreq/10)
	if axis.CurrentPosition != pos {
		t.Error("position advanced after Stop")
	}
	if axis.done {
		t.Error("Stop must not signal completion")
	}
}

func TestStepSchedulerGuardWindow(t *testing.T) {
	resetMotion(t)
	s, axis, _ := newTestScheduler()

	axis.TargetPosition = 1000
	axis.Direction = true
	s.Arm(1000) // half interval 6000 ticks

	oldHalf := s.halfInterval

	// Land just inside the guard window of the next edge.
	SetTime(s.timer.WakeTime - GuardTicks/2)
	s.SetSpeed(2000)
	if s.halfInterval != oldHalf {
		t.Error("imminent edge interval was shortened")
	}
	if s.pendingInterval == 0 {
		t.Error("new rate not deferred")
	}

	// After a full pulse the deferred rate takes over.
	spin(nil, 4*oldHalf)
	if s.halfInterval == oldHalf || s.pendingInterval != 0 {
		t.Errorf("deferred rate not applied: half=%d pending=%d", s.halfInterval, s.pendingInterval)
	}
	s.Stop()
}

func TestStepSchedulerSetSpeedOutsideGuard(t *testing.T) {
	resetMotion(t)
	s, axis, _ := newTestScheduler()

	axis.TargetPosition = 1000
	axis.Direction = true
	s.Arm(1000)

	// Far from the next edge: applies immediately.
	s.SetSpeed(2000)
	if want := halfIntervalFor(2000); s.halfInterval != want {
		t.Errorf("half interval = %d, want %d", s.halfInterval, want)
	}
	if s.pendingInterval != 0 {
		t.Error("unexpected deferral")
	}
	s.Stop()
}

func TestStepSchedulerRateClamp(t *testing.T) {
	if got := halfIntervalFor(1e9); got != MinHalfInterval {
		t.Errorf("half interval = %d, want clamp to %d", got, MinHalfInterval)
	}
}

func TestStepSchedulerZeroSpeedStops(t *testing.T) {
	resetMotion(t)
	s, axis, backend := newTestScheduler()

	axis.TargetPosition = 1000
	axis.Direction = true
	s.Arm(1000)
	s.SetSpeed(0)
	if s.IsArmed() {
		t.Error("SetSpeed(0) did not stop the scheduler")
	}
	if backend.level {
		t.Error("step line not low after SetSpeed(0)")
	}
}

func TestStepSchedulerOvershootTerminates(t *testing.T) {
	// A position already past the target (from a rounding rebase) must
	// terminate on the first step rather than run away.
	resetMotion(t)
	s, axis, _ := newTestScheduler()

	axis.CurrentPosition = 7
	axis.TargetPosition = 5
	axis.Direction = true // wrong direction for the gap, as after a rebase
	s.Arm(1000)

	spin(nil, TimerFreq/100)
	if s.IsArmed() {
		t.Error("scheduler ran away past its target")
	}
	if !axis.done {
		t.Error("completion flag not set on overshoot")
	}
}

func TestStepSchedulerPacesAcrossClockWrap(t *testing.T) {
	// A move armed just before the 32-bit tick counter wraps must keep
	// stepping at the programmed rate, not flush the remainder in one
	// dispatch pass.
	resetMotion(t)
	SetTime(^uint32(0) - 200)
	s, axis, backend := newTestScheduler()

	axis.TargetPosition = 100000
	axis.Direction = true
	s.Arm(1000)

	ProcessTimers()
	if axis.CurrentPosition > 1 {
		t.Fatalf("position = %d after one dispatch pass, want at most 1", axis.CurrentPosition)
	}

	spin(nil, TimerFreq/10) // 100ms spanning the wrap
	if backend.fallingEdges < 95 || backend.fallingEdges > 105 {
		t.Errorf("steps in 100ms at 1kHz across the wrap = %d, want ~100", backend.fallingEdges)
	}
	s.Stop()
}

func TestStepSchedulerArmAtTargetIsNoop(t *testing.T) {
	resetMotion(t)
	s, axis, _ := newTestScheduler()

	axis.CurrentPosition = 5
	axis.TargetPosition = 5
	s.Arm(1000)
	if s.IsArmed() {
		t.Error("armed for a zero-length move")
	}
}
