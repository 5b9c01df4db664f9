package core

import "testing"

// mockStepperBackend records pin activity for assertions.
type mockStepperBackend struct {
	level        bool
	reverse      bool
	enabled      bool
	fallingEdges int
	risingEdges  int
}

func (m *mockStepperBackend) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	return nil
}

func (m *mockStepperBackend) SetStepLevel(high bool) {
	if high && !m.level {
		m.risingEdges++
	}
	if !high && m.level {
		m.fallingEdges++
	}
	m.level = high
}

func (m *mockStepperBackend) SetDirection(reverse bool) { m.reverse = reverse }
func (m *mockStepperBackend) SetEnabled(on bool)        { m.enabled = on }
func (m *mockStepperBackend) Stop()                     { m.level = false }
func (m *mockStepperBackend) GetName() string           { return "mock" }

// fakeSensor returns whatever raw levels the test sets.
type fakeSensor struct {
	hLeft, hRight, vUp, vDown bool
}

func (f *fakeSensor) ReadLimits() (bool, bool, bool, bool) {
	return f.hLeft, f.hRight, f.vUp, f.vDown
}

// resetMotion clears global timer state between tests.
func resetMotion(t *testing.T) {
	t.Helper()
	resetTimers()
	SetTime(0)
	t.Cleanup(resetTimers)
}

// spin advances simulated time in small quanta, dispatching timers and
// running the controller loop (ctrl may be nil).
func spin(ctrl *Controller, ticks uint32) {
	const quantum = 100
	for advanced := uint32(0); advanced < ticks; advanced += quantum {
		SetTime(GetTime() + quantum)
		ProcessTimers()
		if ctrl != nil {
			ctrl.Update()
		}
	}
}

// ticksFor is simulated time for the given number of supervisor ticks.
func ticksFor(supervisorTicks int) uint32 {
	return uint32(supervisorTicks) * TickInterval
}
