package core

import "testing"

// One full quadrature cycle in each direction.
var (
	cwCycle  = [][2]bool{{true, false}, {true, true}, {false, true}, {false, false}}
	ccwCycle = [][2]bool{{false, true}, {true, true}, {true, false}, {false, false}}
)

func TestEncoderCountsClockwise(t *testing.T) {
	e := NewEncoder()
	for i := 0; i < 3; i++ {
		for _, s := range cwCycle {
			e.Sample(s[0], s[1])
		}
	}
	if got := e.Position(); got != 12 {
		t.Errorf("position = %d, want 12", got)
	}
}

func TestEncoderCountsCounterClockwise(t *testing.T) {
	e := NewEncoder()
	for _, s := range ccwCycle {
		e.Sample(s[0], s[1])
	}
	if got := e.Position(); got != -4 {
		t.Errorf("position = %d, want -4", got)
	}
}

func TestEncoderInvalidTransition(t *testing.T) {
	// Both lines flipping at once is electrically invalid; the table
	// decodes it as no movement.
	e := NewEncoder()
	e.Sample(true, true)
	e.Sample(false, false)
	if got := e.Position(); got != 0 {
		t.Errorf("position = %d after invalid transitions, want 0", got)
	}
}

func TestEncoderReset(t *testing.T) {
	e := NewEncoder()
	for _, s := range cwCycle {
		e.Sample(s[0], s[1])
	}
	e.Reset()
	if got := e.Position(); got != 0 {
		t.Errorf("position = %d after reset, want 0", got)
	}
}

func TestEncoderDisabled(t *testing.T) {
	e := NewEncoder()
	e.SetEnabled(false)
	for _, s := range cwCycle {
		e.Sample(s[0], s[1])
	}
	if got := e.Position(); got != 0 {
		t.Errorf("position = %d while disabled, want 0", got)
	}

	e.SetEnabled(true)
	for _, s := range cwCycle {
		e.Sample(s[0], s[1])
	}
	if got := e.Position(); got != 4 {
		t.Errorf("position = %d after re-enable, want 4", got)
	}
}
