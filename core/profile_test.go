package core

import (
	"math"
	"testing"
)

func TestProfileTrapezoidSegmentation(t *testing.T) {
	var p Profile
	p.Setup(0, 20000, 8000, 6000)

	if p.Phase != ProfileAccelerating {
		t.Fatalf("phase = %d, want accelerating", p.Phase)
	}
	if p.TargetSpeed != 8000 {
		t.Errorf("target speed = %v, want 8000", p.TargetSpeed)
	}
	if p.ConstantSteps == 0 {
		t.Error("expected a constant phase on a long move")
	}
	if got := p.AccelSteps + p.ConstantSteps + p.DecelSteps; got != p.TotalSteps {
		t.Errorf("segment sum = %d, want %d", got, p.TotalSteps)
	}
}

func TestProfileTriangularPeak(t *testing.T) {
	var p Profile
	p.Setup(0, 1000, 8000, 6000)

	if p.ConstantSteps != 0 {
		t.Errorf("constant steps = %d, want 0 on a short move", p.ConstantSteps)
	}
	if p.AccelSteps != 500 || p.DecelSteps != 500 {
		t.Errorf("accel/decel = %d/%d, want 500/500", p.AccelSteps, p.DecelSteps)
	}
	want := math.Sqrt(MinSpeed*MinSpeed + 2*6000*500)
	if math.Abs(p.TargetSpeed-want) > 1e-9 {
		t.Errorf("peak = %v, want %v", p.TargetSpeed, want)
	}
	if p.TargetSpeed > 8000 {
		t.Errorf("peak %v exceeds axis limit", p.TargetSpeed)
	}
}

func TestProfileTriangularPeakClamped(t *testing.T) {
	// Short move with huge acceleration: the computed peak must clamp to
	// the axis limit.
	var p Profile
	p.Setup(0, 1000, 2000, 1e9)
	if p.TargetSpeed != 2000 {
		t.Errorf("peak = %v, want clamp to 2000", p.TargetSpeed)
	}
}

func TestProfileSingleStep(t *testing.T) {
	var p Profile
	p.Setup(0, 1, 8000, 6000)
	if got := p.AccelSteps + p.ConstantSteps + p.DecelSteps; got != 1 {
		t.Fatalf("segment sum = %d, want 1", got)
	}
	if p.TargetSpeed < MinSpeed {
		t.Errorf("target speed %v below floor", p.TargetSpeed)
	}
}

func TestProfileZeroDistance(t *testing.T) {
	var p Profile
	p.Setup(42, 42, 8000, 6000)
	if p.IsActive() {
		t.Error("zero-distance profile should be inactive")
	}
	if got := p.Update(42); got != 0 {
		t.Errorf("Update on idle profile = %v, want 0", got)
	}
}

func TestProfileUpdatePhasesAndBounds(t *testing.T) {
	var p Profile
	p.Setup(0, 2000, 8000, 6000)

	sawDecel := false
	for pos := int32(1); pos < 2000; pos++ {
		v := p.Update(pos)
		if v < MinSpeed || v > p.TargetSpeed {
			t.Fatalf("pos %d: speed %v outside [%v, %v]", pos, v, float64(MinSpeed), p.TargetSpeed)
		}
		if p.Phase == ProfileDecelerating {
			sawDecel = true
		}
	}
	if !sawDecel {
		t.Error("never entered deceleration")
	}
	if v := p.Update(2000); v != 0 {
		t.Errorf("speed at target = %v, want 0", v)
	}
	if p.Phase != ProfileCompleted {
		t.Errorf("phase = %d, want completed", p.Phase)
	}
}

func TestProfileDecelerationNearTarget(t *testing.T) {
	var p Profile
	p.Setup(0, 20000, 8000, 6000)

	// Walk to cruise speed first.
	for pos := int32(1); pos <= 10000; pos++ {
		p.Update(pos)
	}
	cruise := p.CurrentSpeed

	// Two steps from the target the commanded speed must be well below
	// cruise, heading for the floor.
	near := p.Update(19998)
	if near >= cruise {
		t.Errorf("speed near target = %v, not below cruise %v", near, cruise)
	}
	if p.Phase != ProfileDecelerating {
		t.Errorf("phase = %d, want decelerating", p.Phase)
	}
}

func TestProfileSlewRateLimit(t *testing.T) {
	var p Profile
	p.Setup(0, 20000, 8000, 6000)

	prev := p.CurrentSpeed
	maxDelta := 6000.0/ProfileTickRate + 1e-9
	for pos := int32(1); pos < 5000; pos++ {
		v := p.Update(pos)
		if v-prev > maxDelta {
			t.Fatalf("pos %d: speed jumped %v in one tick", pos, v-prev)
		}
		prev = v
	}
}

func TestProfileMissedTickRecovery(t *testing.T) {
	// Feeding a position far ahead of the last one must not push the
	// speed outside its bounds.
	var p Profile
	p.Setup(0, 20000, 8000, 6000)
	p.Update(1)
	for i := 0; i < 400; i++ {
		v := p.Update(9000)
		if v < MinSpeed || v > p.TargetSpeed {
			t.Fatalf("speed %v out of bounds after skipped ticks", v)
		}
	}
}

func TestProfileReset(t *testing.T) {
	var p Profile
	p.Setup(0, 1000, 8000, 6000)
	p.Update(10)
	p.Reset()
	if p.IsActive() || p.CurrentSpeed != 0 {
		t.Error("reset profile should be idle with zero speed")
	}
}

func TestProfileNegativeDirection(t *testing.T) {
	var p Profile
	p.Setup(1000, 0, 8000, 6000)
	if p.TotalSteps != 1000 {
		t.Fatalf("total = %d, want 1000", p.TotalSteps)
	}
	v := p.Update(900)
	if v < MinSpeed || v > p.TargetSpeed {
		t.Errorf("speed %v out of bounds", v)
	}
	if v := p.Update(0); v != 0 {
		t.Errorf("speed at target = %v, want 0", v)
	}
}
