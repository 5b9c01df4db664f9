package core

import "testing"

func TestCoordinateSpeeds(t *testing.T) {
	tests := []struct {
		name         string
		hDist, vDist int32
		hMax, vMax   float64
		wantH, wantV float64
	}{
		{"h twice as long", 1000, 500, 8000, 12000, 8000, 4000},
		{"v twice as long", 500, 1000, 8000, 12000, 6000, 12000},
		{"equal distances", 1000, 1000, 8000, 12000, 8000, 8000},
		{"h only", 1000, 0, 8000, 12000, 8000, 12000},
		{"v only", 0, 1000, 8000, 12000, 8000, 12000},
		{"both zero", 0, 0, 8000, 12000, 8000, 12000},
		{"negative distances", -1000, -500, 8000, 12000, 8000, 4000},
		// The shorter axis has the lower cap: primary swaps so the
		// short axis runs at its own max and the long axis slows.
		{"swap primary", 1000, 100, 8000, 500, 5000, 500},
		// Extreme ratio floors at MinSpeed.
		{"floor", 10000, 10, 8000, 12000, 8000, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, v := CoordinateSpeeds(tt.hDist, tt.vDist, tt.hMax, tt.vMax)
			if h != tt.wantH || v != tt.wantV {
				t.Errorf("CoordinateSpeeds(%d, %d, %v, %v) = (%v, %v), want (%v, %v)",
					tt.hDist, tt.vDist, tt.hMax, tt.vMax, h, v, tt.wantH, tt.wantV)
			}
		})
	}
}

func TestCoordinateSpeedsProportional(t *testing.T) {
	// Duration parity: distance/speed must match across axes whenever
	// neither clamp engaged.
	h, v := CoordinateSpeeds(4000, 1000, 8000, 12000)
	dh := 4000 / h
	dv := 1000 / v
	if diff := dh - dv; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("durations differ: h %v vs v %v", dh, dv)
	}
}
