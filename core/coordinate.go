package core

// CoordinateSpeeds scales the per-axis target speeds of a two-axis move so
// both axes finish at roughly the same time. The axis with the longer
// distance runs at its configured maximum; the other is scaled down by the
// distance ratio. If the scaled speed would still exceed the shorter axis's
// own limit, the roles swap and the longer axis is slowed instead. Results
// never drop below MinSpeed.
//
// Single-axis moves (either distance zero) are returned unscaled.
func CoordinateSpeeds(hDist, vDist int32, hMax, vMax float64) (hSpeed, vSpeed float64) {
	hDist = abs32(hDist)
	vDist = abs32(vDist)

	if hDist == 0 || vDist == 0 {
		return hMax, vMax
	}

	if hDist >= vDist {
		hSpeed = hMax
		vSpeed = hMax * float64(vDist) / float64(hDist)
		if vSpeed > vMax {
			vSpeed = vMax
			hSpeed = vMax * float64(hDist) / float64(vDist)
			if hSpeed > hMax {
				hSpeed = hMax
			}
		}
	} else {
		vSpeed = vMax
		hSpeed = vMax * float64(hDist) / float64(vDist)
		if hSpeed > hMax {
			hSpeed = hMax
			vSpeed = hMax * float64(vDist) / float64(hDist)
			if vSpeed > vMax {
				vSpeed = vMax
			}
		}
	}

	if hSpeed < MinSpeed {
		hSpeed = MinSpeed
	}
	if vSpeed < MinSpeed {
		vSpeed = MinSpeed
	}
	return hSpeed, vSpeed
}
