package core

// LimitLine identifies one of the four limit switch inputs.
type LimitLine uint8

const (
	LimitHLeft LimitLine = iota
	LimitHRight
	LimitVUp
	LimitVDown
	limitLineCount
)

// LimitSensor reads the raw switch inputs. true means the switch is pressed.
type LimitSensor interface {
	ReadLimits() (hLeft, hRight, vUp, vDown bool)
}

// LimitStatus is a debounced snapshot of all four lines.
type LimitStatus struct {
	HLeft  bool
	HRight bool
	VUp    bool
	VDown  bool
}

// LimitMonitor debounces the four limit lines. A line flips state only
// after DebounceThreshold consecutive raw reads disagree with the current
// debounced state, in both directions: a latched trigger clears only on a
// debounced release.
type LimitMonitor struct {
	Sensor LimitSensor

	status [limitLineCount]bool
	counts [limitLineCount]uint8
}

// NewLimitMonitor creates a monitor over the given sensor.
func NewLimitMonitor(sensor LimitSensor) *LimitMonitor {
	return &LimitMonitor{Sensor: sensor}
}

// Update samples the raw inputs once and returns which lines newly
// triggered on this sample. Called every supervisor tick.
func (m *LimitMonitor) Update() (triggered [limitLineCount]bool) {
	if m.Sensor == nil {
		return
	}
	var raw [limitLineCount]bool
	raw[LimitHLeft], raw[LimitHRight], raw[LimitVUp], raw[LimitVDown] = m.Sensor.ReadLimits()

	for i := range raw {
		if raw[i] == m.status[i] {
			m.counts[i] = 0
			continue
		}
		m.counts[i]++
		if m.counts[i] >= DebounceThreshold {
			m.counts[i] = 0
			m.status[i] = raw[i]
			if raw[i] {
				triggered[i] = true
			}
		}
	}
	return
}

// Status returns the current debounced state of all lines.
func (m *LimitMonitor) Status() LimitStatus {
	return LimitStatus{
		HLeft:  m.status[LimitHLeft],
		HRight: m.status[LimitHRight],
		VUp:    m.status[LimitVUp],
		VDown:  m.status[LimitVDown],
	}
}

// Triggered reports the debounced state of one line.
func (m *LimitMonitor) Triggered(line LimitLine) bool {
	return m.status[line]
}

// CheckHMovement reports whether horizontal motion in the given direction
// is permitted (true = moving right/positive).
func (m *LimitMonitor) CheckHMovement(positive bool) bool {
	if positive {
		return !m.status[LimitHRight]
	}
	return !m.status[LimitHLeft]
}

// CheckVMovement reports whether vertical motion in the given direction is
// permitted (true = moving up/positive).
func (m *LimitMonitor) CheckVMovement(positive bool) bool {
	if positive {
		return !m.status[LimitVUp]
	}
	return !m.status[LimitVDown]
}
