package core

// Calibration counts physical steps while a measurement session is active.
// countStep runs in interrupt context; Start/Stop run from the main loop
// under a critical section so the count is never torn.
type Calibration struct {
	active bool
	steps  uint32
}

// Start begins a counting session from zero.
func (c *Calibration) Start() {
	state := disableInterrupts()
	c.active = true
	c.steps = 0
	restoreInterrupts(state)
}

// Stop ends the session and returns the accumulated step count.
func (c *Calibration) Stop() uint32 {
	state := disableInterrupts()
	c.active = false
	n := c.steps
	restoreInterrupts(state)
	return n
}

// Active reports whether a session is running.
func (c *Calibration) Active() bool {
	state := disableInterrupts()
	a := c.active
	restoreInterrupts(state)
	return a
}

// countStep is called by the step schedulers on every falling edge.
func (c *Calibration) countStep() {
	if c.active {
		c.steps++
	}
}
