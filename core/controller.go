package core

import "sync/atomic"

// Controller supervises coordinated motion of both gantry axes. It owns the
// axes, their step schedulers, the limit monitor and the calibration
// session; everything is wired explicitly at construction, nothing global.
//
// The controller runs from the main loop. A 500Hz timer only raises a flag;
// Update performs the actual per-tick work (limit scan, profile service,
// snapshot capture, deferred completion reports).
type Controller struct {
	H Axis
	V Axis

	HSched *StepScheduler
	VSched *StepScheduler
	Limits *LimitMonitor
	Calib  Calibration

	// Optional diagnostics encoders, compared against motor position on
	// request. Never fed back into control.
	HEncoder *Encoder
	VEncoder *Encoder

	report Reporter

	tick      Timer
	updateDue uint32

	moving    bool
	snaps     [SnapshotCapacity]snapshot
	snapCount int
	snapTicks int
}

type snapshot struct {
	hMM int32
	vMM int32
}

// NewController builds the supervisor over the given pin backends and limit
// sensor. report may be nil.
func NewController(hBackend, vBackend StepperBackend, sensor LimitSensor, report Reporter) *Controller {
	c := &Controller{report: report}
	c.H = Axis{
		ID: Horizontal, Name: "H", Enabled: true,
		MaxSpeed: MaxSpeedH, Acceleration: AccelH, StepsPerMM: StepsPerMMH,
	}
	c.V = Axis{
		ID: Vertical, Name: "V", Enabled: true,
		MaxSpeed: MaxSpeedV, Acceleration: AccelV, StepsPerMM: StepsPerMMV,
	}
	c.HSched = NewStepScheduler(&c.H, hBackend, &c.Calib)
	c.VSched = NewStepScheduler(&c.V, vBackend, &c.Calib)
	c.Limits = NewLimitMonitor(sensor)
	c.tick.Handler = c.tickEvent
	return c
}

// Start schedules the supervisor tick and announces readiness.
func (c *Controller) Start() {
	c.tick.WakeTime = GetTime() + TickInterval
	ScheduleTimer(&c.tick)
	c.emit("SYSTEM_READY")
}

// tickEvent runs in interrupt context; it only flags the main loop.
func (c *Controller) tickEvent(t *Timer) uint8 {
	atomic.StoreUint32(&c.updateDue, 1)
	t.WakeTime += TickInterval
	return SF_RESCHEDULE
}

// MoveRelativeMM starts a move of the given millimeter deltas from the
// current position. This is the M command.
func (c *Controller) MoveRelativeMM(hMM, vMM int32) {
	h, v := c.Position()
	c.MoveAbsolute(h+c.H.StepsFromMM(hMM), v+c.V.StepsFromMM(vMM))
}

// MoveAbsolute starts a coordinated move to the given step positions. An
// in-flight move is silently replaced. Axes whose travel direction is
// blocked by a latched limit switch (or which are disabled) have their
// target collapsed to the current position; the start report always shows
// the permitted targets.
func (c *Controller) MoveAbsolute(hTarget, vTarget int32) {
	c.stopAxes()

	fromH := c.H.CurrentPosition
	fromV := c.V.CurrentPosition
	c.H.ResetRelative()
	c.V.ResetRelative()
	c.snapCount = 0
	c.snapTicks = 0

	hDist := hTarget - fromH
	vDist := vTarget - fromV
	if hDist != 0 && (!c.H.Enabled || !c.Limits.CheckHMovement(hDist > 0)) {
		hTarget, hDist = fromH, 0
	}
	if vDist != 0 && (!c.V.Enabled || !c.Limits.CheckVMovement(vDist > 0)) {
		vTarget, vDist = fromV, 0
	}

	hSpeed, vSpeed := CoordinateSpeeds(hDist, vDist, c.H.MaxSpeed, c.V.MaxSpeed)
	c.H.TargetPosition = hTarget
	c.V.TargetPosition = vTarget
	c.startAxis(&c.H, c.HSched, hDist, hSpeed)
	c.startAxis(&c.V, c.VSched, vDist, vSpeed)
	c.moving = true

	c.emit("STEPPER_MOVE_STARTED:FROM=" + itoa(fromH) + "," + itoa(fromV) +
		",TO=" + itoa(hTarget) + "," + itoa(vTarget))
}

func (c *Controller) startAxis(a *Axis, s *StepScheduler, dist int32, speed float64) {
	if dist == 0 {
		a.done = true
		a.Profile.Reset()
		return
	}
	a.Direction = dist > 0
	a.Profile.Setup(a.CurrentPosition, a.TargetPosition, speed, a.Acceleration)
	s.Arm(a.Profile.CurrentSpeed)
}

// StopAll is the operator emergency stop. If a move was in flight it is
// halted where it stands and exactly one emergency report is emitted; a
// second StopAll is a no-op.
func (c *Controller) StopAll() {
	wasMoving := c.axesMoving()
	c.stopAxes()
	if !wasMoving || !c.moving {
		return
	}
	c.moving = false

	h := c.H.CurrentPosition
	v := c.V.CurrentPosition
	relH := c.H.RelativeSteps()
	relV := c.V.RelativeSteps()
	c.emit("STEPPER_EMERGENCY_STOP:" + itoa(h) + "," + itoa(v) +
		",REL:" + itoa(relH) + "," + itoa(relV) +
		",MM:" + itoa(c.H.MMFromSteps(relH)) + "," + itoa(c.V.MMFromSteps(relV)))

	c.H.ResetRelative()
	c.V.ResetRelative()
	c.H.done = false
	c.V.done = false
	c.snapCount = 0
}

// stopAxes halts pulse generation on both axes without reporting.
func (c *Controller) stopAxes() {
	c.HSched.Stop()
	c.VSched.Stop()
	state := disableInterrupts()
	c.H.State = AxisIdle
	c.V.State = AxisIdle
	restoreInterrupts(state)
	c.H.Profile.Reset()
	c.V.Profile.Reset()
}

// Update runs one supervisor pass. Call from the main loop every iteration;
// it does nothing until the tick timer has fired.
func (c *Controller) Update() {
	if atomic.SwapUint32(&c.updateDue, 0) == 0 {
		return
	}

	triggered := c.Limits.Update()
	c.enforceLimits(triggered)

	c.serviceAxis(&c.H, c.HSched)
	c.serviceAxis(&c.V, c.VSched)

	if c.moving && c.axesMoving() {
		c.snapTicks++
		if c.snapTicks >= SnapshotEveryTicks {
			c.snapTicks = 0
			c.captureSnapshot()
		}
	}

	if c.moving && c.axisDone(&c.H) && c.axisDone(&c.V) {
		c.moving = false
		c.H.Profile.Reset()
		c.V.Profile.Reset()
		c.completeMove()
	}
}

// serviceAxis re-evaluates one axis profile and reprograms its step rate
// when the change exceeds the hysteresis band.
func (c *Controller) serviceAxis(a *Axis, s *StepScheduler) {
	if !a.Profile.IsActive() {
		return
	}
	state := disableInterrupts()
	pos := a.CurrentPosition
	active := a.State == AxisMoving
	restoreInterrupts(state)
	if !active {
		return
	}

	speed := a.Profile.Update(pos)
	if speed <= 0 {
		return
	}
	old := s.Rate()
	if old <= 0 {
		return
	}
	thresh := AccelHysteresis
	if a.Profile.Phase == ProfileDecelerating {
		thresh = DecelHysteresis
	}
	diff := speed - old
	if diff < 0 {
		diff = -diff
	}
	if diff/old > thresh {
		s.SetSpeed(speed)
	}
}

func (c *Controller) enforceLimits(triggered [limitLineCount]bool) {
	for line := LimitLine(0); line < limitLineCount; line++ {
		if !triggered[line] {
			continue
		}
		switch line {
		case LimitHLeft:
			c.abortAxis(&c.H, c.HSched, false)
		case LimitHRight:
			c.abortAxis(&c.H, c.HSched, true)
		case LimitVUp:
			c.abortAxis(&c.V, c.VSched, true)
		case LimitVDown:
			c.abortAxis(&c.V, c.VSched, false)
		}
		if c.Calib.Active() {
			n := c.Calib.Stop()
			c.emit("CALIBRATION_STEPS:" + utoa(n))
		}
		c.emit(limitLineName(line))
		c.ReportPosition()
	}
}

// abortAxis stops an axis if it is travelling toward the triggered switch.
// The completion folds into the normal deferred move report.
func (c *Controller) abortAxis(a *Axis, s *StepScheduler, positive bool) {
	state := disableInterrupts()
	hit := a.State == AxisMoving && a.Direction == positive
	restoreInterrupts(state)
	if !hit {
		return
	}
	s.Stop()
	state = disableInterrupts()
	a.State = AxisIdle
	a.done = true
	restoreInterrupts(state)
	a.Profile.Reset()
}

func (c *Controller) captureSnapshot() {
	if c.snapCount >= SnapshotCapacity {
		return
	}
	h, v := c.Position()
	c.snaps[c.snapCount] = snapshot{
		hMM: c.H.MMFromSteps(h),
		vMM: c.V.MMFromSteps(v),
	}
	c.snapCount++
}

func (c *Controller) completeMove() {
	h := c.H.CurrentPosition
	v := c.V.CurrentPosition
	relH := c.H.RelativeSteps()
	relV := c.V.RelativeSteps()
	c.emit("STEPPER_MOVE_COMPLETED:" + itoa(h) + "," + itoa(v) +
		",REL:" + itoa(relH) + "," + itoa(relV) +
		",MM:" + itoa(c.H.MMFromSteps(relH)) + "," + itoa(c.V.MMFromSteps(relV)))
	if c.snapCount > 0 {
		line := "MOVEMENT_SNAPSHOTS:"
		for i := 0; i < c.snapCount; i++ {
			if i > 0 {
				line += ";"
			}
			line += "S" + itoa(int32(i+1)) + "=" +
				itoa(c.snaps[i].hMM) + "," + itoa(c.snaps[i].vMM)
		}
		c.emit(line)
		c.snapCount = 0
	}
}

// Position returns both axis positions as a consistent snapshot.
func (c *Controller) Position() (h, v int32) {
	state := disableInterrupts()
	h = c.H.CurrentPosition
	v = c.V.CurrentPosition
	restoreInterrupts(state)
	return h, v
}

// SetPosition rebases the position counters. Only allowed while idle.
func (c *Controller) SetPosition(h, v int32) error {
	if c.axesMoving() {
		return ErrBusy
	}
	c.H.CurrentPosition = h
	c.H.TargetPosition = h
	c.H.ResetRelative()
	c.V.CurrentPosition = v
	c.V.TargetPosition = v
	c.V.ResetRelative()
	return nil
}

// SetSpeeds updates the per-axis speed limits used by subsequent moves.
func (c *Controller) SetSpeeds(h, v float64) error {
	if h <= 0 || h > MaxSpeedH || v <= 0 || v > MaxSpeedV {
		return ErrSpeedRange
	}
	c.H.MaxSpeed = h
	c.V.MaxSpeed = v
	return nil
}

// ToggleCalibration starts a step-counting session, or ends the running one
// and reports the count. Returns true if a session is now active.
func (c *Controller) ToggleCalibration() bool {
	if c.Calib.Active() {
		n := c.Calib.Stop()
		c.emit("CALIBRATION_COMPLETED:" + utoa(n))
		return false
	}
	c.Calib.Start()
	c.emit("CALIBRATION_STARTED")
	return true
}

// ReportLimits emits the debounced limit switch snapshot.
func (c *Controller) ReportLimits() {
	st := c.Limits.Status()
	c.emit("LIMITS:H_L=" + boolDigit(st.HLeft) + ",H_R=" + boolDigit(st.HRight) +
		",V_U=" + boolDigit(st.VUp) + ",V_D=" + boolDigit(st.VDown))
}

// ReportPosition emits the current step positions.
func (c *Controller) ReportPosition() {
	h, v := c.Position()
	c.emit("POSITION:" + itoa(h) + "," + itoa(v))
}

// ReportEncoderComparison emits motor vs encoder counts for both axes.
func (c *Controller) ReportEncoderComparison() {
	h, v := c.Position()
	var eh, ev int32
	if c.HEncoder != nil {
		eh = c.HEncoder.Position()
	}
	if c.VEncoder != nil {
		ev = c.VEncoder.Position()
	}
	c.emit("COMPARISON:MOTOR_H:" + itoa(h) + ",ENC_H:" + itoa(eh) +
		",MOTOR_V:" + itoa(v) + ",ENC_V:" + itoa(ev))
}

// Moving reports whether a supervised move is still open (started and not
// yet reported complete).
func (c *Controller) Moving() bool {
	return c.moving
}

func (c *Controller) axesMoving() bool {
	state := disableInterrupts()
	moving := c.H.State == AxisMoving || c.V.State == AxisMoving
	restoreInterrupts(state)
	return moving
}

func (c *Controller) axisDone(a *Axis) bool {
	state := disableInterrupts()
	done := a.done
	restoreInterrupts(state)
	return done
}

func (c *Controller) emit(line string) {
	if c.report != nil {
		c.report(line)
	}
}

func limitLineName(line LimitLine) string {
	switch line {
	case LimitHLeft:
		return "LIMIT_H_LEFT_TRIGGERED"
	case LimitHRight:
		return "LIMIT_H_RIGHT_TRIGGERED"
	case LimitVUp:
		return "LIMIT_V_UP_TRIGGERED"
	case LimitVDown:
		return "LIMIT_V_DOWN_TRIGGERED"
	}
	return "LIMIT_UNKNOWN_TRIGGERED"
}
