package core

// Machine constants. Defaults match the gantry hardware: belt-driven
// horizontal axis, leadscrew vertical axis, 1/8 microstepping.

// Steps-per-millimeter for each axis.
const (
	StepsPerMMH int32 = 40  // belt drive
	StepsPerMMV int32 = 200 // leadscrew
)

// Speed and acceleration limits, in steps/s and steps/s².
const (
	MaxSpeedH = 8000.0
	MaxSpeedV = 12000.0
	MinSpeed  = 500.0
	AccelH    = 6000.0
	AccelV    = 6000.0
)

// Supervisor tick: profiles are re-evaluated at this rate.
const (
	ProfileTickRate = 500 // Hz
	TickInterval    = TimerFreq / ProfileTickRate
)

// Speed smoothing: the commanded speed may change by at most
// acceleration/tickrate per tick, with a floor so very gentle
// accelerations still converge.
const SpeedDeltaFloor = 10.0

// Reprogramming hysteresis: the step timer is only reprogrammed when the
// profile speed moves by more than this fraction of the programmed rate.
// Deceleration tracks tighter so the final approach stays accurate.
const (
	AccelHysteresis = 0.05
	DecelHysteresis = 0.02
)

// Limit switch debounce: consecutive identical raw reads required before
// the debounced state flips.
const DebounceThreshold = 3

// Step pulse timing.
const (
	// MaxStepRate bounds the programmed step frequency.
	MaxStepRate = 20000
	// MinHalfInterval is the shortest half-period the scheduler will
	// program (TimerFreq / (2 * MaxStepRate)).
	MinHalfInterval = TimerFreq / (2 * MaxStepRate)
	// GuardTicks: if the next step edge is closer than this, a new rate
	// takes effect on the following cycle instead of the imminent one.
	GuardTicks = TimerFromUSConst * 20
	// TimerFromUSConst is ticks per microsecond.
	TimerFromUSConst = TimerFreq / 1000000
)

// Progress snapshots captured while a move is in flight.
const (
	SnapshotCapacity   = 16
	SnapshotEveryTicks = 100 // 200ms at 500Hz
)
