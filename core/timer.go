package core

// Timer frequency for the motion timers. 12MHz gives sub-microsecond
// resolution at the highest supported step rates.
const (
	TimerFreq = 12000000
)

var currentTime uint32

// GetTime returns the current system time in timer ticks.
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (for testing/hardware integration).
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// TimerFromUS converts microseconds to timer ticks.
func TimerFromUS(us uint32) uint32 {
	return us * (TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds.
func TimerToUS(ticks uint32) uint32 {
	return ticks / (TimerFreq / 1000000)
}

// ProcessTimers dispatches all timers that have come due.
// Called from the main loop on every iteration.
func ProcessTimers() {
	currentTime = GetTime()
	TimerDispatch()
}
