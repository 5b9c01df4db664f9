//go:build !tinygo

package core

// State is a placeholder for interrupt state on host Go
type State uintptr

// disableInterrupts is a no-op on host Go (for testing)
func disableInterrupts() State {
	return 0
}

// restoreInterrupts restores the interrupt state (no-op on host Go)
func restoreInterrupts(state State) {
}
