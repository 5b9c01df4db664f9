//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"gantry/core"
)

// RP2040 timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// readHardwareMicros reads the low 32 bits of the 1MHz hardware timer.
func readHardwareMicros() uint32 {
	return timerRAWL.Get()
}

// updateSystemTime feeds the hardware clock into the scheduler's time base.
// The multiply wraps consistently, so interval arithmetic stays valid
// across rollover.
func updateSystemTime() {
	core.SetTime(readHardwareMicros() * core.TimerFromUSConst)
}
