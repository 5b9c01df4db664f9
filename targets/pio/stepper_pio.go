//go:build rp2040

// Package pio provides a hardware-timed step pulse backend on the RP2040's
// PIO block, so pulse width never depends on main-loop latency.
package pio

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// pulseProgram assembles the pulse generator. Each FIFO word is one
// command: bits 0-15 pulse count, 16-23 inter-pulse delay, bit 31 the
// direction level. The scheduler only ever queues count=1 words; the wider
// format stays so a future burst mode needs no program change.
func pulseProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		asm.Pull(false, true).Encode(),
		asm.Out(rp2pio.OutDestX, 16).Encode(),
		asm.Out(rp2pio.OutDestY, 8).Encode(),
		asm.Out(rp2pio.OutDestPins, 1).Encode(),
		asm.Set(rp2pio.SetDestPins, 1).Delay(7).Encode(), // step high, held 8 cycles
		asm.Set(rp2pio.SetDestPins, 0).Encode(),
		asm.Jmp(6, rp2pio.JmpYNZeroDec).Encode(), // inter-pulse delay
		asm.Jmp(4, rp2pio.JmpXNZeroDec).Encode(), // next pulse
	}
}

// Jump targets above are absolute, so the program must load at offset 0.
const pulseProgramOrigin = 0

// StepperBackend implements core.StepperBackend on a PIO state machine.
// The scheduler's rising edge enqueues one hardware-timed pulse; the
// falling edge is a no-op because the PIO already shaped the pulse.
type StepperBackend struct {
	pio       *rp2pio.PIO
	sm        rp2pio.StateMachine
	stepPin   machine.Pin
	dirPin    machine.Pin
	direction bool
	invertDir bool
	offset    uint8
}

// NewStepperBackend allocates a backend on the given PIO block (0 or 1)
// and state machine (0-3).
func NewStepperBackend(pioNum, smNum uint8) *StepperBackend {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	return &StepperBackend{
		pio: pioHW,
		sm:  pioHW.StateMachine(smNum),
	}
}

// Init claims the state machine, loads the program and configures pins.
func (b *StepperBackend) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	b.stepPin = machine.Pin(stepPin)
	b.dirPin = machine.Pin(dirPin)
	b.invertDir = invertDir

	b.sm.TryClaim()

	program := pulseProgram()
	offset, err := b.pio.AddProgram(program, pulseProgramOrigin)
	if err != nil {
		return err
	}
	b.offset = offset

	b.stepPin.Configure(machine.PinConfig{Mode: b.pio.PinMode()})
	b.dirPin.Configure(machine.PinConfig{Mode: b.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(b.stepPin, 1)
	cfg.SetOutPins(b.dirPin, 1)
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(1000, 0)

	b.sm.Init(offset, cfg)
	b.sm.SetPindirsConsecutive(b.stepPin, 1, true)
	b.sm.SetPindirsConsecutive(b.dirPin, 1, true)
	b.sm.SetPinsConsecutive(b.stepPin, 1, false)
	b.sm.SetPinsConsecutive(b.dirPin, 1, false)
	b.sm.SetEnabled(true)
	return nil
}

// SetStepLevel queues one pulse on the rising edge. The PIO fixes the
// pulse width, so the falling edge needs no action.
func (b *StepperBackend) SetStepLevel(high bool) {
	if !high {
		return
	}
	cmd := uint32(1) | (1 << 16) // count=1, delay=1
	if b.direction != b.invertDir {
		cmd |= 1 << 31
	}
	if b.sm.IsTxFIFOFull() {
		// A full FIFO means four pulses are already queued; dropping
		// here is safer than blocking in interrupt context.
		return
	}
	b.sm.TxPut(cmd)
}

// SetDirection latches the direction bit for subsequent pulses.
func (b *StepperBackend) SetDirection(reverse bool) {
	b.direction = reverse
}

// SetEnabled is a no-op: the PIO holds pins idle between pulses.
func (b *StepperBackend) SetEnabled(on bool) {}

// Stop drains any queued pulses.
func (b *StepperBackend) Stop() {
	b.sm.SetEnabled(false)
	b.sm.ClearFIFOs()
	b.sm.Restart()
	b.sm.SetEnabled(true)
}

// GetName returns the backend name
func (b *StepperBackend) GetName() string {
	return "PIO"
}
