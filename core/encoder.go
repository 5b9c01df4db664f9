package core

// quadratureTable maps (previous<<2 | current) CLK/DT pin states to a
// position delta. Invalid transitions (both bits flipped) decode to 0.
var quadratureTable = [16]int8{
	0, -1, 1, 0,
	1, 0, 0, -1,
	-1, 0, 0, 1,
	0, 1, -1, 0,
}

// Encoder decodes a quadrature encoder by table lookup. Sample runs in
// interrupt context on pin-change interrupts (or from a fast poll loop);
// Position takes a critical section so reads are never torn.
//
// The count is diagnostic only. It is never fed back into motion control.
type Encoder struct {
	position  int32
	lastState uint8
	enabled   bool
}

// NewEncoder returns an enabled encoder at position zero.
func NewEncoder() *Encoder {
	return &Encoder{enabled: true}
}

// Sample feeds the current CLK/DT pin levels into the decoder.
func (e *Encoder) Sample(clk, dt bool) {
	if !e.enabled {
		return
	}
	var state uint8
	if clk {
		state |= 2
	}
	if dt {
		state |= 1
	}
	e.position += int32(quadratureTable[e.lastState<<2|state])
	e.lastState = state
}

// Position returns the current count.
func (e *Encoder) Position() int32 {
	state := disableInterrupts()
	p := e.position
	restoreInterrupts(state)
	return p
}

// Reset zeroes the count.
func (e *Encoder) Reset() {
	state := disableInterrupts()
	e.position = 0
	restoreInterrupts(state)
}

// SetEnabled turns decoding on or off. While disabled, samples are ignored
// and the count holds.
func (e *Encoder) SetEnabled(on bool) {
	state := disableInterrupts()
	e.enabled = on
	if on {
		e.lastState = 0
	}
	restoreInterrupts(state)
}
