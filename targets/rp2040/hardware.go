//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/servo"

	"gantry/core"
)

// Default Pico wiring. Step/dir pins are owned by the PIO backends.
const (
	pinHStep = machine.GP2
	pinHDir  = machine.GP3
	pinVStep = machine.GP4
	pinVDir  = machine.GP5

	pinLimitHLeft  = machine.GP10
	pinLimitHRight = machine.GP11
	pinLimitVUp    = machine.GP12
	pinLimitVDown  = machine.GP13

	pinServo1 = machine.GP14
	pinServo2 = machine.GP15

	pinGripper1 = machine.GP18
	pinGripper2 = machine.GP19
	pinGripper3 = machine.GP20
	pinGripper4 = machine.GP21

	pinEncHClk = machine.GP6
	pinEncHDt  = machine.GP7
	pinEncVClk = machine.GP8
	pinEncVDt  = machine.GP9
)

// pinLimits reads the four switches, normally-open to ground with the
// internal pullups: a low level means pressed.
type pinLimits struct {
	hLeft, hRight, vUp, vDown machine.Pin
}

func newPinLimits() *pinLimits {
	l := &pinLimits{
		hLeft:  pinLimitHLeft,
		hRight: pinLimitHRight,
		vUp:    pinLimitVUp,
		vDown:  pinLimitVDown,
	}
	for _, p := range []machine.Pin{l.hLeft, l.hRight, l.vUp, l.vDown} {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}
	return l
}

func (l *pinLimits) ReadLimits() (bool, bool, bool, bool) {
	return !l.hLeft.Get(), !l.hRight.Get(), !l.vUp.Get(), !l.vDown.Get()
}

// pwmArm drives the two arm servos from hardware PWM slices.
type pwmArm struct {
	servos [2]servo.Servo
}

func newPWMArm() (*pwmArm, error) {
	a := &pwmArm{}
	s1, err := servo.New(machine.PWM7, pinServo1)
	if err != nil {
		return nil, err
	}
	s2, err := servo.New(machine.PWM7, pinServo2)
	if err != nil {
		return nil, err
	}
	a.servos[0] = s1
	a.servos[1] = s2
	return a, nil
}

func (a *pwmArm) SetAngle(channel int, angle uint8) error {
	// 0-180 degrees onto the 1000-2000us band.
	a.servos[channel].SetMicroseconds(int16(1000 + int(angle)*1000/180))
	return nil
}

// attachEncoder decodes a quadrature encoder from pin-change interrupts.
func attachEncoder(clk, dt machine.Pin, enc *core.Encoder) {
	clk.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	dt.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	sample := func(machine.Pin) {
		enc.Sample(clk.Get(), dt.Get())
	}
	clk.SetInterrupt(machine.PinToggle, sample)
	dt.SetInterrupt(machine.PinToggle, sample)
}
