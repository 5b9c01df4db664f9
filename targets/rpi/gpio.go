//go:build linux && !tinygo

package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"gantry/config"
	"gantry/core"
)

func pinByNumber(n uint8) (gpio.PinIO, error) {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
	if p == nil {
		return nil, fmt.Errorf("gpio: no pin GPIO%d", n)
	}
	return p, nil
}

// periphStepper drives a step/dir/enable motor driver through periph.io.
type periphStepper struct {
	name      string
	step      gpio.PinIO
	dir       gpio.PinIO
	enable    gpio.PinIO // nil when the driver is hard-enabled
	invertDir bool
}

func newPeriphStepper(name string, cfg config.AxisConfig) (*periphStepper, error) {
	s := &periphStepper{name: name, invertDir: cfg.InvertDir}
	var err error
	if s.step, err = pinByNumber(cfg.StepPin); err != nil {
		return nil, err
	}
	if s.dir, err = pinByNumber(cfg.DirPin); err != nil {
		return nil, err
	}
	if cfg.EnablePin != 0 {
		if s.enable, err = pinByNumber(cfg.EnablePin); err != nil {
			return nil, err
		}
		// Enable is active-low on the usual driver boards.
		s.enable.Out(gpio.High)
	}
	s.step.Out(gpio.Low)
	s.dir.Out(gpio.Low)
	return s, nil
}

func (s *periphStepper) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	// Pins are resolved at construction from the machine config.
	s.invertDir = invertDir
	return nil
}

func (s *periphStepper) SetStepLevel(high bool) {
	s.step.Out(gpio.Level(high))
}

func (s *periphStepper) SetDirection(reverse bool) {
	s.dir.Out(gpio.Level(reverse != s.invertDir))
}

func (s *periphStepper) SetEnabled(on bool) {
	if s.enable != nil {
		s.enable.Out(gpio.Level(!on))
	}
}

func (s *periphStepper) Stop() {
	s.step.Out(gpio.Low)
}

func (s *periphStepper) GetName() string { return s.name }

// periphLimits reads the four limit switches, wired normally-open to
// ground with pullups: a low read means pressed.
type periphLimits struct {
	hLeft, hRight, vUp, vDown gpio.PinIO
}

func newPeriphLimits(cfg config.LimitConfig) (*periphLimits, error) {
	l := &periphLimits{}
	pull := gpio.PullUp
	if !cfg.Pullup {
		pull = gpio.Float
	}
	for _, p := range []struct {
		dst *gpio.PinIO
		num uint8
	}{
		{&l.hLeft, cfg.HLeftPin},
		{&l.hRight, cfg.HRightPin},
		{&l.vUp, cfg.VUpPin},
		{&l.vDown, cfg.VDownPin},
	} {
		pin, err := pinByNumber(p.num)
		if err != nil {
			return nil, err
		}
		if err := pin.In(pull, gpio.NoEdge); err != nil {
			return nil, err
		}
		*p.dst = pin
	}
	return l, nil
}

func (l *periphLimits) ReadLimits() (bool, bool, bool, bool) {
	return l.hLeft.Read() == gpio.Low,
		l.hRight.Read() == gpio.Low,
		l.vUp.Read() == gpio.Low,
		l.vDown.Read() == gpio.Low
}

// periphCoils drives the gripper's four coil inputs.
type periphCoils struct {
	pins [4]gpio.PinIO
}

func newPeriphCoils(cfg config.GripperConfig) (*periphCoils, error) {
	c := &periphCoils{}
	for i, n := range cfg.CoilPins {
		pin, err := pinByNumber(n)
		if err != nil {
			return nil, err
		}
		pin.Out(gpio.Low)
		c.pins[i] = pin
	}
	return c, nil
}

func (c *periphCoils) SetCoils(a, b, cc, d bool) {
	c.pins[0].Out(gpio.Level(a))
	c.pins[1].Out(gpio.Level(b))
	c.pins[2].Out(gpio.Level(cc))
	c.pins[3].Out(gpio.Level(d))
}

// softServo bit-bangs 50Hz servo pulses on plain GPIO pins. Timing jitter
// from the Linux scheduler is a couple of degrees, fine for the arm.
type softServo struct {
	pins   []gpio.PinIO
	angles []uint32 // accessed atomically
	stop   chan struct{}
}

func newSoftServo(servos []config.ServoConfig) (*softServo, error) {
	s := &softServo{stop: make(chan struct{})}
	for _, sc := range servos {
		pin, err := pinByNumber(sc.Pin)
		if err != nil {
			return nil, err
		}
		pin.Out(gpio.Low)
		s.pins = append(s.pins, pin)
		s.angles = append(s.angles, 90)
	}
	go s.run()
	return s, nil
}

func (s *softServo) SetAngle(channel int, angle uint8) error {
	if channel < 0 || channel >= len(s.pins) {
		return fmt.Errorf("servo: no channel %d", channel)
	}
	atomic.StoreUint32(&s.angles[channel], uint32(angle))
	return nil
}

func (s *softServo) run() {
	frame := time.NewTicker(20 * time.Millisecond)
	defer frame.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-frame.C:
			for i, pin := range s.pins {
				angle := atomic.LoadUint32(&s.angles[i])
				pulse := time.Duration(1000+angle*1000/180) * time.Microsecond
				pin.Out(gpio.High)
				time.Sleep(pulse)
				pin.Out(gpio.Low)
			}
		}
	}
}

func (s *softServo) Close() {
	close(s.stop)
}

// pollEncoder samples a quadrature encoder's pins and feeds the decoder.
func pollEncoder(cfg config.EncoderConfig, enc *core.Encoder, stop <-chan struct{}) error {
	clk, err := pinByNumber(cfg.ClkPin)
	if err != nil {
		return err
	}
	dt, err := pinByNumber(cfg.DtPin)
	if err != nil {
		return err
	}
	if err := clk.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return err
	}
	if err := dt.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return err
	}
	go func() {
		tick := time.NewTicker(500 * time.Microsecond)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				enc.Sample(clk.Read() == gpio.High, dt.Read() == gpio.High)
			}
		}
	}()
	return nil
}
