//go:build rp2040

// Pico build of the gantry firmware: step generation on PIO state machines,
// the command protocol on the USB serial port.
package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/easystepper"

	"gantry/actuator"
	"gantry/core"
	"gantry/protocol"
	"gantry/targets/pio"
)

const gripperTravel = 512

func main() {
	time.Sleep(500 * time.Millisecond) // let USB CDC enumerate

	report := core.Reporter(func(line string) {
		machine.Serial.Write([]byte(line))
		machine.Serial.Write([]byte{'\n'})
	})

	hBackend := pio.NewStepperBackend(0, 0)
	vBackend := pio.NewStepperBackend(0, 1)

	ctrl := core.NewController(hBackend, vBackend, newPinLimits(), report)
	if err := hBackend.Init(uint8(pinHStep), uint8(pinHDir), false, false); err != nil {
		report("ERR:INTERNAL")
	}
	if err := vBackend.Init(uint8(pinVStep), uint8(pinVDir), false, false); err != nil {
		report("ERR:INTERNAL")
	}

	var arm *actuator.Arm
	if servos, err := newPWMArm(); err == nil {
		// No filesystem on the Pico, so arm angles reset on power-up.
		arm = actuator.NewArm(servos, &actuator.MemStore{}, report)
		arm.Restore()
	}

	var gripper *actuator.Gripper
	coilMotor, err := easystepper.New(easystepper.DeviceConfig{
		Pin1: pinGripper1, Pin2: pinGripper2, Pin3: pinGripper3, Pin4: pinGripper4,
		StepCount: 2048,
		RPM:       12,
		Mode:      easystepper.ModeFour,
	})
	if err == nil {
		coilMotor.Configure()
		gripper = actuator.NewGripper(coilMotor, gripperTravel, report)
	}

	ctrl.HEncoder = core.NewEncoder()
	ctrl.VEncoder = core.NewEncoder()
	attachEncoder(pinEncHClk, pinEncHDt, ctrl.HEncoder)
	attachEncoder(pinEncVClk, pinEncVDt, ctrl.VEncoder)

	server := protocol.NewServer(ctrl, arm, gripper, report)

	updateSystemTime()
	ctrl.Start()

	var lineBuf [64]byte
	lineLen := 0
	for {
		updateSystemTime()
		core.ProcessTimers()
		ctrl.Update()
		if arm != nil {
			arm.Update()
		}
		if gripper != nil {
			gripper.Update()
		}

		for machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err != nil {
				break
			}
			if b == '\n' || b == '\r' {
				if lineLen > 0 {
					server.HandleLine(string(lineBuf[:lineLen]))
					lineLen = 0
				}
				continue
			}
			if lineLen < len(lineBuf) {
				lineBuf[lineLen] = b
				lineLen++
			}
		}

		time.Sleep(10 * time.Microsecond)
	}
}
