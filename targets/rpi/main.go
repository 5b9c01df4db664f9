//go:build linux && !tinygo

// gantryd is the Raspberry Pi build of the gantry firmware: motion core and
// command protocol over a serial link, pins through periph.io.
package main

import (
	"flag"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/host/v3"

	"gantry/actuator"
	"gantry/config"
	"gantry/core"
	"gantry/host/monitor"
	"gantry/host/serial"
	"gantry/protocol"
)

func main() {
	configPath := flag.String("config", "/etc/gantry.json", "machine configuration file")
	listen := flag.String("listen", "", "optional websocket monitor address")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.WithError(err).WithField("path", *configPath).Warn("config not loaded, using defaults")
		cfg = config.Default()
	}

	if _, err := host.Init(); err != nil {
		log.WithError(err).Fatal("periph host init")
	}

	// Blocking reads: the link goroutine owns the port.
	port, err := serial.Open(&serial.Config{
		Device: cfg.Serial.Device,
		Baud:   cfg.Serial.Baud,
	})
	if err != nil {
		log.WithError(err).Fatal("open operator link")
	}
	link := serial.NewLink(port)
	defer link.Close()

	report := core.Reporter(func(line string) {
		if err := link.WriteLine(line); err != nil {
			log.WithError(err).Error("write status line")
		}
	})
	if *listen != "" {
		hub := monitor.NewHub()
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		go func() {
			if err := http.ListenAndServe(*listen, mux); err != nil {
				log.WithError(err).Error("monitor server stopped")
			}
		}()
		report = core.MultiReporter(report, hub.Reporter())
	}

	hStepper, err := newPeriphStepper("H", cfg.Horizontal)
	if err != nil {
		log.WithError(err).Fatal("horizontal stepper pins")
	}
	vStepper, err := newPeriphStepper("V", cfg.Vertical)
	if err != nil {
		log.WithError(err).Fatal("vertical stepper pins")
	}
	limits, err := newPeriphLimits(cfg.Limits)
	if err != nil {
		log.WithError(err).Fatal("limit switch pins")
	}

	ctrl := core.NewController(hStepper, vStepper, limits, report)
	cfg.Apply(ctrl)

	var arm *actuator.Arm
	if len(cfg.Servos) > 0 {
		servos, err := newSoftServo(cfg.Servos)
		if err != nil {
			log.WithError(err).Fatal("servo pins")
		}
		defer servos.Close()
		arm = actuator.NewArm(servos, actuator.NewFileStore(cfg.StatePath), report)
		for i, sc := range cfg.Servos {
			if sc.MaxAngle != 0 {
				arm.SetLimits(i, sc.MinAngle, sc.MaxAngle)
			}
		}
		arm.Restore()
	}

	var gripper *actuator.Gripper
	if cfg.Gripper.CoilPins != [4]uint8{} {
		coils, err := newPeriphCoils(cfg.Gripper)
		if err != nil {
			log.WithError(err).Fatal("gripper pins")
		}
		gripper = actuator.NewGripper(actuator.NewCoilStepper(coils), cfg.Gripper.Travel, report)
	}

	stop := make(chan struct{})
	defer close(stop)
	if cfg.HEncoder != (config.EncoderConfig{}) {
		ctrl.HEncoder = core.NewEncoder()
		if err := pollEncoder(cfg.HEncoder, ctrl.HEncoder, stop); err != nil {
			log.WithError(err).Fatal("h encoder pins")
		}
	}
	if cfg.VEncoder != (config.EncoderConfig{}) {
		ctrl.VEncoder = core.NewEncoder()
		if err := pollEncoder(cfg.VEncoder, ctrl.VEncoder, stop); err != nil {
			log.WithError(err).Fatal("v encoder pins")
		}
	}

	server := protocol.NewServer(ctrl, arm, gripper, report)

	cmds := make(chan string, 16)
	go func() {
		for {
			line, err := link.ReadLine()
			if err != nil {
				log.WithError(err).Fatal("operator link lost")
			}
			cmds <- line
		}
	}()

	log.WithField("device", cfg.Serial.Device).Info("gantry firmware running")
	ctrl.Start()

	start := time.Now()
	clock := time.NewTicker(500 * time.Microsecond)
	defer clock.Stop()
	for {
		select {
		case line := <-cmds:
			server.HandleLine(line)
		case <-clock.C:
			ns := time.Since(start).Nanoseconds()
			core.SetTime(uint32(ns * (core.TimerFreq / 1000000) / 1000))
			core.ProcessTimers()
			ctrl.Update()
			if arm != nil {
				arm.Update()
			}
			if gripper != nil {
				gripper.Update()
			}
		}
	}
}
