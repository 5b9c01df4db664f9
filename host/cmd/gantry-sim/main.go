// gantry-sim runs the complete firmware stack against simulated hardware:
// commands on stdin, status lines on stdout, with the motion core, limit
// logic, arm and gripper all live. Useful for exercising supervisors
// without a board on the bench.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"gantry/actuator"
	"gantry/core"
	"gantry/host/monitor"
	"gantry/protocol"
)

// simStepper satisfies core.StepperBackend; the scheduler tracks position,
// so the simulated pins have nothing to do.
type simStepper struct{ name string }

func (s *simStepper) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error { return nil }
func (s *simStepper) SetStepLevel(high bool)                                       {}
func (s *simStepper) SetDirection(reverse bool)                                    {}
func (s *simStepper) SetEnabled(on bool)                                           {}
func (s *simStepper) Stop()                                                        {}
func (s *simStepper) GetName() string                                              { return s.name }

type simServo struct{}

func (simServo) SetAngle(channel int, angle uint8) error { return nil }

type simCoils struct{}

func (simCoils) SetCoils(a, b, c, d bool) {}

// simSensor is a limit sensor whose raw levels are poked over the protocol
// with SIM:LIMIT:<HL|HR|VU|VD>,<0|1>.
type simSensor struct {
	mu     sync.Mutex
	levels [4]bool
}

func (s *simSensor) ReadLimits() (bool, bool, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[0], s.levels[1], s.levels[2], s.levels[3]
}

func (s *simSensor) set(name string, pressed bool) bool {
	idx := map[string]int{"HL": 0, "HR": 1, "VU": 2, "VD": 3}
	i, ok := idx[name]
	if !ok {
		return false
	}
	s.mu.Lock()
	s.levels[i] = pressed
	s.mu.Unlock()
	return true
}

func main() {
	listen := flag.String("listen", "", "optional websocket monitor address (e.g. :8080)")
	statePath := flag.String("state", "", "servo state file (default: in-memory)")
	speedup := flag.Int("speedup", 1, "simulated time multiplier")
	flag.Parse()

	log.SetOutput(os.Stderr)

	out := func(line string) { fmt.Println(line) }
	report := core.Reporter(out)

	var hub *monitor.Hub
	if *listen != "" {
		hub = monitor.NewHub()
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		go func() {
			log.WithField("addr", *listen).Info("monitor listening")
			if err := http.ListenAndServe(*listen, mux); err != nil {
				log.WithError(err).Error("monitor server stopped")
			}
		}()
		report = core.MultiReporter(out, hub.Reporter())
	}

	var store actuator.Store = &actuator.MemStore{}
	if *statePath != "" {
		store = actuator.NewFileStore(*statePath)
	}

	sensor := &simSensor{}
	ctrl := core.NewController(&simStepper{name: "simH"}, &simStepper{name: "simV"}, sensor, report)
	arm := actuator.NewArm(simServo{}, store, report)
	arm.Restore()
	gripper := actuator.NewGripper(actuator.NewCoilStepper(simCoils{}), 512, report)
	server := protocol.NewServer(ctrl, arm, gripper, report)

	// Bench-only hook for poking the simulated limit switches.
	server.Register("SIM", func(args string) (string, error) {
		parts := strings.Split(args, ":")
		if len(parts) == 2 && parts[0] == "LIMIT" {
			kv := strings.Split(parts[1], ",")
			if len(kv) == 2 {
				level, err := strconv.Atoi(kv[1])
				if err == nil && sensor.set(kv[0], level != 0) {
					return "SIM", nil
				}
			}
		}
		return "", fmt.Errorf("bad SIM command")
	})

	cmds := make(chan string)
	go func() {
		stdin := bufio.NewScanner(os.Stdin)
		for stdin.Scan() {
			cmds <- stdin.Text()
		}
		close(cmds)
	}()

	ctrl.Start()

	ticksPerMS := uint32(core.TimerFreq/1000) * uint32(*speedup)
	clock := time.NewTicker(time.Millisecond)
	defer clock.Stop()
	for {
		select {
		case line, ok := <-cmds:
			if !ok {
				log.Info("stdin closed, shutting down")
				return
			}
			server.HandleLine(line)
		case <-clock.C:
			core.SetTime(core.GetTime() + ticksPerMS)
			core.ProcessTimers()
			ctrl.Update()
			arm.Update()
			gripper.Update()
		}
	}
}
