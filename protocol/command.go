// Package protocol implements the ASCII serial command protocol: one
// command per line, OK/ERR replies, asynchronous status lines from the
// motion core interleaved on the same link.
package protocol

import (
	"errors"
	"strconv"
	"strings"

	"gantry/actuator"
	"gantry/core"
)

// Handler processes one command. args is the text after the first colon
// (empty for bare commands). The returned payload is echoed as "OK:<payload>";
// an empty payload with nil error means the handler already responded
// through status lines.
type Handler func(args string) (string, error)

var errBadArgs = errors.New("malformed arguments")

// Server binds the command set to the motion controller and actuators and
// dispatches incoming lines.
type Server struct {
	ctrl    *core.Controller
	arm     *actuator.Arm
	gripper *actuator.Gripper
	reply   core.Reporter

	handlers map[string]Handler
}

// NewServer builds a dispatcher with the full command set registered.
// arm and gripper may be nil; their commands then answer ERR:UNSUPPORTED.
func NewServer(ctrl *core.Controller, arm *actuator.Arm, gripper *actuator.Gripper, reply core.Reporter) *Server {
	s := &Server{
		ctrl:     ctrl,
		arm:      arm,
		gripper:  gripper,
		reply:    reply,
		handlers: make(map[string]Handler),
	}
	s.registerAll()
	return s
}

// Register adds or replaces a command by name. Names are matched against
// the full line first, then against the text before the first colon.
func (s *Server) Register(name string, h Handler) {
	s.handlers[name] = h
}

// HandleLine parses and executes one command line.
func (s *Server) HandleLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	name, args := line, ""
	if h, ok := s.handlers[line]; ok {
		s.run(h, "")
		return
	}
	if idx := strings.IndexByte(line, ':'); idx >= 0 {
		name, args = line[:idx], line[idx+1:]
		if h, ok := s.handlers[name]; ok {
			s.run(h, args)
			return
		}
	}
	s.send("ERR:UNKNOWN_COMMAND:" + name)
}

func (s *Server) run(h Handler, args string) {
	payload, err := h(args)
	if err != nil {
		s.send("ERR:" + errCode(err))
		return
	}
	if payload != "" {
		s.send("OK:" + payload)
	}
}

func (s *Server) send(line string) {
	if s.reply != nil {
		s.reply(line)
	}
}

func (s *Server) registerAll() {
	s.Register("M", s.cmdMove)
	s.Register("S", s.cmdStop)
	s.Register("V", s.cmdSpeed)
	s.Register("XY?", s.cmdPosition)
	s.Register("Q", s.cmdLimits)
	s.Register("CS", s.cmdCalibration)
	s.Register("A", s.cmdArmMove)
	s.Register("P", s.cmdServo)
	s.Register("RA", s.cmdArmReset)
	s.Register("G:O", s.cmdGripperOpen)
	s.Register("G:C", s.cmdGripperClose)
	s.Register("GT", s.cmdGripperToggle)
	s.Register("G?", s.cmdGripperState)
	s.Register("E?", s.cmdEncoders)
}

// cmdMove handles M:<x>,<y> - relative move in millimeters.
func (s *Server) cmdMove(args string) (string, error) {
	x, y, err := parseIntPair(args)
	if err != nil {
		return "", err
	}
	s.ctrl.MoveRelativeMM(x, y)
	return "MOVE", nil
}

// cmdStop handles S - emergency stop.
func (s *Server) cmdStop(string) (string, error) {
	s.ctrl.StopAll()
	return "STOP", nil
}

// cmdSpeed handles V:<h>,<v> - per-axis speed limits in steps/s.
func (s *Server) cmdSpeed(args string) (string, error) {
	h, v, err := parseIntPair(args)
	if err != nil {
		return "", err
	}
	if err := s.ctrl.SetSpeeds(float64(h), float64(v)); err != nil {
		return "", err
	}
	return "SPEED", nil
}

// cmdPosition handles XY? - answered by a POSITION status line.
func (s *Server) cmdPosition(string) (string, error) {
	s.ctrl.ReportPosition()
	return "", nil
}

// cmdLimits handles Q - answered by a LIMITS status line.
func (s *Server) cmdLimits(string) (string, error) {
	s.ctrl.ReportLimits()
	return "", nil
}

// cmdCalibration handles CS - toggles the step-counting session; the
// CALIBRATION_* status lines are the feedback.
func (s *Server) cmdCalibration(string) (string, error) {
	s.ctrl.ToggleCalibration()
	return "", nil
}

// cmdArmMove handles A:<a1>,<a2>,<ms> - smooth arm move.
func (s *Server) cmdArmMove(args string) (string, error) {
	if s.arm == nil {
		return "", errUnsupported
	}
	parts := strings.Split(args, ",")
	if len(parts) != 3 {
		return "", errBadArgs
	}
	a1, err1 := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 8)
	a2, err2 := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 8)
	ms, err3 := strconv.ParseUint(strings.TrimSpace(parts[2]), 10, 32)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", errBadArgs
	}
	if err := s.arm.StartMove(uint8(a1), uint8(a2), uint32(ms)); err != nil {
		return "", err
	}
	return "ARM", nil
}

// cmdServo handles P:<n>,<angle> - instant single-servo move. Channels are
// numbered from 1 on the wire.
func (s *Server) cmdServo(args string) (string, error) {
	if s.arm == nil {
		return "", errUnsupported
	}
	n, angle, err := parseIntPair(args)
	if err != nil {
		return "", err
	}
	if angle < 0 || angle > 255 {
		return "", errBadArgs
	}
	if err := s.arm.SetAngle(int(n)-1, uint8(angle)); err != nil {
		return "", err
	}
	return "SERVO", nil
}

// cmdArmReset handles RA - both servos to home.
func (s *Server) cmdArmReset(string) (string, error) {
	if s.arm == nil {
		return "", errUnsupported
	}
	s.arm.Reset()
	return "ARM_RESET", nil
}

func (s *Server) cmdGripperOpen(string) (string, error) {
	if s.gripper == nil {
		return "", errUnsupported
	}
	s.gripper.Open()
	return "GRIPPER", nil
}

func (s *Server) cmdGripperClose(string) (string, error) {
	if s.gripper == nil {
		return "", errUnsupported
	}
	s.gripper.Close()
	return "GRIPPER", nil
}

func (s *Server) cmdGripperToggle(string) (string, error) {
	if s.gripper == nil {
		return "", errUnsupported
	}
	s.gripper.Toggle()
	return "GRIPPER", nil
}

func (s *Server) cmdGripperState(string) (string, error) {
	if s.gripper == nil {
		return "", errUnsupported
	}
	return "GRIPPER:" + s.gripper.StateName(), nil
}

// cmdEncoders handles E? - answered by a COMPARISON status line.
func (s *Server) cmdEncoders(string) (string, error) {
	s.ctrl.ReportEncoderComparison()
	return "", nil
}

var errUnsupported = errors.New("unsupported on this build")

// parseIntPair parses "<a>,<b>" with optional whitespace.
func parseIntPair(args string) (int32, int32, error) {
	parts := strings.Split(args, ",")
	if len(parts) != 2 {
		return 0, 0, errBadArgs
	}
	a, err1 := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 32)
	b, err2 := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 32)
	if err1 != nil || err2 != nil {
		return 0, 0, errBadArgs
	}
	return int32(a), int32(b), nil
}

func errCode(err error) string {
	switch {
	case errors.Is(err, errBadArgs):
		return "BAD_ARGS"
	case errors.Is(err, errUnsupported):
		return "UNSUPPORTED"
	case errors.Is(err, core.ErrBusy):
		return "BUSY"
	case errors.Is(err, core.ErrSpeedRange):
		return "SPEED_RANGE"
	case errors.Is(err, actuator.ErrServoChannel):
		return "SERVO_CHANNEL"
	case errors.Is(err, actuator.ErrServoAngle):
		return "SERVO_ANGLE"
	}
	return "INTERNAL"
}
