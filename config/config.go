// Package config holds the JSON machine configuration: axis geometry,
// speed limits, pin assignments and the serial link.
package config

import (
	"encoding/json"
	"os"

	"gantry/core"
)

// AxisConfig describes one gantry axis.
type AxisConfig struct {
	StepsPerMM   int32   `json:"steps_per_mm"`
	MaxSpeed     float64 `json:"max_speed"`     // steps/s
	Acceleration float64 `json:"acceleration"`  // steps/s²
	StepPin      uint8   `json:"step_pin"`
	DirPin       uint8   `json:"dir_pin"`
	EnablePin    uint8   `json:"enable_pin"`
	InvertDir    bool    `json:"invert_dir"`
}

// LimitConfig assigns the four limit switch input pins.
type LimitConfig struct {
	HLeftPin  uint8 `json:"h_left_pin"`
	HRightPin uint8 `json:"h_right_pin"`
	VUpPin    uint8 `json:"v_up_pin"`
	VDownPin  uint8 `json:"v_down_pin"`
	Pullup    bool  `json:"pullup"`
}

// ServoConfig describes one arm servo channel.
type ServoConfig struct {
	Pin      uint8 `json:"pin"`
	MinAngle uint8 `json:"min_angle"`
	MaxAngle uint8 `json:"max_angle"`
}

// GripperConfig assigns the four half-step coil pins.
type GripperConfig struct {
	CoilPins [4]uint8 `json:"coil_pins"`
	Travel   int      `json:"travel"` // half-steps between open and closed
}

// EncoderConfig assigns one quadrature encoder's input pins.
type EncoderConfig struct {
	ClkPin uint8 `json:"clk_pin"`
	DtPin  uint8 `json:"dt_pin"`
}

// SerialConfig describes the operator link.
type SerialConfig struct {
	Device string `json:"device"`
	Baud   int    `json:"baud"`
}

// MachineConfig is the root configuration document.
type MachineConfig struct {
	Serial     SerialConfig  `json:"serial"`
	Horizontal AxisConfig    `json:"horizontal"`
	Vertical   AxisConfig    `json:"vertical"`
	Limits     LimitConfig   `json:"limits"`
	Servos     []ServoConfig `json:"servos"`
	Gripper    GripperConfig `json:"gripper"`
	HEncoder   EncoderConfig `json:"h_encoder"`
	VEncoder   EncoderConfig `json:"v_encoder"`

	// StatePath is where the servo position file lives.
	StatePath string `json:"state_path"`
}

// Load parses a JSON configuration document.
func Load(data []byte) (*MachineConfig, error) {
	var cfg MachineConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadFile reads and parses a configuration file.
func LoadFile(path string) (*MachineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

// Default returns the configuration with every field at its default.
func Default() *MachineConfig {
	cfg := &MachineConfig{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in missing configuration values
func applyDefaults(cfg *MachineConfig) {
	if cfg.Serial.Device == "" {
		cfg.Serial.Device = "/dev/ttyUSB0"
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 115200
	}

	if cfg.Horizontal.StepsPerMM == 0 {
		cfg.Horizontal.StepsPerMM = core.StepsPerMMH
	}
	if cfg.Horizontal.MaxSpeed == 0 {
		cfg.Horizontal.MaxSpeed = core.MaxSpeedH
	}
	if cfg.Horizontal.Acceleration == 0 {
		cfg.Horizontal.Acceleration = core.AccelH
	}

	if cfg.Vertical.StepsPerMM == 0 {
		cfg.Vertical.StepsPerMM = core.StepsPerMMV
	}
	if cfg.Vertical.MaxSpeed == 0 {
		cfg.Vertical.MaxSpeed = core.MaxSpeedV
	}
	if cfg.Vertical.Acceleration == 0 {
		cfg.Vertical.Acceleration = core.AccelV
	}

	if cfg.Gripper.Travel == 0 {
		cfg.Gripper.Travel = 512
	}
	if cfg.StatePath == "" {
		cfg.StatePath = "gantry-state.json"
	}
}

// Apply pushes the axis parameters onto a built controller.
func (cfg *MachineConfig) Apply(c *core.Controller) {
	c.H.StepsPerMM = cfg.Horizontal.StepsPerMM
	c.H.MaxSpeed = cfg.Horizontal.MaxSpeed
	c.H.Acceleration = cfg.Horizontal.Acceleration
	c.V.StepsPerMM = cfg.Vertical.StepsPerMM
	c.V.MaxSpeed = cfg.Vertical.MaxSpeed
	c.V.Acceleration = cfg.Vertical.Acceleration
}
