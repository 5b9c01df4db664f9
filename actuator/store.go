// Package actuator drives the gantry's end effector: the two-servo arm and
// the stepper-driven gripper, plus persistence for the arm position.
package actuator

import (
	"encoding/json"
	"os"
)

// State is the persisted actuator state, restored at startup so the arm
// does not slam to an arbitrary position on power-up.
type State struct {
	Servo1 uint8 `json:"servo1"`
	Servo2 uint8 `json:"servo2"`
}

// Store persists actuator state across restarts.
type Store interface {
	// Load returns the saved state and whether a valid one existed.
	Load() (State, bool)

	// Save writes the state durably.
	Save(State) error
}

// fileState wraps State with a version tag so a half-written or foreign
// file is rejected instead of restored.
type fileState struct {
	Version int   `json:"version"`
	State   State `json:"state"`
}

const fileStateVersion = 1

// FileStore is a Store backed by a JSON file.
type FileStore struct {
	Path string
}

// NewFileStore creates a file-backed store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (f *FileStore) Load() (State, bool) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return State{}, false
	}
	var fs fileState
	if err := json.Unmarshal(data, &fs); err != nil || fs.Version != fileStateVersion {
		return State{}, false
	}
	return fs.State, true
}

func (f *FileStore) Save(s State) error {
	data, err := json.Marshal(fileState{Version: fileStateVersion, State: s})
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o644)
}

// MemStore is an in-memory Store for tests and diskless targets.
type MemStore struct {
	state State
	valid bool
}

func (m *MemStore) Load() (State, bool) { return m.state, m.valid }

func (m *MemStore) Save(s State) error {
	m.state = s
	m.valid = true
	return nil
}
