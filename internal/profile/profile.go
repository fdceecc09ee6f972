// Package profile persists named device profiles on the host side. The core
// never reads these; the CLI turns a profile into settings and hands them to
// the registry.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/openpulsar/pulsarctl/command"
)

// PowerSaving mirrors the device's power options.
type PowerSaving struct {
	IdleSeconds      int `json:"idle_seconds" yaml:"idle_seconds"`
	BatteryThreshold int `json:"battery_threshold" yaml:"battery_threshold"`
}

// Profile is one complete set of mouse settings.
type Profile struct {
	Name        string                       `json:"name" yaml:"name"`
	DPIStages   [command.DPIStageCount]int   `json:"dpi_stages" yaml:"dpi_stages"`
	ActiveStage int                          `json:"active_stage" yaml:"active_stage"`
	PollingRate int                          `json:"polling_rate" yaml:"polling_rate"`
	LiftOffMM   float64                      `json:"lift_off_mm" yaml:"lift_off_mm"`
	MotionSync  bool                         `json:"motion_sync" yaml:"motion_sync"`
	Buttons     map[int]string               `json:"buttons,omitempty" yaml:"buttons,omitempty"`
	Power       PowerSaving                  `json:"power" yaml:"power"`
}

// Default returns the factory profile.
func Default() Profile {
	return Profile{
		Name:        "default",
		DPIStages:   [command.DPIStageCount]int{800, 1600, 3200, 6400, 12800, 25600},
		ActiveStage: 2,
		PollingRate: 1000,
		LiftOffMM:   1.0,
		MotionSync:  true,
		Buttons: map[int]string{
			1: command.ActionLeftClick.String(),
			2: command.ActionRightClick.String(),
			3: command.ActionMiddleClick.String(),
			4: command.ActionBack.String(),
			5: command.ActionForward.String(),
		},
		Power: PowerSaving{IdleSeconds: 300, BatteryThreshold: 10},
	}
}

// Load reads a profile from path, choosing the codec by extension
// (.yaml/.yml or .json).
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, err
	}
	var p Profile
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	default:
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("profile: parse %s: %w", path, err)
	}
	return p, nil
}

// Save writes the profile to path, choosing the codec by extension.
func (p Profile) Save(path string) error {
	var data []byte
	var err error
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(p)
	default:
		data, err = json.MarshalIndent(p, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("profile: encode %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Settings translates the profile into the ordered setting list to apply.
// Validation happens in the registry; this only resolves action names.
func (p Profile) Settings() ([]command.Setting, error) {
	settings := []command.Setting{
		command.DPITable{Stages: p.DPIStages, Active: p.ActiveStage},
		command.PollingRate{Hz: p.PollingRate},
		command.LiftOffDistance{MM: p.LiftOffMM},
		command.MotionSync{Enabled: p.MotionSync},
	}
	if len(p.Buttons) > 0 {
		actions := make(map[int]command.Action, len(p.Buttons))
		for slot, name := range p.Buttons {
			a, ok := command.ActionByName(name)
			if !ok {
				return nil, fmt.Errorf("profile: unknown button action %q on slot %d", name, slot)
			}
			actions[slot] = a
		}
		settings = append(settings, command.ButtonMap{Actions: actions})
	}
	settings = append(settings, command.PowerOptions{
		IdleSeconds:      p.Power.IdleSeconds,
		BatteryThreshold: p.Power.BatteryThreshold,
	})
	return settings, nil
}
