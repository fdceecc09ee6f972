package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/openpulsar/pulsarctl/command"
	"github.com/openpulsar/pulsarctl/internal/log"
)

// Set groups the single-setting commands.
type Set struct {
	DPI        SetDPI        `cmd:"" name:"dpi" help:"Set the DPI for one stage"`
	Polling    SetPolling    `cmd:"" help:"Set the polling rate in Hz"`
	LOD        SetLOD        `cmd:"" name:"lod" help:"Set the lift-off distance in mm"`
	MotionSync SetMotionSync `cmd:"" name:"motion-sync" help:"Enable or disable motion sync"`
	Button     SetButton     `cmd:"" help:"Bind an action to a button slot"`
	Power      SetPower      `cmd:"" help:"Set idle sleep time and low-battery threshold"`
}

// applySetting builds, transmits and reports one setting.
func applySetting(s command.Setting, opts Options, logger *slog.Logger, fl log.FrameLogger) error {
	sess, err := openSession(opts, logger, fl)
	if err != nil {
		return err
	}
	defer sess.Close()

	frames, err := command.Build(s, sess.Descriptor())
	if err != nil {
		return err
	}
	sent, err := sess.SendAll(frames, opts.Timeout)
	if err != nil {
		return fmt.Errorf("after %d of %d frames: %w", sent, len(frames), err)
	}
	logger.Info("setting applied", "kind", s.Kind().String(), "frames", len(frames))
	return nil
}

type SetDPI struct {
	Value int `arg:"" help:"DPI value (50-32000, steps of 10)"`
	Stage int `help:"DPI stage to write" default:"1"`
}

func (c *SetDPI) Run(logger *slog.Logger, fl log.FrameLogger, opts Options) error {
	return applySetting(command.DPIStage{Stage: c.Stage, Value: c.Value}, opts, logger, fl)
}

type SetPolling struct {
	Hz int `arg:"" help:"Polling rate: 125, 250, 500, 1000, 2000, 4000 or 8000"`
}

func (c *SetPolling) Run(logger *slog.Logger, fl log.FrameLogger, opts Options) error {
	return applySetting(command.PollingRate{Hz: c.Hz}, opts, logger, fl)
}

type SetLOD struct {
	MM float64 `arg:"" help:"Lift-off distance: 0.7, 1.0 or 2.0"`
}

func (c *SetLOD) Run(logger *slog.Logger, fl log.FrameLogger, opts Options) error {
	return applySetting(command.LiftOffDistance{MM: c.MM}, opts, logger, fl)
}

type SetMotionSync struct {
	Enabled bool `arg:"" help:"true to enable, false to disable"`
}

func (c *SetMotionSync) Run(logger *slog.Logger, fl log.FrameLogger, opts Options) error {
	return applySetting(command.MotionSync{Enabled: c.Enabled}, opts, logger, fl)
}

type SetButton struct {
	Slot   int    `arg:"" help:"Button slot (1-5)"`
	Action string `arg:"" help:"Action name"`
}

func (c *SetButton) Run(logger *slog.Logger, fl log.FrameLogger, opts Options) error {
	action, ok := command.ActionByName(c.Action)
	if !ok {
		return fmt.Errorf("unknown action %q (valid: %s)", c.Action, strings.Join(command.ActionNames(), ", "))
	}
	return applySetting(command.ButtonBinding{Slot: c.Slot, Action: action}, opts, logger, fl)
}

type SetPower struct {
	IdleSeconds int `arg:"" help:"Idle time before sleep (30-900 s)"`
	Threshold   int `help:"Low-battery threshold percent (5-20)" default:"10"`
}

func (c *SetPower) Run(logger *slog.Logger, fl log.FrameLogger, opts Options) error {
	return applySetting(command.PowerOptions{IdleSeconds: c.IdleSeconds, BatteryThreshold: c.Threshold}, opts, logger, fl)
}
