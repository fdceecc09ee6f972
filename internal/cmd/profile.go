package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/openpulsar/pulsarctl/command"
	"github.com/openpulsar/pulsarctl/internal/configpaths"
	"github.com/openpulsar/pulsarctl/internal/log"
	"github.com/openpulsar/pulsarctl/internal/profile"
)

// Profile manages host-side named profiles and applies them to the device.
type Profile struct {
	Show  ProfileShow    `cmd:"" help:"Print a stored profile"`
	Init  ProfileInit    `cmd:"" help:"Write the factory default profile to a file"`
	Apply ProfileApply   `cmd:"" help:"Send every setting in a profile to the device"`
	Save  ProfileSaveCmd `cmd:"" help:"Commit current device settings to an on-device slot"`
}

func profilePath(name string) (string, error) {
	if filepath.Ext(name) != "" {
		return name, nil
	}
	dir, err := configpaths.DefaultProfileDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".json"), nil
}

type ProfileShow struct {
	Name string `arg:"" help:"Profile name or file path"`
}

func (c *ProfileShow) Run(logger *slog.Logger) error {
	path, err := profilePath(c.Name)
	if err != nil {
		return err
	}
	p, err := profile.Load(path)
	if err != nil {
		return err
	}
	fmt.Printf("profile %s (%s)\n", p.Name, path)
	for i, dpi := range p.DPIStages {
		marker := " "
		if i+1 == p.ActiveStage {
			marker = "*"
		}
		fmt.Printf("  dpi stage %d%s %d\n", i+1, marker, dpi)
	}
	fmt.Printf("  polling     %d Hz\n", p.PollingRate)
	fmt.Printf("  lift-off    %.1f mm\n", p.LiftOffMM)
	fmt.Printf("  motion sync %v\n", p.MotionSync)
	for slot := 1; slot <= command.ButtonSlotCount; slot++ {
		if action, ok := p.Buttons[slot]; ok {
			fmt.Printf("  button %d    %s\n", slot, action)
		}
	}
	fmt.Printf("  idle sleep  %d s, low battery %d%%\n", p.Power.IdleSeconds, p.Power.BatteryThreshold)
	return nil
}

type ProfileInit struct {
	Name  string `arg:"" help:"Profile name or file path"`
	Force bool   `help:"Overwrite if the file already exists"`
}

func (c *ProfileInit) Run(logger *slog.Logger) error {
	path, err := profilePath(c.Name)
	if err != nil {
		return err
	}
	if !c.Force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := configpaths.EnsureDir(path); err != nil {
		return err
	}
	p := profile.Default()
	if ext := filepath.Ext(c.Name); ext == "" {
		p.Name = c.Name
	}
	if err := p.Save(path); err != nil {
		return err
	}
	logger.Info("profile written", "path", path)
	return nil
}

type ProfileApply struct {
	Name string `arg:"" help:"Profile name or file path"`
}

func (c *ProfileApply) Run(logger *slog.Logger, fl log.FrameLogger, opts Options) error {
	path, err := profilePath(c.Name)
	if err != nil {
		return err
	}
	p, err := profile.Load(path)
	if err != nil {
		return err
	}
	settings, err := p.Settings()
	if err != nil {
		return err
	}

	sess, err := openSession(opts, logger, fl)
	if err != nil {
		return err
	}
	defer sess.Close()

	for _, s := range settings {
		frames, err := command.Build(s, sess.Descriptor())
		if err != nil {
			return fmt.Errorf("%s: %w", s.Kind(), err)
		}
		if sent, err := sess.SendAll(frames, opts.Timeout); err != nil {
			return fmt.Errorf("%s after %d of %d frames: %w", s.Kind(), sent, len(frames), err)
		}
		logger.Debug("applied", "kind", s.Kind().String())
	}
	logger.Info("profile applied", "profile", p.Name, "settings", len(settings))
	return nil
}
