package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/openpulsar/pulsarctl/capture"
	"github.com/openpulsar/pulsarctl/internal/log"
	"github.com/openpulsar/pulsarctl/protocol"
	"github.com/openpulsar/pulsarctl/session"
)

// Capture passively records device-to-host traffic for a bounded duration
// and writes it out in the diffable text form.
type Capture struct {
	Output   string        `arg:"" help:"Capture log destination" type:"path"`
	Duration time.Duration `help:"How long to record" default:"60s"`
}

func (c *Capture) Run(logger *slog.Logger, fl log.FrameLogger, opts Options) error {
	desc, err := resolveDescriptor(opts.Dongle)
	if err != nil {
		return explainOpenError(err)
	}

	// Passive observer: no session lock, so the vendor software (or another
	// process) can keep talking to the device while we record it.
	tr, err := session.OpenPassive(desc)
	if err != nil {
		return explainOpenError(err)
	}
	defer tr.Close()

	logger.Info("recording", "duration", c.Duration.String(), "output", c.Output)
	records, err := capture.Collect(tr, c.Duration, protocol.ReportSize)
	if err != nil {
		logger.Warn("capture ended early", "error", err)
	}
	for _, rec := range records {
		fl.Log(rec.Direction == capture.DirWrite, rec.Raw)
	}

	if err := os.WriteFile(c.Output, []byte(capture.Save(records)), 0o644); err != nil {
		return err
	}
	logger.Info("capture written", "records", len(records))
	return nil
}
