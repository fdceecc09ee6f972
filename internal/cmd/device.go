// Package cmd implements the CLI commands. Commands do no protocol logic of
// their own; they translate flags into core calls and render the results.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openpulsar/pulsarctl/internal/log"
	"github.com/openpulsar/pulsarctl/protocol"
	"github.com/openpulsar/pulsarctl/session"
)

// Options carries the global flags shared by every command.
type Options struct {
	Dongle  string
	Timeout time.Duration
}

func resolveDescriptor(dongle string) (protocol.Descriptor, error) {
	switch dongle {
	case "1k":
		return protocol.NewDescriptor(protocol.VendorID, protocol.ProductID1K)
	case "8k":
		return protocol.NewDescriptor(protocol.VendorID, protocol.ProductID8K)
	default:
		return session.Detect()
	}
}

// openSession acquires the dongle and wires the frame logger into the
// session's observer hook.
func openSession(opts Options, logger *slog.Logger, fl log.FrameLogger) (*session.Session, error) {
	desc, err := resolveDescriptor(opts.Dongle)
	if err != nil {
		return nil, explainOpenError(err)
	}
	logger.Debug("resolved dongle", "vid", fmt.Sprintf("0x%04x", desc.VendorID),
		"pid", fmt.Sprintf("0x%04x", desc.ProductID), "variant", desc.Variant.String())

	s, err := session.Open(desc)
	if err != nil {
		return nil, explainOpenError(err)
	}
	s.Observe(fl.Log)
	return s, nil
}

// explainOpenError attaches actionable guidance to the two open failures the
// user can actually do something about.
func explainOpenError(err error) error {
	switch {
	case errors.Is(err, session.ErrPermissionDenied):
		return fmt.Errorf("%w (raw HID access needs elevated privileges; try sudo or a udev rule for vid 0x%04x)", err, protocol.VendorID)
	case errors.Is(err, session.ErrDeviceNotFound):
		return fmt.Errorf("%w (is the dongle plugged in?)", err)
	default:
		return err
	}
}
