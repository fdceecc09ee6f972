package cmd

import (
	"fmt"
	"log/slog"

	"github.com/openpulsar/pulsarctl/command"
	"github.com/openpulsar/pulsarctl/internal/log"
)

// Info queries and prints device information.
type Info struct{}

func (c *Info) Run(logger *slog.Logger, fl log.FrameLogger, opts Options) error {
	sess, err := openSession(opts, logger, fl)
	if err != nil {
		return err
	}
	defer sess.Close()

	ack, err := sess.Send(command.GetInfo(), opts.Timeout)
	if err != nil {
		return err
	}

	desc := sess.Descriptor()
	fmt.Printf("Pulsar X2 (%s dongle, vid 0x%04x pid 0x%04x)\n", desc.Variant, desc.VendorID, desc.ProductID)
	fmt.Printf("Firmware:       %d.%d\n", ack.Payload[0], ack.Payload[1])
	fmt.Printf("Hardware rev:   %d\n", ack.Payload[2])
	fmt.Printf("Active profile: %d\n", ack.Payload[3])

	settings, err := sess.Send(command.GetSettings(), opts.Timeout)
	if err != nil {
		return err
	}
	fmt.Printf("Active stage:   %d\n", settings.Payload[0])
	fmt.Printf("Polling code:   %d\n", settings.Payload[1])
	fmt.Printf("Lift-off code:  %d\n", settings.Payload[2])
	fmt.Printf("Motion sync:    %v\n", settings.Payload[3] != 0)
	return nil
}

// ProfileSaveCmd commits the current settings to an on-device profile slot.
type ProfileSaveCmd struct {
	Slot int `arg:"" help:"Profile slot (1-4)"`
}

func (c *ProfileSaveCmd) Run(logger *slog.Logger, fl log.FrameLogger, opts Options) error {
	return applySetting(command.ProfileSave{Profile: c.Slot}, opts, logger, fl)
}
