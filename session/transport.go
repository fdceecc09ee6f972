// Package session owns exclusive access to an attached dongle and the
// send/acknowledge cycle with its retry and timeout policy.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/sstallion/go-hid"
	"golang.org/x/sys/unix"

	"github.com/openpulsar/pulsarctl/protocol"
)

// Transport is the raw report pipe to a device. The production
// implementation wraps a HID handle; tests substitute their own.
type Transport interface {
	// Write sends one raw report.
	Write(p []byte) (int, error)
	// ReadWithTimeout reads one raw report, returning 0 bytes and a nil
	// error when the timeout elapses with nothing to read.
	ReadWithTimeout(p []byte, timeout time.Duration) (int, error)
	Close() error
}

type hidTransport struct {
	dev *hid.Device
}

func (t *hidTransport) Write(p []byte) (int, error) { return t.dev.Write(p) }

func (t *hidTransport) ReadWithTimeout(p []byte, timeout time.Duration) (int, error) {
	return t.dev.ReadWithTimeout(p, timeout)
}

func (t *hidTransport) Close() error { return t.dev.Close() }

// openTransport locates the dongle matching desc and opens its HID handle.
func openTransport(desc protocol.Descriptor) (Transport, error) {
	var path string
	err := hid.Enumerate(desc.VendorID, desc.ProductID, func(info *hid.DeviceInfo) error {
		if path == "" {
			path = info.Path
		}
		return nil
	})
	if err != nil {
		return nil, classifyOpenError(err)
	}
	if path == "" {
		return nil, fmt.Errorf("%w: no device with vid 0x%04x pid 0x%04x", ErrDeviceNotFound, desc.VendorID, desc.ProductID)
	}
	dev, err := hid.OpenPath(path)
	if err != nil {
		return nil, classifyOpenError(err)
	}
	return &hidTransport{dev: dev}, nil
}

// Detect enumerates attached dongles and resolves the descriptor of the
// first match, preferring the 8K dongle when both are present.
func Detect() (protocol.Descriptor, error) {
	for _, pid := range []uint16{protocol.ProductID8K, protocol.ProductID1K} {
		found := false
		err := hid.Enumerate(protocol.VendorID, pid, func(info *hid.DeviceInfo) error {
			found = true
			return nil
		})
		if err == nil && found {
			return protocol.NewDescriptor(protocol.VendorID, pid)
		}
	}
	return protocol.Descriptor{}, fmt.Errorf("%w: no dongle attached", ErrDeviceNotFound)
}

// OpenPassive opens the transport without taking the session exclusivity
// claim. Capture is a passive observer, never a participant.
func OpenPassive(desc protocol.Descriptor) (Transport, error) {
	return openTransport(desc)
}

// classifyOpenError separates missing-privilege failures from a missing
// device, so callers can give actionable guidance.
func classifyOpenError(err error) error {
	if errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
}
