package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openpulsar/pulsarctl/command"
	"github.com/openpulsar/pulsarctl/protocol"
)

var (
	ErrDeviceNotFound       = errors.New("session: device not found")
	ErrPermissionDenied     = errors.New("session: permission denied opening device")
	ErrDeviceBusy           = errors.New("session: device already has an open session")
	ErrCommunicationTimeout = errors.New("session: device did not acknowledge in time")
	ErrUnexpectedResponse   = errors.New("session: unexpected response from device")
	ErrClosed               = errors.New("session: closed")
)

const (
	// SendAttempts bounds retries of one frame. Retries cover transient bus
	// contention only; validation failures are never retried.
	SendAttempts = 3

	// settleDelay is the pause between writing a frame and reading the
	// acknowledgement, calibrated from captured traffic.
	settleDelay = 50 * time.Millisecond
)

// One session per attached dongle. Interleaved partial command sequences
// (multi-frame DPI tables, button maps) would corrupt device state, so a
// second open on the same identity fails instead of sharing the handle.
var (
	openMu      sync.Mutex
	openDevices = make(map[uint32]bool)
)

func deviceKey(desc protocol.Descriptor) uint32 {
	return uint32(desc.VendorID)<<16 | uint32(desc.ProductID)
}

type state int

const (
	stateOpen state = iota
	stateSending
	stateAwaitingAck
	stateClosed
)

// Session holds exclusive access to one dongle. Send is synchronous; the
// only suspension point is awaiting the acknowledgement, always bounded by
// the caller's timeout and SendAttempts.
type Session struct {
	mu        sync.Mutex
	desc      protocol.Descriptor
	transport Transport
	state     state
	observe   func(write bool, data []byte)
}

// Observe registers a hook invoked with every raw report the session writes
// or reads. The collaborator uses it for frame logging and live capture; the
// session itself never logs.
func (s *Session) Observe(fn func(write bool, data []byte)) {
	s.mu.Lock()
	s.observe = fn
	s.mu.Unlock()
}

// Open acquires the dongle matching desc. It fails with ErrDeviceNotFound,
// ErrPermissionDenied, or ErrDeviceBusy; it never blocks waiting for the
// device to appear.
func Open(desc protocol.Descriptor) (*Session, error) {
	if err := claim(desc); err != nil {
		return nil, err
	}
	tr, err := openTransport(desc)
	if err != nil {
		release(desc)
		return nil, err
	}
	return &Session{desc: desc, transport: tr}, nil
}

// OpenTransport acquires a session over an already-open transport. It applies
// the same exclusivity rule as Open.
func OpenTransport(desc protocol.Descriptor, tr Transport) (*Session, error) {
	if err := claim(desc); err != nil {
		return nil, err
	}
	return &Session{desc: desc, transport: tr}, nil
}

func claim(desc protocol.Descriptor) error {
	openMu.Lock()
	defer openMu.Unlock()
	key := deviceKey(desc)
	if openDevices[key] {
		return fmt.Errorf("%w: vid 0x%04x pid 0x%04x", ErrDeviceBusy, desc.VendorID, desc.ProductID)
	}
	openDevices[key] = true
	return nil
}

func release(desc protocol.Descriptor) {
	openMu.Lock()
	defer openMu.Unlock()
	delete(openDevices, deviceKey(desc))
}

// Descriptor returns the immutable identity this session was opened with.
func (s *Session) Descriptor() protocol.Descriptor { return s.desc }

// Send transmits the frame and waits up to timeout for the device's
// acknowledgement, retrying the identical frame on timeout up to
// SendAttempts before surfacing ErrCommunicationTimeout. Capability
// violations and malformed responses are terminal on the first attempt.
func (s *Session) Send(frame protocol.Frame, timeout time.Duration) (protocol.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateClosed {
		return protocol.Frame{}, ErrClosed
	}
	if err := s.checkCapability(frame); err != nil {
		return protocol.Frame{}, err
	}

	raw := frame.Marshal()
	for attempt := 1; attempt <= SendAttempts; attempt++ {
		s.state = stateSending
		if _, err := s.transport.Write(raw); err != nil {
			s.state = stateOpen
			return protocol.Frame{}, fmt.Errorf("session: write failed: %w", err)
		}
		if s.observe != nil {
			s.observe(true, raw)
		}

		s.state = stateAwaitingAck
		time.Sleep(settleDelay)

		buf := make([]byte, protocol.ReportSize)
		n, err := s.transport.ReadWithTimeout(buf, timeout)
		s.state = stateOpen
		if err != nil {
			return protocol.Frame{}, fmt.Errorf("session: read failed: %w", err)
		}
		if n == 0 {
			continue // timed out, retry the identical frame
		}
		if s.observe != nil {
			s.observe(false, buf[:n])
		}

		ack, err := protocol.Decode(buf[:n])
		if err != nil {
			return protocol.Frame{}, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		if ack.Opcode != frame.Opcode {
			return protocol.Frame{}, fmt.Errorf("%w: opcode 0x%02x in reply to 0x%02x", ErrUnexpectedResponse, ack.Opcode, frame.Opcode)
		}
		return ack, nil
	}
	return protocol.Frame{}, fmt.Errorf("%w: %d attempts of %v each", ErrCommunicationTimeout, SendAttempts, timeout)
}

// SendAll transmits a multi-frame sequence in order, stopping at the first
// failure. The returned index is the number of frames acknowledged.
func (s *Session) SendAll(frames []protocol.Frame, timeout time.Duration) (int, error) {
	for i, f := range frames {
		if _, err := s.Send(f, timeout); err != nil {
			return i, err
		}
	}
	return len(frames), nil
}

// checkCapability rejects frames the dongle variant cannot honor. Polling
// rates above 1 kHz must be refused outright, never clamped.
func (s *Session) checkCapability(frame protocol.Frame) error {
	if frame.Opcode == protocol.OpSetPolling && frame.Subcommand > 3 && s.desc.Variant != protocol.Variant8K {
		return fmt.Errorf("%w: polling rate code %d on a %s dongle",
			command.ErrUnsupportedByVariant, frame.Subcommand, s.desc.Variant)
	}
	return nil
}

// Close releases the device handle and the exclusivity claim. Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return nil
	}
	s.state = stateClosed
	release(s.desc)
	return s.transport.Close()
}
