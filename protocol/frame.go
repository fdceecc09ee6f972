// Package protocol implements the vendor report format spoken by Pulsar
// X2-series dongles: fixed-length command/response frames with a trailing
// additive checksum.
package protocol

import (
	"errors"
	"fmt"
)

// Wire constants. Report size and checksum algorithm were calibrated against
// captured traffic; treat them as protocol facts, not tunables.
const (
	// ReportSize is the fixed length of every command and response report.
	ReportSize = 7

	// PayloadSize is the number of payload bytes between the subcommand and
	// the checksum.
	PayloadSize = ReportSize - 3

	// Filler pads unused payload bytes.
	Filler = 0x00
)

// Command opcodes (byte 0 of a report).
const (
	OpGetInfo     = 0x10
	OpGetSettings = 0x12
	OpSetDPI      = 0x20
	OpSetPolling  = 0x30
	OpSetLiftOff  = 0x40
	OpSetButton   = 0x50
	OpMotionSync  = 0x60
	OpSetPower    = 0x70
	OpSaveProfile = 0xF0
)

var (
	ErrPayloadTooLarge  = errors.New("protocol: payload exceeds frame capacity")
	ErrInvalidLength    = errors.New("protocol: raw report has wrong length")
	ErrChecksumMismatch = errors.New("protocol: checksum mismatch")
)

// Frame is one decoded command or response report. Frames are values;
// construct them with Encode or Decode and treat them as immutable.
type Frame struct {
	Opcode     byte
	Subcommand byte
	Payload    [PayloadSize]byte
}

// Checksum returns the additive checksum over the first n bytes of a report.
func Checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum
}

// Encode builds a frame from an opcode, subcommand and payload. The payload
// may be shorter than PayloadSize; remaining bytes are set to Filler.
func Encode(opcode, subcommand byte, payload []byte) (Frame, error) {
	if len(payload) > PayloadSize {
		return Frame{}, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), PayloadSize)
	}
	f := Frame{Opcode: opcode, Subcommand: subcommand}
	copy(f.Payload[:], payload)
	for i := len(payload); i < PayloadSize; i++ {
		f.Payload[i] = Filler
	}
	return f, nil
}

// Decode parses a raw report, verifying length and checksum.
func Decode(raw []byte) (Frame, error) {
	if len(raw) != ReportSize {
		return Frame{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(raw), ReportSize)
	}
	want := Checksum(raw[:ReportSize-1])
	if got := raw[ReportSize-1]; got != want {
		return Frame{}, fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrChecksumMismatch, got, want)
	}
	var f Frame
	f.Opcode = raw[0]
	f.Subcommand = raw[1]
	copy(f.Payload[:], raw[2:ReportSize-1])
	return f, nil
}

// Marshal serializes the frame into a ReportSize byte slice, checksum
// appended.
func (f Frame) Marshal() []byte {
	buf := make([]byte, ReportSize)
	buf[0] = f.Opcode
	buf[1] = f.Subcommand
	copy(buf[2:ReportSize-1], f.Payload[:])
	buf[ReportSize-1] = Checksum(buf[:ReportSize-1])
	return buf
}

// String renders the frame as space-separated lowercase hex, the same form
// used in capture logs.
func (f Frame) String() string {
	raw := f.Marshal()
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 0, len(raw)*3-1)
	for i, b := range raw {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, hexdigits[b>>4], hexdigits[b&0x0f])
	}
	return string(out)
}
