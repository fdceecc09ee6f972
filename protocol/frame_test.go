package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpulsar/pulsarctl/protocol"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		opcode     byte
		subcommand byte
		payload    []byte
	}{
		{name: "dpi stage write", opcode: protocol.OpSetDPI, subcommand: 0x01, payload: []byte{0x06, 0x40}},
		{name: "empty payload", opcode: protocol.OpGetInfo, subcommand: 0x00, payload: nil},
		{name: "full payload", opcode: protocol.OpSetPower, subcommand: 0x00, payload: []byte{0x2c, 0x01, 0x0a, 0x00}},
		{name: "high bytes", opcode: protocol.OpSaveProfile, subcommand: 0x04, payload: []byte{0xff, 0xfe}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := protocol.Encode(tt.opcode, tt.subcommand, tt.payload)
			require.NoError(t, err)

			decoded, err := protocol.Decode(f.Marshal())
			require.NoError(t, err)

			assert.Equal(t, tt.opcode, decoded.Opcode)
			assert.Equal(t, tt.subcommand, decoded.Subcommand)
			for i, b := range tt.payload {
				assert.Equal(t, b, decoded.Payload[i], "payload byte %d", i)
			}
			for i := len(tt.payload); i < protocol.PayloadSize; i++ {
				assert.EqualValues(t, protocol.Filler, decoded.Payload[i], "filler byte %d", i)
			}
		})
	}
}

func TestEncodePayloadTooLarge(t *testing.T) {
	_, err := protocol.Encode(protocol.OpSetDPI, 0x01, make([]byte, protocol.PayloadSize+1))
	assert.ErrorIs(t, err, protocol.ErrPayloadTooLarge)
}

func TestDecodeInvalidLength(t *testing.T) {
	for _, n := range []int{0, 1, protocol.ReportSize - 1, protocol.ReportSize + 1, 64} {
		_, err := protocol.Decode(make([]byte, n))
		assert.ErrorIs(t, err, protocol.ErrInvalidLength, "length %d", n)
	}
}

func TestDecodeChecksumMismatch(t *testing.T) {
	f, err := protocol.Encode(protocol.OpSetPolling, 0x03, nil)
	require.NoError(t, err)
	raw := f.Marshal()

	// Flipping any single bit of the checksum byte must be rejected.
	for bit := 0; bit < 8; bit++ {
		corrupted := make([]byte, len(raw))
		copy(corrupted, raw)
		corrupted[protocol.ReportSize-1] ^= 1 << bit
		_, err := protocol.Decode(corrupted)
		assert.ErrorIs(t, err, protocol.ErrChecksumMismatch, "bit %d", bit)
	}
}

func TestMarshalFixture(t *testing.T) {
	// Documented literal for "set DPI stage 1 to 1600": opcode 0x20,
	// subcommand selects the stage, DPI big-endian in the payload.
	f, err := protocol.Encode(protocol.OpSetDPI, 0x01, []byte{0x06, 0x40})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x20, 0x01, 0x06, 0x40, 0x00, 0x00, 0x67}, f.Marshal())
	assert.Equal(t, "20 01 06 40 00 00 67", f.String())
}

func TestDecodeCanonicalProbe(t *testing.T) {
	// The 1200 DPI probe frame used by the capture tooling.
	f, err := protocol.Decode([]byte{0x20, 0x01, 0x04, 0xb0, 0x00, 0x00, 0xd5})
	require.NoError(t, err)
	assert.EqualValues(t, protocol.OpSetDPI, f.Opcode)
	assert.EqualValues(t, 0x01, f.Subcommand)
	assert.Equal(t, [protocol.PayloadSize]byte{0x04, 0xb0, 0x00, 0x00}, f.Payload)
}

func TestNewDescriptor(t *testing.T) {
	tests := []struct {
		name      string
		vendorID  uint16
		productID uint16
		variant   protocol.Variant
		wantErr   bool
	}{
		{name: "1K dongle", vendorID: protocol.VendorID, productID: protocol.ProductID1K, variant: protocol.Variant1K},
		{name: "8K dongle", vendorID: protocol.VendorID, productID: protocol.ProductID8K, variant: protocol.Variant8K},
		{name: "wrong vendor", vendorID: 0x1234, productID: protocol.ProductID1K, wantErr: true},
		{name: "unknown product", vendorID: protocol.VendorID, productID: 0x9999, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := protocol.NewDescriptor(tt.vendorID, tt.productID)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.variant, d.Variant)
		})
	}
}

func TestVariantMaxPollingRate(t *testing.T) {
	assert.Equal(t, 1000, protocol.Variant1K.MaxPollingRate())
	assert.Equal(t, 8000, protocol.Variant8K.MaxPollingRate())
}
