package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpulsar/pulsarctl/command"
	th "github.com/openpulsar/pulsarctl/internal/testing"
	"github.com/openpulsar/pulsarctl/protocol"
	"github.com/openpulsar/pulsarctl/session"
)

const sendTimeout = 20 * time.Millisecond

func descriptor(t *testing.T, productID uint16) protocol.Descriptor {
	t.Helper()
	d, err := protocol.NewDescriptor(protocol.VendorID, productID)
	require.NoError(t, err)
	return d
}

func ackFor(t *testing.T, opcode byte) []byte {
	t.Helper()
	f, err := protocol.Encode(opcode, 0x00, []byte{0x01})
	require.NoError(t, err)
	return f.Marshal()
}

func TestOpenExclusivity(t *testing.T) {
	desc := descriptor(t, protocol.ProductID1K)

	first, err := session.OpenTransport(desc, &th.ScriptedTransport{})
	require.NoError(t, err)

	_, err = session.OpenTransport(desc, &th.ScriptedTransport{})
	assert.ErrorIs(t, err, session.ErrDeviceBusy)

	// A different identity is unaffected.
	other, err := session.OpenTransport(descriptor(t, protocol.ProductID8K), &th.ScriptedTransport{})
	require.NoError(t, err)
	require.NoError(t, other.Close())

	// Closing releases the claim.
	require.NoError(t, first.Close())
	second, err := session.OpenTransport(desc, &th.ScriptedTransport{})
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestCloseIdempotent(t *testing.T) {
	tr := &th.ScriptedTransport{}
	s, err := session.OpenTransport(descriptor(t, protocol.ProductID1K), tr)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, tr.Closed)

	_, err = s.Send(command.GetInfo(), sendTimeout)
	assert.ErrorIs(t, err, session.ErrClosed)
}

func TestSendAckRoundTrip(t *testing.T) {
	tr := &th.ScriptedTransport{Responses: [][]byte{ackFor(t, protocol.OpGetInfo)}}
	s, err := session.OpenTransport(descriptor(t, protocol.ProductID1K), tr)
	require.NoError(t, err)
	defer s.Close()

	ack, err := s.Send(command.GetInfo(), sendTimeout)
	require.NoError(t, err)
	assert.EqualValues(t, protocol.OpGetInfo, ack.Opcode)
	require.Len(t, tr.Writes, 1)
	assert.Equal(t, command.GetInfo().Marshal(), tr.Writes[0])
}

func TestSendRetriesOnTimeout(t *testing.T) {
	// Two silent reads, then an acknowledgement on the final attempt.
	tr := &th.ScriptedTransport{Responses: [][]byte{nil, nil, ackFor(t, protocol.OpSetPolling)}}
	s, err := session.OpenTransport(descriptor(t, protocol.ProductID1K), tr)
	require.NoError(t, err)
	defer s.Close()

	frames, err := command.Build(command.PollingRate{Hz: 500}, s.Descriptor())
	require.NoError(t, err)

	_, err = s.Send(frames[0], sendTimeout)
	require.NoError(t, err)

	// The identical frame is retransmitted each attempt.
	require.Len(t, tr.Writes, session.SendAttempts)
	assert.Equal(t, tr.Writes[0], tr.Writes[1])
	assert.Equal(t, tr.Writes[0], tr.Writes[2])
}

func TestSendTerminalTimeout(t *testing.T) {
	tr := &th.ScriptedTransport{}
	s, err := session.OpenTransport(descriptor(t, protocol.ProductID1K), tr)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Send(command.GetInfo(), sendTimeout)
	assert.ErrorIs(t, err, session.ErrCommunicationTimeout)
	assert.Equal(t, session.SendAttempts, tr.Reads)
}

func TestSendUnexpectedResponse(t *testing.T) {
	t.Run("wrong opcode", func(t *testing.T) {
		tr := &th.ScriptedTransport{Responses: [][]byte{ackFor(t, protocol.OpSetDPI)}}
		s, err := session.OpenTransport(descriptor(t, protocol.ProductID1K), tr)
		require.NoError(t, err)
		defer s.Close()

		_, err = s.Send(command.GetInfo(), sendTimeout)
		assert.ErrorIs(t, err, session.ErrUnexpectedResponse)
		// Malformed or mismatched replies are terminal, not retried.
		assert.Equal(t, 1, tr.Reads)
	})

	t.Run("corrupt reply", func(t *testing.T) {
		corrupt := ackFor(t, protocol.OpGetInfo)
		corrupt[protocol.ReportSize-1] ^= 0xff
		tr := &th.ScriptedTransport{Responses: [][]byte{corrupt}}
		s, err := session.OpenTransport(descriptor(t, protocol.ProductID1K), tr)
		require.NoError(t, err)
		defer s.Close()

		_, err = s.Send(command.GetInfo(), sendTimeout)
		assert.ErrorIs(t, err, session.ErrUnexpectedResponse)
	})
}

func TestSendRejectsUnsupportedRate(t *testing.T) {
	tr := &th.ScriptedTransport{}
	s, err := session.OpenTransport(descriptor(t, protocol.ProductID1K), tr)
	require.NoError(t, err)
	defer s.Close()

	// Bypass the registry and hand-build an 8 kHz frame; the session must
	// still refuse it on a 1K dongle.
	f, err := protocol.Encode(protocol.OpSetPolling, 6, nil)
	require.NoError(t, err)

	_, err = s.Send(f, sendTimeout)
	assert.ErrorIs(t, err, command.ErrUnsupportedByVariant)
	assert.Empty(t, tr.Writes)
}

func TestSendAllStopsAtFirstFailure(t *testing.T) {
	tr := &th.ScriptedTransport{Responses: [][]byte{
		ackFor(t, protocol.OpSetButton),
		ackFor(t, protocol.OpSetDPI), // wrong opcode for the second frame
	}}
	s, err := session.OpenTransport(descriptor(t, protocol.ProductID1K), tr)
	require.NoError(t, err)
	defer s.Close()

	frames, err := command.Build(command.ButtonMap{Actions: map[int]command.Action{
		1: command.ActionLeftClick,
		2: command.ActionRightClick,
		3: command.ActionMiddleClick,
	}}, s.Descriptor())
	require.NoError(t, err)

	sent, err := s.SendAll(frames, sendTimeout)
	assert.ErrorIs(t, err, session.ErrUnexpectedResponse)
	assert.Equal(t, 1, sent)
	assert.Len(t, tr.Writes, 2)
}
