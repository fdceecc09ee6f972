package analyzer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpulsar/pulsarctl/analyzer"
	"github.com/openpulsar/pulsarctl/capture"
	"github.com/openpulsar/pulsarctl/command"
)

func rec(seq uint64, dir capture.Direction, raw ...byte) capture.Record {
	return capture.Record{
		Sequence:  seq,
		Timestamp: time.Date(2026, 8, 30, 10, 0, 0, int(seq)*1e6, time.UTC),
		Direction: dir,
		Raw:       raw,
	}
}

func TestCorrelate(t *testing.T) {
	records := []capture.Record{
		rec(1, capture.DirWrite, 0x20, 0x01, 0x06, 0x40),
		rec(2, capture.DirRead, 0x20, 0x01, 0x00, 0x00),
		rec(3, capture.DirWrite, 0x30, 0x03, 0x00, 0x00),
		rec(4, capture.DirRead, 0x40, 0x01, 0x00, 0x00), // different opcode, not a match
		rec(5, capture.DirRead, 0x30, 0x03, 0x00, 0x00),
		rec(6, capture.DirWrite, 0x50, 0x01, 0x01, 0x00), // never answered
	}

	c := analyzer.Correlate(records)
	require.Len(t, c.Pairs, 2)
	assert.EqualValues(t, 1, c.Pairs[0].Request.Sequence)
	assert.EqualValues(t, 2, c.Pairs[0].Response.Sequence)
	assert.EqualValues(t, 3, c.Pairs[1].Request.Sequence)
	assert.EqualValues(t, 5, c.Pairs[1].Response.Sequence)

	require.Len(t, c.Unmatched, 1)
	assert.EqualValues(t, 6, c.Unmatched[0].Sequence)
}

func TestCorrelateConsumesResponseOnce(t *testing.T) {
	records := []capture.Record{
		rec(1, capture.DirWrite, 0x20, 0x01),
		rec(2, capture.DirWrite, 0x20, 0x01),
		rec(3, capture.DirRead, 0x20, 0x01),
	}

	c := analyzer.Correlate(records)
	require.Len(t, c.Pairs, 1)
	assert.EqualValues(t, 1, c.Pairs[0].Request.Sequence)
	require.Len(t, c.Unmatched, 1)
	assert.EqualValues(t, 2, c.Unmatched[0].Sequence)
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name string
		a, b []byte
		want []int
	}{
		{name: "identical", a: []byte{1, 2, 3}, b: []byte{1, 2, 3}, want: nil},
		{name: "single byte", a: []byte{1, 2, 3}, b: []byte{1, 9, 3}, want: []int{1}},
		{name: "multiple bytes", a: []byte{1, 2, 3, 4}, b: []byte{9, 2, 9, 4}, want: []int{0, 2}},
		{name: "length mismatch", a: []byte{1, 2}, b: []byte{1, 2, 3, 4}, want: []int{2, 3}},
		{name: "both empty", a: nil, b: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analyzer.Diff(tt.a, tt.b))
		})
	}
}

// dpiProbe builds a probe whose request frame carries the DPI low byte at
// offset 3 and an unrelated noise byte at offset 5.
func dpiProbe(seq uint64, dpi int, noise byte) analyzer.Probe {
	return analyzer.Probe{
		Setting: command.DPIStage{Stage: 1, Value: dpi},
		Record:  rec(seq, capture.DirWrite, 0x20, 0x01, 0x06, byte(dpi&0xff), 0x00, noise, 0x00),
	}
}

func TestInferLocalizesSettingOffset(t *testing.T) {
	// Offset 3 moves in lockstep with the DPI value across all four probes;
	// offset 5 flips independently in one probe. With six combinations the
	// noise byte differs in three (50%), under the strict majority.
	probes := []analyzer.Probe{
		dpiProbe(1, 1600, 0x00),
		dpiProbe(2, 1610, 0x00),
		dpiProbe(3, 1620, 0x00),
		dpiProbe(4, 1630, 0x07),
	}

	h, err := analyzer.Infer(command.KindDPIStage, probes)
	require.NoError(t, err)

	assert.Contains(t, h.Offsets, 3)
	assert.NotContains(t, h.Offsets, 5)
	assert.Equal(t, command.KindDPIStage, h.SettingKind)
	assert.Equal(t, 4, h.SampleCount)
	assert.Greater(t, h.Confidence, analyzer.DefaultThreshold)
}

func TestInferDeterministic(t *testing.T) {
	probes := []analyzer.Probe{
		dpiProbe(1, 1600, 0x00),
		dpiProbe(2, 1610, 0x00),
		dpiProbe(3, 1620, 0x00),
		dpiProbe(4, 1630, 0x07),
	}
	reversed := []analyzer.Probe{probes[3], probes[2], probes[1], probes[0]}

	a, err := analyzer.Infer(command.KindDPIStage, probes)
	require.NoError(t, err)
	b, err := analyzer.Infer(command.KindDPIStage, reversed)
	require.NoError(t, err)

	assert.Equal(t, a.Offsets, b.Offsets)
	assert.Equal(t, a.Confidence, b.Confidence)
}

func TestInferInsufficientProbes(t *testing.T) {
	_, err := analyzer.Infer(command.KindDPIStage, nil)
	assert.ErrorIs(t, err, analyzer.ErrInsufficientProbes)

	_, err = analyzer.Infer(command.KindDPIStage, []analyzer.Probe{dpiProbe(1, 1600, 0)})
	assert.ErrorIs(t, err, analyzer.ErrInsufficientProbes)

	// Two probes with the same value yield no usable combination.
	_, err = analyzer.Infer(command.KindDPIStage, []analyzer.Probe{
		dpiProbe(1, 1600, 0),
		dpiProbe(2, 1600, 0),
	})
	assert.ErrorIs(t, err, analyzer.ErrInsufficientProbes)
}

func TestInferNoStableOffset(t *testing.T) {
	// Distinct setting values but byte-identical captures: nothing to vote on.
	probes := []analyzer.Probe{
		{Setting: command.DPIStage{Stage: 1, Value: 1600}, Record: rec(1, capture.DirWrite, 0x20, 0x01, 0x06, 0x40)},
		{Setting: command.DPIStage{Stage: 1, Value: 1610}, Record: rec(2, capture.DirWrite, 0x20, 0x01, 0x06, 0x40)},
	}
	_, err := analyzer.Infer(command.KindDPIStage, probes)
	assert.ErrorIs(t, err, analyzer.ErrNoStableOffset)
}

func TestInferThreshold(t *testing.T) {
	probes := []analyzer.Probe{
		dpiProbe(1, 1600, 0x00),
		dpiProbe(2, 1610, 0x00),
		dpiProbe(3, 1620, 0x00),
		dpiProbe(4, 1630, 0x07),
	}

	// Lowering the threshold below the noise byte's 50% share admits it.
	h, err := analyzer.Inferrer{Threshold: 0.4}.Infer(command.KindDPIStage, probes)
	require.NoError(t, err)
	assert.Contains(t, h.Offsets, 5)
}
