package analyzer

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/openpulsar/pulsarctl/capture"
	"github.com/openpulsar/pulsarctl/command"
)

var (
	// ErrInsufficientProbes and ErrNoStableOffset are reported outcomes of a
	// single inference, not failures of a batch; callers re-run with more
	// probes.
	ErrInsufficientProbes = errors.New("analyzer: need at least two probes with distinct values")
	ErrNoStableOffset     = errors.New("analyzer: no offset cleared the voting threshold")
)

// DefaultThreshold is the fraction of combinations an offset must strictly
// exceed to enter the hypothesis.
const DefaultThreshold = 0.5

// Probe is one captured command frame labeled with the known setting value
// that produced it.
type Probe struct {
	Setting command.Setting
	Record  capture.Record
}

// Hypothesis names the byte offsets believed to encode a setting. It is
// produced by Infer and never mutated; re-analysis produces a new one. A
// hypothesis is not ground truth until explicitly confirmed.
type Hypothesis struct {
	SettingKind command.Kind
	Offsets     []int
	// Confidence is the fraction of probe combinations whose diff contains
	// every accepted offset.
	Confidence float64
	// SampleCount is the number of probes that went into the vote.
	SampleCount int
}

// Inferrer runs offset inference with a configurable voting threshold.
// The zero value uses DefaultThreshold.
type Inferrer struct {
	Threshold float64
}

// Infer localizes the byte offsets encoding kind. Every combination of two
// probes with distinct setting values contributes one diff of their request
// bytes; an offset is accepted only when it appears in strictly more than
// Threshold of the combinations, which suppresses incidental varying bytes
// such as sequence counters. Deterministic: same probes and threshold, same
// hypothesis; offsets are ordered ascending.
func (inf Inferrer) Infer(kind command.Kind, probes []Probe) (Hypothesis, error) {
	threshold := inf.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	type combo struct{ a, b int }
	var combos []combo
	for i := 0; i < len(probes); i++ {
		for j := i + 1; j < len(probes); j++ {
			if reflect.DeepEqual(probes[i].Setting, probes[j].Setting) {
				continue
			}
			if !sameOpcode(probes[i].Record.Raw, probes[j].Record.Raw) {
				continue
			}
			combos = append(combos, combo{a: i, b: j})
		}
	}
	if len(probes) < 2 || len(combos) == 0 {
		return Hypothesis{}, fmt.Errorf("%w: %d probes", ErrInsufficientProbes, len(probes))
	}

	votes := make(map[int]int)
	diffs := make([][]int, len(combos))
	for ci, c := range combos {
		d := Diff(probes[c.a].Record.Raw, probes[c.b].Record.Raw)
		diffs[ci] = d
		for _, off := range d {
			votes[off]++
		}
	}

	var offsets []int
	for off, n := range votes {
		if float64(n)/float64(len(combos)) > threshold {
			offsets = append(offsets, off)
		}
	}
	if len(offsets) == 0 {
		return Hypothesis{}, fmt.Errorf("%w: %d combinations", ErrNoStableOffset, len(combos))
	}
	sort.Ints(offsets)

	supporting := 0
	for _, d := range diffs {
		if containsAll(d, offsets) {
			supporting++
		}
	}

	return Hypothesis{
		SettingKind: kind,
		Offsets:     offsets,
		Confidence:  float64(supporting) / float64(len(combos)),
		SampleCount: len(probes),
	}, nil
}

// Infer runs inference with the default threshold.
func Infer(kind command.Kind, probes []Probe) (Hypothesis, error) {
	return Inferrer{}.Infer(kind, probes)
}

func sameOpcode(a, b []byte) bool {
	return len(a) > 0 && len(b) > 0 && a[0] == b[0]
}

// containsAll reports whether the sorted diff d contains every offset in
// want (also sorted).
func containsAll(d, want []int) bool {
	i := 0
	for _, off := range want {
		for i < len(d) && d[i] < off {
			i++
		}
		if i >= len(d) || d[i] != off {
			return false
		}
	}
	return true
}
