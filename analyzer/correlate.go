// Package analyzer reverse-engineers unknown protocol fields from capture
// logs: it correlates request/response pairs and infers which byte offsets
// encode a given setting by voting over probe-pair diffs.
package analyzer

import (
	"github.com/openpulsar/pulsarctl/capture"
)

// Pair is one correlated request/response exchange.
type Pair struct {
	Request  capture.Record
	Response capture.Record
}

// Correlation is the outcome of pairing a capture. Requests that never saw a
// matching response are reported, not dropped.
type Correlation struct {
	Pairs     []Pair
	Unmatched []capture.Record
}

// Correlate pairs each host-to-device record with the next device-to-host
// record carrying the same opcode and subcommand, in capture order. Each
// response is consumed at most once.
func Correlate(records []capture.Record) Correlation {
	var out Correlation
	used := make([]bool, len(records))

	for i, req := range records {
		if req.Direction != capture.DirWrite || len(req.Raw) < 2 {
			continue
		}
		matched := false
		for j := i + 1; j < len(records); j++ {
			resp := records[j]
			if used[j] || resp.Direction != capture.DirRead || len(resp.Raw) < 2 {
				continue
			}
			if resp.Raw[0] == req.Raw[0] && resp.Raw[1] == req.Raw[1] {
				used[j] = true
				out.Pairs = append(out.Pairs, Pair{Request: req, Response: resp})
				matched = true
				break
			}
		}
		if !matched {
			out.Unmatched = append(out.Unmatched, req)
		}
	}
	return out
}

// Diff returns the byte offsets at which two raw reports differ, ascending.
// When lengths differ, every offset past the shorter report counts as a
// difference.
func Diff(a, b []byte) []int {
	var offsets []int
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			offsets = append(offsets, i)
		}
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	for i := n; i < longer; i++ {
		offsets = append(offsets, i)
	}
	return offsets
}
