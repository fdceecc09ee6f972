// Package capture records observed USB transfers for later analysis. A
// capture is append-only while running and immutable once stopped; ordering
// by sequence number is authoritative, timestamps are advisory.
package capture

import (
	"errors"
	"sync"
	"time"
)

var ErrCaptureEnded = errors.New("capture: capture has ended")

// Direction marks which side of the bus produced a record.
type Direction int

const (
	// DirWrite is host to device.
	DirWrite Direction = iota
	// DirRead is device to host.
	DirRead
)

func (d Direction) String() string {
	if d == DirRead {
		return "R"
	}
	return "W"
}

// Record is one observed transfer.
type Record struct {
	Sequence  uint64
	Timestamp time.Time
	Direction Direction
	Raw       []byte
}

// Recorder accumulates records for a bounded duration. It is a passive
// observer: it holds no device lock and may see traffic from any source
// touching the bus.
type Recorder struct {
	mu       sync.Mutex
	deadline time.Time
	nextSeq  uint64
	records  []Record
	stopped  bool
}

// Start begins a capture that accepts records for at most d. The bound keeps
// a runaway capture from growing without limit.
func Start(d time.Duration) *Recorder {
	return &Recorder{deadline: time.Now().Add(d), nextSeq: 1}
}

// Record appends one transfer with the next sequence number. It fails with
// ErrCaptureEnded once the capture is stopped or its duration has elapsed.
func (r *Recorder) Record(dir Direction, ts time.Time, raw []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || time.Now().After(r.deadline) {
		return ErrCaptureEnded
	}
	buf := make([]byte, len(raw))
	copy(buf, raw)
	r.records = append(r.records, Record{
		Sequence:  r.nextSeq,
		Timestamp: ts,
		Direction: dir,
		Raw:       buf,
	})
	r.nextSeq++
	return nil
}

// Stop finalizes the capture and returns the ordered records. Further Record
// calls fail; the returned slice is owned by the caller.
func (r *Recorder) Stop() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	out := r.records
	r.records = nil
	return out
}
