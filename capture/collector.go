package capture

import (
	"time"
)

// ReportReader is the read half of a transport. Both the session transport
// and a raw HID handle satisfy it.
type ReportReader interface {
	ReadWithTimeout(p []byte, timeout time.Duration) (int, error)
}

const pollTimeout = 100 * time.Millisecond

// Collect reads device-to-host reports from r for the given duration and
// returns the finalized capture. It is passive: it takes no session lock and
// will happily observe another process's traffic, which is the point when
// shadowing the vendor software.
func Collect(r ReportReader, duration time.Duration, reportSize int) ([]Record, error) {
	rec := Start(duration)
	deadline := time.Now().Add(duration)
	buf := make([]byte, reportSize)
	for time.Now().Before(deadline) {
		n, err := r.ReadWithTimeout(buf, pollTimeout)
		if err != nil {
			return rec.Stop(), err
		}
		if n == 0 {
			continue
		}
		if err := rec.Record(DirRead, time.Now(), buf[:n]); err != nil {
			break
		}
	}
	return rec.Stop(), nil
}
