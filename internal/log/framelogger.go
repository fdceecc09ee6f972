package log

import (
	"io"
	"sync"
	"time"
)

// FrameLogger records every raw report crossing the transport, in the same
// direction-marked hex form the capture log uses.
type FrameLogger interface {
	Log(write bool, data []byte)
}

type frameLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewFrameLogger returns a FrameLogger writing to w. A nil writer yields a
// no-op logger.
func NewFrameLogger(w io.Writer) FrameLogger {
	return &frameLogger{w: w}
}

// Log emits one line per report: timestamp, W for host-to-device or R for
// device-to-host, then the bytes in hex.
func (l *frameLogger) Log(write bool, data []byte) {
	if l.w == nil || len(data) == 0 {
		return
	}

	dir := byte('R')
	if write {
		dir = 'W'
	}

	const hexdigits = "0123456789abcdef"
	line := make([]byte, 0, 32+len(data)*3)
	line = append(line, time.Now().Format("2006-01-02T15:04:05.000000Z07:00")...)
	line = append(line, ' ', dir)
	for _, b := range data {
		line = append(line, ' ', hexdigits[b>>4], hexdigits[b&0x0f])
	}
	line = append(line, '\n')

	l.mu.Lock()
	_, _ = l.w.Write(line)
	l.mu.Unlock()
}
