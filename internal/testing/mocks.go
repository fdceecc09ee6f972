// Package testing provides shared mock collaborators for package tests.
package testing

import (
	"time"
)

// ScriptedTransport replays a fixed sequence of read results while recording
// every written report. A nil entry in Responses means "time out this read".
type ScriptedTransport struct {
	Responses [][]byte

	Writes  [][]byte
	Reads   int
	Closed  int
	readPos int
}

func (m *ScriptedTransport) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	copy(buf, p)
	m.Writes = append(m.Writes, buf)
	return len(p), nil
}

func (m *ScriptedTransport) ReadWithTimeout(p []byte, timeout time.Duration) (int, error) {
	m.Reads++
	if m.readPos >= len(m.Responses) {
		return 0, nil
	}
	resp := m.Responses[m.readPos]
	m.readPos++
	if resp == nil {
		return 0, nil
	}
	return copy(p, resp), nil
}

func (m *ScriptedTransport) Close() error {
	m.Closed++
	return nil
}
