package capture

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeLayout is fixed-width so saved captures diff cleanly line by line.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Save serializes records to the stable text form, one record per line:
// timestamp, direction marker, space-separated hex bytes. Line order encodes
// the sequence numbers.
func Save(records []Record) string {
	var b strings.Builder
	for _, rec := range records {
		b.WriteString(rec.Timestamp.Format(timeLayout))
		b.WriteByte(' ')
		b.WriteString(rec.Direction.String())
		for _, v := range rec.Raw {
			fmt.Fprintf(&b, " %02x", v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Load parses the text form back into ordered records, assigning sequence
// numbers from line order. Blank lines are skipped; anything else malformed
// fails with its line number.
func Load(text string) ([]Record, error) {
	var records []Record
	seq := uint64(1)
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("capture: line %d: want timestamp, direction and bytes", i+1)
		}
		ts, err := time.Parse(timeLayout, fields[0])
		if err != nil {
			return nil, fmt.Errorf("capture: line %d: bad timestamp: %w", i+1, err)
		}
		var dir Direction
		switch fields[1] {
		case "R":
			dir = DirRead
		case "W":
			dir = DirWrite
		default:
			return nil, fmt.Errorf("capture: line %d: bad direction %q", i+1, fields[1])
		}
		raw := make([]byte, 0, len(fields)-2)
		for _, f := range fields[2:] {
			v, err := strconv.ParseUint(f, 16, 8)
			if err != nil || len(f) != 2 {
				return nil, fmt.Errorf("capture: line %d: bad hex byte %q", i+1, f)
			}
			raw = append(raw, byte(v))
		}
		records = append(records, Record{Sequence: seq, Timestamp: ts, Direction: dir, Raw: raw})
		seq++
	}
	return records, nil
}
