package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/openpulsar/pulsarctl/analyzer"
	"github.com/openpulsar/pulsarctl/capture"
	"github.com/openpulsar/pulsarctl/command"
)

// Analyze groups the reverse-engineering commands.
type Analyze struct {
	Correlate AnalyzeCorrelate `cmd:"" help:"Pair requests with responses in a capture log"`
	Infer     AnalyzeInfer     `cmd:"" help:"Infer which byte offsets encode a setting from probe captures"`
}

type AnalyzeCorrelate struct {
	Input string `arg:"" help:"Capture log file" type:"existingfile"`
}

func (c *AnalyzeCorrelate) Run(logger *slog.Logger) error {
	records, err := loadCapture(c.Input)
	if err != nil {
		return err
	}

	result := analyzer.Correlate(records)
	for _, p := range result.Pairs {
		fmt.Printf("#%-4d W %s\n", p.Request.Sequence, hexBytes(p.Request.Raw))
		fmt.Printf("#%-4d R %s\n\n", p.Response.Sequence, hexBytes(p.Response.Raw))
	}
	fmt.Printf("%d pairs, %d unmatched requests\n", len(result.Pairs), len(result.Unmatched))
	for _, r := range result.Unmatched {
		fmt.Printf("unmatched #%d W %s\n", r.Sequence, hexBytes(r.Raw))
	}
	return nil
}

type AnalyzeInfer struct {
	Kind      string   `arg:"" help:"Setting under test" enum:"dpi,polling"`
	Probes    []string `arg:"" help:"value=capturefile pairs, e.g. 1600=dpi1600.log"`
	Threshold float64  `help:"Voting threshold an offset must exceed" default:"0.5"`
	Record    string   `help:"Append the hypothesis to this file after confirmation" type:"path"`
	Yes       bool     `help:"Record without prompting (for non-interactive use)"`
}

func (c *AnalyzeInfer) Run(logger *slog.Logger) error {
	kind, build, err := probeKind(c.Kind)
	if err != nil {
		return err
	}

	probes := make([]analyzer.Probe, 0, len(c.Probes))
	for _, arg := range c.Probes {
		value, file, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("probe %q: want value=capturefile", arg)
		}
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("probe %q: bad value: %w", arg, err)
		}
		records, err := loadCapture(file)
		if err != nil {
			return err
		}
		req, err := firstRequest(records)
		if err != nil {
			return fmt.Errorf("probe %q: %w", arg, err)
		}
		probes = append(probes, analyzer.Probe{Setting: build(v), Record: req})
	}

	h, err := analyzer.Inferrer{Threshold: c.Threshold}.Infer(kind, probes)
	if errors.Is(err, analyzer.ErrInsufficientProbes) || errors.Is(err, analyzer.ErrNoStableOffset) {
		// Reported outcomes, not failures: tell the user what to do next.
		fmt.Printf("no hypothesis: %v\nre-run with more probe captures\n", err)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("setting:    %s\n", h.SettingKind)
	fmt.Printf("offsets:    %s\n", offsetList(h.Offsets))
	fmt.Printf("confidence: %.2f\n", h.Confidence)
	fmt.Printf("samples:    %d\n", h.SampleCount)

	if c.Record == "" {
		return nil
	}
	// A hypothesis is not ground truth until someone says so.
	if !c.Yes && !confirm("record this hypothesis as confirmed?") {
		fmt.Println("not recorded")
		return nil
	}
	line := fmt.Sprintf("%s offsets=%s confidence=%.2f samples=%d\n",
		h.SettingKind, offsetList(h.Offsets), h.Confidence, h.SampleCount)
	f, err := os.OpenFile(c.Record, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return err
	}
	logger.Info("hypothesis recorded", "file", c.Record)
	return nil
}

func probeKind(name string) (command.Kind, func(int) command.Setting, error) {
	switch name {
	case "dpi":
		return command.KindDPIStage, func(v int) command.Setting {
			return command.DPIStage{Stage: 1, Value: v}
		}, nil
	case "polling":
		return command.KindPollingRate, func(v int) command.Setting {
			return command.PollingRate{Hz: v}
		}, nil
	default:
		return 0, nil, fmt.Errorf("unknown setting kind %q", name)
	}
}

func loadCapture(path string) ([]capture.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return capture.Load(string(data))
}

func firstRequest(records []capture.Record) (capture.Record, error) {
	for _, r := range records {
		if r.Direction == capture.DirWrite {
			return r, nil
		}
	}
	return capture.Record{}, errors.New("capture contains no host-to-device record")
}

// confirm asks on the terminal; without a terminal it refuses, so scripts
// must pass --yes explicitly.
func confirm(prompt string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Println("stdin is not a terminal; use --yes to record non-interactively")
		return false
	}
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func hexBytes(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 0, len(b)*3)
	for i, v := range b {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, hexdigits[v>>4], hexdigits[v&0x0f])
	}
	return string(out)
}

func offsetList(offsets []int) string {
	parts := make([]string, len(offsets))
	for i, o := range offsets {
		parts[i] = strconv.Itoa(o)
	}
	return strings.Join(parts, ",")
}
