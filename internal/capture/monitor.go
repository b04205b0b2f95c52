package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"spytrap/internal/metrics"
	"spytrap/internal/pipeline"
)

// Backend selects how packets are captured and decoded.
type Backend string

const (
	BackendSniffglue Backend = "sniffglue"
	BackendTshark    Backend = "tshark"
	BackendPcap      Backend = "pcap"
)

// ParseBackend validates a user supplied backend name.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(s)); b {
	case BackendSniffglue, BackendTshark, BackendPcap:
		return b, nil
	default:
		return "", fmt.Errorf("unknown capture backend: %q", s)
	}
}

// ErrCaptureExited is returned when the capture adapter stops producing
// packets. In steady state it never does, so this is always a failure.
var ErrCaptureExited = errors.New("capture adapter exited")

// Config holds configuration for the capture adapter.
type Config struct {
	Backend Backend
	Device  string
	// Filter is a BPF capture filter (tshark and pcap backends).
	Filter string
	// PcapFile replays a capture file instead of opening Device (pcap backend).
	PcapFile string
	// Binary overrides the executable of a subprocess backend.
	Binary string

	Logger  *log.Logger
	Metrics *metrics.Metrics
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Backend: BackendSniffglue,
		Device:  "wlan0",
	}
}

// Command returns the executable and arguments of a subprocess backend.
func (c Config) Command() (string, []string) {
	switch c.Backend {
	case BackendTshark:
		// -l: flush stdout after each packet
		// -n: disable name resolution
		// -T ek: one JSON object per line
		args := []string{"-l", "-n", "-T", "ek", "-Y", ekDisplayFilter}
		for _, f := range ekFields {
			args = append(args, "-e", f)
		}
		if c.Device != "" {
			args = append([]string{"-i", c.Device}, args...)
		}
		if c.Filter != "" {
			args = append(args, "-f", c.Filter)
		}
		return c.binary("tshark"), args
	default:
		return c.binary("sniffglue"), []string{"--json", c.Device}
	}
}

func (c Config) binary(def string) string {
	if c.Binary != "" {
		return c.Binary
	}
	return def
}

// Run captures packets and sends one line per packet to out until the
// context is cancelled or the adapter stops.
func Run(ctx context.Context, cfg Config, out chan<- string) error {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New(nil)
	}

	if cfg.Backend == BackendPcap {
		return runPcap(ctx, cfg, out)
	}
	name, args := cfg.Command()
	return runCommand(ctx, cfg, name, args, out)
}

func runCommand(ctx context.Context, cfg Config, name string, args []string, out chan<- string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}

	cfg.Logger.Info("Spawning capture adapter", "cmd", name, "args", strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}

	scanner := bufio.NewScanner(stdout)
	// tshark ek lines for large packets exceed the default token size
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		cfg.Metrics.CaptureLines.Inc()
		if err := pipeline.Send(ctx, out, line); err != nil {
			_ = cmd.Wait()
			return err
		}
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		// stdout is no longer read, so the adapter would block forever
		_ = cmd.Process.Kill()
	}
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if scanErr != nil {
		return fmt.Errorf("%w: reading %s output: %v", ErrCaptureExited, name, scanErr)
	}
	if waitErr != nil {
		return fmt.Errorf("%w: %s: %v", ErrCaptureExited, name, waitErr)
	}
	return fmt.Errorf("%w: %s closed its output", ErrCaptureExited, name)
}
