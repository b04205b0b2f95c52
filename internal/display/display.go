// Package display feeds display lines to an external program's stdin.
package display

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"
)

// ErrDisplayExited is returned when the display program ends while the
// pipeline still has lines for it.
var ErrDisplayExited = errors.New("display program exited")

// Program is a display sink backed by a subprocess.
type Program struct {
	Command string
	Args    []string
	Stdout  io.Writer
	Logger  *log.Logger
}

// New returns a sink running command with the process's stdout.
func New(command string, logger *log.Logger) *Program {
	if logger == nil {
		logger = log.Default()
	}
	return &Program{
		Command: command,
		Stdout:  os.Stdout,
		Logger:  logger.With("stage", "screen"),
	}
}

// Run starts the program and writes one line per message to its stdin. When
// in is closed, stdin is closed and Run waits for the program to finish.
func (p *Program) Run(ctx context.Context, in <-chan string) error {
	cmd := exec.CommandContext(ctx, p.Command, p.Args...)
	cmd.Stdout = p.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}

	p.Logger.Info("Spawning display program", "cmd", p.Command)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", p.Command, err)
	}

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	for {
		select {
		case <-ctx.Done():
			<-exited
			return ctx.Err()

		case err := <-exited:
			p.Logger.Error("Display program exited", "err", err)
			return fmt.Errorf("%w: %s: %v", ErrDisplayExited, p.Command, exitStatus(err))

		case line, ok := <-in:
			if !ok {
				stdin.Close()
				err := <-exited
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if err != nil {
					return fmt.Errorf("%s: %w", p.Command, err)
				}
				return nil
			}

			p.Logger.Debug("Sending to screen", "line", line)
			if _, err := io.WriteString(stdin, line+"\n"); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrDisplayExited, p.Command, err)
			}
		}
	}
}

func exitStatus(err error) string {
	if err == nil {
		return "exit status 0"
	}
	return err.Error()
}
