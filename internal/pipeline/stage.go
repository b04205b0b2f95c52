// Package pipeline runs the concurrent stages of a command and connects them
// with bounded channels.
package pipeline

import (
	"context"
	"fmt"
)

// Channel capacities between stages.
const (
	// DisplayBuffer is zero: the producer blocks until the display has
	// taken each line.
	DisplayBuffer = 0
	CaptureBuffer = 256
	ControlBuffer = 256
)

// Stage is one long-running unit of a pipeline.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
	// Feeder marks a stage whose clean return means "no more input" rather
	// than "the run is over". Its output must be closed when it returns.
	Feeder bool
}

// StageError records which stage ended a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Send delivers line to ch, giving up when ctx is cancelled.
func Send(ctx context.Context, ch chan<- string, line string) error {
	select {
	case ch <- line:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Feed wraps a sole producer so that its output is closed once it returns,
// and marks it as a Feeder.
func Feed(name string, out chan<- string, run func(ctx context.Context) error) Stage {
	return Stage{
		Name: name,
		Run: func(ctx context.Context) error {
			defer close(out)
			return run(ctx)
		},
		Feeder: true,
	}
}
