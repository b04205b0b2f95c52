package pipeline

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
)

type result struct {
	stage Stage
	err   error
}

// Race runs every stage concurrently. The first stage to return ends the run:
// the others are cancelled and its outcome is returned, wrapped in a
// *StageError when it failed. A Feeder that returns cleanly only signals end
// of input and the race continues without it.
//
// Race does not wait for cancelled stages to unwind. A stage blocked in a
// read that ignores ctx must not keep the process alive.
func Race(ctx context.Context, logger *log.Logger, stages ...Stage) error {
	if len(stages) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan result, len(stages))
	for _, s := range stages {
		logger.Debug("Starting stage", "stage", s.Name)
		go func(s Stage) {
			results <- result{stage: s, err: s.Run(ctx)}
		}(s)
	}

	for remaining := len(stages); remaining > 0; remaining-- {
		r := <-results
		if r.err == nil && r.stage.Feeder {
			logger.Debug("Input exhausted", "stage", r.stage.Name)
			continue
		}

		if r.err == nil {
			logger.Debug("Stage finished", "stage", r.stage.Name)
			return nil
		}
		if errors.Is(r.err, context.Canceled) {
			logger.Debug("Stage cancelled", "stage", r.stage.Name)
		} else {
			logger.Error("Stage failed", "stage", r.stage.Name, "err", r.err)
		}
		return &StageError{Stage: r.stage.Name, Err: r.err}
	}
	return nil
}
