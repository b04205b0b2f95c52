// Package stdio connects the pipeline to the process's standard streams.
package stdio

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"spytrap/internal/pipeline"
)

// Feed sends every line read from r to out. It returns nil at end of input.
func Feed(ctx context.Context, r io.Reader, out chan<- string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		if err := pipeline.Send(ctx, out, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// Print writes every line from in to w until in is closed.
func Print(ctx context.Context, w io.Writer, in <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-in:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}
}
