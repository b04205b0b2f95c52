// Package tui is the built-in terminal display sink.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows lines from in until the user quits. When in closes the screen
// stays up with the last lines visible. opts are passed to the bubbletea
// program, e.g. to read keys from the tty while stdin feeds the pipeline.
func Run(ctx context.Context, title string, in <-chan string, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(NewScreenModel(title), opts...)

	go func() {
		for line := range in {
			p.Send(LineMsg(line))
		}
		p.Send(EOFMsg{})
	}()

	_, err := p.Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
