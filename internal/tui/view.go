package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	alertStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5F87"))
)

func (m ScreenModel) View() string {
	title := titleStyle.Render(fmt.Sprintf("%s - %s", m.title, m.now.Format("15:04:05")))

	status := fmt.Sprintf("Alerts: %d", m.alerts)
	if m.alerts > 0 {
		status = alertStyle.Render(status)
	}
	if m.eof {
		status += "  (input closed)"
	}
	statusBox := infoStyle.Render(status)

	var body string
	if len(m.entries) == 0 {
		body = infoStyle.Render("Waiting for data...")
	} else {
		body = infoStyle.Render(m.table.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, statusBox, body) + "\nPress q to quit."
}
