package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MaxLines is how many display lines stay on screen.
const MaxLines = 10

// LineMsg delivers one display line to the model.
type LineMsg string

// EOFMsg tells the model no more lines will arrive.
type EOFMsg struct{}

// TickMsg refreshes the clock in the header.
type TickMsg time.Time

// Entry is a display line with the time it arrived.
type Entry struct {
	At   time.Time
	Kind string
	Text string
}

// ScreenModel shows the most recent alerts and hotspot announcements.
type ScreenModel struct {
	entries []Entry
	table   table.Model
	now     time.Time
	alerts  int
	eof     bool
	title   string
}

func NewScreenModel(title string) ScreenModel {
	columns := []table.Column{
		{Title: "Time", Width: 10},
		{Title: "Kind", Width: 8},
		{Title: "Message", Width: 60},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(MaxLines),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ScreenModel{
		table: t,
		now:   time.Now(),
		title: title,
	}
}

func (m ScreenModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Entries returns the lines currently on screen, oldest first.
func (m ScreenModel) Entries() []Entry {
	return m.entries
}

// kind classifies a display line by its prefix.
func kind(line string) string {
	switch {
	case strings.HasPrefix(line, "[!]"):
		return "alert"
	case strings.HasPrefix(line, "[+]"):
		return "hotspot"
	default:
		return "info"
	}
}
