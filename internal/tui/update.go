package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

func (m ScreenModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case LineMsg:
		line := string(msg)
		e := Entry{At: time.Now(), Kind: kind(line), Text: strings.TrimPrefix(strings.TrimPrefix(line, "[!] "), "[+] ")}
		if e.Kind == "alert" {
			m.alerts++
		}
		// the slice is replaced, not appended in place, so earlier copies
		// of the model keep their rows
		entries := append(append([]Entry(nil), m.entries...), e)
		if len(entries) > MaxLines {
			entries = entries[len(entries)-MaxLines:]
		}
		m.entries = entries

		rows := make([]table.Row, len(m.entries))
		for i, e := range m.entries {
			rows[i] = table.Row{e.At.Format("15:04:05"), e.Kind, e.Text}
		}
		m.table.SetRows(rows)
		return m, nil

	case EOFMsg:
		m.eof = true
		return m, nil

	case TickMsg:
		m.now = time.Time(msg)
		return m, tickCmd()
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}
