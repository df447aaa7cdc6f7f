package statusbar

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/dbcnx/internal/tui/theme"
)

// Model is the status line shown under a running call.
type Model struct {
	width   int
	ok      bool
	target  string
	mode    string
	message string
}

// New creates a status bar for a call against target in the given mode.
func New(target, mode string) Model {
	return Model{target: target, mode: mode, ok: true}
}

// SetWidth updates the component width.
func (m *Model) SetWidth(w int) {
	m.width = w
}

// SetMessage sets the right-hand status message. ok selects the indicator color.
func (m *Model) SetMessage(msg string, ok bool) {
	m.message = msg
	m.ok = ok
}

// View renders the status bar.
func (m Model) View() string {
	style := theme.StyleStatusBar
	if m.width > 0 {
		style = style.Width(m.width)
	}

	color := theme.ColorSuccess
	if !m.ok {
		color = theme.ColorError
	}
	left := lipgloss.NewStyle().Foreground(color).Render("●") + " " + m.target + " [" + m.mode + "]"

	right := m.message
	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if padding < 1 {
		padding = 1
	}

	return style.Render(left + strings.Repeat(" ", padding) + right)
}
