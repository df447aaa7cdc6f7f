package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/dbcnx/internal/database"
	"github.com/joacominatel/dbcnx/internal/tui/statusbar"
	"github.com/joacominatel/dbcnx/internal/tui/theme"
)

// AwaitFunc blocks until a call's result is available.
type AwaitFunc func() (*database.ResultSet, error)

// resultMsg carries the awaited result into the update loop.
type resultMsg struct {
	result *database.ResultSet
	err    error
}

// WaitModel shows a spinner and status line until an async call resolves.
type WaitModel struct {
	spinner   spinner.Model
	statusbar statusbar.Model
	label     string
	await     AwaitFunc
	result    *database.ResultSet
	err       error
	done      bool
}

// NewWaitModel creates a model that runs await and waits for it.
func NewWaitModel(label string, bar statusbar.Model, await AwaitFunc) WaitModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(theme.StyleSpinner),
	)
	bar.SetMessage("running", true)
	return WaitModel{
		spinner:   s,
		statusbar: bar,
		label:     label,
		await:     await,
	}
}

// Init starts the spinner and the awaited call.
func (m WaitModel) Init() tea.Cmd {
	await := m.await
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		rs, err := await()
		return resultMsg{result: rs, err: err}
	})
}

// Update handles spinner ticks, the result and interrupts.
func (m WaitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.result = msg.result
		m.err = msg.err
		m.done = true
		if msg.err != nil {
			m.statusbar.SetMessage("failed", false)
		} else {
			m.statusbar.SetMessage("done", true)
		}
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = context.Canceled
			m.done = true
			m.statusbar.SetMessage("interrupted", false)
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.statusbar.SetWidth(msg.Width)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the spinner line and the status bar.
func (m WaitModel) View() string {
	if m.done {
		return m.statusbar.View() + "\n"
	}
	return fmt.Sprintf("%s %s\n%s\n", m.spinner.View(), m.label, m.statusbar.View())
}

// Result returns the awaited result once the model is done.
func (m WaitModel) Result() (*database.ResultSet, error) {
	return m.result, m.err
}

// Wait runs a WaitModel program until await resolves and returns its result.
func Wait(label string, bar statusbar.Model, await AwaitFunc, opts ...tea.ProgramOption) (*database.ResultSet, error) {
	p := tea.NewProgram(NewWaitModel(label, bar, await), opts...)
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("run spinner: %w", err)
	}
	return final.(WaitModel).Result()
}
