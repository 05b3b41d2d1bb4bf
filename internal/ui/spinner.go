package ui

import (
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type doneMsg struct{}

// WaitModel is a Bubble Tea model that spins until a channel closes.
// It renders nothing once finished so the result can be printed in its place.
type WaitModel struct {
	spinner     spinner.Model
	label       string
	done        <-chan struct{}
	finished    bool
	interrupted bool
}

// NewWaitModel creates a model that quits when done is closed
func NewWaitModel(label string, done <-chan struct{}) WaitModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle))
	return WaitModel{spinner: s, label: label, done: done}
}

// Init implements tea.Model
func (m WaitModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitFor(m.done))
}

func waitFor(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return doneMsg{}
	}
}

// Update implements tea.Model
func (m WaitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.interrupted = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m WaitModel) View() string {
	if m.finished || m.interrupted {
		return ""
	}
	return "  " + m.spinner.View() + " " + m.label + "\n"
}

// Finished reports whether the channel closed
func (m WaitModel) Finished() bool { return m.finished }

// Interrupted reports whether the user quit before the channel closed
func (m WaitModel) Interrupted() bool { return m.interrupted }

// Wait shows a spinner on out until done is closed. It returns false when
// the user interrupted the wait; the caller should then cancel the work.
// A nil in disables keyboard handling.
func Wait(label string, done <-chan struct{}, in io.Reader, out io.Writer) (bool, error) {
	p := tea.NewProgram(NewWaitModel(label, done), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	m, ok := final.(WaitModel)
	return ok && !m.Interrupted(), nil
}
