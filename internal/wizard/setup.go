package wizard

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/gogogate/internal/device"
)

// ErrCanceled is returned by Run when the user leaves the form.
var ErrCanceled = errors.New("setup canceled")

// Answers are the values collected by the setup form.
type Answers struct {
	Name     string
	Host     string
	Username string
	Password string
	Family   device.Family
}

const (
	fieldName = iota
	fieldHost
	fieldUsername
	fieldPassword
	fieldFamily // the family selector follows the text inputs
)

var fieldLabels = [...]string{"Profile name", "Hub address", "Username", "Password"}

type formKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Toggle key.Binding
	Submit key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Toggle, k.Submit, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// FormModel asks for the details of one hub.
type FormModel struct {
	inputs   []textinput.Model
	family   device.Family
	focus    int
	keys     formKeyMap
	help     help.Model
	err      string
	done     bool
	canceled bool
}

// NewFormModel creates the form, prefilled from defaults.
func NewFormModel(defaults Answers) FormModel {
	values := [...]string{defaults.Name, defaults.Host, defaults.Username, defaults.Password}
	placeholders := [...]string{"home", "192.168.1.20", "admin", ""}

	inputs := make([]textinput.Model, len(fieldLabels))
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 128
		in.Width = 40
		in.SetValue(values[i])
		inputs[i] = in
	}
	inputs[fieldPassword].EchoMode = textinput.EchoPassword
	inputs[fieldPassword].EchoCharacter = '•'
	inputs[fieldName].Focus()

	family := defaults.Family
	if family == device.FamilyUnknown {
		family = device.FamilyGogoGate2
	}

	return FormModel{
		inputs: inputs,
		family: family,
		help:   help.New(),
		keys: formKeyMap{
			Next: key.NewBinding(
				key.WithKeys("tab", "down"),
				key.WithHelp("tab", "next"),
			),
			Prev: key.NewBinding(
				key.WithKeys("shift+tab", "up"),
				key.WithHelp("shift+tab", "back"),
			),
			Toggle: key.NewBinding(
				key.WithKeys("left", "right", " "),
				key.WithHelp("←/→", "device type"),
			),
			Submit: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "confirm"),
			),
			Quit: key.NewBinding(
				key.WithKeys("esc", "ctrl+c"),
				key.WithHelp("esc", "cancel"),
			),
		},
	}
}

// Init implements tea.Model
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.canceled = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Next):
			return m, m.setFocus(m.focus + 1)

		case key.Matches(msg, m.keys.Prev):
			return m, m.setFocus(m.focus - 1)

		case key.Matches(msg, m.keys.Submit):
			if m.focus < fieldFamily {
				return m, m.setFocus(m.focus + 1)
			}
			if field, err := m.validate(); err != nil {
				m.err = err.Error()
				return m, m.setFocus(field)
			}
			m.err = ""
			m.done = true
			return m, tea.Quit

		case m.focus == fieldFamily && key.Matches(msg, m.keys.Toggle):
			if m.family == device.FamilyGogoGate2 {
				m.family = device.FamilyISmartGate
			} else {
				m.family = device.FamilyGogoGate2
			}
			return m, nil
		}
	}

	if m.focus >= fieldFamily {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// setFocus moves focus, wrapping around the form
func (m *FormModel) setFocus(field int) tea.Cmd {
	count := len(m.inputs) + 1
	m.focus = (field%count + count) % count

	var cmd tea.Cmd
	for i := range m.inputs {
		if i == m.focus {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

// validate returns the first empty field
func (m FormModel) validate() (int, error) {
	for i, in := range m.inputs {
		if strings.TrimSpace(in.Value()) == "" {
			return i, fmt.Errorf("%s must not be empty", strings.ToLower(fieldLabels[i]))
		}
	}
	return 0, nil
}

// View implements tea.Model
func (m FormModel) View() string {
	if m.done || m.canceled {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Add a garage door hub"))
	b.WriteString("\n\n")

	for i, in := range m.inputs {
		label := labelStyle
		if i == m.focus {
			label = focusedLabelStyle
		}
		b.WriteString(label.Render(fieldLabels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	label := labelStyle
	if m.focus == fieldFamily {
		label = focusedLabelStyle
	}
	b.WriteString(label.Render("Device type"))
	for _, f := range []device.Family{device.FamilyGogoGate2, device.FamilyISmartGate} {
		if f == m.family {
			b.WriteString(selectedStyle.Render("(•) " + f.String()))
		} else {
			b.WriteString(optionStyle.Render("( ) " + f.String()))
		}
		b.WriteString("  ")
	}
	b.WriteString("\n")

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

// Answers returns the trimmed form values. The password is kept as typed.
func (m FormModel) Answers() Answers {
	return Answers{
		Name:     strings.TrimSpace(m.inputs[fieldName].Value()),
		Host:     strings.TrimSpace(m.inputs[fieldHost].Value()),
		Username: strings.TrimSpace(m.inputs[fieldUsername].Value()),
		Password: m.inputs[fieldPassword].Value(),
		Family:   m.family,
	}
}

// Done reports whether the form was submitted
func (m FormModel) Done() bool { return m.done }

// Canceled reports whether the user left the form
func (m FormModel) Canceled() bool { return m.canceled }

// Run shows the form on out and returns the answers once submitted.
func Run(defaults Answers, in io.Reader, out io.Writer) (Answers, error) {
	p := tea.NewProgram(NewFormModel(defaults), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return Answers{}, fmt.Errorf("setup form failed: %w", err)
	}

	m, ok := final.(FormModel)
	if !ok || !m.Done() {
		return Answers{}, ErrCanceled
	}
	return m.Answers(), nil
}
