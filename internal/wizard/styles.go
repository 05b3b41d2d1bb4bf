package wizard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/gogogate/internal/ui"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor).
			Width(16)

	focusedLabelStyle = lipgloss.NewStyle().
				Foreground(ui.SuccessColor).
				Bold(true).
				Width(16)

	optionStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor)

	selectedStyle = lipgloss.NewStyle().
			Foreground(ui.TextColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(ui.ErrorColor)
)
