package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
)

// BatteryBar renders a door sensor battery level as a static progress bar.
// A nil level renders as "n/a".
func BatteryBar(level *int, width int) string {
	if level == nil {
		return MutedStyle.Render("n/a")
	}
	if width < 10 {
		width = 10
	}
	if width > 40 {
		width = 40
	}

	pct := float64(*level) / 100
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}

	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	return fmt.Sprintf("%s %d%%", bar.ViewAs(pct), *level)
}

