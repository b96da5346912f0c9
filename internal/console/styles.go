package console

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rpint/rpint/internal/display"
)

// Terminal stand-ins for the panel palette.
const (
	colorLime   = lipgloss.Color("#00FF00")
	colorCyan   = lipgloss.Color("#00FFFF")
	colorYellow = lipgloss.Color("#FFFF00")
	colorMuted  = lipgloss.Color("#6B6B8D")
	colorBorder = lipgloss.Color("#2A2A4A")
	colorAccent = lipgloss.Color("#FF2E97")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	screenStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)
)

// styleFor picks the terminal style for a panel colour.
func styleFor(c display.Color) lipgloss.Style {
	switch c {
	case display.ColorLime:
		return lipgloss.NewStyle().Foreground(colorLime)
	case display.ColorCyan:
		return lipgloss.NewStyle().Foreground(colorCyan)
	case display.ColorYellow:
		return lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	default:
		return lipgloss.NewStyle()
	}
}
