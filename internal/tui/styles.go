package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorAccent = lipgloss.Color("39")
	colorText   = lipgloss.Color("252")
	colorMuted  = lipgloss.Color("244")
	colorOK     = lipgloss.Color("78")
	colorWarn   = lipgloss.Color("221")
	colorFail   = lipgloss.Color("203")
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Foreground(colorAccent)
	normalStyle  = lipgloss.NewStyle().Foreground(colorText)
	dimStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorOK).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarn)
	errorStyle   = lipgloss.NewStyle().Foreground(colorFail)

	// Bordered boxes: the path input and the recent-results panel.
	inputStyle = boxStyle(colorAccent)
	panelStyle = boxStyle(colorMuted)
)

func boxStyle(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}
