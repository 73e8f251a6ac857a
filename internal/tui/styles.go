package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1b1b1b")).
			Background(lipgloss.Color("#e9c46a"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8a8f98"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a8b0ba"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e76f51"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6a7079"))

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#e9c46a"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3a4452")).
			Padding(0, 1)
)
