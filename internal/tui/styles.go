package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Yellow    = lipgloss.Color("#FFCB05")
	Blue      = lipgloss.Color("#3B4CCA")
	DimGray   = lipgloss.Color("#6B7280")
	LightGray = lipgloss.Color("#9CA3AF")
	White     = lipgloss.Color("#F9FAFB")
)

var (
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Blue).
			Padding(0, 1)

	NameStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	URLStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	StatusStyle = lipgloss.NewStyle().
			Foreground(Yellow)

	HelpStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)
