package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#4F46E5")).
			Padding(0, 1).
			Bold(true)

	captionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A5B4FC"))

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Padding(0, 1)

	activeTabStyle = tabStyle.
			Foreground(lipgloss.Color("#4F46E5")).
			Underline(true).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4F46E5")).
			Bold(true)

	doneTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Strikethrough(true)

	checkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22C55E"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF"))

	placeholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6B7280")).
				Padding(1, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))
)
