package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("#7C3AED")
	muted   = lipgloss.Color("#6B7280")
	danger  = lipgloss.Color("#DC2626")
	success = lipgloss.Color("#16A34A")
)

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 3).
			Width(64)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(muted)

	fieldErrorStyle = lipgloss.NewStyle().
			Foreground(danger)

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(danger).
			Padding(0, 1)

	noticeStyle = toastStyle.
			Background(success)

	welcomeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(success)
)
