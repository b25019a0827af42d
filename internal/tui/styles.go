package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1)

	CountdownStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	QuestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true)

	BucketStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4"))

	WinningBucketStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#04B575")).
				Bold(true)

	MultiplierStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	GameLogStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262"))
)

// LineStyle picks the style for a formatted event line
func LineStyle(line string) lipgloss.Style {
	switch {
	case strings.HasPrefix(line, ">>>"):
		return CountdownStyle
	case strings.HasPrefix(line, "==="):
		return WarningStyle
	case strings.HasPrefix(line, "Error:"):
		return ErrorStyle
	case strings.HasPrefix(line, "Correct answer"):
		return SuccessStyle
	default:
		return GameLogStyle
	}
}
