package theme

import "github.com/charmbracelet/lipgloss"

// Color is an alias for lipgloss.Color for convenience
type Color = lipgloss.Color

// Brand colors
const (
	ColorPrimary   Color = "99" // Purple - app name, titles
	ColorSecondary Color = "86" // Cyan - subtitles
)

// Worker state colors
const (
	ColorProduction  Color = "2"  // Green - producing
	ColorSetup       Color = "33" // Blue - setting up
	ColorStoppage    Color = "3"  // Yellow - stopped with reason
	ColorMalfunction Color = "1"  // Red - machine down
	ColorStale       Color = "8"  // Gray - heartbeat overdue
)

// UI semantic colors
const (
	ColorError     Color = "196" // Bright red
	ColorHighlight Color = "255" // White - emphasis
	ColorMuted     Color = "241" // Gray - secondary text
	ColorNormal    Color = "250" // Default text
	ColorSubtle    Color = "245" // Light gray - labels
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(1, 0)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSubtle)

	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorNormal)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(1, 0)
)

// StatusStyle returns the style for a status definition code.
func StatusStyle(code string) lipgloss.Style {
	switch code {
	case "production":
		return lipgloss.NewStyle().Foreground(ColorProduction)
	case "setup":
		return lipgloss.NewStyle().Foreground(ColorSetup)
	case "stoppage":
		return lipgloss.NewStyle().Foreground(ColorStoppage)
	case "malfunction":
		return lipgloss.NewStyle().Foreground(ColorMalfunction)
	default:
		return lipgloss.NewStyle().Foreground(ColorNormal)
	}
}
