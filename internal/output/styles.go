// ABOUTME: Shared lipgloss styles for consistent terminal output
// ABOUTME: Defines the palette and text styles used by every command

package output

import "github.com/charmbracelet/lipgloss"

var (
	// Colors - Core palette
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Danger    = lipgloss.Color("#EF4444") // Red
	Muted     = lipgloss.Color("#6B7280") // Gray
	Info      = lipgloss.Color("#3B82F6") // Blue
	Accent    = lipgloss.Color("#8B5CF6") // Lighter purple for keys

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted)

	Label = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	Success = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	Failure = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(0, 1)
)

// KeyValues renders aligned "key: value" lines. Empty values are skipped.
func KeyValues(pairs ...[2]string) string {
	width := 0
	for _, p := range pairs {
		if p[1] != "" && len(p[0]) > width {
			width = len(p[0])
		}
	}

	var lines []string
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		key := Label.Width(width + 1).Render(p[0] + ":")
		lines = append(lines, key+" "+p[1])
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
