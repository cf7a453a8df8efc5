package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title        lipgloss.Style
	header       lipgloss.Style
	member       lipgloss.Style
	detail       lipgloss.Style
	online       lipgloss.Style
	warning      lipgloss.Style
	section      lipgloss.Style
	empty        lipgloss.Style
	label        lipgloss.Style
	meta         lipgloss.Style
	barBracket   lipgloss.Style
	barFill      lipgloss.Style
	barEmpty     lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:        lipgloss.NewStyle().Bold(true),
		header:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		member:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		online:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114")),
		warning:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:      lipgloss.NewStyle().MarginTop(1),
		empty:        lipgloss.NewStyle().Faint(true),
		label:        lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		meta:         lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		barBracket:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barFill:      lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		barEmpty:     lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}
