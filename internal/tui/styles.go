// Package tui implements the interactive prompts of the merge session using
// bubbletea models.
package tui

import "github.com/charmbracelet/lipgloss"

// styles groups the lipgloss styles shared by every prompt model.
type styles struct {
	title    lipgloss.Style
	cursor   lipgloss.Style
	selected lipgloss.Style
	help     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		cursor:   lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		selected: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		help:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}
