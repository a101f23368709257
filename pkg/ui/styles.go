package ui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the views.
type Styles struct {
	Title     lipgloss.Style
	Mode      lipgloss.Style
	Dirty     lipgloss.Style
	Stamp     lipgloss.Style
	Label     lipgloss.Style
	Collapsed lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
	Prompt    lipgloss.Style
	Faint     lipgloss.Style
}

// NewStyles builds the default style set.
func NewStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		Mode:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Dirty:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		Stamp:     lipgloss.NewStyle().Foreground(lipgloss.Color("150")),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("229")),
		Collapsed: lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Error:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Prompt:    lipgloss.NewStyle().Foreground(lipgloss.Color("81")),
		Faint:     lipgloss.NewStyle().Faint(true),
	}
}
