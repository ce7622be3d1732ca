package display

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Primary   lipgloss.Color
	Highlight lipgloss.Color
	Dim       lipgloss.Color
}

var DefaultTheme = Theme{
	Primary:   lipgloss.Color("#00ff9f"),
	Highlight: lipgloss.Color("#ffd700"),
	Dim:       lipgloss.Color("#6e7681"),
}

type Styles struct {
	Label    lipgloss.Style
	Meter    lipgloss.Style
	Best     lipgloss.Style
	Enrolled lipgloss.Style
	Dim      lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Label:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Meter:    lipgloss.NewStyle().Foreground(t.Primary),
		Best:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000000")).Background(t.Highlight),
		Enrolled: lipgloss.NewStyle().Bold(true),
		Dim:      lipgloss.NewStyle().Foreground(t.Dim),
	}
}
