package tui

import (
	"todolist/internal/prefs"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	header    lipgloss.Style
	text      lipgloss.Style
	dim       lipgloss.Style
	done      lipgloss.Style
	cursor    lipgloss.Style
	tab       lipgloss.Style
	activeTab lipgloss.Style
	errorLine lipgloss.Style
	box       lipgloss.Style
	low       lipgloss.Style
	medium    lipgloss.Style
	high      lipgloss.Style
}

// newStyles derives the palette from the saved theme and accent color.
func newStyles(s prefs.Settings) styles {
	accent := lipgloss.Color(s.Color)
	fg, muted := lipgloss.Color("252"), lipgloss.Color("244")
	if s.Theme == prefs.ThemeLight {
		fg, muted = lipgloss.Color("235"), lipgloss.Color("240")
	}

	return styles{
		header: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		text: lipgloss.NewStyle().Foreground(fg),
		dim:  lipgloss.NewStyle().Foreground(muted),
		done: lipgloss.NewStyle().
			Foreground(muted).
			Strikethrough(true),
		cursor: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		tab: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),
		activeTab: lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(accent).
			Bold(true).
			Padding(0, 1),
		errorLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")). // coral red
			Bold(true),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		low:    lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		medium: lipgloss.NewStyle().Foreground(lipgloss.Color("222")),
		high:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
	}
}

func (s styles) priority(p string) lipgloss.Style {
	switch p {
	case "low":
		return s.low
	case "high":
		return s.high
	}
	return s.medium
}
