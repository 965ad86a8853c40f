package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	muted     lipgloss.Style
	pass      lipgloss.Style
	fail      lipgloss.Style
	warn      lipgloss.Style
	compiling lipgloss.Style
	tab       lipgloss.Style
	activeTab lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	tab := r.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8"))
	return styles{
		title:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		muted:     r.NewStyle().Foreground(lipgloss.Color("8")),
		pass:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		fail:      r.NewStyle().Foreground(lipgloss.Color("9")),
		warn:      r.NewStyle().Foreground(lipgloss.Color("11")),
		compiling: r.NewStyle().Foreground(lipgloss.Color("14")),
		tab:       tab,
		activeTab: tab.BorderForeground(lipgloss.Color("12")).Bold(true),
	}
}
