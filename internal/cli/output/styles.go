package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by commands.
type Styles struct {
	Header    lipgloss.Style
	SubHeader lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Info      lipgloss.Style
	Path      lipgloss.Style
}

// NewStyles creates styles bound to a lipgloss renderer.
func NewStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		SubHeader: r.NewStyle().Bold(true),
		Bold:      r.NewStyle().Bold(true),
		Muted:     r.NewStyle().Foreground(lipgloss.Color("8")),
		Success:   r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:   r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:     r.NewStyle().Foreground(lipgloss.Color("9")),
		Info:      r.NewStyle().Foreground(lipgloss.Color("14")),
		Path:      r.NewStyle().Foreground(lipgloss.Color("13")).Underline(true),
	}
}
