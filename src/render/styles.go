package render

import (
	"github.com/charmbracelet/lipgloss"

	"opslens/src/contracts"
)

// Palette holds the colors used for terminal output.
type Palette struct {
	Title      lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Critical   lipgloss.Color
	Error      lipgloss.Color
	Warning    lipgloss.Color
	Info       lipgloss.Color
	Debug      lipgloss.Color
	Categories map[contracts.Category]lipgloss.Color
}

// DefaultPalette returns the default colors.
func DefaultPalette() Palette {
	return Palette{
		Title:    lipgloss.Color("#8AB4F8"),
		Muted:    lipgloss.Color("#9AA0A6"),
		Border:   lipgloss.Color("#5F6368"),
		Critical: lipgloss.Color("#FF5F87"),
		Error:    lipgloss.Color("#EA4335"),
		Warning:  lipgloss.Color("#FBBC04"),
		Info:     lipgloss.Color("#34A853"),
		Debug:    lipgloss.Color("#9AA0A6"),
		Categories: map[contracts.Category]lipgloss.Color{
			contracts.CategoryNetwork:     lipgloss.Color("#24C1E0"),
			contracts.CategoryPermissions: lipgloss.Color("#F28B82"),
			contracts.CategoryResource:    lipgloss.Color("#FDD663"),
			contracts.CategoryConfig:      lipgloss.Color("#A142F4"),
			contracts.CategoryApplication: lipgloss.Color("#4285F4"),
			contracts.CategorySecurity:    lipgloss.Color("#EA4335"),
			contracts.CategoryPerformance: lipgloss.Color("#FBBC04"),
			contracts.CategoryUnknown:     lipgloss.Color("#9AA0A6"),
		},
	}
}

// styles are the lipgloss styles bound to one renderer.
type styles struct {
	palette Palette
	r       *lipgloss.Renderer

	title  lipgloss.Style
	header lipgloss.Style
	muted  lipgloss.Style
	box    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, p Palette) styles {
	return styles{
		palette: p,
		r:       r,
		title:   r.NewStyle().Foreground(p.Title).Bold(true),
		header:  r.NewStyle().Foreground(p.Muted).Bold(true),
		muted:   r.NewStyle().Foreground(p.Muted),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
	}
}

func (s styles) severity(sev contracts.Severity) lipgloss.Style {
	st := s.r.NewStyle()
	switch sev {
	case contracts.SeverityCritical:
		return st.Foreground(s.palette.Critical).Bold(true)
	case contracts.SeverityError:
		return st.Foreground(s.palette.Error).Bold(true)
	case contracts.SeverityWarning:
		return st.Foreground(s.palette.Warning)
	case contracts.SeverityInfo:
		return st.Foreground(s.palette.Info)
	case contracts.SeverityDebug:
		return st.Foreground(s.palette.Debug)
	}
	return st
}

func (s styles) category(cat contracts.Category) lipgloss.Style {
	if c, ok := s.palette.Categories[cat]; ok {
		return s.r.NewStyle().Foreground(c)
	}
	return s.r.NewStyle()
}
