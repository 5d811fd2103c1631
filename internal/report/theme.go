package report

import "github.com/charmbracelet/lipgloss"

// knock palette
var (
	Success   = lipgloss.Color("#00FF88")
	Error     = lipgloss.Color("#FF6B6B")
	Warning   = lipgloss.Color("#FFD700")
	SkyBlue   = lipgloss.Color("#87CEEB")
	LightGray = lipgloss.Color("#B0B0B0")
	White     = lipgloss.Color("#FFFFFF")
)

// Theme holds the styles of one renderer. Styles are bound to a renderer so
// the color profile follows the output they are written to.
type Theme struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Warning lipgloss.Style
	Dim     lipgloss.Style
}

// NewTheme creates the styles for r.
func NewTheme(r *lipgloss.Renderer) Theme {
	return Theme{
		Title: r.NewStyle().
			Foreground(White).
			Bold(true),
		Label: r.NewStyle().
			Foreground(SkyBlue),
		Value: r.NewStyle().
			Foreground(White).
			Bold(true),
		Success: r.NewStyle().
			Foreground(Success),
		Failure: r.NewStyle().
			Foreground(Error),
		Warning: r.NewStyle().
			Foreground(Warning),
		Dim: r.NewStyle().
			Foreground(LightGray),
	}
}

// Symbols
const (
	CrossMark = "✗"
	Crosshair = "⌖"
)
