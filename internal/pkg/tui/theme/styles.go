package theme

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Styles contains the styles used to render advisories in a terminal.
type Styles struct {
	// Source tags, one per observer.
	Metrics    lipgloss.Style
	Trajectory lipgloss.Style
	Source     lipgloss.Style

	// Ephemeral advisories are dimmed; persisted ones stand out.
	Ephemeral lipgloss.Style
	Persisted lipgloss.Style
	Warning   lipgloss.Style

	// Card frames multi-line persisted reports.
	Card lipgloss.Style
}

var (
	defaultStyles *Styles
	once          sync.Once
)

// Default returns the singleton default Styles instance
func Default() *Styles {
	once.Do(func() {
		defaultStyles = newStyles()
	})
	return defaultStyles
}

func newStyles() *Styles {
	return &Styles{
		Metrics: lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true),

		Trajectory: lipgloss.NewStyle().
			Foreground(BrightPurple).
			Bold(true),

		Source: lipgloss.NewStyle().
			Foreground(LightGray).
			Bold(true),

		Ephemeral: lipgloss.NewStyle().
			Foreground(DimGray),

		Persisted: lipgloss.NewStyle().
			Foreground(White),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Purple).
			Padding(0, 1),
	}
}

// SourceStyle returns the tag style of an observer.
func (s *Styles) SourceStyle(source string) lipgloss.Style {
	switch source {
	case "metrics":
		return s.Metrics
	case "trajectory":
		return s.Trajectory
	default:
		return s.Source
	}
}
