// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette and styling for the TUI.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Secondary is the secondary accent colour.
	Secondary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Success marks generated answers and healthy state.
	Success lipgloss.Color

	// Warning marks fallback answers and demo data.
	Warning lipgloss.Color

	// Error indicates problems.
	Error lipgloss.Color

	// Border is the border colour.
	Border lipgloss.Color

	// Bar is the status bar background.
	Bar lipgloss.Color
}

// DefaultTheme returns the default ocean palette.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#0EA5E9"), // Sky
		Secondary:  lipgloss.Color("#14B8A6"), // Teal
		Foreground: lipgloss.Color("#E2E8F0"),
		Muted:      lipgloss.Color("#64748B"),
		Success:    lipgloss.Color("#4ADE80"),
		Warning:    lipgloss.Color("#FBBF24"),
		Error:      lipgloss.Color("#F87171"),
		Border:     lipgloss.Color("#334155"),
		Bar:        lipgloss.Color("#0F172A"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style

	// InputField frames text inputs.
	InputField lipgloss.Style

	// Answer frames answer text.
	Answer lipgloss.Style

	StatusBar lipgloss.Style
	Help      lipgloss.Style
	Border    lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Foreground).
			Background(theme.Primary),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		Answer: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(theme.Secondary).
			Foreground(theme.Foreground).
			PaddingLeft(1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(theme.Bar).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
