package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/espkit/ftdiserial/internal/tui/colors"
)

var (
	// Header styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	// Mode badge styles
	ModePassthroughStyle = lipgloss.NewStyle().
				Foreground(colors.Base).
				Background(colors.Green).
				Bold(true).
				Padding(0, 1)

	ModeBitIOStyle = lipgloss.NewStyle().
			Foreground(colors.Base).
			Background(colors.Peach).
			Bold(true).
			Padding(0, 1)

	// Signal state styles
	AssertedStyle = lipgloss.NewStyle().
			Foreground(colors.Red).
			Bold(true)

	ReleasedStyle = lipgloss.NewStyle().
			Foreground(colors.Green)

	// Detail text next to the title
	DetailStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0).
			Padding(0, 1)

	// Status line at the bottom
	StatusStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext1).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red).
			Padding(0, 1)

	// Table base style
	TableStyle = lipgloss.NewStyle().
			Foreground(colors.Text).
			BorderForeground(colors.Surface1)

	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(colors.Subtext0).
				Bold(true)
)
