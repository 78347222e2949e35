package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/espkit/ftdiserial"
	"github.com/espkit/ftdiserial/internal/tui/colors"
	"github.com/espkit/ftdiserial/internal/tui/styles"
)

// StatusBar renders the monitor's bottom line: adapter selector, operating
// mode, UART settings, and the outcome of the last action.
type StatusBar struct {
	selector string
	config   ftdiserial.Config
	width    int

	mode       ftdiserial.Mode
	lastAction string
	err        error
}

func NewStatusBar(selector string, config ftdiserial.Config) *StatusBar {
	return &StatusBar{
		selector: selector,
		config:   config,
		mode:     ftdiserial.ModePassthrough,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetMode(mode ftdiserial.Mode) {
	sb.mode = mode
}

func (sb *StatusBar) SetAction(action string, err error) {
	sb.lastAction = action
	sb.err = err
}

func parityToString(p ftdiserial.Parity) string {
	switch p {
	case ftdiserial.ParityEven:
		return "E"
	case ftdiserial.ParityOdd:
		return "O"
	default:
		return "N"
	}
}

// View renders the bar at the configured width.
func (sb *StatusBar) View() string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	var modeBadge string
	if sb.mode == ftdiserial.ModeBitIO {
		modeBadge = styles.ModeBitIOStyle.Render("BIT I/O")
	} else {
		modeBadge = styles.ModePassthroughStyle.Render("UART")
	}

	target := styles.TitleStyle.Render(sb.displaySelector())

	uartInfo := fmt.Sprintf("%d baud %d%s%d",
		sb.config.BaudRate,
		sb.config.DataBits,
		parityToString(sb.config.Parity),
		sb.config.StopBits)
	details := styles.DetailStyle.Render(uartInfo)

	var action string
	if sb.err != nil {
		action = styles.ErrorStyle.Render(fmt.Sprintf("%s: %v", sb.lastAction, sb.err))
	} else if sb.lastAction != "" {
		action = styles.StatusStyle.Render(sb.lastAction)
	}

	left := lipgloss.JoinHorizontal(lipgloss.Left, modeBadge, target, action)
	right := details

	spacerWidth := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	bar := lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(width)

	return bar.Render(lipgloss.JoinHorizontal(lipgloss.Left, left, spacer, right))
}

func (sb *StatusBar) displaySelector() string {
	if sb.selector == "" {
		return "first FTDI adapter"
	}
	return sb.selector
}
