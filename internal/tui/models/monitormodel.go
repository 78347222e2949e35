package models

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"

	"github.com/espkit/ftdiserial"
	"github.com/espkit/ftdiserial/internal/tui/components"
	"github.com/espkit/ftdiserial/internal/tui/keys"
	"github.com/espkit/ftdiserial/internal/tui/styles"
)

const (
	columnKeySignal   = "signal"
	columnKeyPin      = "pin"
	columnKeyPolarity = "polarity"
	columnKeyLevel    = "level"
	columnKeyState    = "state"

	pollInterval = 500 * time.Millisecond
)

type tickMsg time.Time

// pinStateMsg carries one sample of the adapter's data port.
type pinStateMsg struct {
	mode ftdiserial.Mode
	raw  byte
	err  error
}

// actionMsg reports the outcome of a control-line action.
type actionMsg struct {
	name string
	err  error
}

// MonitorModel is the interactive control-line monitor: a live table of both
// signals plus key bindings to drive them.
type MonitorModel struct {
	port     *ftdiserial.Port
	selector string

	keys   keys.MonitorKeys
	help   help.Model
	status *components.StatusBar
	table  table.Model

	mode ftdiserial.Mode
	raw  byte

	resetAsserted bool
	bootAsserted  bool

	quitting bool
}

func NewMonitorModel(port *ftdiserial.Port, selector string) *MonitorModel {
	columns := []table.Column{
		table.NewColumn(columnKeySignal, "Signal", 13),
		table.NewColumn(columnKeyPin, "Pin", 5),
		table.NewColumn(columnKeyPolarity, "Polarity", 12),
		table.NewColumn(columnKeyLevel, "Level", 7),
		table.NewColumn(columnKeyState, "State", 10),
	}

	t := table.New(columns).
		WithBaseStyle(styles.TableStyle).
		HeaderStyle(styles.TableHeaderStyle).
		BorderRounded()

	m := &MonitorModel{
		port:     port,
		selector: selector,
		keys:     keys.NewMonitorKeys(),
		help:     help.New(),
		status:   components.NewStatusBar(selector, port.Config()),
		table:    t,
	}
	m.table = m.table.WithRows(m.rows())
	return m
}

func (m *MonitorModel) Init() tea.Cmd {
	return tea.Batch(m.poll(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// poll samples the raw pin levels and current mode off the Update loop.
func (m *MonitorModel) poll() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		raw, err := port.Controller().ReadAllPins()
		return pinStateMsg{mode: port.Controller().Mode(), raw: raw, err: err}
	}
}

// action runs one port operation in the background and reports back.
func (m *MonitorModel) action(name string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{name: name, err: fn()}
	}
}

func (m *MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.status.SetWidth(msg.Width)
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.poll(), tick())

	case pinStateMsg:
		if msg.err == nil {
			m.mode = msg.mode
			m.raw = msg.raw
			m.syncFromRaw()
			m.status.SetMode(msg.mode)
			m.table = m.table.WithRows(m.rows())
		}
		return m, nil

	case actionMsg:
		m.status.SetAction(msg.name, msg.err)
		return m, m.poll()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *MonitorModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.ToggleReset):
		asserted := !m.resetAsserted
		m.resetAsserted = asserted
		name := "RESET " + assertWord(asserted)
		return m, m.action(name, func() error { return m.port.SetResetLine(asserted) })

	case key.Matches(msg, m.keys.ToggleBoot):
		asserted := !m.bootAsserted
		m.bootAsserted = asserted
		name := "BOOT_SELECT " + assertWord(asserted)
		return m, m.action(name, func() error { return m.port.SetBootSelectLine(asserted) })

	case key.Matches(msg, m.keys.HardReset):
		return m, m.action("hard reset", m.port.HardReset)

	case key.Matches(msg, m.keys.EnterBootldr):
		return m, m.action("bootloader entry", m.port.EnterBootloader)

	case key.Matches(msg, m.keys.Settle):
		return m, m.action("settled to passthrough", m.port.Settle)
	}
	return m, nil
}

// syncFromRaw recomputes the logical signal states from the sampled levels,
// so externally caused changes (a reset sequence, another process) show up.
func (m *MonitorModel) syncFromRaw() {
	config := m.port.Config()
	m.resetAsserted = pinAsserted(m.raw, config.Reset)
	m.bootAsserted = pinAsserted(m.raw, config.BootSelect)
}

func pinAsserted(raw byte, b ftdiserial.SignalBinding) bool {
	high := raw&(1<<b.Pin) != 0
	return high != b.ActiveLow
}

func (m *MonitorModel) rows() []table.Row {
	config := m.port.Config()
	return []table.Row{
		m.signalRow("RESET", config.Reset, m.resetAsserted),
		m.signalRow("BOOT_SELECT", config.BootSelect, m.bootAsserted),
	}
}

func (m *MonitorModel) signalRow(name string, b ftdiserial.SignalBinding, asserted bool) table.Row {
	level := "LOW"
	if m.raw&(1<<b.Pin) != 0 {
		level = "HIGH"
	}

	polarity := "active-high"
	if b.ActiveLow {
		polarity = "active-low"
	}

	state := table.NewStyledCell("released", styles.ReleasedStyle)
	if asserted {
		state = table.NewStyledCell("ASSERTED", styles.AssertedStyle)
	}

	return table.NewRow(table.RowData{
		columnKeySignal:   name,
		columnKeyPin:      fmt.Sprintf("D%d", b.Pin),
		columnKeyPolarity: polarity,
		columnKeyLevel:    level,
		columnKeyState:    state,
	})
}

func (m *MonitorModel) View() string {
	if m.quitting {
		return ""
	}

	header := lipgloss.JoinHorizontal(lipgloss.Left,
		styles.TitleStyle.Render("control lines"),
		styles.DetailStyle.Render(fmt.Sprintf("port %08b", m.raw)),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.table.View(),
		m.status.View(),
		m.help.View(m.keys),
	)
}

func assertWord(asserted bool) string {
	if asserted {
		return "asserted"
	}
	return "released"
}
