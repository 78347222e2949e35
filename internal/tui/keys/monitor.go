package keys

import "github.com/charmbracelet/bubbles/key"

// Key bindings for the line monitor
type MonitorKeys struct {
	Quit         key.Binding
	Help         key.Binding
	ToggleReset  key.Binding
	ToggleBoot   key.Binding
	HardReset    key.Binding
	EnterBootldr key.Binding
	Settle       key.Binding
}

func NewMonitorKeys() MonitorKeys {
	return MonitorKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		ToggleReset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "toggle RESET"),
		),
		ToggleBoot: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "toggle BOOT_SELECT"),
		),
		HardReset: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "hard reset"),
		),
		EnterBootldr: key.NewBinding(
			key.WithKeys("B"),
			key.WithHelp("B", "enter bootloader"),
		),
		Settle: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "settle to passthrough"),
		),
	}
}

func (k MonitorKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleReset, k.ToggleBoot, k.HardReset, k.EnterBootldr, k.Help, k.Quit}
}

func (k MonitorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ToggleReset, k.ToggleBoot, k.Settle},
		{k.HardReset, k.EnterBootldr},
		{k.Help, k.Quit},
	}
}
