/*
Copyright © 2025 espkit contributors
*/
package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/espkit/ftdiserial/internal/tui/models"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive control-line monitor",
	Long: `Watch and drive the control lines in an interactive terminal UI.

The monitor shows both lines with their pin assignment, polarity, raw
level, and logical state, sampled live from the adapter, plus the
current operating mode. Keys drive the lines directly:

  r   toggle RESET
  b   toggle BOOT_SELECT
  R   run the hard-reset sequence
  B   run the bootloader-entry sequence
  s   force return to UART passthrough
  ?   toggle help
  q   quit

Example usage:
  ftdiserial monitor
  ftdiserial monitor -d 0403:6001 --reset-pin 4`,
	Run: func(cmd *cobra.Command, args []string) {
		port := openPort()
		defer port.Close()

		model := models.NewMonitorModel(port, adapterSelector())
		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error running monitor: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
