/*
Copyright © 2025 espkit contributors
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/espkit/ftdiserial"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected FTDI adapters",
	Long: `List FTDI UART adapters connected to this machine.

Known FTDI product ids are recognized automatically (FT232R, FT2232H,
FT4232H, FT232H, FT231X). Adapters with a reprogrammed product id do not
show up here but can still be opened with an explicit vid:pid selector.

The Selector column shows the string to pass via --device to address a
particular adapter.`,
	Run: func(cmd *cobra.Command, args []string) {
		adapters, err := ftdiserial.ListAdapters()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing adapters: %v\n", err)
			os.Exit(1)
		}

		if len(adapters) == 0 {
			fmt.Println("No FTDI adapters found")
			return
		}

		tableFormat, _ := cmd.Flags().GetBool("table")
		if tableFormat {
			renderAdapterTable(adapters)
		} else {
			for _, a := range adapters {
				fmt.Println(a.Selector())
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// renderAdapterTable renders the adapter list in a styled static table format
func renderAdapterTable(adapters []ftdiserial.AdapterInfo) {
	fmt.Printf("Found %d FTDI adapter(s):\n\n", len(adapters))

	busWidth := 9
	chipWidth := 10
	selWidth := 26
	serialWidth := 16

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240")).
		PaddingBottom(1)

	cellStyle := lipgloss.NewStyle().
		PaddingRight(2)

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s",
		busWidth, "Bus:Addr",
		chipWidth, "Chip",
		selWidth, "Selector",
		serialWidth, "Serial")
	fmt.Println(headerStyle.Render(header))

	for _, a := range adapters {
		serial := a.SerialNumber
		if serial == "" {
			serial = "-"
		}
		row := fmt.Sprintf("%-*s %-*s %-*s %-*s",
			busWidth, fmt.Sprintf("%d:%d", a.Bus, a.Address),
			chipWidth, a.Description,
			selWidth, a.Selector(),
			serialWidth, serial)
		fmt.Println(cellStyle.Render(row))
	}
}
