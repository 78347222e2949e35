/*
Copyright © 2025 espkit contributors
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/espkit/ftdiserial"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display the configured adapter and control-line wiring",
	Long: `Display the adapter selected by --device along with the effective
control-line wiring and reset timing.

Examples:
  ftdiserial info
  ftdiserial info -d 0403:6001
  ftdiserial info -d /dev/ttyUSB0 --reset-pin 4`,
	Run: func(cmd *cobra.Command, args []string) {
		adapters, err := ftdiserial.ListAdapters()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing adapters: %v\n", err)
			os.Exit(1)
		}

		selector := adapterSelector()
		fmt.Printf("Adapter selector: %s\n\n", displaySelector(selector))

		if len(adapters) == 0 {
			fmt.Println("No FTDI adapters connected")
		} else {
			fmt.Println("Connected adapters:")
			for _, a := range adapters {
				marker := " "
				if selector == "" || a.Selector() == selector {
					marker = "*"
				}
				serial := a.SerialNumber
				if serial == "" {
					serial = "-"
				}
				fmt.Printf("  %s bus %d addr %d  %-8s  %s  serial %s\n",
					marker, a.Bus, a.Address, a.Description, a.Selector(), serial)
			}
		}

		config := ftdiserial.DefaultConfig()
		for _, opt := range portOptions() {
			if err := opt(&config); err != nil {
				fmt.Fprintf(os.Stderr, "Error in configuration: %v\n", err)
				os.Exit(1)
			}
		}

		fmt.Println("\nControl-line wiring:")
		fmt.Printf("  RESET:       pin D%d, %s\n", config.Reset.Pin, polarityWord(config.Reset.ActiveLow))
		fmt.Printf("  BOOT_SELECT: pin D%d, %s\n", config.BootSelect.Pin, polarityWord(config.BootSelect.ActiveLow))

		fmt.Println("\nReset timing:")
		fmt.Printf("  Reset pulse:   %s\n", config.ResetPulse)
		fmt.Printf("  Boot sample:   %s\n", config.BootSample)
		fmt.Printf("  Idle return:   %s\n", config.IdleThreshold)

		fmt.Println("\nUART:")
		fmt.Printf("  Baud rate:     %d\n", config.BaudRate)
		fmt.Printf("  Framing:       %d data, %d stop\n", config.DataBits, config.StopBits)
		fmt.Printf("  Read timeout:  %s\n", config.ReadTimeout)
	},
}

func polarityWord(activeLow bool) string {
	if activeLow {
		return "active-low"
	}
	return "active-high"
}

func displaySelector(selector string) string {
	if selector == "" {
		return "(first FTDI adapter)"
	}
	return selector
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
