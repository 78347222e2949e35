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

// usbResetCmd represents the usb-reset command
var usbResetCmd = &cobra.Command{
	Use:   "usb-reset",
	Short: "USB-reset the adapter itself",
	Long: `Perform a USB-level reset on the FTDI adapter. This recovers adapters
that are hung or stuck in a broken mode without physically unplugging
them; the attached target is not reset.

The adapter re-enumerates afterwards, which may change its tty path
(/dev/ttyUSB0 might come back as /dev/ttyUSB1). Use a vid:pid:serial
selector to identify adapters reliably across resets.

Examples:
  ftdiserial usb-reset -d /dev/ttyUSB0
  ftdiserial usb-reset -d 0403:6001:A50285BI`,
	Run: func(cmd *cobra.Command, args []string) {
		selector := adapterSelector()

		fmt.Printf("Resetting adapter %s...\n", displaySelector(selector))
		if err := ftdiserial.ResetAdapter(selector); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Adapter reset, device will re-enumerate (tty path may change)")
		fmt.Println("\nUse 'ftdiserial list --table' to see the updated adapter list")
	},
}

func init() {
	rootCmd.AddCommand(usbResetCmd)
}
