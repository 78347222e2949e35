/*
Copyright © 2025 espkit contributors
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// resetLineCmd represents the reset-line command
var resetLineCmd = &cobra.Command{
	Use:   "reset-line <state>",
	Short: "Control the RESET line directly",
	Long: `Manually assert or release the RESET control line.

Unlike the reset command this does no timing: the line is driven to the
requested state and left there. Useful for holding a target in reset
while working on it, or for driving custom sequences from scripts.

The port stays in bit i/o mode briefly and returns to UART passthrough
on its own once the line has settled.

Examples:
  ftdiserial reset-line assert
  ftdiserial reset-line release
  ftdiserial reset-line on -d /dev/ttyUSB0

Valid states: assert, release, on, off, high, low, true, false, 1, 0`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		asserted, err := parseLineState(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		port := openPort()
		defer port.Close()

		if err := port.SetResetLine(asserted); err != nil {
			fmt.Fprintf(os.Stderr, "Error setting RESET: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("RESET %s\n", formatLineState(asserted))
	},
}

func init() {
	rootCmd.AddCommand(resetLineCmd)
}
