/*
Copyright © 2025 espkit contributors
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Hard-reset the attached target",
	Long: `Pulse the RESET control line to restart the attached target into its
normal application.

The RESET line is asserted for the configured pulse duration (see
--reset-pulse) and then released with BOOT_SELECT untouched, so the
target boots from flash as usual.

Examples:
  ftdiserial reset
  ftdiserial reset -d 0403:6001
  ftdiserial reset --reset-pulse 250ms`,
	Run: func(cmd *cobra.Command, args []string) {
		port := openPort()
		defer port.Close()

		fmt.Println("Resetting target...")
		if err := port.HardReset(); err != nil {
			exitWithSequenceError(err)
		}
		fmt.Println("Target reset")
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
