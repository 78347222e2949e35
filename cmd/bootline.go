/*
Copyright © 2025 espkit contributors
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// bootLineCmd represents the boot-line command
var bootLineCmd = &cobra.Command{
	Use:   "boot-line <state>",
	Short: "Control the BOOT_SELECT line directly",
	Long: `Manually assert or release the BOOT_SELECT control line.

The line is driven to the requested state and left there; the target
only acts on it the next time it comes out of reset. Combine with
reset-line to build custom entry sequences:

  ftdiserial boot-line assert
  ftdiserial reset-line assert
  ftdiserial reset-line release
  ftdiserial boot-line release

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

		if err := port.SetBootSelectLine(asserted); err != nil {
			fmt.Fprintf(os.Stderr, "Error setting BOOT_SELECT: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("BOOT_SELECT %s\n", formatLineState(asserted))
	},
}

func init() {
	rootCmd.AddCommand(bootLineCmd)
}
