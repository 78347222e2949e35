/*
Copyright © 2025 espkit contributors
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/espkit/ftdiserial"
)

// bootloaderCmd represents the bootloader command
var bootloaderCmd = &cobra.Command{
	Use:   "bootloader",
	Short: "Reset the attached target into its bootloader",
	Long: `Run the timed bootloader-entry sequence on the control lines.

BOOT_SELECT is asserted, RESET is pulsed, and BOOT_SELECT is held through
the window in which the target samples it, so the target comes up in its
serial bootloader instead of the normal application. Afterwards both
lines are released and the port is ready for byte traffic to the
bootloader.

The hold durations are tunable with --reset-pulse and --boot-sample for
targets with unusual timing.

Examples:
  ftdiserial bootloader
  ftdiserial bootloader -d /dev/ttyUSB0
  ftdiserial bootloader --boot-sample 100ms`,
	Run: func(cmd *cobra.Command, args []string) {
		port := openPort()
		defer port.Close()

		fmt.Println("Entering bootloader...")
		if err := port.EnterBootloader(); err != nil {
			exitWithSequenceError(err)
		}
		fmt.Println("Target is in bootloader mode")
	},
}

// exitWithSequenceError reports a failed reset sequence, naming the step that
// failed when that is known.
func exitWithSequenceError(err error) {
	var seqErr *ftdiserial.ResetSequenceError
	if errors.As(err, &seqErr) {
		fmt.Fprintf(os.Stderr, "Error: %s failed at step %d (%s): %v\n",
			seqErr.Sequence, seqErr.Step, seqErr.Name, seqErr.Err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

func init() {
	rootCmd.AddCommand(bootloaderCmd)
}
