/*
Copyright © 2025 espkit contributors
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/espkit/ftdiserial"
)

// signalsCmd represents the signals command
var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Display current control-line states",
	Long: `Display the current state of the synthesized control lines.

Shows the raw level of every adapter data pin plus the logical state of
the RESET and BOOT_SELECT lines as derived from the configured wiring.

Examples:
  ftdiserial signals
  ftdiserial signals -d 0403:6001

Pin meanings in bitbang mode:
  D0 - TXD   D4 - DTR
  D1 - RXD   D5 - DSR
  D2 - RTS   D6 - DCD
  D3 - CTS   D7 - RI`,
	Run: func(cmd *cobra.Command, args []string) {
		port := openPort()
		defer port.Close()

		raw, err := port.Controller().ReadAllPins()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading pins: %v\n", err)
			os.Exit(1)
		}

		config := port.Config()
		fmt.Printf("Control lines (%s):\n\n", displaySelector(adapterSelector()))
		printLineState("RESET", config.Reset, raw)
		printLineState("BOOT_SELECT", config.BootSelect, raw)
		fmt.Printf("\n  Raw pin levels: %08b (D7..D0)\n", raw)
		fmt.Printf("  Adapter mode:   %s\n", port.Controller().Mode())
	},
}

func printLineState(name string, b ftdiserial.SignalBinding, raw byte) {
	high := raw&(1<<b.Pin) != 0
	asserted := high != b.ActiveLow
	fmt.Printf("  %-12s pin D%d (%s): level %s, %s\n",
		name, b.Pin, polarityWord(b.ActiveLow),
		formatLevel(high), formatLineState(asserted))
}

func formatLevel(high bool) string {
	if high {
		return "HIGH"
	}
	return "LOW"
}

func formatLineState(asserted bool) string {
	if asserted {
		return "ASSERTED"
	}
	return "released"
}

// parseLineState understands the usual spellings for a binary line state.
func parseLineState(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "assert", "asserted", "on", "high", "true", "1":
		return true, nil
	case "release", "released", "deassert", "off", "low", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid state %q (use assert or release)", s)
	}
}

func init() {
	rootCmd.AddCommand(signalsCmd)
}
