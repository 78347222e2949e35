/*
Copyright © 2025 espkit contributors
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/espkit/ftdiserial"
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Stream incoming data from the target",
	Long: `Listen for incoming data on the virtual serial port and print it to
stdout. Runs continuously until interrupted (Ctrl+C).

With --output the data is additionally captured to a file, opened in
append mode so an interrupted capture can be resumed. With --bootloader
the target is reset into its bootloader first, which is handy for
watching boot ROM output.

Example usage:
  ftdiserial listen
  ftdiserial listen -d 0403:6001 --baud 74880
  ftdiserial listen --hex
  ftdiserial listen --output boot.log --bootloader`,
	Run: func(cmd *cobra.Command, args []string) {
		hexMode, _ := cmd.Flags().GetBool("hex")
		timestamps, _ := cmd.Flags().GetBool("timestamps")
		outputPath, _ := cmd.Flags().GetString("output")
		viaBootloader, _ := cmd.Flags().GetBool("bootloader")

		port := openPort()
		defer port.Close()

		var capture *os.File
		if outputPath != "" {
			var err error
			capture, err = os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error opening output file: %v\n", err)
				os.Exit(1)
			}
			defer capture.Close()
		}

		if viaBootloader {
			if err := port.EnterBootloader(); err != nil {
				exitWithSequenceError(err)
			}
			fmt.Fprintln(os.Stderr, "Target reset into bootloader")
		}

		// Stop on Ctrl+C
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-stop
			fmt.Fprintln(os.Stderr, "\nStopping...")
			port.Close()
			if capture != nil {
				capture.Close()
			}
			os.Exit(0)
		}()

		fmt.Fprintf(os.Stderr, "Listening on %s (Ctrl+C to stop)\n", displaySelector(adapterSelector()))

		buf := make([]byte, 4096)
		for {
			n, err := port.Read(buf)
			if err != nil {
				if errors.Is(err, ftdiserial.ErrReadTimeout) {
					continue
				}
				fmt.Fprintf(os.Stderr, "Error reading: %v\n", err)
				os.Exit(1)
			}
			if n == 0 {
				continue
			}

			line := formatChunk(buf[:n], hexMode, timestamps)
			fmt.Print(line)
			if capture != nil {
				if _, err := capture.WriteString(line); err != nil {
					fmt.Fprintf(os.Stderr, "Error writing capture: %v\n", err)
					os.Exit(1)
				}
			}
		}
	},
}

// formatChunk renders one received chunk for display.
func formatChunk(data []byte, hexMode, timestamps bool) string {
	var out strings.Builder
	if timestamps {
		out.WriteString(time.Now().Format("15:04:05.000 "))
	}
	if hexMode {
		for i, b := range data {
			if i > 0 {
				out.WriteByte(' ')
			}
			fmt.Fprintf(&out, "%02x", b)
		}
		out.WriteByte('\n')
	} else {
		out.Write(data)
	}
	return out.String()
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().Bool("hex", false, "Print received bytes as hexadecimal")
	listenCmd.Flags().Bool("timestamps", false, "Prefix each chunk with a timestamp")
	listenCmd.Flags().StringP("output", "o", "", "Capture received data to a file (append mode)")
	listenCmd.Flags().Bool("bootloader", false, "Reset the target into its bootloader first")
}
