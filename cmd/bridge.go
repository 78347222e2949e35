/*
Copyright © 2025 espkit contributors
*/
package cmd

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/espkit/ftdiserial/internal/rfc2217"
)

// bridgeCmd represents the bridge command
var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Expose the port over the network (RFC 2217)",
	Long: `Serve the virtual serial port over TCP using the RFC 2217 Telnet
COM-PORT-OPTION protocol.

Flashing tools that speak rfc2217:// can then use the adapter remotely,
including its reset wiring: a client's DTR requests drive BOOT_SELECT
and its RTS requests drive RESET, the same mapping such tools use
against a development board's auto-reset circuit. Baud rate changes and
buffer purges requested by the client are applied to the adapter.

One client is served at a time.

Example usage:
  ftdiserial bridge
  ftdiserial bridge --listen :4000
  ftdiserial bridge -d 0403:6001 --listen 127.0.0.1:5333

Then, from the client side:
  esptool --port rfc2217://host:4000 flash-id`,
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("listen")

		port := openPort()
		defer port.Close()

		l, err := net.Listen("tcp", addr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listening on %s: %v\n", addr, err)
			os.Exit(1)
		}
		defer l.Close()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-stop
			fmt.Fprintln(os.Stderr, "\nStopping bridge...")
			l.Close()
			port.Close()
			os.Exit(0)
		}()

		fmt.Printf("Serving %s on %s (Ctrl+C to stop)\n",
			displaySelector(adapterSelector()), l.Addr())

		srv := rfc2217.New(port, viper.GetInt("baud"))
		if err := srv.Serve(l); err != nil {
			fmt.Fprintf(os.Stderr, "Error serving: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(bridgeCmd)

	bridgeCmd.Flags().String("listen", "localhost:4000", "TCP address to listen on")
}
