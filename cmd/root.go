/*
Copyright © 2025 espkit contributors
*/
package cmd

import (
	goflag "flag"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/espkit/ftdiserial"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ftdiserial",
	Short: "Virtual serial port with reset control over FTDI adapters",
	Long: `ftdiserial drives plain FTDI UART adapters as if they had dedicated
reset wiring: two bitbang pins stand in for the RESET and BOOT_SELECT
lines of an attached microcontroller, and the adapter is flipped between
UART passthrough and bit i/o mode behind the scenes.

Adapters are addressed with a selector, given via --device:
  (empty)              first FTDI adapter found
  0403:6001            by USB vendor and product id
  0403:6001:A50285BI   same, narrowed by serial number
  /dev/ttyUSB0         by tty path, resolved through sysfs

Pin wiring, polarities, and reset timing are tunable per board; see the
persistent flags. Settings may also come from a config file or from
FTDISERIAL_* environment variables.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ftdiserial.yaml)")
	rootCmd.PersistentFlags().StringP("device", "d", "", "adapter selector: vid:pid[:serial] or /dev/ttyUSB* path")
	rootCmd.PersistentFlags().IntP("baud", "b", 115200, "UART baud rate")
	rootCmd.PersistentFlags().Int("reset-pin", 3, "bitbang pin wired to the target's RESET")
	rootCmd.PersistentFlags().Int("boot-pin", 2, "bitbang pin wired to the target's BOOT_SELECT")
	rootCmd.PersistentFlags().Bool("reset-active-high", false, "RESET asserts high instead of low")
	rootCmd.PersistentFlags().Bool("boot-active-high", false, "BOOT_SELECT asserts high instead of low")
	rootCmd.PersistentFlags().Duration("reset-pulse", 100*time.Millisecond, "how long RESET is held during sequences")
	rootCmd.PersistentFlags().Duration("boot-sample", 50*time.Millisecond, "settle time for the target to sample BOOT_SELECT")
	rootCmd.PersistentFlags().Duration("read-timeout", 5*time.Second, "UART read timeout")

	for _, name := range []string{
		"device", "baud",
		"reset-pin", "boot-pin", "reset-active-high", "boot-active-high",
		"reset-pulse", "boot-sample", "read-timeout",
	} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	// glog's -v, -logtostderr and friends
	rootCmd.PersistentFlags().AddGoFlagSet(goflag.CommandLine)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".ftdiserial" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ftdiserial")
	}

	viper.SetEnvPrefix("FTDISERIAL")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// adapterSelector returns the configured adapter selector string.
func adapterSelector() string {
	return viper.GetString("device")
}

// portOptions translates the resolved configuration into port options.
func portOptions() []ftdiserial.Option {
	return []ftdiserial.Option{
		ftdiserial.WithBaudRate(viper.GetInt("baud")),
		ftdiserial.WithResetBinding(ftdiserial.SignalBinding{
			Pin:       uint8(viper.GetInt("reset-pin")),
			ActiveLow: !viper.GetBool("reset-active-high"),
		}),
		ftdiserial.WithBootSelectBinding(ftdiserial.SignalBinding{
			Pin:       uint8(viper.GetInt("boot-pin")),
			ActiveLow: !viper.GetBool("boot-active-high"),
		}),
		ftdiserial.WithResetPulse(viper.GetDuration("reset-pulse")),
		ftdiserial.WithBootSample(viper.GetDuration("boot-sample")),
		ftdiserial.WithReadTimeout(viper.GetDuration("read-timeout")),
	}
}

// openPort opens the configured adapter, exiting with a message on failure.
func openPort() *ftdiserial.Port {
	port, err := ftdiserial.Open(adapterSelector(), portOptions()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening adapter: %v\n", err)
		os.Exit(1)
	}
	return port
}
