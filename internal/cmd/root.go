package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

// Debug prints a message if debug mode is enabled
func Debug(format string, args ...interface{}) {
	if debug {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

var rootCmd = &cobra.Command{
	Use:   "idb",
	Short: "idb - iOS simulator session manager",
	Long: `idb manages iOS simulator device sessions: booting, process
launches, service lookup, and shutdown.

Boot a device session:
  idb boot <udid>
  idb boot <udid> --strategy application

List sessions and devices:
  idb ps
  idb devices

Run processes inside a session:
  idb launch <udid> /path/to/agent -- arg1 arg2
  idb kill <udid> <pid>

Shut a session down:
  idb shutdown <udid>`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.idb/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initConfig() {
	// Config is loaded on-demand in subcommands
}
