package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hnisiji/idb/internal/simctl"
	"github.com/spf13/cobra"
)

var devicesAll bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List simulator devices",
	Long:  `List the simulator devices known to the local runtime, with their UDIDs and states.`,
	RunE:  runDevices,
}

func init() {
	devicesCmd.Flags().BoolVarP(&devicesAll, "all", "a", false, "include unavailable devices")
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	devices, err := simctl.New().List()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tUDID\tSTATE\tRUNTIME")
	_, _ = fmt.Fprintln(w, "----\t----\t-----\t-------")

	shown := 0
	for _, dev := range devices {
		if !dev.IsAvailable && !devicesAll {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", dev.Name, dev.UDID, dev.State, dev.Runtime)
		shown++
	}
	_ = w.Flush()

	if shown == 0 {
		fmt.Println("No available devices. Use --all to include unavailable ones.")
	}
	return nil
}
