package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hnisiji/idb/internal/session"
	"github.com/spf13/cobra"
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List device sessions",
	Long:  `List all known device sessions with their state and details.`,
	RunE:  runPs,
}

func init() {
	rootCmd.AddCommand(psCmd)
}

func runPs(cmd *cobra.Command, args []string) error {
	store, err := session.NewStore()
	if err != nil {
		return fmt.Errorf("failed to access session store: %w", err)
	}

	sessions, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions.")
		return nil
	}

	// Create tabwriter for aligned output
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tUDID\tSTATE\tSTRATEGY\tSUPERVISOR\tSTARTED")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t--------\t----------\t-------")

	for _, sess := range sessions {
		started := sess.StartedAt.Format("2006-01-02 15:04:05")
		supervisor := "-"
		if sess.SupervisorPID != 0 {
			supervisor = fmt.Sprintf("%d", sess.SupervisorPID)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			sess.ID,
			sess.UDID,
			sess.State,
			sess.BootStrategy,
			supervisor,
			started,
		)
	}

	_ = w.Flush()
	return nil
}
