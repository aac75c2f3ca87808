package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hnisiji/idb/internal/config"
	"github.com/hnisiji/idb/internal/simctl"
	"github.com/spf13/cobra"
)

var serviceCmd = &cobra.Command{
	Use:   "service <udid> [name-substring]",
	Short: "Inspect services running inside a session",
	Long: `Without a substring, list the services the session's supervisor is
running. With one, resolve the single service whose name contains it to
full process metadata; an ambiguous substring is an error.

Examples:
  idb service F9266A2E-...
  idb service F9266A2E-... SpringBoard`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(serviceCmd)
}

func runService(cmd *cobra.Command, args []string) error {
	udid := args[0]

	if len(args) == 1 {
		return listServices(udid)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	_, sess, err := loadSession(udid)
	if err != nil {
		return err
	}

	controller, err := buildController(sess, cfg)
	if err != nil {
		return err
	}
	defer controller.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.FastTimeout())
	defer cancel()
	md, err := controller.LookupService(args[1]).Wait(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s\tpid %d\tppid %d\n", md.Name, md.Pid, md.ParentPid)
	return nil
}

func listServices(udid string) error {
	table, err := simctl.New().ServiceTable(udid)
	if err != nil {
		return fmt.Errorf("failed to read service table: %w", err)
	}

	if len(table) == 0 {
		fmt.Println("No running services.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PID\tSERVICE")
	_, _ = fmt.Fprintln(w, "---\t-------")
	for _, entry := range table {
		_, _ = fmt.Fprintf(w, "%d\t%s\n", entry.Pid, entry.Name)
	}
	_ = w.Flush()
	return nil
}
