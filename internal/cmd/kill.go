package cmd

import (
	"fmt"
	"strconv"

	"github.com/hnisiji/idb/internal/process"
	"github.com/hnisiji/idb/internal/termination"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var killSignal string

var killCmd = &cobra.Command{
	Use:   "kill <udid> <pid>",
	Short: "Signal a process inside a session",
	Long: `Send a termination signal to a process running inside a device
session.

Only direct children of the session's supervisor (launchd_sim) may be
signaled; anything else is refused. With the default signal the process
gets an escalation chain ending in SIGKILL if it will not die.`,
	Args: cobra.ExactArgs(2),
	RunE: runKill,
}

func init() {
	killCmd.Flags().StringVarP(&killSignal, "signal", "s", "term", "signal to send: term, kill, or int")
	rootCmd.AddCommand(killCmd)
}

func runKill(cmd *cobra.Command, args []string) error {
	udid := args[0]
	pid, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid pid %q: %w", args[1], err)
	}

	sig, err := parseSignal(killSignal)
	if err != nil {
		return err
	}

	_, sess, err := loadSession(udid)
	if err != nil {
		return err
	}

	query := process.NewTableQuery()
	sup := query.SupervisorFor(sess.UDID)
	if sup == nil {
		return fmt.Errorf("device %s: supervisor not running; is the session booted?", sess.UDID)
	}

	ppid, ok := query.ParentOf(pid)
	if !ok {
		return fmt.Errorf("device %s: process %d not found", sess.UDID, pid)
	}
	if ppid != sup.Pid {
		return fmt.Errorf("device %s: refusing to signal pid %d: parent %d is not the session supervisor %d",
			sess.UDID, pid, ppid, sup.Pid)
	}

	md := query.InfoFor(pid)
	if md == nil {
		return fmt.Errorf("device %s: process %d not found", sess.UDID, pid)
	}

	killer := termination.NewBackoffStrategy()
	if err := killer.Kill(*md, sig); err != nil {
		return fmt.Errorf("failed to kill pid %d: %w", pid, err)
	}

	fmt.Printf("Killed %s (pid %d).\n", md.Name, pid)
	return nil
}

func parseSignal(name string) (unix.Signal, error) {
	switch name {
	case "term":
		return unix.SIGTERM, nil
	case "kill":
		return unix.SIGKILL, nil
	case "int":
		return unix.SIGINT, nil
	default:
		return 0, fmt.Errorf("unknown signal %q: expected term, kill, or int", name)
	}
}
