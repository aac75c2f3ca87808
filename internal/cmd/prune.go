package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hnisiji/idb/internal/config"
	"github.com/hnisiji/idb/internal/framebuffer"
	"github.com/hnisiji/idb/internal/session"
	"github.com/spf13/cobra"
)

var pruneAll bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Clean up session records and stale endpoints",
	Long: `Clean up finished session records to free the store.

This command removes:
  - Shut-down session records
  - Leftover framebuffer surfaces and registration sockets`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().BoolVarP(&pruneAll, "all", "a", false, "remove all session records (including booted)")
}

func runPrune(cmd *cobra.Command, args []string) error {
	fmt.Println("Cleaning up sessions and endpoints...")

	store, err := session.NewStore()
	if err != nil {
		return fmt.Errorf("failed to access session store: %w", err)
	}

	sessions, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	removedCount := 0
	for _, sess := range sessions {
		if pruneAll || sess.State == session.StateShutdown {
			if err := store.Delete(sess.ID); err != nil {
				fmt.Printf("Warning: failed to delete session %s: %v\n", sess.ID, err)
			} else {
				fmt.Printf("Removed session: %s\n", sess.ID)
				removedCount++
			}
		}
	}

	if removedCount == 0 {
		fmt.Println("No sessions to remove.")
	} else {
		fmt.Printf("Removed %d session(s).\n", removedCount)
	}

	// Surfaces and sockets from crashed runs survive their sessions.
	portsDir, err := config.PortsDir()
	if err != nil {
		return nil
	}
	entries, err := os.ReadDir(portsDir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		stale := entry.Name() == framebuffer.HIDRegistrationService
		switch filepath.Ext(entry.Name()) {
		case ".surface", ".sock":
			stale = true
		}
		if stale {
			path := filepath.Join(portsDir, entry.Name())
			if err := os.Remove(path); err != nil {
				fmt.Printf("Warning: failed to remove %s: %v\n", path, err)
			} else {
				Debug("Removed stale endpoint file %s", path)
			}
		}
	}

	return nil
}
