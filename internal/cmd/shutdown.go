package cmd

import (
	"fmt"

	"github.com/hnisiji/idb/internal/config"
	"github.com/spf13/cobra"
)

var shutdownCmd = &cobra.Command{
	Use:   "shutdown <udid>",
	Short: "Shut a device session down",
	Long: `Shut down a booted device session.

Every process the session owns is terminated with escalating signals,
the supervisor last, before the device runtime itself is shut down.`,
	Args: cobra.ExactArgs(1),
	RunE: runShutdown,
}

func init() {
	rootCmd.AddCommand(shutdownCmd)
}

func runShutdown(cmd *cobra.Command, args []string) error {
	udid := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, sess, err := loadSession(udid)
	if err != nil {
		return err
	}

	controller, err := buildController(sess, cfg)
	if err != nil {
		return err
	}
	defer controller.Close()

	fmt.Printf("Shutting down device %s...\n", udid)
	if err := controller.Shutdown(); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	if err := store.Save(sess); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	fmt.Printf("Session %s shut down.\n", sess.ID)
	return nil
}
