package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hnisiji/idb/internal/config"
	"github.com/hnisiji/idb/internal/session"
	"github.com/spf13/cobra"
)

var (
	bootStrategy string
	bootName     string
)

var bootCmd = &cobra.Command{
	Use:   "boot <udid>",
	Short: "Boot a simulator device session",
	Long: `Boot a simulator device and verify the session is usable.

Two strategies are available:
  direct       boot the device runtime headless, with the framebuffer
               and HID registration endpoint owned by idb (default)
  application  launch the Simulator container application and let it
               boot the device

Either way, the boot is only reported successful once the session's
supervisor (launchd_sim) is observable and every required service is
running underneath it.

Examples:
  idb boot F9266A2E-3B45-4C11-9E10-7A3F0E2B61D4
  idb boot F9266A2E-3B45-4C11-9E10-7A3F0E2B61D4 --strategy application`,
	Args: cobra.ExactArgs(1),
	RunE: runBoot,
}

func init() {
	bootCmd.Flags().StringVarP(&bootStrategy, "strategy", "s", "", "boot strategy: direct or application (default from config)")
	bootCmd.Flags().StringVarP(&bootName, "name", "n", "", "display name for the session")
	rootCmd.AddCommand(bootCmd)
}

func runBoot(cmd *cobra.Command, args []string) error {
	udid := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	Debug("Config loaded successfully")

	store, err := session.NewStore()
	if err != nil {
		return fmt.Errorf("failed to access session store: %w", err)
	}
	if existing, err := store.LoadByUDID(udid); err == nil && existing.State != session.StateShutdown {
		return fmt.Errorf("device %s already has session %s in state %s", udid, existing.ID, existing.State)
	}

	strategy := bootStrategy
	if strategy == "" {
		strategy = cfg.Boot.Strategy
	}
	required := cfg.Boot.RequiredServices
	if len(required) == 0 {
		required = config.DefaultRequiredServices
	}

	sess := &session.Session{
		ID:               uuid.New().String()[:8],
		UDID:             udid,
		Name:             bootName,
		State:            session.StateShutdown,
		BootStrategy:     strategy,
		RequiredServices: required,
		StartedAt:        time.Now(),
	}

	controller, err := buildController(sess, cfg)
	if err != nil {
		return err
	}
	defer controller.Close()

	fmt.Printf("Booting device %s (strategy: %s)...\n", udid, strategy)
	if err := controller.Boot(); err != nil {
		return fmt.Errorf("boot failed: %w", err)
	}

	if err := store.Save(sess); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	fmt.Printf("Session %s booted (supervisor pid %d).\n", sess.ID, sess.SupervisorPID)
	return nil
}
