package cmd

import (
	"fmt"
	"os"

	"github.com/hnisiji/idb/internal/config"
	"github.com/hnisiji/idb/internal/events"
	"github.com/hnisiji/idb/internal/launcher"
	"github.com/hnisiji/idb/internal/session"
	"github.com/hnisiji/idb/internal/simctl"
	"github.com/hnisiji/idb/internal/simulator"
)

// buildController wires a lifecycle controller for a session from the
// loaded configuration: simctl as the device runtime, the lifecycle
// event stream printed as progress lines.
func buildController(sess *session.Session, cfg *config.Config) (*simulator.Controller, error) {
	// Set debug env var for subpackages
	if debug {
		_ = os.Setenv("IDB_DEBUG", "1")
	}

	if err := config.EnsureConfigDir(); err != nil {
		return nil, fmt.Errorf("failed to prepare config directory: %w", err)
	}
	portsDir, err := config.PortsDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ports directory: %w", err)
	}

	sink := events.SinkFunc(func(e events.Event) {
		fmt.Printf("  %s\n", e)
	})

	return simulator.NewController(sess, simulator.ControllerOptions{
		Runtime:  simctl.New(),
		Sink:     sink,
		PortsDir: portsDir,
		Timeouts: simulator.Timeouts{
			Fast:          cfg.Timeouts.FastTimeout(),
			State:         cfg.Timeouts.StateTimeout(),
			Slow:          cfg.Timeouts.SlowTimeout(),
			FastInterval:  cfg.Timeouts.FastPollInterval(),
			StateInterval: cfg.Timeouts.StatePollInterval(),
			SlowInterval:  cfg.Timeouts.SlowPollInterval(),
		},
		Launcher: simulator.LauncherOptions{
			AppPath:       cfg.Launcher.AppPath,
			Mechanism:     launcher.Mechanism(cfg.Launcher.Mechanism),
			DeviceSetPath: cfg.Launcher.DeviceSetPath,
		},
	}), nil
}

// loadSession finds the persisted session for a device UDID.
func loadSession(udid string) (*session.Store, *session.Session, error) {
	store, err := session.NewStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access session store: %w", err)
	}
	sess, err := store.LoadByUDID(udid)
	if err != nil {
		return nil, nil, err
	}
	return store, sess, nil
}
