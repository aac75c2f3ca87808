package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hnisiji/idb/internal/config"
	"github.com/hnisiji/idb/internal/launcher"
	"github.com/hnisiji/idb/internal/simulator"
	"github.com/spf13/cobra"
)

var (
	launchBundleID   string
	launchEnv        []string
	launchStdoutPath string
	launchStderrPath string
)

var launchCmd = &cobra.Command{
	Use:   "launch <udid> <executable> [args...]",
	Short: "Launch a process inside a booted session",
	Long: `Launch an agent executable (or, with --app, an application bundle)
inside a booted device session and wait for it to terminate.

The exit is classified: completed runs and terminations by SIGTERM or
SIGKILL are expected; any other signal death is reported as a crash.

Examples:
  idb launch F9266A2E-... /usr/bin/log stream
  idb launch F9266A2E-... --app com.example.MyApp
  idb launch F9266A2E-... /tmp/agent --stdout /tmp/agent.log`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLaunch,
}

func init() {
	launchCmd.Flags().StringVar(&launchBundleID, "app", "", "launch an application bundle by identifier instead of an executable")
	launchCmd.Flags().StringArrayVarP(&launchEnv, "env", "e", []string{}, "environment variables as KEY=VALUE (repeatable)")
	launchCmd.Flags().StringVar(&launchStdoutPath, "stdout", "", "capture stdout to a file")
	launchCmd.Flags().StringVar(&launchStderrPath, "stderr", "", "capture stderr to a file")
	rootCmd.AddCommand(launchCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	udid := args[0]

	procCfg, err := launchConfig(args[1:])
	if err != nil {
		return err
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

	op, err := controller.Launch(procCfg)
	if err != nil {
		return err
	}
	defer op.Release()

	md := op.Process()
	fmt.Printf("Launched %s (pid %d). Waiting for exit...\n", procCfg.Name(), md.Pid)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	status, err := op.Future().Wait(ctx)
	if err != nil {
		return fmt.Errorf("interrupted waiting for %s: %w", procCfg.Name(), err)
	}

	if simulator.IsExpectedTermination(status) {
		fmt.Printf("%s exited (status %#x).\n", procCfg.Name(), status)
		return nil
	}
	return fmt.Errorf("%s terminated abnormally (status %#x)", procCfg.Name(), status)
}

func launchConfig(rest []string) (launcher.ProcessConfig, error) {
	env := make(map[string]string, len(launchEnv))
	for _, kv := range launchEnv {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return launcher.ProcessConfig{}, fmt.Errorf("invalid --env value %q: expected KEY=VALUE", kv)
		}
		env[parts[0]] = parts[1]
	}

	cfg := launcher.ProcessConfig{
		Env:        env,
		StdoutPath: launchStdoutPath,
		StderrPath: launchStderrPath,
	}
	if launchBundleID != "" {
		cfg.Kind = launcher.Application
		cfg.BundleID = launchBundleID
		cfg.Args = rest
		return cfg, nil
	}

	if len(rest) == 0 {
		return launcher.ProcessConfig{}, fmt.Errorf("an executable path is required (or use --app)")
	}
	cfg.Kind = launcher.Agent
	cfg.Path = rest[0]
	cfg.Args = rest[1:]
	return cfg, nil
}
