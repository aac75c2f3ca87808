package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

// Mechanism selects how the container application is brought up.
type Mechanism string

const (
	// Subprocess spawns the application binary directly as a child of
	// this process, so its exit can be awaited.
	Subprocess Mechanism = "subprocess"

	// DesktopLaunch hands the bundle to the desktop launch services
	// ("open"), which detaches it from this process tree.
	DesktopLaunch Mechanism = "open"
)

func debugLog(format string, args ...interface{}) {
	if os.Getenv("IDB_DEBUG") == "1" {
		fmt.Printf("[DEBUG:LAUNCHER] "+format+"\n", args...)
	}
}

// Task is a handle to a launched outer process. Pid is zero when the
// launch mechanism detaches the process (desktop launch), in which case
// the caller must resolve the real pid through the process table.
type Task struct {
	Pid int

	// Cmd is non-nil only for subprocess launches; the caller owns
	// reaping it.
	Cmd *exec.Cmd
}

// LaunchApp starts the container application bundle with the given
// arguments and environment using the selected mechanism.
func LaunchApp(appPath string, args []string, env map[string]string, mech Mechanism) (*Task, error) {
	switch mech {
	case Subprocess:
		return launchSubprocess(appPath, args, env)
	case DesktopLaunch:
		return launchDesktop(appPath, args)
	default:
		return nil, fmt.Errorf("unknown launch mechanism %q", mech)
	}
}

func launchSubprocess(appPath string, args []string, env map[string]string) (*Task, error) {
	binary := bundleBinary(appPath)
	cmd := exec.Command(binary, args...)
	cmd.Env = append(os.Environ(), flattenEnv(env)...)

	debugLog("Spawning %s %v", binary, args)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to spawn %s: %w", binary, err)
	}
	return &Task{Pid: cmd.Process.Pid, Cmd: cmd}, nil
}

func launchDesktop(appPath string, args []string) (*Task, error) {
	openArgs := append([]string{"-a", appPath, "--args"}, args...)

	debugLog("open %v", openArgs)
	cmd := exec.Command("open", openArgs...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w (%s)", appPath, err, output)
	}
	// open exits once the launch is handed off; the application's own
	// pid must be looked up afterwards.
	return &Task{}, nil
}

// bundleBinary resolves the executable inside an application bundle,
// falling back to the path itself for a bare binary.
func bundleBinary(appPath string) string {
	if filepath.Ext(appPath) != ".app" {
		return appPath
	}
	name := filepath.Base(appPath)
	name = name[:len(name)-len(".app")]
	return filepath.Join(appPath, "Contents", "MacOS", name)
}

// flattenEnv converts an environment map to KEY=VALUE form with stable
// ordering.
func flattenEnv(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	flat := make([]string, 0, len(keys))
	for _, k := range keys {
		flat = append(flat, k+"="+env[k])
	}
	return flat
}
