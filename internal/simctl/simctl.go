// Package simctl binds the lifecycle engine to the CoreSimulator
// runtime through the xcrun simctl command-line tool.
package simctl

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/hnisiji/idb/internal/launcher"
	"github.com/hnisiji/idb/internal/simulator"
)

func debugLog(format string, args ...interface{}) {
	if os.Getenv("IDB_DEBUG") == "1" {
		fmt.Printf("[DEBUG:SIMCTL] "+format+"\n", args...)
	}
}

// Device is one simulator device from simctl list.
type Device struct {
	Name        string `json:"name"`
	UDID        string `json:"udid"`
	State       string `json:"state"`
	IsAvailable bool   `json:"isAvailable"`
	Runtime     string `json:"-"`
}

type listOutput struct {
	Devices map[string][]Device `json:"devices"`
}

// Client implements simulator.DeviceRuntime over xcrun simctl.
type Client struct {
	// run is replaced in tests to feed canned tool output.
	run func(args ...string) ([]byte, error)
}

// New creates a simctl client.
func New() *Client {
	return &Client{
		run: func(args ...string) ([]byte, error) {
			out, err := exec.Command("xcrun", append([]string{"simctl"}, args...)...).Output()
			if err != nil {
				if exitErr, ok := err.(*exec.ExitError); ok {
					return nil, fmt.Errorf("simctl %s: %w (%s)", args[0], err, strings.TrimSpace(string(exitErr.Stderr)))
				}
				return nil, fmt.Errorf("simctl %s: %w", args[0], err)
			}
			return out, nil
		},
	}
}

// List returns all known simulator devices.
func (c *Client) List() ([]Device, error) {
	out, err := c.run("list", "devices", "-j")
	if err != nil {
		return nil, err
	}
	return parseDeviceList(out)
}

func parseDeviceList(out []byte) ([]Device, error) {
	var parsed listOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse device list: %w", err)
	}

	var devices []Device
	for runtime, devs := range parsed.Devices {
		for _, d := range devs {
			d.Runtime = runtime
			devices = append(devices, d)
		}
	}
	return devices, nil
}

// State reports a device's current boot state.
func (c *Client) State(udid string) (string, error) {
	devices, err := c.List()
	if err != nil {
		return "", err
	}
	for _, d := range devices {
		if d.UDID == udid {
			return d.State, nil
		}
	}
	return "", fmt.Errorf("device not found: %s", udid)
}

// Boot boots a device headless. An already-booted device is not an
// error; the runtime reports it distinctly and the caller's state
// machine has already excluded it.
func (c *Client) Boot(udid string, opts simulator.BootOptions) error {
	args := []string{"boot", udid}
	if opts.AttachHeadServices {
		args = append(args, "--arch=arm64")
	}
	debugLog("Booting %s", udid)
	if _, err := c.run(args...); err != nil {
		return err
	}
	return nil
}

// Shutdown shuts a device down.
func (c *Client) Shutdown(udid string) error {
	debugLog("Shutting down %s", udid)
	_, err := c.run("shutdown", udid)
	return err
}

// task adapts exec.Cmd to simulator.Task, exposing the raw wait status.
type task struct {
	cmd *exec.Cmd
}

func (t *task) Pid() int {
	return t.cmd.Process.Pid
}

func (t *task) Wait() (int, error) {
	err := t.cmd.Wait()
	if t.cmd.ProcessState == nil {
		return 0, fmt.Errorf("wait failed before process state was recorded: %w", err)
	}
	raw, ok := rawWaitStatus(t.cmd.ProcessState.Sys())
	if !ok {
		return 0, fmt.Errorf("unsupported wait status type %T", t.cmd.ProcessState.Sys())
	}
	return raw, nil
}

// Spawn starts a process inside the device: agents via simctl spawn,
// applications via simctl launch attached to a console pty so the
// returned task's exit tracks the application's.
func (c *Client) Spawn(udid string, cfg launcher.ProcessConfig, stdout, stderr io.Writer) (simulator.Task, error) {
	var args []string
	if cfg.Kind == launcher.Application {
		args = append([]string{"simctl", "launch", "--console-pty", udid, cfg.BundleID}, cfg.Args...)
	} else {
		args = append([]string{"simctl", "spawn", udid, cfg.Path}, cfg.Args...)
	}
	cmd := exec.Command("xcrun", args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = os.Environ()
	for k, v := range cfg.Env {
		// simctl forwards SIMCTL_CHILD_-prefixed variables into the
		// spawned process's environment.
		cmd.Env = append(cmd.Env, "SIMCTL_CHILD_"+k+"="+v)
	}

	debugLog("Spawning %s in %s", cfg.Name(), udid)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to spawn %s: %w", cfg.Name(), err)
	}
	return &task{cmd: cmd}, nil
}

// ServiceTable lists the services the device's supervisor reports, by
// running launchctl inside the device.
func (c *Client) ServiceTable(udid string) ([]simulator.ServiceEntry, error) {
	out, err := c.run("spawn", udid, "launchctl", "list")
	if err != nil {
		return nil, err
	}
	return parseServiceTable(out), nil
}

// parseServiceTable parses launchctl list output: "pid\tstatus\tlabel"
// rows after a header line. Rows without a live pid ("-") are skipped.
func parseServiceTable(out []byte) []simulator.ServiceEntry {
	var entries []simulator.ServiceEntry
	for i, line := range strings.Split(string(out), "\n") {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		entries = append(entries, simulator.ServiceEntry{Name: fields[2], Pid: pid})
	}
	return entries
}
