package simulator

import (
	"io"

	"github.com/hnisiji/idb/internal/launcher"
)

// Device states reported by the runtime.
const (
	StateShutdown = "Shutdown"
	StateBooted   = "Booted"
)

// BootOptions tune a direct device boot.
type BootOptions struct {
	// AttachHeadServices requests that head services created before the
	// boot (framebuffer, HID registration) be attached to the device.
	AttachHeadServices bool
}

// ServiceEntry is one row of the supervisor's service table.
type ServiceEntry struct {
	Name string
	Pid  int
}

// Task is a handle to a process spawned inside a device. Wait blocks
// until the process exits and returns the raw OS wait status.
type Task interface {
	Pid() int
	Wait() (int, error)
}

// DeviceRuntime is the low-level binding to the virtual-device runtime.
// Implementations shell out to platform tooling; the engine treats every
// call as synchronous and possibly stale.
type DeviceRuntime interface {
	// State reports the device's current boot state.
	State(udid string) (string, error)

	// Boot boots the device without a container application.
	Boot(udid string, opts BootOptions) error

	// Shutdown requests the runtime shut the device down.
	Shutdown(udid string) error

	// Spawn starts a process inside the device and returns a handle
	// the caller must reap.
	Spawn(udid string, cfg launcher.ProcessConfig, stdout, stderr io.Writer) (Task, error)

	// ServiceTable lists the services the device's supervisor currently
	// reports as running.
	ServiceTable(udid string) ([]ServiceEntry, error)
}
