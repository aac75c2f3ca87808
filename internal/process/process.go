package process

import "time"

// Metadata describes one OS process at the time it was observed.
// Lookups go through the live process table, so any Metadata value
// may be stale by the time it is used.
type Metadata struct {
	Pid       int       `json:"pid"`
	ParentPid int       `json:"parent_pid"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time,omitempty"`
}

// Query resolves process information from the OS process table.
// All methods return nil (or false) when the process cannot be found;
// callers must treat absence as a normal outcome, not an error.
type Query interface {
	// InfoFor returns metadata for a pid, or nil if it is not running.
	InfoFor(pid int) *Metadata

	// ParentOf returns the parent pid of a process.
	ParentOf(pid int) (int, bool)

	// ChildrenOf returns the direct children of a pid.
	ChildrenOf(pid int) []Metadata

	// SupervisorFor returns the per-device service-management process
	// (launchd_sim) for a booted device, or nil if none is running.
	SupervisorFor(udid string) *Metadata

	// ApplicationFor returns the container application process
	// (Simulator.app) driving a device, or nil if none is running.
	ApplicationFor(udid string) *Metadata
}
