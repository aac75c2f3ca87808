package session

import "time"

// State is the boot state of a device session. Transitions within one
// boot attempt are monotonic: Shutdown -> Booting -> Booted, or back to
// Shutdown on failure; Booted -> ShuttingDown -> Shutdown on the way
// down.
type State string

const (
	StateShutdown     State = "Shutdown"
	StateBooting      State = "Booting"
	StateBooted       State = "Booted"
	StateShuttingDown State = "ShuttingDown"
)

// Session represents one virtual device session and its configuration
type Session struct {
	ID           string `json:"id"`
	UDID         string `json:"udid"`
	Name         string `json:"name,omitempty"`
	Runtime      string `json:"runtime,omitempty"`
	State        State  `json:"state"`
	BootStrategy string `json:"boot_strategy"` // "direct" | "application"

	// RequiredServices are the process names that must be observed as
	// children of the supervisor before a boot counts as complete.
	RequiredServices []string `json:"required_services,omitempty"`

	// SupervisorPID is the launchd_sim pid, recorded once observed.
	SupervisorPID int `json:"supervisor_pid,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	StoppedAt  *time.Time `json:"stopped_at,omitempty"`
	ExitReason string     `json:"exit_reason,omitempty"` // "shutdown" | "failed" | "killed"
}
