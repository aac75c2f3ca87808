package simulator

import (
	"fmt"
	"strings"
	"time"
)

// ConfigurationError reports bad or missing launch arguments.
type ConfigurationError struct {
	UDID   string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("device %s: invalid configuration: %s: %v", e.UDID, e.Reason, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// OSResourceError reports a failed handle or service allocation.
type OSResourceError struct {
	UDID     string
	Resource string
	Err      error
}

func (e *OSResourceError) Error() string {
	return fmt.Sprintf("device %s: failed to acquire %s: %v", e.UDID, e.Resource, e.Err)
}

func (e *OSResourceError) Unwrap() error { return e.Err }

// BootTimeoutError reports a bounded boot wait that exceeded its
// deadline. Exactly one of LastState or Missing is populated, depending
// on which wait expired.
type BootTimeoutError struct {
	UDID    string
	Timeout time.Duration

	// LastState is the device state last observed by state polling.
	LastState string

	// Missing are the required services never observed as supervisor
	// children.
	Missing []string
}

func (e *BootTimeoutError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("device %s: boot not verified after %v: services never appeared: %s",
			e.UDID, e.Timeout, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("device %s: did not reach Booted state after %v (last state %q)",
		e.UDID, e.Timeout, e.LastState)
}

// ProcessNotFoundError reports a process that should exist but cannot
// be observed.
type ProcessNotFoundError struct {
	UDID string
	Name string
	Pid  int
}

func (e *ProcessNotFoundError) Error() string {
	if e.Pid != 0 {
		return fmt.Sprintf("device %s: process %d not found", e.UDID, e.Pid)
	}
	return fmt.Sprintf("device %s: process %q not found", e.UDID, e.Name)
}

// AuthorizationError reports a signal target outside the session's
// process tree.
type AuthorizationError struct {
	UDID          string
	Pid           int
	ParentPid     int
	SupervisorPid int
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("device %s: refusing to signal pid %d: parent %d is not the session supervisor %d",
		e.UDID, e.Pid, e.ParentPid, e.SupervisorPid)
}

// TerminationVerificationTimeoutError reports that the supervisor's
// service table never reflected a process's removal, even though the
// OS-level process may already be dead.
type TerminationVerificationTimeoutError struct {
	UDID    string
	Pid     int
	Timeout time.Duration
}

func (e *TerminationVerificationTimeoutError) Error() string {
	return fmt.Sprintf("device %s: pid %d did not get removed from the service table after %v",
		e.UDID, e.Pid, e.Timeout)
}
