// Package termination delivers signals to session processes with an
// escalating-backoff kill sequence.
package termination

import (
	"fmt"
	"time"

	"github.com/hnisiji/idb/internal/process"
	"golang.org/x/sys/unix"
)

// Strategy sends termination signals to processes.
type Strategy interface {
	// Kill signals one process, escalating to SIGKILL if it survives
	// the backoff sequence.
	Kill(md process.Metadata, sig unix.Signal) error

	// KillAll terminates a set of processes, best effort, collecting
	// the first failure.
	KillAll(mds []process.Metadata) error
}

// BackoffStrategy signals a process, waits for it to die on an
// escalating schedule, and finishes with SIGKILL if it is still alive.
type BackoffStrategy struct {
	// Delays are the waits between liveness checks after each signal.
	Delays []time.Duration

	// signal and alive are replaced in tests.
	signal func(pid int, sig unix.Signal) error
	alive  func(pid int) bool
}

// NewBackoffStrategy creates a strategy with the default schedule.
func NewBackoffStrategy() *BackoffStrategy {
	return &BackoffStrategy{
		Delays: []time.Duration{
			100 * time.Millisecond,
			500 * time.Millisecond,
			2 * time.Second,
		},
		signal: func(pid int, sig unix.Signal) error {
			return unix.Kill(pid, sig)
		},
		alive: func(pid int) bool {
			// Signal 0 probes existence without delivering anything.
			return unix.Kill(pid, 0) == nil
		},
	}
}

// Kill delivers sig, waits through the backoff schedule for the process
// to die, then escalates to SIGKILL.
func (s *BackoffStrategy) Kill(md process.Metadata, sig unix.Signal) error {
	if err := s.signal(md.Pid, sig); err != nil {
		return fmt.Errorf("failed to signal %s(%d) with %v: %w", md.Name, md.Pid, sig, err)
	}

	for _, delay := range s.Delays {
		if !s.alive(md.Pid) {
			return nil
		}
		time.Sleep(delay)
	}

	if !s.alive(md.Pid) {
		return nil
	}
	if sig == unix.SIGKILL {
		return fmt.Errorf("process %s(%d) survived SIGKILL", md.Name, md.Pid)
	}
	if err := s.signal(md.Pid, unix.SIGKILL); err != nil {
		return fmt.Errorf("failed to escalate to SIGKILL for %s(%d): %w", md.Name, md.Pid, err)
	}
	return nil
}

// KillAll terminates every process in the set with SIGTERM, returning
// the first error encountered after attempting all of them.
func (s *BackoffStrategy) KillAll(mds []process.Metadata) error {
	var firstErr error
	for _, md := range mds {
		if err := s.Kill(md, unix.SIGTERM); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
