package simulator

import (
	"fmt"
	"time"

	"github.com/hnisiji/idb/internal/events"
	"github.com/hnisiji/idb/internal/process"
	"github.com/hnisiji/idb/internal/session"
	"golang.org/x/sys/unix"
)

// Shutdown terminates every process associated with the session and
// shuts the device down. Best effort, once: a failure is wrapped with
// session context and surfaced; retrying is the caller's decision.
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	c.sess.State = session.StateShuttingDown
	procs := c.sessionProcesses()
	consumer := c.consumer
	c.consumer = nil
	c.mu.Unlock()

	if consumer != nil {
		consumer.Stop()
	}

	if err := c.killer.KillAll(procs); err != nil {
		return fmt.Errorf("device %s: shutdown kill failed: %w", c.sess.UDID, err)
	}
	if err := c.runtime.Shutdown(c.sess.UDID); err != nil {
		return fmt.Errorf("device %s: runtime shutdown failed: %w", c.sess.UDID, err)
	}

	c.mu.Lock()
	c.sess.State = session.StateShutdown
	now := time.Now()
	c.sess.StoppedAt = &now
	c.sess.ExitReason = "shutdown"
	c.mu.Unlock()
	return nil
}

// sessionProcesses collects everything the session owns: tracked
// operations, the supervisor's children, and the supervisor itself
// last. Caller holds c.mu.
func (c *Controller) sessionProcesses() []process.Metadata {
	var procs []process.Metadata
	seen := make(map[int]bool)

	for pid, op := range c.operations {
		if md := op.Process(); md != nil && !seen[pid] {
			seen[pid] = true
			procs = append(procs, *md)
		}
	}
	if c.supervisor != nil {
		for _, child := range c.query.ChildrenOf(c.supervisor.Pid) {
			if !seen[child.Pid] {
				seen[child.Pid] = true
				procs = append(procs, child)
			}
		}
		if !seen[c.supervisor.Pid] {
			procs = append(procs, *c.supervisor)
		}
	}
	return procs
}

// Terminate signals one process inside the session and verifies its
// removal from the supervisor's service table.
//
// Only children of the session's own supervisor may be signaled; this
// is not a general kill primitive. The expected-termination event is
// published strictly before the signal is sent so the reaper, which
// observes the death asynchronously, finds the termination already
// reported and stays silent.
func (c *Controller) Terminate(pid int, sig unix.Signal) error {
	c.mu.Lock()
	sup := c.supervisor
	c.mu.Unlock()
	if sup == nil {
		return fmt.Errorf("device %s: cannot terminate pid %d: session has no supervisor", c.sess.UDID, pid)
	}

	ppid, ok := c.query.ParentOf(pid)
	if !ok {
		return &ProcessNotFoundError{UDID: c.sess.UDID, Pid: pid}
	}
	if ppid != sup.Pid {
		return &AuthorizationError{UDID: c.sess.UDID, Pid: pid, ParentPid: ppid, SupervisorPid: sup.Pid}
	}

	op := c.OperationFor(pid)
	if op == nil {
		return &ProcessNotFoundError{UDID: c.sess.UDID, Pid: pid}
	}

	// Report before signaling; losing this ordering would let the
	// reaper classify the death as unexpected first.
	md := op.Process()
	op.markExpected()
	c.sink.Publish(events.Event{
		Kind:        events.ProcessTerminated,
		UDID:        c.sess.UDID,
		Process:     md,
		Expected:    true,
		ProcessKind: op.Config().Kind,
	})

	if err := c.killer.Kill(*md, sig); err != nil {
		return fmt.Errorf("device %s: failed to terminate pid %d: %w", c.sess.UDID, pid, err)
	}

	// Termination is complete only once the supervisor agrees the
	// service is gone, not merely when the OS process dies.
	removed := WaitUntil(c.timeouts.FastInterval, c.timeouts.Fast, func() bool {
		table, err := c.runtime.ServiceTable(c.sess.UDID)
		if err != nil {
			debugLog("Service table poll error for %s: %v", c.sess.UDID, err)
			return false
		}
		for _, entry := range table {
			if entry.Pid == pid {
				return false
			}
		}
		return true
	})
	if !removed {
		return &TerminationVerificationTimeoutError{UDID: c.sess.UDID, Pid: pid, Timeout: c.timeouts.Fast}
	}
	return nil
}
