package simulator

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/hnisiji/idb/internal/future"
	"github.com/hnisiji/idb/internal/launcher"
	"github.com/hnisiji/idb/internal/process"
	"golang.org/x/sys/unix"
)

// Operation represents one process launched inside a device session.
// It owns the process's output handles and exposes a future that
// resolves with the raw OS wait status on termination. Operations are
// constructed only by the controller; the future's writer half is held
// by the controller's reaper and nothing else.
type Operation struct {
	udid   string
	config launcher.ProcessConfig
	fut    *future.Future[int]

	// stdout/stderr are exclusively owned; closed exactly once on
	// Release, on every exit path.
	stdout io.WriteCloser
	stderr io.WriteCloser

	mu       sync.Mutex
	proc     *process.Metadata
	released bool

	// expected is set before an explicit signal is delivered, so the
	// reaper observing the death out-of-band does not report it as
	// unexpected.
	expected atomic.Bool
}

func newOperation(udid string, cfg launcher.ProcessConfig, stdout, stderr io.WriteCloser, fut *future.Future[int]) *Operation {
	return &Operation{
		udid:   udid,
		config: cfg,
		fut:    fut,
		stdout: stdout,
		stderr: stderr,
	}
}

// processDidLaunch records the process metadata once the OS confirms
// the process exists. Calling it twice is a programming error in the
// launch path, not a runtime condition, and panics.
func (o *Operation) processDidLaunch(md process.Metadata) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.proc != nil {
		panic(fmt.Sprintf("operation for %s already confirmed launch of pid %d", o.config.Name(), o.proc.Pid))
	}
	o.proc = &md
}

// IsExpectedTermination classifies a raw OS wait status. A clean exit
// is expected regardless of exit code; death by signal is expected only
// for the signals the controller itself sends (SIGTERM, SIGKILL).
// Anything else, including stops, is unexpected.
func IsExpectedTermination(status int) bool {
	ws := unix.WaitStatus(status)
	switch {
	case ws.Exited():
		return true
	case ws.Signaled():
		return ws.Signal() == unix.SIGTERM || ws.Signal() == unix.SIGKILL
	default:
		return false
	}
}

// Config returns the launch configuration the process was started with.
func (o *Operation) Config() launcher.ProcessConfig {
	return o.config
}

// Future resolves with the raw OS wait status when the process
// terminates.
func (o *Operation) Future() *future.Future[int] {
	return o.fut
}

// Stdout returns the owned stdout capture handle, or nil when no
// capture was configured.
func (o *Operation) Stdout() io.WriteCloser {
	return o.stdout
}

// Stderr returns the owned stderr capture handle, or nil when no
// capture was configured.
func (o *Operation) Stderr() io.WriteCloser {
	return o.stderr
}

// Process returns the launched process metadata, or nil before the OS
// has confirmed the launch.
func (o *Operation) Process() *process.Metadata {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.proc
}

// markExpected flags the coming termination as controller-caused.
// Returns false if it was already flagged.
func (o *Operation) markExpected() bool {
	return o.expected.CompareAndSwap(false, true)
}

// terminationExpected reports whether the termination was pre-marked.
func (o *Operation) terminationExpected() bool {
	return o.expected.Load()
}

// Release closes the owned output handles. Safe to call on every exit
// path, including failures before launch confirmation; handles are
// closed at most once.
func (o *Operation) Release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.released {
		return
	}
	o.released = true
	if o.stdout != nil {
		_ = o.stdout.Close()
	}
	if o.stderr != nil {
		_ = o.stderr.Close()
	}
}
