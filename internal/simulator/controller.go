// Package simulator contains the session lifecycle engine: booting a
// device session by one of two strategies, verifying the boot against
// the supervisor's process tree, launching and reaping processes inside
// the session, and terminating them by signal without racing the
// reaper.
package simulator

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hnisiji/idb/internal/events"
	"github.com/hnisiji/idb/internal/framebuffer"
	"github.com/hnisiji/idb/internal/future"
	"github.com/hnisiji/idb/internal/launcher"
	"github.com/hnisiji/idb/internal/process"
	"github.com/hnisiji/idb/internal/session"
	"github.com/hnisiji/idb/internal/termination"
)

func debugLog(format string, args ...interface{}) {
	if os.Getenv("IDB_DEBUG") == "1" {
		fmt.Printf("[DEBUG:SIM] "+format+"\n", args...)
	}
}

// Timeouts are the resolved bounded-wait tiers.
type Timeouts struct {
	Fast          time.Duration
	State         time.Duration
	Slow          time.Duration
	FastInterval  time.Duration
	StateInterval time.Duration
	SlowInterval  time.Duration
}

// DefaultTimeouts returns the standard tier values.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Fast:          10 * time.Second,
		State:         30 * time.Second,
		Slow:          2 * time.Minute,
		FastInterval:  100 * time.Millisecond,
		StateInterval: 100 * time.Millisecond,
		SlowInterval:  time.Second,
	}
}

// LauncherOptions configure container-application launches.
type LauncherOptions struct {
	AppPath                 string
	Mechanism               launcher.Mechanism
	DeviceSetPath           string
	Scale                   float64
	ConnectHardwareKeyboard bool
}

// ControllerOptions are the collaborators and tunables for a
// controller. Zero-value fields get working defaults.
type ControllerOptions struct {
	Query    process.Query
	Sink     events.Sink
	Runtime  DeviceRuntime
	Killer   termination.Strategy
	Timeouts Timeouts
	PortsDir string
	Launcher LauncherOptions
}

// Controller orchestrates the lifecycle of one device session.
type Controller struct {
	sess     *session.Session
	query    process.Query
	sink     events.Sink
	runtime  DeviceRuntime
	killer   termination.Strategy
	timeouts Timeouts
	portsDir string
	appOpts  LauncherOptions
	queue    *future.Queue

	mu         sync.Mutex
	operations map[int]*Operation
	supervisor *process.Metadata
	consumer   *framebuffer.Consumer

	// Test seams for the per-attempt display resources and the
	// external application launch.
	newDisplayService func(dir, udid string) (*framebuffer.Service, error)
	newEndpoint       func(dir string) (*framebuffer.Endpoint, error)
	launchApp         func(appPath string, args []string, env map[string]string, mech launcher.Mechanism) (*launcher.Task, error)
}

// NewController creates the lifecycle controller for a session.
func NewController(sess *session.Session, opts ControllerOptions) *Controller {
	if opts.Query == nil {
		opts.Query = process.NewTableQuery()
	}
	if opts.Sink == nil {
		opts.Sink = events.Discard
	}
	if opts.Killer == nil {
		opts.Killer = termination.NewBackoffStrategy()
	}
	if opts.Timeouts == (Timeouts{}) {
		opts.Timeouts = DefaultTimeouts()
	}
	if opts.Launcher.Mechanism == "" {
		opts.Launcher.Mechanism = launcher.Subprocess
	}

	return &Controller{
		sess:              sess,
		query:             opts.Query,
		sink:              opts.Sink,
		runtime:           opts.Runtime,
		killer:            opts.Killer,
		timeouts:          opts.Timeouts,
		portsDir:          opts.PortsDir,
		appOpts:           opts.Launcher,
		queue:             future.NewQueue(16),
		operations:        make(map[int]*Operation),
		newDisplayService: framebuffer.NewService,
		newEndpoint:       framebuffer.NewEndpoint,
		launchApp:         launcher.LaunchApp,
	}
}

// Session returns the session this controller drives.
func (c *Controller) Session() *session.Session {
	return c.sess
}

// Close releases the controller's continuation queue. Live operations
// keep their futures; pending continuations are drained first.
func (c *Controller) Close() {
	c.queue.Close()
}

// OperationFor returns the live operation for a pid, or nil.
func (c *Controller) OperationFor(pid int) *Operation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.operations[pid]
}

// Launch starts a process inside the booted session and returns the
// operation tracking it. The caller exclusively owns the returned
// operation and its output handles; the termination future resolves
// when the controller's reaper observes the exit.
func (c *Controller) Launch(cfg launcher.ProcessConfig) (*Operation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigurationError{UDID: c.sess.UDID, Reason: "launch config", Err: err}
	}
	if c.sess.State != session.StateBooted {
		return nil, fmt.Errorf("device %s: cannot launch %s: session is %s, not Booted",
			c.sess.UDID, cfg.Name(), c.sess.State)
	}

	stdout, stderr, err := openOutputs(cfg)
	if err != nil {
		return nil, &OSResourceError{UDID: c.sess.UDID, Resource: "output handles", Err: err}
	}

	fut, promise := future.New[int]()
	op := newOperation(c.sess.UDID, cfg, stdout, stderr, fut)

	task, err := c.runtime.Spawn(c.sess.UDID, cfg, writerOrDiscard(stdout), writerOrDiscard(stderr))
	if err != nil {
		op.Release()
		return nil, fmt.Errorf("device %s: failed to launch %s: %w", c.sess.UDID, cfg.Name(), err)
	}

	// The OS has confirmed the process; fill the metadata slot exactly
	// once, then announce the launch.
	md := c.query.InfoFor(task.Pid())
	if md == nil {
		md = &process.Metadata{Pid: task.Pid(), Name: cfg.Name(), StartTime: time.Now()}
	}
	op.processDidLaunch(*md)
	c.sink.Publish(events.Event{
		Kind:        events.ProcessLaunched,
		UDID:        c.sess.UDID,
		Process:     md,
		ProcessKind: cfg.Kind,
	})

	c.mu.Lock()
	c.operations[task.Pid()] = op
	c.mu.Unlock()

	go c.reap(op, task, promise)
	return op, nil
}

// reap waits for the process to exit, resolves the termination future
// exactly once, and reports the termination unless an explicit
// signal-termination already reported it as expected.
func (c *Controller) reap(op *Operation, task Task, promise *future.Promise[int]) {
	status, err := task.Wait()
	if err != nil {
		debugLog("Wait error for pid %d: %v", task.Pid(), err)
	}
	_ = promise.Resolve(status)

	c.mu.Lock()
	delete(c.operations, task.Pid())
	c.mu.Unlock()

	// markExpected doubles as the report-once gate: if the terminate
	// path already marked the operation, it also already published the
	// expected-termination event and the reaper stays silent.
	if !op.markExpected() {
		return
	}
	c.sink.Publish(events.Event{
		Kind:        events.ProcessTerminated,
		UDID:        c.sess.UDID,
		Process:     op.Process(),
		Expected:    IsExpectedTermination(status),
		ProcessKind: op.Config().Kind,
	})
}

// openOutputs creates the configured capture files. On any failure the
// already-opened handle is closed before returning.
func openOutputs(cfg launcher.ProcessConfig) (io.WriteCloser, io.WriteCloser, error) {
	var stdout, stderr io.WriteCloser
	if cfg.StdoutPath != "" {
		f, err := os.Create(cfg.StdoutPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open stdout capture: %w", err)
		}
		stdout = f
	}
	if cfg.StderrPath != "" {
		f, err := os.Create(cfg.StderrPath)
		if err != nil {
			if stdout != nil {
				_ = stdout.Close()
			}
			return nil, nil, fmt.Errorf("failed to open stderr capture: %w", err)
		}
		stderr = f
	}
	return stdout, stderr, nil
}

func writerOrDiscard(w io.WriteCloser) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
