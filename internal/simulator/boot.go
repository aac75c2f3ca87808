package simulator

import (
	"fmt"

	"github.com/hnisiji/idb/internal/events"
	"github.com/hnisiji/idb/internal/framebuffer"
	"github.com/hnisiji/idb/internal/launcher"
	"github.com/hnisiji/idb/internal/session"
)

// Boot brings the session from Shutdown to Booted using the session's
// configured strategy. On any failure the session reverts to Shutdown
// with the error surfaced; nothing is retried within an attempt.
func (c *Controller) Boot() error {
	c.mu.Lock()
	if c.sess.State != session.StateShutdown {
		state := c.sess.State
		c.mu.Unlock()
		return fmt.Errorf("device %s: cannot boot from state %s", c.sess.UDID, state)
	}
	c.sess.State = session.StateBooting
	c.mu.Unlock()

	var err error
	switch c.sess.BootStrategy {
	case "application":
		err = c.bootViaApplication()
	default:
		err = c.bootDirect()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.sess.State = session.StateShutdown
		return err
	}
	c.sess.State = session.StateBooted
	return nil
}

// bootDirect boots the device runtime headless, with the framebuffer
// service and HID registration endpoint created up front so head
// services can attach during the boot.
func (c *Controller) bootDirect() error {
	udid := c.sess.UDID

	svc, err := c.newDisplayService(c.portsDir, udid)
	if err != nil {
		return &OSResourceError{UDID: udid, Resource: "framebuffer service", Err: err}
	}

	// The endpoint's allocation and registration fail independently;
	// either aborts the attempt before the runtime is touched.
	ep, err := c.newEndpoint(c.portsDir)
	if err != nil {
		_ = svc.Close()
		return &OSResourceError{UDID: udid, Resource: "registration endpoint", Err: err}
	}
	if err := ep.Register(framebuffer.HIDRegistrationService); err != nil {
		_ = ep.Close()
		_ = svc.Close()
		return &OSResourceError{UDID: udid, Resource: "endpoint registration", Err: err}
	}

	if err := c.runtime.Boot(udid, BootOptions{AttachHeadServices: true}); err != nil {
		_ = ep.Close()
		_ = svc.Close()
		return fmt.Errorf("device %s: runtime boot failed: %w", udid, err)
	}

	consumer := framebuffer.NewConsumer(svc, ep)
	if err := consumer.Start(); err != nil {
		_ = ep.Close()
		_ = svc.Close()
		return &OSResourceError{UDID: udid, Resource: "framebuffer consumer", Err: err}
	}
	c.mu.Lock()
	c.consumer = consumer
	c.mu.Unlock()

	c.sink.Publish(events.Event{
		Kind:   events.DisplayServiceStarted,
		UDID:   udid,
		Handle: svc.Path(),
	})

	if err := c.verifyBooted(); err != nil {
		// The surface and endpoint are per-attempt resources; tear
		// them down rather than leak the rendezvous name.
		consumer.Stop()
		c.mu.Lock()
		c.consumer = nil
		c.mu.Unlock()
		return err
	}
	return nil
}

// bootViaApplication spawns the container application and waits for it
// to boot the device on the engine's behalf.
func (c *Controller) bootViaApplication() error {
	udid := c.sess.UDID

	args, env, err := launcher.BuildSimulatorAppArgs(udid, launcher.AppOptions{
		DeviceSetPath:           c.appOpts.DeviceSetPath,
		Scale:                   c.appOpts.Scale,
		ConnectHardwareKeyboard: c.appOpts.ConnectHardwareKeyboard,
	})
	if err != nil {
		return &ConfigurationError{UDID: udid, Reason: "container application arguments", Err: err}
	}

	task, err := c.launchApp(c.appOpts.AppPath, args, env, c.appOpts.Mechanism)
	if err != nil {
		return fmt.Errorf("device %s: failed to launch container application: %w", udid, err)
	}
	c.sink.Publish(events.Event{
		Kind:   events.TerminationHandleAvailable,
		UDID:   udid,
		Handle: fmt.Sprintf("container-application pid=%d", task.Pid),
	})
	if task.Cmd != nil {
		// Reap the outer process so it never zombies; its exit is not
		// a session event.
		go func() { _ = task.Cmd.Wait() }()
	}

	var lastState string
	booted := WaitUntil(c.timeouts.StateInterval, c.timeouts.State, func() bool {
		state, err := c.runtime.State(udid)
		if err != nil {
			debugLog("State poll error for %s: %v", udid, err)
			return false
		}
		lastState = state
		return state == StateBooted
	})
	if !booted {
		return &BootTimeoutError{UDID: udid, Timeout: c.timeouts.State, LastState: lastState}
	}

	app := c.query.ApplicationFor(udid)
	if app == nil {
		return &ProcessNotFoundError{UDID: udid, Name: "container application"}
	}
	c.sink.Publish(events.Event{
		Kind:    events.ContainerLaunched,
		UDID:    udid,
		Process: app,
	})

	return c.verifyBooted()
}

// verifyBooted is the shared post-boot step: the supervisor must be
// observable, and its children must cover the session's required
// service set. Device state flips to Booted well before the internal
// services finish spawning, so this wait runs on the slow tier.
func (c *Controller) verifyBooted() error {
	udid := c.sess.UDID

	sup := c.query.SupervisorFor(udid)
	if sup == nil {
		return &ProcessNotFoundError{UDID: udid, Name: "supervisor (launchd_sim)"}
	}

	c.mu.Lock()
	c.supervisor = sup
	c.sess.SupervisorPID = sup.Pid
	c.mu.Unlock()

	c.sink.Publish(events.Event{
		Kind:    events.SessionLaunched,
		UDID:    udid,
		Process: sup,
	})

	required := c.sess.RequiredServices
	var missing []string
	satisfied := WaitUntil(c.timeouts.SlowInterval, c.timeouts.Slow, func() bool {
		running := make(map[string]bool)
		for _, child := range c.query.ChildrenOf(sup.Pid) {
			running[child.Name] = true
		}
		missing = missing[:0]
		for _, name := range required {
			if !running[name] {
				missing = append(missing, name)
			}
		}
		return len(missing) == 0
	})
	if !satisfied {
		return &BootTimeoutError{UDID: udid, Timeout: c.timeouts.Slow, Missing: append([]string(nil), missing...)}
	}

	debugLog("Device %s verified booted: supervisor %d, %d required services up",
		udid, sup.Pid, len(required))
	return nil
}
