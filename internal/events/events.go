// Package events defines the lifecycle notifications emitted by the
// session engine and the sinks that observe them. Events are plain
// values over a closed set of kinds so delivery and ordering can be
// asserted without a live observer.
package events

import (
	"fmt"
	"sync"

	"github.com/hnisiji/idb/internal/launcher"
	"github.com/hnisiji/idb/internal/process"
)

// Kind enumerates all lifecycle event kinds.
type Kind int

const (
	ProcessLaunched Kind = iota
	ProcessTerminated
	SessionLaunched
	ContainerLaunched
	DisplayServiceStarted
	TerminationHandleAvailable
	ServiceResolved
)

// String returns the event kind name.
func (k Kind) String() string {
	switch k {
	case ProcessLaunched:
		return "process-launched"
	case ProcessTerminated:
		return "process-terminated"
	case SessionLaunched:
		return "session-launched"
	case ContainerLaunched:
		return "container-launched"
	case DisplayServiceStarted:
		return "display-service-started"
	case TerminationHandleAvailable:
		return "termination-handle-available"
	case ServiceResolved:
		return "service-resolved"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one lifecycle notification. Only the fields relevant to the
// kind are populated.
type Event struct {
	Kind Kind

	// UDID identifies the session the event belongs to.
	UDID string

	// Process is set for process-scoped events.
	Process *process.Metadata

	// Expected reports whether a termination was caused or anticipated
	// by the controller. Only meaningful for ProcessTerminated.
	Expected bool

	// ProcessKind classifies the terminated or launched process.
	ProcessKind launcher.Kind

	// Handle describes an opaque resource for DisplayServiceStarted
	// and TerminationHandleAvailable events.
	Handle string
}

// String renders the event for logs.
func (e Event) String() string {
	s := e.Kind.String()
	if e.Process != nil {
		s += fmt.Sprintf(" %s(%d)", e.Process.Name, e.Process.Pid)
	}
	if e.Kind == ProcessTerminated {
		s += fmt.Sprintf(" expected=%v kind=%s", e.Expected, e.ProcessKind)
	}
	if e.Handle != "" {
		s += " " + e.Handle
	}
	return s
}

// Sink receives lifecycle events. Implementations must tolerate
// concurrent publishes for distinct processes; per-process ordering
// (launch before terminate) is the publisher's responsibility.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Publish calls the function.
func (f SinkFunc) Publish(e Event) { f(e) }

// Discard is a Sink that drops every event.
var Discard = SinkFunc(func(Event) {})

// ChannelSink delivers events over a buffered channel. Publish never
// blocks: when the buffer is full the event is dropped, since a slow
// observer must not stall the lifecycle engine.
type ChannelSink struct {
	ch chan Event
}

// NewChannelSink creates a sink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, buffer)}
}

// Publish enqueues the event, dropping it if the buffer is full.
func (s *ChannelSink) Publish(e Event) {
	select {
	case s.ch <- e:
	default:
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

// Recorder captures events in publish order for assertions in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish appends the event to the record.
func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of all recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the recorded event kinds in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

// Reset clears the record.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
