package simulator

import (
	"fmt"
	"strings"

	"github.com/hnisiji/idb/internal/events"
	"github.com/hnisiji/idb/internal/future"
	"github.com/hnisiji/idb/internal/process"
)

// LookupService asynchronously resolves the single running service
// whose name contains substr to full process metadata. The work runs on
// the controller's queue; the returned future fails with
// ProcessNotFoundError when the pid vanishes between the name lookup
// and the metadata fetch — a real race, not an ignorable edge case. On
// success the metadata is reported to the event sink; the report is a
// side effect and never affects the future's result.
func (c *Controller) LookupService(substr string) *future.Future[process.Metadata] {
	fut, promise := future.New[process.Metadata]()

	c.queue.Schedule(func() {
		md, err := c.lookupService(substr)
		if err != nil {
			_ = promise.Fail(err)
			return
		}

		c.sink.Publish(events.Event{
			Kind:    events.ServiceResolved,
			UDID:    c.sess.UDID,
			Process: md,
		})
		_ = promise.Resolve(*md)
	})

	return fut
}

func (c *Controller) lookupService(substr string) (*process.Metadata, error) {
	table, err := c.runtime.ServiceTable(c.sess.UDID)
	if err != nil {
		return nil, fmt.Errorf("device %s: service table unavailable: %w", c.sess.UDID, err)
	}

	var matches []ServiceEntry
	for _, entry := range table {
		if strings.Contains(entry.Name, substr) {
			matches = append(matches, entry)
		}
	}
	switch {
	case len(matches) == 0:
		return nil, &ProcessNotFoundError{UDID: c.sess.UDID, Name: substr}
	case len(matches) > 1:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		return nil, fmt.Errorf("device %s: service name %q is ambiguous: %s",
			c.sess.UDID, substr, strings.Join(names, ", "))
	}

	md := c.query.InfoFor(matches[0].Pid)
	if md == nil {
		// The service table named a pid the process table no longer
		// knows: it exited between lookup and fetch.
		return nil, &ProcessNotFoundError{UDID: c.sess.UDID, Name: matches[0].Name, Pid: matches[0].Pid}
	}
	return md, nil
}
