package simulator

import "time"

// WaitUntil polls predicate on a fixed interval until it returns true
// or the wall-clock timeout expires. The predicate is checked once
// immediately, so an already-satisfied condition returns without
// sleeping. Returns whether the predicate was satisfied.
//
// All bounded waits in the engine go through this: device-state polling
// and required-service verification during boot, and service-table
// polling during termination, each at its own timeout tier.
func WaitUntil(interval, timeout time.Duration, predicate func() bool) bool {
	deadline := time.Now().Add(timeout)

	for {
		if predicate() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(interval)
	}
}
