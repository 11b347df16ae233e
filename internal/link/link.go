// Package link models the clock and reset collaborators around the core:
// upstream clock lock acquisition and the settle delay that gates
// linkReady.
package link

// DefaultSettleCycles is the settle delay after upstream lock.
const DefaultSettleCycles = 15

// ClockLock reports upstream lock after a fixed number of ticks. Unlock
// can be forced to model a dropped source clock.
type ClockLock struct {
	lockAfter int
	elapsed   int
}

func NewClockLock(lockAfter int) *ClockLock {
	if lockAfter < 0 {
		lockAfter = 0
	}
	return &ClockLock{lockAfter: lockAfter}
}

// Tick advances one cycle and reports whether the clock is locked.
func (c *ClockLock) Tick() bool {
	if c.elapsed < c.lockAfter {
		c.elapsed++
		return false
	}
	return true
}

// Drop restarts lock acquisition.
func (c *ClockLock) Drop() { c.elapsed = 0 }

// ResetHold asserts linkReady only after upstream lock has been stable for
// the settle delay, and drops it on the first unlocked cycle.
type ResetHold struct {
	settle    int
	remaining int
	ready     bool
}

func NewResetHold(settle int) *ResetHold {
	if settle < 0 {
		settle = 0
	}
	return &ResetHold{settle: settle, remaining: settle}
}

func (h *ResetHold) Tick(upstreamLocked bool) bool {
	if !upstreamLocked {
		h.remaining = h.settle
		h.ready = false
		return false
	}
	if h.remaining > 0 {
		h.remaining--
		return false
	}
	h.ready = true
	return true
}

func (h *ResetHold) Ready() bool { return h.ready }
