// Package clock provides the wall-clock source the emitter follows and the
// second-boundary alignment used to schedule transmission.
// The system implementation reads the kernel clock and its NTP sync status.
// The fake implementation allows testing without waiting for real seconds.
package clock

import "time"

// Source reports the current wall-clock time in the transmitter's zone.
type Source interface {
	// Now returns the current time. ok is false while the clock is not
	// synchronized to a trusted reference; the time is meaningless then.
	Now() (t time.Time, ok bool)
}

// System reads the host clock.
type System struct {
	loc         *time.Location
	requireSync bool
	synced      func() bool
}

// NewSystem returns a Source that reports time.Now in loc. If requireSync is
// set, readings are invalid until the kernel reports the clock as synchronized.
func NewSystem(loc *time.Location, requireSync bool) *System {
	return &System{
		loc:         loc,
		requireSync: requireSync,
		synced:      kernelSynchronized,
	}
}

// Now returns the host time in the configured zone.
func (s *System) Now() (time.Time, bool) {
	t := time.Now().In(s.loc)
	if s.requireSync && !s.synced() {
		return t, false
	}
	return t, true
}
