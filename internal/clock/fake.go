package clock

import (
	"sync"
	"time"
)

// Fake is a test double whose time only moves when told to.
type Fake struct {
	mu    sync.Mutex
	t     time.Time
	valid bool
}

// NewFake creates a synchronized Fake reading t.
func NewFake(t time.Time) *Fake {
	return &Fake{t: t, valid: true}
}

// Now returns the scripted time and validity.
func (f *Fake) Now() (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t, f.valid
}

// Set moves the clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (f *Fake) Advance(d time.Duration) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
	return f.t
}

// SetValid controls whether readings are reported as synchronized.
func (f *Fake) SetValid(valid bool) {
	f.mu.Lock()
	f.valid = valid
	f.mu.Unlock()
}
