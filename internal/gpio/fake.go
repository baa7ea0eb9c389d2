package gpio

import "sync"

// FakeOutput is a test double that records every level written to it.
type FakeOutput struct {
	mu sync.Mutex

	// Levels contains every level written, in order (true = high).
	Levels []bool

	// WriteError, if set, is returned by SetHigh and SetLow. The level is
	// not recorded.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeOutput creates a FakeOutput with no recorded writes.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// SetHigh records a high level.
func (f *FakeOutput) SetHigh() error {
	return f.write(true)
}

// SetLow records a low level.
func (f *FakeOutput) SetLow() error {
	return f.write(false)
}

func (f *FakeOutput) write(level bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Levels = append(f.Levels, level)
	return nil
}

// High reports the last level written. A pin that was never written is
// reported as high.
func (f *FakeOutput) High() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Levels) == 0 {
		return true
	}
	return f.Levels[len(f.Levels)-1]
}

// Writes returns the number of recorded writes.
func (f *FakeOutput) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Levels)
}

// LowWrites returns how many times the pin was driven low.
func (f *FakeOutput) LowWrites() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, l := range f.Levels {
		if !l {
			n++
		}
	}
	return n
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Reset clears recorded writes.
func (f *FakeOutput) Reset() {
	f.mu.Lock()
	f.Levels = nil
	f.WriteError = nil
	f.Closed = false
	f.mu.Unlock()
}

// FakeSwitch is a Switch that tests can flip.
type FakeSwitch struct {
	mu sync.Mutex
	on bool
}

// NewFakeSwitch creates a FakeSwitch in the given position.
func NewFakeSwitch(on bool) *FakeSwitch {
	return &FakeSwitch{on: on}
}

// IsOn returns the current position.
func (f *FakeSwitch) IsOn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on
}

// Set moves the switch.
func (f *FakeSwitch) Set(on bool) {
	f.mu.Lock()
	f.on = on
	f.mu.Unlock()
}
