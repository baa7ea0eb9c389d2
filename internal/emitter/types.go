package emitter

import (
	"errors"
	"time"

	"github.com/sweeney/dcf77-emitter/internal/dcf77"
)

// State is the emitter's position in its lifecycle.
type State int

const (
	Disarmed State = iota
	WaitingForMinuteEdge
	Transmitting
)

func (s State) String() string {
	switch s {
	case Disarmed:
		return "DISARMED"
	case WaitingForMinuteEdge:
		return "WAITING_FOR_MINUTE_EDGE"
	case Transmitting:
		return "TRANSMITTING"
	default:
		return "UNKNOWN"
	}
}

// Faults. Every fault releases the antenna; only ErrMissingCapability stops
// the emitter from being created.
var (
	ErrMissingCapability = errors.New("emitter: missing capability")
	ErrUnsynchronized    = errors.New("emitter: clock not synchronized")
	ErrTickOverrun       = errors.New("emitter: tick overrun")
	ErrClockStalled      = errors.New("emitter: clock stalled")
	ErrPinWrite          = errors.New("emitter: pin write failed")
)

// Fault kinds as reported in Event.Reason.
const (
	FaultConfiguration  = "CONFIGURATION"
	FaultUnsynchronized = "UNSYNCHRONIZED_CLOCK"
	FaultTickOverrun    = "TICK_OVERRUN"
	FaultClockStalled   = "CLOCK_STALLED"
	FaultInvalidFrame   = "INVALID_TIME_FRAME"
	FaultPinWrite       = "PIN_WRITE"
	FaultUnknown        = "UNKNOWN"
)

// FaultKind names the class of a fault for event consumers.
func FaultKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCapability):
		return FaultConfiguration
	case errors.Is(err, ErrUnsynchronized):
		return FaultUnsynchronized
	case errors.Is(err, ErrTickOverrun):
		return FaultTickOverrun
	case errors.Is(err, ErrClockStalled):
		return FaultClockStalled
	case errors.Is(err, dcf77.ErrInvalidFrame):
		return FaultInvalidFrame
	case errors.Is(err, ErrPinWrite):
		return FaultPinWrite
	default:
		return FaultUnknown
	}
}

// EventType identifies what an Event reports.
type EventType string

const (
	EventStateChanged EventType = "STATE_CHANGED"
	EventFrame        EventType = "FRAME"
	EventFault        EventType = "FAULT"
)

// Event is a state transition, a newly encoded frame, or a fault.
type Event struct {
	Timestamp time.Time
	Type      EventType

	// State changes.
	From   State
	To     State
	Reason string

	// Frames.
	Frame dcf77.Frame
	Bits  dcf77.Bits

	// Faults.
	Err error
}

// Observer receives emitter events. Observe is called on the emitter's
// goroutine and must return quickly without blocking.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) {
	f(ev)
}

// Observers fans an event out to each observer in order.
type Observers []Observer

// Observe forwards ev to every non-nil observer.
func (obs Observers) Observe(ev Event) {
	for _, o := range obs {
		if o != nil {
			o.Observe(ev)
		}
	}
}
