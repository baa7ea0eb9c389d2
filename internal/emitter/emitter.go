// Package emitter drives a DCF77 transmission from a clock source onto an
// antenna pin. Emitter is a state machine fed by second ticks, pulse
// releases, and switch polls; Run wires those to timers.
package emitter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/dcf77-emitter/internal/clock"
	"github.com/sweeney/dcf77-emitter/internal/dcf77"
	"github.com/sweeney/dcf77-emitter/internal/gpio"
)

const (
	DefaultPollInterval = 20 * time.Millisecond
	DefaultStaleAfter   = 30 * time.Second
)

// Config holds the capabilities and timing of an Emitter. The pins, switch,
// and clock are owned by the caller.
type Config struct {
	Antenna gpio.Output
	LED     gpio.Output
	Switch  gpio.Switch
	Clock   clock.Source

	// Observer receives state changes, frames, and faults. Optional.
	Observer Observer

	// PollInterval is how often the switch is checked. It bounds how long a
	// disarm can take to release the antenna.
	PollInterval time.Duration

	// StaleAfter is how long the clock may go without a fresh second before
	// the emitter disarms.
	StaleAfter time.Duration

	// OverrunThreshold is the largest gap between ticks that is still treated
	// as consecutive seconds.
	OverrunThreshold time.Duration

	// Now is the local monotonic time used for stall detection and event
	// timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Emitter is the transmission state machine. All methods must be called from
// a single goroutine, normally the one running Run.
type Emitter struct {
	sw       gpio.Switch
	clk      clock.Source
	observer Observer
	now      func() time.Time

	pollInterval time.Duration
	staleAfter   time.Duration

	aligner *clock.Aligner
	shaper  *Shaper

	state  State
	second int
	frame  dcf77.Frame
	bits   dcf77.Bits

	// halted keeps the emitter disarmed after an invalid frame until the
	// switch is cycled off.
	halted bool

	unsyncReported bool
	lastValid      time.Time
}

// New validates cfg, releases the antenna, and returns a disarmed Emitter.
// A missing capability returns an error wrapping ErrMissingCapability.
func New(cfg Config) (*Emitter, error) {
	var missing []string
	if cfg.Antenna == nil {
		missing = append(missing, "antenna pin")
	}
	if cfg.LED == nil {
		missing = append(missing, "led pin")
	}
	if cfg.Switch == nil {
		missing = append(missing, "sync switch")
	}
	if cfg.Clock == nil {
		missing = append(missing, "time source")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCapability, strings.Join(missing, ", "))
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Observer == nil {
		cfg.Observer = ObserverFunc(func(Event) {})
	}

	e := &Emitter{
		sw:           cfg.Switch,
		clk:          cfg.Clock,
		observer:     cfg.Observer,
		now:          cfg.Now,
		pollInterval: cfg.PollInterval,
		staleAfter:   cfg.StaleAfter,
		aligner:      clock.NewAligner(cfg.OverrunThreshold),
		shaper:       NewShaper(cfg.Antenna, cfg.LED),
		state:        Disarmed,
		second:       -1,
	}
	e.lastValid = e.now()

	if err := e.shaper.Release(); err != nil {
		return nil, fmt.Errorf("release antenna: %w", err)
	}
	return e, nil
}

// State returns the current state.
func (e *Emitter) State() State {
	return e.state
}

// Second returns the second of the minute last transmitted, or -1.
func (e *Emitter) Second() int {
	return e.second
}

// Frame returns the frame being transmitted. ok is false unless transmitting.
func (e *Emitter) Frame() (dcf77.Frame, bool) {
	return e.frame, e.state == Transmitting
}

// Halted reports whether an invalid frame has latched the emitter off.
func (e *Emitter) Halted() bool {
	return e.halted
}

// OnSecond handles a second boundary of the clock. It returns how long the
// pulse it started lasts; zero means no pulse was started.
func (e *Emitter) OnSecond() time.Duration {
	now, ok := e.clk.Now()
	if !ok {
		e.unsynchronized()
		return 0
	}

	tick, fresh := e.aligner.Observe(now)
	if !fresh {
		return 0
	}
	e.lastValid = e.now()
	e.unsyncReported = false

	return e.step(tick)
}

// OnRelease ends the pulse started by the last OnSecond.
func (e *Emitter) OnRelease() {
	if e.shaper.Low() {
		e.release()
	}
}

// OnPoll checks the sync switch and the age of the last valid reading.
func (e *Emitter) OnPoll() {
	if !e.sw.IsOn() {
		e.halted = false
		e.disarm("sync switch off")
		return
	}

	if e.state != Disarmed {
		if age := e.now().Sub(e.lastValid); age > e.staleAfter {
			e.fault(fmt.Errorf("%w: no fresh second for %v", ErrClockStalled, age.Truncate(time.Millisecond)))
			e.disarm("clock stalled")
		}
	}
}

// Stop releases the antenna and disarms.
func (e *Emitter) Stop() {
	e.disarm("stopped")
}

// Run drives the emitter until ctx is done. Second ticks follow the clock
// source's own boundaries; pulse releases use a one-shot timer. The antenna
// is released before Run returns.
func (e *Emitter) Run(ctx context.Context) error {
	second := time.NewTimer(e.untilNextSecond())
	defer second.Stop()

	release := time.NewTimer(time.Hour)
	release.Stop()
	defer release.Stop()

	poll := time.NewTicker(e.pollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			e.Stop()
			return nil

		case <-second.C:
			if d := e.OnSecond(); d > 0 {
				release.Reset(d)
			}
			second.Reset(e.untilNextSecond())

		case <-release.C:
			e.OnRelease()

		case <-poll.C:
			e.OnPoll()
		}
	}
}

func (e *Emitter) untilNextSecond() time.Duration {
	now, ok := e.clk.Now()
	if !ok {
		return time.Second
	}
	return clock.UntilNextSecond(now)
}

func (e *Emitter) step(tick clock.Tick) time.Duration {
	if tick.Slipped && e.state == Transmitting {
		e.fault(fmt.Errorf("%w: gap %v phase %v", ErrTickOverrun, tick.Gap, tick.Phase))
		e.release()
		e.clearFrame()
		e.setState(WaitingForMinuteEdge, "tick overrun")
	}

	if !e.sw.IsOn() {
		e.halted = false
		e.disarm("sync switch off")
		return 0
	}
	if e.halted {
		return 0
	}

	if e.state == Disarmed {
		e.setState(WaitingForMinuteEdge, "sync switch on")
	}
	if tick.Slipped {
		return 0
	}

	if tick.MinuteBoundary {
		if !e.encodeNext(tick) {
			return 0
		}
		if e.state == WaitingForMinuteEdge {
			e.setState(Transmitting, "minute edge")
		}
	}
	if e.state != Transmitting {
		return 0
	}

	e.second = tick.Second
	d, err := e.shaper.Begin(e.bits.Symbol(tick.Second))
	if err != nil {
		e.fault(fmt.Errorf("%w: %v", ErrPinWrite, err))
		e.disarm("pin write failed")
		return 0
	}
	return d
}

// encodeNext encodes the minute that starts at the next minute boundary;
// a DCF77 minute announces the time that follows it.
func (e *Emitter) encodeNext(tick clock.Tick) bool {
	frame := dcf77.FrameAt(tick.Time.Add(time.Minute))
	bits, err := dcf77.Encode(frame)
	if err != nil {
		e.fault(err)
		e.halted = true
		e.disarm("invalid time frame")
		return false
	}

	e.frame = frame
	e.bits = bits
	e.emit(Event{Type: EventFrame, Frame: frame, Bits: bits})
	return true
}

func (e *Emitter) unsynchronized() {
	if !e.unsyncReported {
		e.unsyncReported = true
		e.fault(ErrUnsynchronized)
	}
	e.aligner.Reset()
	e.disarm("clock not synchronized")
}

func (e *Emitter) disarm(reason string) {
	if e.state == Disarmed && !e.shaper.Low() {
		return
	}
	e.release()
	e.clearFrame()
	e.setState(Disarmed, reason)
}

func (e *Emitter) release() {
	if err := e.shaper.Release(); err != nil {
		e.fault(fmt.Errorf("%w: %v", ErrPinWrite, err))
	}
}

func (e *Emitter) clearFrame() {
	e.frame = dcf77.Frame{}
	e.bits = dcf77.Bits{}
	e.second = -1
}

func (e *Emitter) setState(to State, reason string) {
	if e.state == to {
		return
	}
	from := e.state
	e.state = to
	e.emit(Event{Type: EventStateChanged, From: from, To: to, Reason: reason})
}

func (e *Emitter) fault(err error) {
	e.emit(Event{Type: EventFault, Err: err, Reason: FaultKind(err)})
}

func (e *Emitter) emit(ev Event) {
	ev.Timestamp = e.now()
	e.observer.Observe(ev)
}
