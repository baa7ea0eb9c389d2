package emitter

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/sweeney/dcf77-emitter/internal/clock"
	"github.com/sweeney/dcf77-emitter/internal/dcf77"
	"github.com/sweeney/dcf77-emitter/internal/gpio"
)

// harness wires an Emitter to fakes. The fake clock and the local clock move
// together unless a test moves one on its own.
type harness struct {
	t       *testing.T
	clk     *clock.Fake
	sw      *gpio.FakeSwitch
	antenna *gpio.FakeOutput
	led     *gpio.FakeOutput
	mono    time.Time
	events  []Event
	e       *Emitter
}

func newHarness(t *testing.T, start time.Time, switchOn bool) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		clk:     clock.NewFake(start),
		sw:      gpio.NewFakeSwitch(switchOn),
		antenna: gpio.NewFakeOutput(),
		led:     gpio.NewFakeOutput(),
		mono:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	e, err := New(Config{
		Antenna:  h.antenna,
		LED:      h.led,
		Switch:   h.sw,
		Clock:    h.clk,
		Observer: ObserverFunc(func(ev Event) { h.events = append(h.events, ev) }),
		Now:      func() time.Time { return h.mono },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.e = e
	return h
}

func (h *harness) advance(d time.Duration) {
	h.clk.Advance(d)
	h.mono = h.mono.Add(d)
}

// tick delivers the current second to the emitter, then moves both clocks
// forward one second. It returns the pulse width the emitter started.
func (h *harness) tick() time.Duration {
	d := h.e.OnSecond()
	h.advance(time.Second)
	return d
}

// tickAndRelease is tick followed by the end of the pulse.
func (h *harness) tickAndRelease() time.Duration {
	d := h.tick()
	h.e.OnRelease()
	return d
}

func (h *harness) faults() []Event {
	var out []Event
	for _, ev := range h.events {
		if ev.Type == EventFault {
			out = append(out, ev)
		}
	}
	return out
}

func (h *harness) frames() []dcf77.Frame {
	var out []dcf77.Frame
	for _, ev := range h.events {
		if ev.Type == EventFrame {
			out = append(out, ev.Frame)
		}
	}
	return out
}

func (h *harness) lastTransition() Event {
	h.t.Helper()
	for i := len(h.events) - 1; i >= 0; i-- {
		if h.events[i].Type == EventStateChanged {
			return h.events[i]
		}
	}
	h.t.Fatal("no state change recorded")
	return Event{}
}

func (h *harness) assertReleased() {
	h.t.Helper()
	if !h.antenna.High() {
		h.t.Error("antenna left low")
	}
	if h.led.High() != h.antenna.High() {
		h.t.Errorf("LED does not mirror antenna: led=%v antenna=%v", h.led.High(), h.antenna.High())
	}
}

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load Europe/Berlin: %v", err)
	}
	return loc
}

func TestNewMissingCapability(t *testing.T) {
	full := Config{
		Antenna: gpio.NewFakeOutput(),
		LED:     gpio.NewFakeOutput(),
		Switch:  gpio.NewFakeSwitch(true),
		Clock:   clock.NewFake(time.Now()),
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"antenna", func(c *Config) { c.Antenna = nil }},
		{"led", func(c *Config) { c.LED = nil }},
		{"switch", func(c *Config) { c.Switch = nil }},
		{"clock", func(c *Config) { c.Clock = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := full
			tt.mutate(&cfg)
			e, err := New(cfg)
			if !errors.Is(err, ErrMissingCapability) {
				t.Fatalf("expected ErrMissingCapability, got %v", err)
			}
			if e != nil {
				t.Error("expected nil emitter")
			}
			if FaultKind(err) != "CONFIGURATION" {
				t.Errorf("fault kind: got %q", FaultKind(err))
			}
		})
	}
}

func TestNewReleasesPins(t *testing.T) {
	h := newHarness(t, time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), true)

	if h.e.State() != Disarmed {
		t.Errorf("initial state: got %v, want DISARMED", h.e.State())
	}
	if h.antenna.Writes() != 1 || !h.antenna.High() {
		t.Errorf("antenna: %v", h.antenna.Levels)
	}
	if h.led.Writes() != 1 || !h.led.High() {
		t.Errorf("led: %v", h.led.Levels)
	}
}

func TestNewPinFailure(t *testing.T) {
	antenna := gpio.NewFakeOutput()
	antenna.WriteError = errors.New("line busy")

	_, err := New(Config{
		Antenna: antenna,
		LED:     gpio.NewFakeOutput(),
		Switch:  gpio.NewFakeSwitch(true),
		Clock:   clock.NewFake(time.Now()),
	})
	if err == nil {
		t.Fatal("expected error when the antenna cannot be released")
	}
}

func TestUnsynchronizedClockStaysDisarmed(t *testing.T) {
	h := newHarness(t, time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), true)
	h.clk.SetValid(false)

	for i := 0; i < 120; i++ {
		if d := h.tickAndRelease(); d != 0 {
			t.Fatalf("tick %d: pulse of %v while unsynchronized", i, d)
		}
		h.e.OnPoll()
		if h.e.State() != Disarmed {
			t.Fatalf("tick %d: state %v, want DISARMED", i, h.e.State())
		}
	}

	if n := h.antenna.LowWrites(); n != 0 {
		t.Errorf("antenna pulsed %d times while unsynchronized", n)
	}

	faults := h.faults()
	if len(faults) != 1 {
		t.Fatalf("expected one unsynchronized fault, got %d", len(faults))
	}
	if !errors.Is(faults[0].Err, ErrUnsynchronized) {
		t.Errorf("fault: got %v", faults[0].Err)
	}
	if faults[0].Reason != "UNSYNCHRONIZED_CLOCK" {
		t.Errorf("fault kind: got %q", faults[0].Reason)
	}

	// Once the clock synchronizes the emitter arms.
	h.clk.SetValid(true)
	h.tick()
	if h.e.State() != WaitingForMinuteEdge {
		t.Errorf("after sync: got %v, want WAITING_FOR_MINUTE_EDGE", h.e.State())
	}
}

func TestSwitchOffStaysDisarmed(t *testing.T) {
	h := newHarness(t, time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), false)

	for i := 0; i < 90; i++ {
		h.tickAndRelease()
		h.e.OnPoll()
	}
	if h.e.State() != Disarmed {
		t.Errorf("got %v, want DISARMED", h.e.State())
	}
	if h.antenna.LowWrites() != 0 {
		t.Error("antenna pulsed with switch off")
	}
}

func TestWaitsForMinuteEdge(t *testing.T) {
	loc := berlin(t)
	h := newHarness(t, time.Date(2026, 10, 18, 12, 0, 30, 0, loc), true)

	for sec := 30; sec < 60; sec++ {
		if d := h.tickAndRelease(); d != 0 {
			t.Fatalf("second %d: pulse before minute edge", sec)
		}
		if h.e.State() != WaitingForMinuteEdge {
			t.Fatalf("second %d: got %v, want WAITING_FOR_MINUTE_EDGE", sec, h.e.State())
		}
	}
	if h.antenna.LowWrites() != 0 {
		t.Error("antenna pulsed before minute edge")
	}

	if d := h.tick(); d != dcf77.PulseZero {
		t.Errorf("second 0: got pulse %v, want %v", d, dcf77.PulseZero)
	}
	if h.e.State() != Transmitting {
		t.Fatalf("got %v, want TRANSMITTING", h.e.State())
	}
	if tr := h.lastTransition(); tr.From != WaitingForMinuteEdge || tr.Reason != "minute edge" {
		t.Errorf("transition: %+v", tr)
	}

	frames := h.frames()
	if len(frames) != 1 {
		t.Fatalf("frames: got %d, want 1", len(frames))
	}
	want := dcf77.Frame{Year: 26, Month: 10, Day: 18, Weekday: 7, Hour: 12, Minute: 2, DST: true}
	if frames[0] != want {
		t.Errorf("frame: got %+v, want %+v", frames[0], want)
	}
}

func TestTransmitsFullMinute(t *testing.T) {
	loc := berlin(t)
	start := time.Date(2026, 10, 18, 12, 0, 0, 0, loc)
	h := newHarness(t, start, true)
	want := dcf77.MustEncode(dcf77.FrameAt(start.Add(time.Minute)))

	for sec := 0; sec < 60; sec++ {
		d := h.tick()

		var got dcf77.Symbol
		switch d {
		case dcf77.PulseZero:
			got = dcf77.Zero
		case dcf77.PulseOne:
			got = dcf77.One
		case 0:
			got = dcf77.Marker
		default:
			t.Fatalf("second %d: unexpected pulse %v", sec, d)
		}
		if got != want.Symbol(sec) {
			t.Errorf("second %d: got %v, want %v", sec, got, want.Symbol(sec))
		}

		if h.antenna.High() != (d == 0) {
			t.Errorf("second %d: antenna high=%v with pulse %v", sec, h.antenna.High(), d)
		}
		if h.led.High() != h.antenna.High() {
			t.Errorf("second %d: LED does not mirror antenna", sec)
		}

		h.e.OnRelease()
		h.assertReleased()
		if h.e.Second() != sec {
			t.Errorf("second index: got %d, want %d", h.e.Second(), sec)
		}
	}

	if n := h.antenna.LowWrites(); n != 59 {
		t.Errorf("pulses: got %d, want 59", n)
	}

	// The next minute edge re-encodes for the minute after it.
	if d := h.tick(); d != dcf77.PulseZero {
		t.Errorf("second 0 of next minute: pulse %v", d)
	}
	frames := h.frames()
	if len(frames) != 2 {
		t.Fatalf("frames: got %d, want 2", len(frames))
	}
	if frames[1].Minute != 2 {
		t.Errorf("second frame minute: got %d, want 2", frames[1].Minute)
	}
	if f, ok := h.e.Frame(); !ok || f != frames[1] {
		t.Errorf("current frame: got %+v %v", f, ok)
	}
}

func TestRolloverAcrossYearEnd(t *testing.T) {
	loc := berlin(t)
	h := newHarness(t, time.Date(2024, 12, 31, 23, 58, 0, 0, loc), true)

	for i := 0; i < 61; i++ {
		h.tickAndRelease()
	}

	frames := h.frames()
	if len(frames) != 2 {
		t.Fatalf("frames: got %d, want 2", len(frames))
	}
	first := dcf77.Frame{Year: 24, Month: 12, Day: 31, Weekday: 2, Hour: 23, Minute: 59}
	second := dcf77.Frame{Year: 25, Month: 1, Day: 1, Weekday: 3, Hour: 0, Minute: 0}
	if frames[0] != first {
		t.Errorf("first frame: got %+v, want %+v", frames[0], first)
	}
	if frames[1] != second {
		t.Errorf("second frame: got %+v, want %+v", frames[1], second)
	}
}

func TestRolloverAcrossDSTEnd(t *testing.T) {
	loc := berlin(t)
	// 02:58 CEST on 2024-10-27; at 03:00 CEST clocks go back to 02:00 CET.
	start := time.Date(2024, 10, 27, 0, 58, 0, 0, time.UTC).In(loc)
	h := newHarness(t, start, true)

	for i := 0; i < 61; i++ {
		h.tickAndRelease()
	}

	frames := h.frames()
	if len(frames) != 2 {
		t.Fatalf("frames: got %d, want 2", len(frames))
	}

	before := frames[0]
	if before.Hour != 2 || before.Minute != 59 || !before.DST || !before.DSTAnnounce {
		t.Errorf("frame before changeover: %+v", before)
	}

	after := frames[1]
	if after.Hour != 2 || after.Minute != 0 {
		t.Errorf("frame after changeover: got %02d:%02d, want 02:00", after.Hour, after.Minute)
	}
	if after.DST {
		t.Error("frame after changeover still has DST set")
	}
	if after.DSTAnnounce {
		t.Error("frame after changeover still announces a change")
	}
}

func TestDisarmMidPulse(t *testing.T) {
	loc := berlin(t)
	h := newHarness(t, time.Date(2026, 10, 18, 12, 0, 0, 0, loc), true)

	for sec := 0; sec < 20; sec++ {
		h.tickAndRelease()
	}

	// Second 20 is the start-of-time bit, always a 200ms pulse.
	if d := h.tick(); d != dcf77.PulseOne {
		t.Fatalf("second 20: pulse %v, want %v", d, dcf77.PulseOne)
	}
	if h.antenna.High() || h.led.High() {
		t.Fatal("pins not low during pulse")
	}

	h.mono = h.mono.Add(50 * time.Millisecond)
	h.sw.Set(false)
	h.e.OnPoll()

	h.assertReleased()
	if h.e.State() != Disarmed {
		t.Errorf("got %v, want DISARMED", h.e.State())
	}
	if tr := h.lastTransition(); tr.From != Transmitting || tr.Reason != "sync switch off" {
		t.Errorf("transition: %+v", tr)
	}
	if _, ok := h.e.Frame(); ok {
		t.Error("frame still reported after disarm")
	}

	// The pending release timer firing later changes nothing.
	writes := h.antenna.Writes()
	h.e.OnRelease()
	h.e.OnPoll()
	if h.antenna.Writes() != writes {
		t.Errorf("extra antenna writes after disarm: %v", h.antenna.Levels[writes:])
	}

	// Switching back on waits for the next minute edge again.
	h.sw.Set(true)
	h.tick()
	if h.e.State() != WaitingForMinuteEdge {
		t.Errorf("after re-arm: got %v", h.e.State())
	}
}

func TestTickOverrunResynchronizes(t *testing.T) {
	loc := berlin(t)
	start := time.Date(2026, 10, 18, 12, 0, 0, 0, loc)
	h := newHarness(t, start, true)

	for sec := 0; sec <= 10; sec++ {
		h.tickAndRelease()
	}
	if h.e.State() != Transmitting {
		t.Fatalf("got %v, want TRANSMITTING", h.e.State())
	}

	// Scheduler stall: the next wake-up is 2.5s after second 10.
	h.clk.Set(start.Add(12500 * time.Millisecond))
	h.mono = h.mono.Add(1500 * time.Millisecond)

	if d := h.e.OnSecond(); d != 0 {
		t.Errorf("pulse %v emitted at shifted phase", d)
	}
	if h.e.State() != WaitingForMinuteEdge {
		t.Errorf("got %v, want WAITING_FOR_MINUTE_EDGE", h.e.State())
	}
	h.assertReleased()

	faults := h.faults()
	if len(faults) != 1 || !errors.Is(faults[0].Err, ErrTickOverrun) {
		t.Fatalf("faults: %+v", faults)
	}
	if faults[0].Reason != "TICK_OVERRUN" {
		t.Errorf("fault kind: got %q", faults[0].Reason)
	}
	if _, ok := h.e.Frame(); ok {
		t.Error("stale frame kept after overrun")
	}

	// Transmission resumes at the next minute edge.
	h.clk.Set(start.Add(14 * time.Second))
	for i := 0; i < 60 && h.e.State() != Transmitting; i++ {
		h.tickAndRelease()
	}
	if h.e.State() != Transmitting {
		t.Errorf("did not resume, state %v", h.e.State())
	}
	frames := h.frames()
	if last := frames[len(frames)-1]; last.Minute != 2 {
		t.Errorf("resumed frame minute: got %d, want 2", last.Minute)
	}
}

func TestOffPhaseWakeupResynchronizes(t *testing.T) {
	tests := []struct {
		name    string
		reading time.Duration // from the minute start; second 4 was the last tick
	}{
		{"1.45s after the previous wake-up", 5450 * time.Millisecond},
		{"450ms before the boundary", 4550 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := berlin(t)
			start := time.Date(2026, 10, 18, 12, 0, 0, 0, loc)
			h := newHarness(t, start, true)

			for sec := 0; sec < 5; sec++ {
				h.tickAndRelease()
			}
			if h.e.State() != Transmitting {
				t.Fatalf("got %v, want TRANSMITTING", h.e.State())
			}
			lowWrites := h.antenna.LowWrites()

			h.clk.Set(start.Add(tt.reading))
			h.mono = h.mono.Add(500 * time.Millisecond)

			if d := h.e.OnSecond(); d != 0 {
				t.Errorf("pulse %v emitted off phase", d)
			}
			if h.antenna.LowWrites() != lowWrites {
				t.Error("antenna keyed off phase")
			}
			if h.e.State() != WaitingForMinuteEdge {
				t.Errorf("got %v, want WAITING_FOR_MINUTE_EDGE", h.e.State())
			}
			h.assertReleased()

			faults := h.faults()
			if len(faults) != 1 || !errors.Is(faults[0].Err, ErrTickOverrun) {
				t.Fatalf("faults: %+v", faults)
			}
			if faults[0].Reason != FaultTickOverrun {
				t.Errorf("fault kind: got %q", faults[0].Reason)
			}

			// Back on a boundary the emitter stays quiet until the minute edge.
			h.clk.Set(start.Add(6 * time.Second))
			if d := h.tickAndRelease(); d != 0 {
				t.Errorf("pulse %v before the minute edge", d)
			}
			if len(h.faults()) != 1 {
				t.Errorf("extra faults: %+v", h.faults())
			}
		})
	}
}

func TestClockStalledDisarms(t *testing.T) {
	loc := berlin(t)
	h := newHarness(t, time.Date(2026, 10, 18, 12, 0, 0, 0, loc), true)

	for sec := 0; sec < 6; sec++ {
		h.tickAndRelease()
	}
	h.e.OnSecond() // second 6; the clock freezes here

	for i := 0; i < 31; i++ {
		h.mono = h.mono.Add(time.Second)
		if d := h.e.OnSecond(); d != 0 {
			t.Fatalf("pulse from a frozen clock")
		}
		h.e.OnRelease()
		h.e.OnPoll()
	}

	if h.e.State() != Disarmed {
		t.Fatalf("got %v, want DISARMED", h.e.State())
	}
	h.assertReleased()

	faults := h.faults()
	if len(faults) != 1 || !errors.Is(faults[0].Err, ErrClockStalled) {
		t.Fatalf("faults: %+v", faults)
	}

	// A frozen reading never re-arms.
	h.e.OnSecond()
	if h.e.State() != Disarmed {
		t.Errorf("re-armed on a frozen clock: %v", h.e.State())
	}

	h.advance(time.Second)
	h.e.OnSecond()
	if h.e.State() != WaitingForMinuteEdge {
		t.Errorf("after clock resumed: got %v", h.e.State())
	}
}

func TestInvalidFrameHalts(t *testing.T) {
	// Two-digit years cannot describe 2100; its weekdays differ from 2000.
	h := newHarness(t, time.Date(2099, 12, 31, 23, 59, 0, 0, time.UTC), true)

	if d := h.tick(); d != 0 {
		t.Errorf("pulse %v for an invalid frame", d)
	}
	if h.e.State() != Disarmed {
		t.Errorf("got %v, want DISARMED", h.e.State())
	}
	if !h.e.Halted() {
		t.Error("expected halted")
	}
	h.assertReleased()

	faults := h.faults()
	if len(faults) != 1 || !errors.Is(faults[0].Err, dcf77.ErrInvalidFrame) {
		t.Fatalf("faults: %+v", faults)
	}
	if faults[0].Reason != "INVALID_TIME_FRAME" {
		t.Errorf("fault kind: got %q", faults[0].Reason)
	}

	for i := 0; i < 5; i++ {
		h.tick()
		h.e.OnPoll()
	}
	if h.e.State() != Disarmed {
		t.Errorf("halted emitter re-armed: %v", h.e.State())
	}

	// Cycling the switch clears the latch.
	h.sw.Set(false)
	h.e.OnPoll()
	h.sw.Set(true)
	h.tick()
	if h.e.Halted() {
		t.Error("latch not cleared by switch cycle")
	}
	if h.e.State() != WaitingForMinuteEdge {
		t.Errorf("after switch cycle: got %v", h.e.State())
	}
}

func TestPinWriteFault(t *testing.T) {
	loc := berlin(t)
	h := newHarness(t, time.Date(2026, 10, 18, 12, 0, 0, 0, loc), true)
	h.antenna.WriteError = errors.New("line gone")

	if d := h.tick(); d != 0 {
		t.Errorf("pulse %v despite write failure", d)
	}
	if h.e.State() != Disarmed {
		t.Errorf("got %v, want DISARMED", h.e.State())
	}

	faults := h.faults()
	if len(faults) == 0 || !errors.Is(faults[0].Err, ErrPinWrite) {
		t.Fatalf("faults: %+v", faults)
	}
}

func TestRunReleasesOnCancel(t *testing.T) {
	h := newHarness(t, time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC), true)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.e.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if h.e.State() != Disarmed {
		t.Errorf("got %v, want DISARMED", h.e.State())
	}
	h.assertReleased()
}

func TestRunPulsesOnClockBoundary(t *testing.T) {
	loc := berlin(t)
	// 50ms before a minute edge: the first wake-up is scheduled from the
	// clock's own boundary, pushed out a second since 50ms is too close.
	h := newHarness(t, time.Date(2026, 10, 18, 12, 0, 59, 950*int(time.Millisecond), loc), true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.e.Run(ctx) }()

	deadline := time.After(3 * time.Second)
	for h.antenna.LowWrites() == 0 || !h.antenna.High() {
		select {
		case <-deadline:
			t.Fatalf("no released pulse: low writes %d, high %v", h.antenna.LowWrites(), h.antenna.High())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if n := h.antenna.LowWrites(); n != 1 {
		t.Errorf("low writes: got %d, want 1", n)
	}
	if h.led.LowWrites() != 1 {
		t.Errorf("LED low writes: got %d, want 1", h.led.LowWrites())
	}
	frames := h.frames()
	if len(frames) != 1 || frames[0].Minute != 2 {
		t.Errorf("frames: %+v", frames)
	}
	if len(h.faults()) != 0 {
		t.Errorf("faults: %+v", h.faults())
	}
}

func TestFaultKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrUnsynchronized, "UNSYNCHRONIZED_CLOCK"},
		{ErrTickOverrun, "TICK_OVERRUN"},
		{ErrClockStalled, "CLOCK_STALLED"},
		{ErrPinWrite, "PIN_WRITE"},
		{ErrMissingCapability, "CONFIGURATION"},
		{dcf77.ErrInvalidFrame, "INVALID_TIME_FRAME"},
		{errors.New("other"), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := FaultKind(tt.err); got != tt.want {
			t.Errorf("FaultKind(%v): got %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		Disarmed:             "DISARMED",
		WaitingForMinuteEdge: "WAITING_FOR_MINUTE_EDGE",
		Transmitting:         "TRANSMITTING",
		State(9):             "UNKNOWN",
	} {
		if s.String() != want {
			t.Errorf("got %q, want %q", s.String(), want)
		}
	}
}

func TestObserversFanOut(t *testing.T) {
	var a, b int
	obs := Observers{
		ObserverFunc(func(Event) { a++ }),
		nil,
		ObserverFunc(func(Event) { b++ }),
	}
	obs.Observe(Event{Type: EventFrame})
	if a != 1 || b != 1 {
		t.Errorf("got a=%d b=%d, want 1 1", a, b)
	}
}
