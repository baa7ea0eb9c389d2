package emitter

import (
	"fmt"
	"time"

	"github.com/sweeney/dcf77-emitter/internal/dcf77"
	"github.com/sweeney/dcf77-emitter/internal/gpio"
)

// Shaper turns symbols into antenna pulses and mirrors them on the LED.
// Low means carrier reduced.
type Shaper struct {
	antenna gpio.Output
	led     gpio.Output
	low     bool
}

// NewShaper creates a Shaper for the given pins. It does not touch the pins.
func NewShaper(antenna, led gpio.Output) *Shaper {
	return &Shaper{antenna: antenna, led: led}
}

// Begin starts the pulse for sym and returns how long it lasts. The caller
// must call Release once that time has passed. A marker returns zero and
// leaves the pins released.
func (s *Shaper) Begin(sym dcf77.Symbol) (time.Duration, error) {
	d := dcf77.PulseWidth(sym)
	if d == 0 {
		if s.low {
			return 0, s.Release()
		}
		return 0, nil
	}

	if err := s.antenna.SetLow(); err != nil {
		return 0, fmt.Errorf("antenna: %w", err)
	}
	s.low = true
	if err := s.led.SetLow(); err != nil {
		return 0, fmt.Errorf("led: %w", err)
	}
	return d, nil
}

// Release drives both pins high. It is safe to call at any time.
func (s *Shaper) Release() error {
	if err := s.antenna.SetHigh(); err != nil {
		return fmt.Errorf("antenna: %w", err)
	}
	s.low = false
	if err := s.led.SetHigh(); err != nil {
		return fmt.Errorf("led: %w", err)
	}
	return nil
}

// Low reports whether a pulse is in progress.
func (s *Shaper) Low() bool {
	return s.low
}
