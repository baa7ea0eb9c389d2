//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "dcf77-emitter"

// Chip owns the GPIO character device and the lines requested from it.
type Chip struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
}

// OpenChip opens a GPIO chip by name, e.g. "gpiochip0".
func OpenChip(name string) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &Chip{chip: chip}, nil
}

// Output requests a line as an output, initially high (released).
func (c *Chip) Output(offset int, activeLow bool) (*RealOutput, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(1)}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	line, err := c.chip.RequestLine(offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", offset, err)
	}
	c.lines = append(c.lines, line)
	return &RealOutput{line: line, offset: offset}, nil
}

// Switch requests a line as an input with pull-down. The switch is on while
// the line is active.
func (c *Chip) Switch(offset int, activeLow bool) (*RealSwitch, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullDown}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	line, err := c.chip.RequestLine(offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("request switch pin %d: %w", offset, err)
	}
	c.lines = append(c.lines, line)
	return &RealSwitch{line: line}, nil
}

// Close releases GPIO resources.
// Reconfigures lines to input with pull-down (matching Pi boot defaults)
// before closing, so the antenna driver is not left keyed.
func (c *Chip) Close() error {
	var errs []error

	for _, line := range c.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", line.Offset(), err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", line.Offset(), err))
		}
	}
	c.lines = nil

	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOutput drives a GPIO line.
type RealOutput struct {
	line   *gpiocdev.Line
	offset int
}

// SetHigh drives the line to its active level.
func (o *RealOutput) SetHigh() error {
	if err := o.line.SetValue(1); err != nil {
		return fmt.Errorf("set pin %d high: %w", o.offset, err)
	}
	return nil
}

// SetLow drives the line to its inactive level.
func (o *RealOutput) SetLow() error {
	if err := o.line.SetValue(0); err != nil {
		return fmt.Errorf("set pin %d low: %w", o.offset, err)
	}
	return nil
}

// RealSwitch reads a GPIO line as the sync switch.
type RealSwitch struct {
	line *gpiocdev.Line
}

// IsOn reports whether the line is active. A read error counts as off so a
// failing input can never keep the transmitter armed.
func (s *RealSwitch) IsOn() bool {
	v, err := s.line.Value()
	if err != nil {
		return false
	}
	return v == 1
}
