//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Chip is not available on non-Linux platforms.
type Chip struct{}

// OpenChip returns an error on non-Linux platforms.
func OpenChip(name string) (*Chip, error) {
	return nil, errUnsupported
}

// Output is not implemented on non-Linux platforms.
func (c *Chip) Output(offset int, activeLow bool) (*RealOutput, error) {
	return nil, errUnsupported
}

// Switch is not implemented on non-Linux platforms.
func (c *Chip) Switch(offset int, activeLow bool) (*RealSwitch, error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (c *Chip) Close() error {
	return nil
}

// RealOutput is not available on non-Linux platforms.
type RealOutput struct{}

// SetHigh is not implemented on non-Linux platforms.
func (o *RealOutput) SetHigh() error {
	return errUnsupported
}

// SetLow is not implemented on non-Linux platforms.
func (o *RealOutput) SetLow() error {
	return errUnsupported
}

// RealSwitch is not available on non-Linux platforms.
type RealSwitch struct{}

// IsOn always reports off on non-Linux platforms.
func (s *RealSwitch) IsOn() bool {
	return false
}
