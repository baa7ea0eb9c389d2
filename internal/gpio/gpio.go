// Package gpio provides the digital pins the emitter drives and the switch
// that arms it, with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Output is a digital output pin.
type Output interface {
	SetHigh() error
	SetLow() error
}

// Switch reports whether transmission is enabled.
type Switch interface {
	IsOn() bool
}

// Default pin offsets on gpiochip0 (BCM numbering on a Raspberry Pi).
const (
	DefaultChip       = "gpiochip0"
	DefaultAntennaPin = 18
	DefaultLEDPin     = 23
	DefaultSwitchPin  = 24
)

// Fixed is a Switch with a constant position.
type Fixed bool

// IsOn returns the fixed position.
func (f Fixed) IsOn() bool {
	return bool(f)
}
