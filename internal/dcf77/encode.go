package dcf77

import (
	"strings"
	"time"
)

// FrameBits is the number of modulated seconds in a minute. Second 59 carries
// no pulse and marks the start of the next minute.
const FrameBits = 59

// Bit positions within a minute.
const (
	BitStartOfMinute = 0
	BitCall          = 15
	BitDSTAnnounce   = 16
	BitCEST          = 17
	BitCET           = 18
	BitLeapAnnounce  = 19
	BitStartOfTime   = 20
	BitMinute        = 21 // 7 bits
	BitMinuteParity  = 28
	BitHour          = 29 // 6 bits
	BitHourParity    = 35
	BitDay           = 36 // 6 bits
	BitWeekday       = 42 // 3 bits
	BitMonth         = 45 // 5 bits
	BitYear          = 50 // 8 bits
	BitDateParity    = 58
)

// Symbol is what one second of transmission carries.
type Symbol uint8

const (
	Zero Symbol = iota
	One
	Marker
)

func (s Symbol) String() string {
	switch s {
	case Zero:
		return "0"
	case One:
		return "1"
	default:
		return "M"
	}
}

// Bits is one encoded minute, indexed by second.
type Bits [FrameBits]bool

// Symbol returns the symbol sent during the given second of the minute.
// Second 59 (and anything out of range) is the minute marker.
func (b Bits) Symbol(second int) Symbol {
	if second < 0 || second >= FrameBits {
		return Marker
	}
	if b[second] {
		return One
	}
	return Zero
}

// String renders the bits as 59 characters of '0' and '1'.
func (b Bits) String() string {
	var sb strings.Builder
	sb.Grow(FrameBits)
	for _, v := range b {
		if v {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Encode converts a frame into its DCF77 bit pattern. The result depends only
// on f. An invalid frame returns an error wrapping ErrInvalidFrame.
func Encode(f Frame) (Bits, error) {
	if err := f.Validate(); err != nil {
		return Bits{}, err
	}

	var b Bits
	// Bits 0-15 (start of minute, civil warnings, call bit) stay zero.
	b[BitDSTAnnounce] = f.DSTAnnounce
	b[BitCEST] = f.DST
	b[BitCET] = !f.DST
	b[BitLeapAnnounce] = f.LeapAnnounce
	b[BitStartOfTime] = true

	putBCD(b[BitMinute:BitMinuteParity], f.Minute)
	b[BitMinuteParity] = Parity(b[BitMinute:BitMinuteParity])

	putBCD(b[BitHour:BitHourParity], f.Hour)
	b[BitHourParity] = Parity(b[BitHour:BitHourParity])

	putBCD(b[BitDay:BitWeekday], f.Day)
	putBCD(b[BitWeekday:BitMonth], f.Weekday)
	putBCD(b[BitMonth:BitYear], f.Month)
	putBCD(b[BitYear:BitDateParity], f.Year)
	b[BitDateParity] = Parity(b[BitDay:BitDateParity])

	return b, nil
}

// MustEncode is Encode for frames that are known to be valid. It panics otherwise.
func MustEncode(f Frame) Bits {
	b, err := Encode(f)
	if err != nil {
		panic(err)
	}
	return b
}

// Parity returns true iff an odd number of bits are set, i.e. the value of
// the even-parity bit that follows them.
func Parity(bits []bool) bool {
	odd := false
	for _, v := range bits {
		if v {
			odd = !odd
		}
	}
	return odd
}

// putBCD writes v as packed BCD, least significant bit first, into dst.
func putBCD(dst []bool, v int) {
	bcd := (v/10)<<4 | v%10
	for i := range dst {
		dst[i] = bcd>>i&1 == 1
	}
}

// Pulse widths. The carrier is reduced for this long at the start of a second.
const (
	PulseZero = 100 * time.Millisecond
	PulseOne  = 200 * time.Millisecond
)

// PulseWidth returns how long the carrier is reduced for a symbol.
// The minute marker has no reduction.
func PulseWidth(s Symbol) time.Duration {
	switch s {
	case Zero:
		return PulseZero
	case One:
		return PulseOne
	default:
		return 0
	}
}
