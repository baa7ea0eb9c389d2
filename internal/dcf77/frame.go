// Package dcf77 encodes calendar time into DCF77 minute frames.
// It has no side effects and no knowledge of pins or timers.
package dcf77

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidFrame is returned when a Frame cannot describe a real calendar minute.
var ErrInvalidFrame = errors.New("dcf77: invalid frame")

// Frame is the date and time carried by one minute of transmission.
type Frame struct {
	Year    int // two digits, 0-99 (20YY)
	Month   int // 1-12
	Day     int // 1-31
	Weekday int // 1 = Monday ... 7 = Sunday
	Hour    int // 0-23
	Minute  int // 0-59

	DST          bool // summer time (CEST) in effect
	DSTAnnounce  bool // a DST changeover happens at the end of this hour
	LeapAnnounce bool // a leap second is inserted at the end of this hour
}

// FrameAt builds the frame for the minute containing t, using t's location
// for the DST flags. Seconds are ignored.
func FrameAt(t time.Time) Frame {
	_, offset := t.Zone()
	_, offsetLater := t.Add(time.Hour).Zone()

	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}

	return Frame{
		Year:        t.Year() % 100,
		Month:       int(t.Month()),
		Day:         t.Day(),
		Weekday:     wd,
		Hour:        t.Hour(),
		Minute:      t.Minute(),
		DST:         t.IsDST(),
		DSTAnnounce: offset != offsetLater,
	}
}

// Validate reports whether the frame names a real minute of the Gregorian
// calendar, with a weekday that matches the date.
func (f Frame) Validate() error {
	switch {
	case f.Year < 0 || f.Year > 99:
		return fmt.Errorf("%w: year %d", ErrInvalidFrame, f.Year)
	case f.Month < 1 || f.Month > 12:
		return fmt.Errorf("%w: month %d", ErrInvalidFrame, f.Month)
	case f.Hour < 0 || f.Hour > 23:
		return fmt.Errorf("%w: hour %d", ErrInvalidFrame, f.Hour)
	case f.Minute < 0 || f.Minute > 59:
		return fmt.Errorf("%w: minute %d", ErrInvalidFrame, f.Minute)
	case f.Weekday < 1 || f.Weekday > 7:
		return fmt.Errorf("%w: weekday %d", ErrInvalidFrame, f.Weekday)
	}

	year := 2000 + f.Year
	if n := daysIn(year, time.Month(f.Month)); f.Day < 1 || f.Day > n {
		return fmt.Errorf("%w: day %d (month %d has %d days)", ErrInvalidFrame, f.Day, f.Month, n)
	}

	wd := int(time.Date(year, time.Month(f.Month), f.Day, 0, 0, 0, 0, time.UTC).Weekday())
	if wd == 0 {
		wd = 7
	}
	if wd != f.Weekday {
		return fmt.Errorf("%w: weekday %d, date %04d-%02d-%02d is weekday %d",
			ErrInvalidFrame, f.Weekday, year, f.Month, f.Day, wd)
	}

	return nil
}

// String formats the frame as "20YY-MM-DD hh:mm" with a zone suffix.
func (f Frame) String() string {
	zone := "CET"
	if f.DST {
		zone = "CEST"
	}
	return fmt.Sprintf("20%02d-%02d-%02d %02d:%02d %s", f.Year, f.Month, f.Day, f.Hour, f.Minute, zone)
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
