package clock

import "time"

// DefaultOverrunThreshold is the largest gap between ticks that still counts
// as consecutive seconds.
const DefaultOverrunThreshold = 1100 * time.Millisecond

// minWait keeps a wake-up that lands just before a boundary from scheduling
// a second wake-up almost immediately.
const minWait = 100 * time.Millisecond

// PhaseTolerance is how far a reading may land from its second boundary
// before the tick counts as slipped.
const PhaseTolerance = 100 * time.Millisecond

// Tick is one second boundary of the source clock.
type Tick struct {
	Time           time.Time     // the boundary, rounded to the second
	Second         int           // 0-59
	MinuteBoundary bool          // Second == 0
	Gap            time.Duration // raw time since the previous on-phase reading; zero for the first
	Phase          time.Duration // reading minus Time
	Slipped        bool          // Gap too large or negative, or Phase beyond PhaseTolerance
}

// Aligner turns raw clock readings into second ticks. It remembers the last
// boundary it reported so that duplicates are dropped, and the last raw
// reading so that late wake-ups are detected. Not safe for concurrent use.
type Aligner struct {
	threshold time.Duration
	last      time.Time
	lastRaw   time.Time // zero after an off-phase reading
}

// NewAligner creates an Aligner. threshold <= 0 selects DefaultOverrunThreshold.
func NewAligner(threshold time.Duration) *Aligner {
	if threshold <= 0 {
		threshold = DefaultOverrunThreshold
	}
	return &Aligner{threshold: threshold}
}

// Observe converts a reading into a tick. It returns false if the reading
// falls on the boundary already reported.
func (a *Aligner) Observe(now time.Time) (Tick, bool) {
	at := now.Round(time.Second)
	if !a.last.IsZero() && at.Equal(a.last) {
		return Tick{}, false
	}

	tick := Tick{
		Time:           at,
		Second:         at.Second(),
		MinuteBoundary: at.Second() == 0,
		Phase:          now.Sub(at),
	}
	offPhase := tick.Phase > PhaseTolerance || tick.Phase < -PhaseTolerance
	if !a.lastRaw.IsZero() {
		tick.Gap = now.Sub(a.lastRaw)
		tick.Slipped = tick.Gap > a.threshold || tick.Gap < 0
	}
	if !a.last.IsZero() && at.Before(a.last) {
		tick.Slipped = true
	}
	if offPhase {
		tick.Slipped = true
	}

	a.last = at
	a.lastRaw = now
	if offPhase {
		// The next gap is measured from the next reading that sits on a boundary.
		a.lastRaw = time.Time{}
	}
	return tick, true
}

// Reset forgets the last boundary. The next reading is treated as the first.
func (a *Aligner) Reset() {
	a.last = time.Time{}
	a.lastRaw = time.Time{}
}

// UntilNextSecond returns how long to wait from now until the next second
// boundary of the same clock.
func UntilNextSecond(now time.Time) time.Duration {
	d := now.Truncate(time.Second).Add(time.Second).Sub(now)
	if d < minWait {
		d += time.Second
	}
	return d
}
