// Package dpll emulates the WD177x-class digital phase-locked loop used by
// 1980s floppy controllers, cycle-stepped against an 8 MHz reference clock.
// The data separator circuit is described in US patent 4,780,844.
package dpll

import (
	"errors"
	"fmt"
)

const (
	adderModulo = 2048 // 11-bit phase accumulator
	countInit   = 128  // period counter at nominal speed

	defaultClockRate       = 80 // reference clock in hundred-kHz units (8 MHz)
	defaultPhaseCorrection = 90
	defaultLowStop         = 115
	defaultHighStop        = 141

	// A gap longer than this many reference clocks is a no-flux area:
	// tracking restarts instead of free-running through it.
	gapResetClocks = 256

	// Cap on the window estimate returned for a no-flux gap.
	maxGapWindows = 64
)

// Correction tables, indexed by the two-sample MSB history joined with the
// adder MSB at the moment of the transition (oldest sample in the high bit).
// Entries are correction magnitudes in windows; direction follows the
// current MSB: a transition caught in the upper half of the accumulator
// range arrived early, so the window is running long.
var (
	freqErrorTable  = [8]uint32{0, 1, 0, 1, 1, 1, 1, 2}
	phaseErrorTable = [8]uint32{0, 1, 1, 1, 1, 1, 1, 2}
	directionTable  = [8]int8{0, 1, -1, 1, -1, 1, -1, 1}
)

// ErrNonMonotonic reports transition times that go backwards.
var ErrNonMonotonic = errors.New("dpll: non-monotonic transition time")

// Config selects density and optional overrides of the silicon constants.
// Zero values mean the hardware defaults.
type Config struct {
	HighDensity bool

	// ClockRate is the reference clock in hundred-kHz units (80 = 8 MHz).
	ClockRate int

	// PhaseCorrection is the accumulator substitution offset applied while
	// a phase adjustment is pending (default 90, giving low/high
	// substitution constants of 38 and 218). Must stay below 128.
	PhaseCorrection int

	// LowStop and HighStop clamp the period counter (defaults 115 and 141).
	LowStop, HighStop uint32
}

// Stats accumulates per-track decode statistics.
type Stats struct {
	Windows          uint64
	Resets           uint64
	FreqCorrections  uint64
	PhaseCorrections uint64
}

// State is one track-decode instance of the data separator. Not safe for
// concurrent use; create one per track-decode attempt.
type State struct {
	clkPeriodNs    uint64
	hdShift        uint
	lowStop        uint32
	highStop       uint32
	lowCorrection  uint32
	highCorrection uint32

	time        uint64 // emulated clock, ns from track start
	adder       uint32 // 11-bit phase accumulator
	count       uint32 // period counter, lowStop..highStop
	history     uint32 // last two adder MSBs at transitions
	freqAmount  uint32 // pending frequency correction, windows
	freqUp      bool
	phaseAmount uint32 // pending phase substitution, windows
	phaseHigh   bool

	stats Stats
}

// New creates a data separator in the reset state.
func New(cfg Config) *State {
	if cfg.ClockRate <= 0 {
		cfg.ClockRate = defaultClockRate
	}
	if cfg.PhaseCorrection <= 0 {
		cfg.PhaseCorrection = defaultPhaseCorrection
	}
	if cfg.PhaseCorrection >= countInit {
		cfg.PhaseCorrection = countInit - 1
	}
	if cfg.LowStop == 0 {
		cfg.LowStop = defaultLowStop
	}
	if cfg.HighStop == 0 {
		cfg.HighStop = defaultHighStop
	}
	d := &State{
		clkPeriodNs:    uint64(10000 / cfg.ClockRate),
		lowStop:        cfg.LowStop,
		highStop:       cfg.HighStop,
		lowCorrection:  uint32(countInit - cfg.PhaseCorrection),
		highCorrection: uint32(countInit + cfg.PhaseCorrection),
	}
	if cfg.HighDensity {
		d.hdShift = 1
	}
	d.Reset()
	return d
}

// Reset clears the accumulator and all correction state. The emulated clock
// is kept, so track position stays continuous across forced resets.
func (d *State) Reset() {
	d.adder = 0
	d.count = countInit
	d.history = 0
	d.freqAmount = 0
	d.freqUp = false
	d.phaseAmount = 0
	d.phaseHigh = false
}

// BitWidth returns the nominal bit-cell width in nanoseconds implied by the
// current period counter. Pure read.
func (d *State) BitWidth() uint64 {
	return (adderModulo * d.clkPeriodNs / uint64(d.count)) >> d.hdShift
}

// Stats returns a copy of the accumulated decode statistics.
func (d *State) Stats() Stats {
	return d.stats
}

// BitSpacing advances the emulated clock to the given transition time and
// returns the number of inspection windows consumed since the previous
// transition. Transition times must be non-decreasing across calls.
func (d *State) BitSpacing(dataTimeNs uint64) (int, error) {
	if dataTimeNs < d.time {
		return 0, fmt.Errorf("%w: %d ns after %d ns", ErrNonMonotonic, dataTimeNs, d.time)
	}

	if dataTimeNs-d.time > gapResetClocks*d.clkPeriodNs {
		// No-flux area, e.g. a copy-protection gap. Estimate the window
		// count from elapsed time and restart tracking at the new
		// transition; no corrections are applied.
		windows := int((dataTimeNs - d.time) / d.BitWidth())
		if windows > maxGapWindows {
			windows = maxGapWindows
		}
		d.Reset()
		d.time = dataTimeNs
		d.stats.Resets++
		d.stats.Windows += uint64(windows)
		return windows, nil
	}

	windows := 0
	for d.time < dataTimeNs {
		d.time += d.clkPeriodNs
		d.adder += d.increment()
		if d.adder >= adderModulo {
			d.adder -= adderModulo
			windows++
			d.stats.Windows++
			d.endWindow()
		}
	}
	d.applyCorrections()
	return windows, nil
}

// increment is the per-clock accumulator step: the period counter, or a
// substituted constant while a phase adjustment is pending.
func (d *State) increment() uint32 {
	inc := d.count
	if d.phaseAmount > 0 {
		if d.phaseHigh {
			inc = d.highCorrection
		} else {
			inc = d.lowCorrection
		}
	}
	return inc << d.hdShift
}

// endWindow runs at every window boundary: it applies a pending frequency
// nudge to the period counter and decays both correction magnitudes, so
// corrections fade out between transitions.
func (d *State) endWindow() {
	if d.freqAmount > 0 {
		if d.freqUp {
			if d.count < d.highStop {
				d.count++
			}
		} else {
			if d.count > d.lowStop {
				d.count--
			}
		}
		d.freqAmount--
	}
	if d.phaseAmount > 0 {
		d.phaseAmount--
	}
}

// applyCorrections runs once per detected transition. The adder MSB history
// selects a frequency-error level and a phase substitution; level zero
// means the loop is already adjusted.
func (d *State) applyCorrections() {
	msb := (d.adder >> 10) & 1
	idx := (d.history<<1 | msb) & 7

	if amount := freqErrorTable[idx]; amount > 0 {
		d.freqAmount = amount
		d.freqUp = directionTable[idx] > 0
		d.stats.FreqCorrections++
	}
	if amount := phaseErrorTable[idx]; amount > 0 {
		d.phaseAmount = amount
		d.phaseHigh = directionTable[idx] > 0
		d.stats.PhaseCorrections++
	}

	d.history = (d.history<<1 | msb) & 3
}
