// Package pll implements generic continuous-time clock recovery: a floating
// bit-cell estimate nudged toward observed flux timing. It trades the
// cycle accuracy of the hardware emulation in package dpll for tolerance,
// which is enough for encodings whose integrity rests on checksums rather
// than timing, such as Amiga MFM.
package pll

import (
	"errors"
	"fmt"
	"math"
)

const (
	// defaultTolerance bounds the cell estimate to 75%..125% of nominal.
	defaultTolerance = 0.25

	// defaultAdjustRate is the fraction of the per-window residual fed
	// back into the cell estimate.
	defaultAdjustRate = 0.05

	// Window counts per transition are clamped to this range.
	minWindows = 1
	maxWindows = 5
)

// ErrNonMonotonic reports transition times that go backwards.
var ErrNonMonotonic = errors.New("pll: non-monotonic transition time")

// Config sets the nominal bit-cell width and the loop behavior.
type Config struct {
	// CellTimeNs is the nominal bit-cell width in nanoseconds. Required.
	CellTimeNs float64

	// Tolerance is the allowed fractional deviation of the cell estimate
	// from nominal (default 0.25).
	Tolerance float64

	// AdjustRate is the residual feedback gain (default 0.05).
	AdjustRate float64
}

// State is one track-decode instance of the loop. Not safe for concurrent
// use; create one per track-decode attempt.
type State struct {
	cellIdeal  float64
	cellMin    float64
	cellMax    float64
	cell       float64
	adjustRate float64
	lastTime   uint64
}

// New creates a loop locked to the nominal cell time.
func New(cfg Config) *State {
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = defaultTolerance
	}
	if cfg.AdjustRate <= 0 {
		cfg.AdjustRate = defaultAdjustRate
	}
	return &State{
		cellIdeal:  cfg.CellTimeNs,
		cellMin:    cfg.CellTimeNs * (1 - cfg.Tolerance),
		cellMax:    cfg.CellTimeNs * (1 + cfg.Tolerance),
		cell:       cfg.CellTimeNs,
		adjustRate: cfg.AdjustRate,
	}
}

// Reset re-centers the cell estimate on nominal and restarts the time base.
func (p *State) Reset() {
	p.cell = p.cellIdeal
	p.lastTime = 0
}

// CellTime returns the current bit-cell estimate in nanoseconds.
func (p *State) CellTime() float64 {
	return p.cell
}

// Process converts one flux interval into a window count and pulls the cell
// estimate toward the observed timing by a fraction of the residual.
func (p *State) Process(deltaNs uint64) int {
	n := int(math.Round(float64(deltaNs) / p.cell))
	if n < minWindows {
		n = minWindows
	}
	if n > maxWindows {
		n = maxWindows
	}

	residual := float64(deltaNs) - float64(n)*p.cell
	p.cell += residual / float64(n) * p.adjustRate
	if p.cell < p.cellMin {
		p.cell = p.cellMin
	}
	if p.cell > p.cellMax {
		p.cell = p.cellMax
	}
	return n
}

// BitSpacing adapts absolute transition times to Process, so the generic
// loop plugs into the same assembler slot as the hardware emulation.
func (p *State) BitSpacing(dataTimeNs uint64) (int, error) {
	if dataTimeNs < p.lastTime {
		return 0, fmt.Errorf("%w: %d ns after %d ns", ErrNonMonotonic, dataTimeNs, p.lastTime)
	}
	n := p.Process(dataTimeNs - p.lastTime)
	p.lastTime = dataTimeNs
	return n, nil
}
