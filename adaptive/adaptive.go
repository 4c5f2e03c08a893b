// Package adaptive implements a bucket-based period classifier for damaged
// or dirty media. Samples are 50 ns-quantized bit-cell periods; three
// self-adjusting thresholds track the 4/6/8 microsecond MFM run lengths.
// Compared to the hardware loop in package dpll it tolerates wide timing
// deviation at the cost of precision.
package adaptive

import "math"

// Default thresholds in 50 ns units: 4, 6 and 8 microsecond bit cells.
const (
	defaultShort  = 80
	defaultMedium = 120
	defaultLong   = 160

	// defaultWindow is the half-width of each bucket's acceptance range,
	// in 50 ns units (1 microsecond).
	defaultWindow = 20

	// defaultRateOfChange divides the residual fed back into the matched
	// threshold.
	defaultRateOfChange = 4.0
)

// bucketBits is the number of bit cells spanned by each bucket, matching
// the 10/100/1000 MFM run patterns.
var bucketBits = [3]int{2, 3, 4}

// Config tunes the classifier. Zero values mean the DD defaults.
type Config struct {
	// Thresholds are the short/medium/long bucket centers in 50 ns units.
	Thresholds [3]float64

	// Window is the acceptance half-width around each threshold, in 50 ns
	// units. Samples farther than this from every threshold are invalid.
	Window float64

	// RateOfChange divides the residual when nudging the matched
	// threshold toward an accepted sample (default 4.0, range 1..16).
	RateOfChange float64

	// SmoothingRadius, when positive, sizes a per-bucket moving-average
	// ring buffer applied to accepted samples before adaptation.
	SmoothingRadius int

	// UseEntropy enables the per-sample entropy output.
	UseEntropy bool
}

// Stats counts classified and rejected samples.
type Stats struct {
	Samples [3]uint64
	Invalid uint64
}

// State is one track-decode instance of the classifier. Not safe for
// concurrent use.
type State struct {
	thresholds [3]float64
	nominal    [3]float64
	window     float64
	rate       float64
	useEntropy bool
	smooth     [3]*movingAverage
	stats      Stats

	sampleIndex int
	noise       *DebugOptions
	noiseRand   randSource
}

// New creates a classifier with the production decode path only.
// Noise injection requires the separate NewWithDebug constructor.
func New(cfg Config) *State {
	if cfg.Thresholds == ([3]float64{}) {
		cfg.Thresholds = [3]float64{defaultShort, defaultMedium, defaultLong}
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultWindow
	}
	if cfg.RateOfChange < 1 {
		cfg.RateOfChange = defaultRateOfChange
	}
	if cfg.RateOfChange > 16 {
		cfg.RateOfChange = 16
	}
	a := &State{
		thresholds: cfg.Thresholds,
		nominal:    cfg.Thresholds,
		window:     cfg.Window,
		rate:       cfg.RateOfChange,
		useEntropy: cfg.UseEntropy,
	}
	if cfg.SmoothingRadius > 0 {
		for i := range a.smooth {
			a.smooth[i] = newMovingAverage(cfg.SmoothingRadius)
		}
	}
	return a
}

// Thresholds returns the current threshold values in 50 ns units.
func (a *State) Thresholds() [3]float64 {
	return a.thresholds
}

// Stats returns a copy of the sample counters.
func (a *State) Stats() Stats {
	return a.stats
}

// DecodeSample classifies one period sample into the nearest bucket and
// returns the number of bit cells it spans (2, 3 or 4), along with an
// optional entropy value: the normalized distance to the matched threshold.
// A sample outside every bucket's acceptance range returns 0 bits and is
// counted as invalid.
func (a *State) DecodeSample(period byte) (int, float64) {
	v := float64(period)
	if a.noise != nil {
		v = a.injectNoise(v)
	}
	a.sampleIndex++

	best := 0
	bestDist := math.Abs(v - a.thresholds[0])
	for i := 1; i < len(a.thresholds); i++ {
		if d := math.Abs(v - a.thresholds[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	if bestDist > a.window {
		a.stats.Invalid++
		return 0, 0
	}
	a.stats.Samples[best]++

	target := v
	if a.smooth[best] != nil {
		target = a.smooth[best].push(v)
	}
	a.thresholds[best] += (target - a.thresholds[best]) / a.rate

	// Thresholds never drift beyond half or double nominal.
	if lo := a.nominal[best] / 2; a.thresholds[best] < lo {
		a.thresholds[best] = lo
	}
	if hi := a.nominal[best] * 2; a.thresholds[best] > hi {
		a.thresholds[best] = hi
	}

	var entropy float64
	if a.useEntropy {
		entropy = bestDist / a.window
	}
	return bucketBits[best], entropy
}

// movingAverage is a bounded ring buffer with a running sum.
type movingAverage struct {
	buf    []float64
	next   int
	filled int
	sum    float64
}

func newMovingAverage(size int) *movingAverage {
	return &movingAverage{buf: make([]float64, size)}
}

func (m *movingAverage) push(v float64) float64 {
	if m.filled == len(m.buf) {
		m.sum -= m.buf[m.next]
	} else {
		m.filled++
	}
	m.buf[m.next] = v
	m.sum += v
	m.next = (m.next + 1) % len(m.buf)
	return m.sum / float64(m.filled)
}
