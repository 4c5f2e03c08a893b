package adaptive

import "math/rand"

// DebugOptions configures fault injection for stress-testing downstream
// error handling. It is deliberately a separate type, honored only by
// NewWithDebug: the plain New constructor can never inject noise, so the
// production decode path cannot pick it up by accident.
type DebugOptions struct {
	// NoiseStart and NoiseEnd bound the sample offsets (inclusive) that
	// receive injected noise.
	NoiseStart int
	NoiseEnd   int

	// NoiseAmount is the maximum distortion added or subtracted, in 50 ns
	// units.
	NoiseAmount float64

	// Seed makes the injected noise reproducible.
	Seed int64
}

type randSource interface {
	Float64() float64
}

// NewWithDebug creates a classifier that distorts samples inside the
// configured offset range. Test use only.
func NewWithDebug(cfg Config, dbg DebugOptions) *State {
	a := New(cfg)
	a.noise = &dbg
	a.noiseRand = rand.New(rand.NewSource(dbg.Seed))
	return a
}

func (a *State) injectNoise(v float64) float64 {
	if a.sampleIndex < a.noise.NoiseStart || a.sampleIndex > a.noise.NoiseEnd {
		return v
	}
	v += (a.noiseRand.Float64()*2 - 1) * a.noise.NoiseAmount
	if v < 0 {
		v = 0
	}
	return v
}
