package flux

import (
	"errors"
	"fmt"
)

// ErrInvalidInput reports a flux stream that violates the input contract:
// empty input or non-monotonic transition timestamps.
var ErrInvalidInput = errors.New("invalid flux input")

// PeriodUnitNs is the quantum of one period byte (50 ns), used by capture
// paths that report bit-cell periods instead of absolute timestamps.
const PeriodUnitNs = 50

// Stream holds the flux-transition timestamps of one track revolution,
// in nanoseconds relative to track start. Timestamps are strictly
// increasing. The stream is read-only after construction.
type Stream struct {
	times []uint64
}

// New validates transition timestamps and wraps them into a Stream.
// Flux intervals are always positive, so timestamps must strictly increase.
func New(timesNs []uint64) (*Stream, error) {
	if len(timesNs) == 0 {
		return nil, fmt.Errorf("%w: empty stream", ErrInvalidInput)
	}
	for i := 1; i < len(timesNs); i++ {
		if timesNs[i] <= timesNs[i-1] {
			return nil, fmt.Errorf("%w: non-monotonic timestamp at index %d", ErrInvalidInput, i)
		}
	}
	return &Stream{times: timesNs}, nil
}

// FromPeriods builds a Stream from 50 ns-quantized period bytes,
// accumulating them into absolute transition times.
func FromPeriods(periods []byte) (*Stream, error) {
	if len(periods) == 0 {
		return nil, fmt.Errorf("%w: empty period array", ErrInvalidInput)
	}
	times := make([]uint64, 0, len(periods))
	var t uint64
	for i, p := range periods {
		if p == 0 {
			return nil, fmt.Errorf("%w: zero period at index %d", ErrInvalidInput, i)
		}
		t += uint64(p) * PeriodUnitNs
		times = append(times, t)
	}
	return &Stream{times: times}, nil
}

// Len returns the number of flux transitions in the stream.
func (s *Stream) Len() int {
	return len(s.times)
}

// Times returns the transition timestamps in nanoseconds.
// The returned slice is owned by the stream and must not be modified.
func (s *Stream) Times() []uint64 {
	return s.times
}

// Periods quantizes the stream intervals into 50 ns period bytes for the
// adaptive decode path. Intervals longer than 255 units saturate.
func (s *Stream) Periods() []byte {
	periods := make([]byte, 0, len(s.times))
	var last uint64
	for _, t := range s.times {
		units := (t - last + PeriodUnitNs/2) / PeriodUnitNs
		if units > 255 {
			units = 255
		}
		if units < 1 {
			units = 1
		}
		periods = append(periods, byte(units))
		last = t
	}
	return periods
}

// Source provides flux intervals one at a time. Different capture back ends
// implement this interface to feed the clock-recovery components.
type Source interface {
	// NextFlux returns the next flux interval in nanoseconds.
	// Returns 0 when no more transitions are available.
	NextFlux() uint64
}

// Iterator walks a Stream as successive intervals.
// It implements the Source interface.
type Iterator struct {
	times    []uint64
	index    int
	lastTime uint64
}

// Iterator returns a fresh interval iterator over the stream.
func (s *Stream) Iterator() *Iterator {
	return &Iterator{times: s.times}
}

// NextFlux returns the next flux interval in nanoseconds,
// or 0 if the stream is exhausted.
func (it *Iterator) NextFlux() uint64 {
	if it.index >= len(it.times) {
		return 0
	}
	next := it.times[it.index]
	interval := next - it.lastTime
	it.lastTime = next
	it.index++
	return interval
}

// IsDone reports whether all transitions have been consumed.
func (it *Iterator) IsDone() bool {
	return it.index >= len(it.times)
}

// FromBits converts a raw bit sequence to zero-jitter flux transition times:
// one transition at the end of every set bit cell. Used to synthesize flux
// for encoders and tests.
func FromBits(bits []byte, bitCount int, cellNs uint64) (*Stream, error) {
	if bitCount <= 0 || cellNs == 0 {
		return nil, fmt.Errorf("%w: empty bit sequence", ErrInvalidInput)
	}
	var times []uint64
	currentTime := uint64(0)
	for i := 0; i < bitCount && i < len(bits)*8; i++ {
		byteIdx := i / 8
		bitIdx := 7 - (i % 8) // MSB-first
		currentTime += cellNs
		if bits[byteIdx]&(1<<bitIdx) != 0 {
			times = append(times, currentTime)
		}
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: bit sequence has no transitions", ErrInvalidInput)
	}
	return &Stream{times: times}, nil
}
