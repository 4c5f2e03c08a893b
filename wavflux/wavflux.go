// Package wavflux recovers flux transition times from sound-card captures
// of a drive read head. Each zero crossing of the analog signal corresponds
// to one flux reversal.
package wavflux

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"

	"fluxdec/flux"
)

// ErrNoSignal reports a capture without usable edges.
var ErrNoSignal = errors.New("wavflux: no signal above the noise floor")

// Options tunes edge detection.
type Options struct {
	// NoiseFloor is the maximum absolute sample value treated as silence.
	// Zero derives it as a tenth of the capture's peak amplitude.
	NoiseFloor int
}

// ReadFile loads a WAV capture and extracts its flux transitions.
func ReadFile(path string, opts Options) (*flux.Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, opts)
}

// Decode extracts flux transitions from a WAV capture. Multi-channel
// captures use the first channel.
func Decode(r io.ReadSeeker, opts Options) (*flux.Stream, error) {
	d := wav.NewDecoder(r)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavflux: decoding PCM: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("wavflux: missing or bad PCM format information")
	}

	samples := buf.Data
	if buf.Format.NumChannels > 1 {
		ch := buf.Format.NumChannels
		mono := make([]int, len(samples)/ch)
		for i := range mono {
			mono[i] = samples[i*ch]
		}
		samples = mono
	}

	edges := detectEdges(samples, opts.NoiseFloor)
	if len(edges) == 0 {
		return nil, ErrNoSignal
	}

	times := make([]uint64, len(edges))
	rate := uint64(buf.Format.SampleRate)
	for i, idx := range edges {
		times[i] = uint64(idx) * 1e9 / rate
	}
	return flux.New(times)
}

// detectEdges returns the sample indices where the signal crosses zero,
// using a hysteresis comparator: a crossing only counts once the signal
// clears the noise floor on the other side.
func detectEdges(samples []int, noiseFloor int) []int {
	if noiseFloor <= 0 {
		peak := 0
		for _, s := range samples {
			if s > peak {
				peak = s
			}
			if -s > peak {
				peak = -s
			}
		}
		noiseFloor = peak / 10
		if noiseFloor == 0 {
			return nil
		}
	}

	var edges []int
	state := 0 // -1 low, +1 high, 0 undetermined
	for i, s := range samples {
		switch {
		case s > noiseFloor && state != 1:
			if state == -1 {
				edges = append(edges, i)
			}
			state = 1
		case s < -noiseFloor && state != -1:
			if state == 1 {
				edges = append(edges, i)
			}
			state = -1
		}
	}
	return edges
}
