// Package decoder dispatches track decoding across encoding-specific
// implementations. Decoders register themselves at init time; the registry
// is read-only afterwards and safe for concurrent reads.
package decoder

import (
	"errors"
	"fmt"

	"fluxdec/bitstream"
	"fluxdec/flux"
	"fluxdec/track"
)

// Encoding tags the flux-to-bit scheme a decoder understands. The set covers
// the formats the registry is meant to dispatch over; FM and the two GCR
// variants have no decoder yet.
type Encoding string

const (
	MFM      Encoding = "mfm"
	FM       Encoding = "fm"
	GCRCBM   Encoding = "gcr-cbm"
	GCRApple Encoding = "gcr-apple"
	AmigaMFM Encoding = "amiga-mfm"
)

// Decoder is one encoding-specific probe/decode implementation.
type Decoder interface {
	Name() string
	Encoding() Encoding

	// Probe estimates how likely the flux belongs to this encoding,
	// as a confidence in 0..100.
	Probe(stream *flux.Stream) int

	// DecodeTrack decodes one revolution into sector records.
	DecodeTrack(stream *flux.Stream, cylinder, head int) (*track.Track, error)
}

// TrackEncoder is implemented by decoders that can also generate the raw
// bitstream of a track, enabling encode/decode round trips.
type TrackEncoder interface {
	EncodeTrack(sectors [][]byte, cylinder, head int) (*bitstream.Bitstream, error)
}

// BitstreamDecoder is implemented by decoders that can extract sectors from
// an already assembled bitstream, letting callers substitute their own
// clock recovery, such as the adaptive classifier.
type BitstreamDecoder interface {
	DecodeBitstream(bs *bitstream.Bitstream, cylinder, head int) (*track.Track, error)
}

// ErrNoDecoder reports that no registered decoder matched the flux.
var ErrNoDecoder = errors.New("no decoder matched")

var registry []Decoder

// Register adds a decoder to the lookup table. Call it from package init:
// the table must be complete before decoding starts.
func Register(d Decoder) {
	registry = append(registry, d)
}

// Lookup returns the registered decoder with the given name.
func Lookup(name string) (Decoder, bool) {
	for _, d := range registry {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// All returns the registered decoders in registration order.
func All() []Decoder {
	out := make([]Decoder, len(registry))
	copy(out, registry)
	return out
}

// SelectBest probes the flux with every registered decoder and returns the
// most confident one along with its confidence.
func SelectBest(stream *flux.Stream) (Decoder, int, error) {
	var best Decoder
	bestConfidence := 0
	for _, d := range registry {
		if c := d.Probe(stream); c > bestConfidence {
			best, bestConfidence = d, c
		}
	}
	if best == nil {
		return nil, 0, fmt.Errorf("%w: no probe returned confidence above zero", ErrNoDecoder)
	}
	return best, bestConfidence, nil
}

// ConfidenceFromMarks maps a sync-mark count from a probe prefix onto the
// shared confidence tiers.
func ConfidenceFromMarks(marks int) int {
	switch {
	case marks >= 20:
		return 92
	case marks >= 10:
		return 80
	case marks >= 5:
		return 65
	default:
		return marks * 45 / 5
	}
}
