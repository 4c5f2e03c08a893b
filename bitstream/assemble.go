package bitstream

import "fluxdec/flux"

// ClockRecovery converts one absolute flux-transition time into the number
// of inspection windows consumed since the previous transition. Both the
// hardware-exact separator (package dpll) and the continuous loop
// (package pll) implement it.
type ClockRecovery interface {
	BitSpacing(dataTimeNs uint64) (int, error)
}

// Assemble runs a flux stream through clock recovery and packs the result
// into a bitstream: every transition contributes (n-1) zero bits and one
// set bit, the run-length convention shared by MFM, FM and GCR.
func Assemble(stream *flux.Stream, clock ClockRecovery) (*Bitstream, error) {
	bs := New()
	for _, t := range stream.Times() {
		n, err := clock.BitSpacing(t)
		if err != nil {
			return nil, err
		}
		bs.AppendRun(n)
	}
	return bs, nil
}

// AssemblePeriods feeds 50 ns period samples through an adaptive classifier
// into a bitstream. The classifier returns the bit-cell span of each sample
// or zero for unclassifiable ones, which are skipped.
func AssemblePeriods(periods []byte, classify func(byte) (int, float64)) *Bitstream {
	bs := New()
	for _, p := range periods {
		n, _ := classify(p)
		if n > 0 {
			bs.AppendRun(n)
		}
	}
	return bs
}
