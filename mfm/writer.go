// Package mfm implements the MFM clocking layer: writing data bits as
// clock/data half-bit pairs into a raw bitstream, and reading data bits
// back out of one.
package mfm

import "fluxdec/bitstream"

const (
	// SyncA1 is the raw image of an A1 byte with the missing-clock
	// violation: the IBM PC and Amiga sector sync mark.
	SyncA1 = 0x4489

	// SyncC2 is the raw image of a C2 byte with the missing-clock
	// violation: the IBM PC index mark.
	SyncC2 = 0x5224

	gapByte = 0x4E
)

// Writer emits MFM half-bits into a raw bitstream, tracking the previous
// data bit for the clock rule.
type Writer struct {
	bs          *bitstream.Bitstream
	lastDataBit int
	maxBits     int
}

// NewWriter creates a writer bounded to maxBits raw bits per track;
// zero means unbounded.
func NewWriter(maxBits int) *Writer {
	return &Writer{bs: bitstream.New(), maxBits: maxBits}
}

// Bitstream returns the raw bits written so far.
func (w *Writer) Bitstream() *bitstream.Bitstream {
	return w.bs
}

// WriteHalfBit emits one raw bit. Writes past the track bound are dropped.
func (w *Writer) WriteHalfBit(bit int) {
	if w.maxBits > 0 && w.bs.Len() >= w.maxBits {
		return
	}
	w.bs.AppendBit(bit)
}

// WriteBit emits one data bit as a clock/data half-bit pair. The clock
// half-bit is set only between two zero data bits.
func (w *Writer) WriteBit(dataBit int) {
	if dataBit != 0 {
		w.WriteHalfBit(0)
		w.WriteHalfBit(1)
	} else {
		w.WriteHalfBit(w.lastDataBit ^ 1)
		w.WriteHalfBit(0)
	}
	w.lastDataBit = dataBit
}

// WriteByte emits one data byte, MSB first.
func (w *Writer) WriteByte(data byte) {
	for i := 7; i >= 0; i-- {
		w.WriteBit(int(data>>i) & 1)
	}
}

// WriteGap emits n standard 0x4E filler bytes.
func (w *Writer) WriteGap(n int) {
	for i := 0; i < n; i++ {
		w.WriteByte(gapByte)
	}
}

// WriteZeros emits n zero data bytes.
func (w *Writer) WriteZeros(n int) {
	for i := 0; i < n; i++ {
		w.WriteByte(0)
	}
}

// WriteSyncA1 emits count A1 marks with the missing-clock violation.
func (w *Writer) WriteSyncA1(count int) {
	for i := 0; i < count; i++ {
		w.writeRaw(SyncA1, 16)
	}
	w.lastDataBit = 1 // A1 ends in a set data bit
}

// WriteSyncC2 emits count C2 index marks with the missing-clock violation.
func (w *Writer) WriteSyncC2(count int) {
	for i := 0; i < count; i++ {
		w.writeRaw(SyncC2, 16)
	}
	w.lastDataBit = 0 // C2 ends in a clear data bit
}

// writeRaw emits a literal raw pattern, bypassing the clock rule.
func (w *Writer) writeRaw(pattern uint32, width int) {
	for i := width - 1; i >= 0; i-- {
		w.WriteHalfBit(int(pattern>>i) & 1)
	}
}

// FillTrack pads the remainder of the track with gap bytes.
func (w *Writer) FillTrack() {
	if w.maxBits <= 0 {
		return
	}
	for w.bs.Len()+16 <= w.maxBits {
		w.WriteByte(gapByte)
	}
}
