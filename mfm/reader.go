package mfm

import "fluxdec/bitstream"

// Reader strips the clock half-bits from a raw bitstream, yielding data
// bits and bytes.
type Reader struct {
	r *bitstream.Reader
}

// NewReader creates a reader positioned at the start of the bitstream.
func NewReader(bs *bitstream.Bitstream) *Reader {
	return &Reader{r: bitstream.NewReader(bs)}
}

// NewReaderAt creates a reader positioned at the given raw bit offset.
func NewReaderAt(bs *bitstream.Bitstream, bitOffset int) *Reader {
	r := NewReader(bs)
	r.r.Seek(bitOffset)
	return r
}

// Pos returns the current raw bit offset.
func (r *Reader) Pos() int {
	return r.r.Pos()
}

// ReadHalfBit returns the next raw bit from the stream.
func (r *Reader) ReadHalfBit() (int, error) {
	return r.r.ReadBit()
}

// ReadBit returns the next data bit, skipping its clock half-bit.
func (r *Reader) ReadBit() (int, error) {
	if _, err := r.r.ReadBit(); err != nil {
		return 0, err
	}
	return r.r.ReadBit()
}

// ReadByte assembles eight data bits into a byte.
func (r *Reader) ReadByte() (byte, error) {
	var result byte
	for i := 0; i < 8; i++ {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		result = result<<1 | byte(bit)
	}
	return result, nil
}
