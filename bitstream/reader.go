package bitstream

import "errors"

// ErrEndOfStream reports a read past the last valid bit.
var ErrEndOfStream = errors.New("end of bitstream")

// Reader reads raw bits sequentially from a Bitstream.
type Reader struct {
	bs  *Bitstream
	pos int
}

// NewReader creates a reader positioned at the start of the bitstream.
func NewReader(bs *Bitstream) *Reader {
	return &Reader{bs: bs}
}

// Pos returns the current bit offset.
func (r *Reader) Pos() int {
	return r.pos
}

// Seek moves the reader to an absolute bit offset.
func (r *Reader) Seek(bitOffset int) {
	if bitOffset < 0 {
		bitOffset = 0
	}
	r.pos = bitOffset
}

// ReadBit returns the next raw bit.
func (r *Reader) ReadBit() (int, error) {
	if r.pos >= r.bs.Len() {
		return 0, ErrEndOfStream
	}
	bit := r.bs.Bit(r.pos)
	r.pos++
	return bit, nil
}

// ReadWord reads up to 32 raw bits, MSB-first.
func (r *Reader) ReadWord(width int) (uint32, error) {
	if r.pos+width > r.bs.Len() {
		return 0, ErrEndOfStream
	}
	var word uint32
	for i := 0; i < width; i++ {
		word = word<<1 | uint32(r.bs.Bit(r.pos))
		r.pos++
	}
	return word, nil
}
