// Package bitstream holds the raw decoded bit sequence of one track and the
// operations that produce and search it: run-length assembly from clock
// recovery output and sync-mark detection.
package bitstream

// Bitstream is a packed bit array, MSB-first within each byte.
type Bitstream struct {
	data     []byte
	bitCount int
}

// New creates an empty bitstream.
func New() *Bitstream {
	return &Bitstream{}
}

// FromBytes wraps already packed bytes as a bitstream.
func FromBytes(data []byte) *Bitstream {
	return &Bitstream{data: data, bitCount: len(data) * 8}
}

// Len returns the number of valid bits.
func (b *Bitstream) Len() int {
	return b.bitCount
}

// Bytes returns the packed bits. The tail of the last byte is zero padding,
// so the result always covers a whole number of bytes.
func (b *Bitstream) Bytes() []byte {
	return b.data[:(b.bitCount+7)/8]
}

// Bit returns the bit at the given offset, or 0 when out of range.
func (b *Bitstream) Bit(i int) int {
	if i < 0 || i >= b.bitCount {
		return 0
	}
	return int(b.data[i/8]>>(7-i%8)) & 1
}

// AppendBit appends one bit.
func (b *Bitstream) AppendBit(bit int) {
	if b.bitCount%8 == 0 {
		b.data = append(b.data, 0)
	}
	if bit != 0 {
		b.data[b.bitCount/8] |= 1 << (7 - b.bitCount%8)
	}
	b.bitCount++
}

// AppendRun appends the run for one flux transition: (n-1) zero bits
// followed by a single set bit. A window count below one, meaning two
// pulses inside the same window, still contributes its set bit.
func (b *Bitstream) AppendRun(windows int) {
	for i := 1; i < windows; i++ {
		b.AppendBit(0)
	}
	b.AppendBit(1)
}
