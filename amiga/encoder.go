package amiga

import (
	"encoding/binary"
	"fmt"

	"fluxdec/bitstream"
	"fluxdec/mfm"
)

const (
	// trackRawBits is the raw capacity of one DD revolution: 200 ms at a
	// 2 microsecond bit cell.
	trackRawBits = 100000

	// preGapBytes precede the first sector.
	preGapBytes = 150
)

// EncodeTrack builds the raw MFM bitstream of one AmigaDOS track from 11
// sectors of 512 bytes each.
func (d *Decoder) EncodeTrack(sectors [][]byte, cylinder, head int) (*bitstream.Bitstream, error) {
	if len(sectors) != sectorsPerTrack {
		return nil, fmt.Errorf("amiga: track needs %d sectors, got %d", sectorsPerTrack, len(sectors))
	}
	for i, s := range sectors {
		if len(s) != sectorSize {
			return nil, fmt.Errorf("amiga: sector %d is %d bytes, want %d", i, len(s), sectorSize)
		}
	}

	trackNum := cylinder*2 + head
	w := mfm.NewWriter(trackRawBits)
	w.WriteGap(preGapBytes)
	for s := 0; s < sectorsPerTrack; s++ {
		writeSector(w, trackNum, s, sectors[s])
	}
	w.FillTrack()
	return w.Bitstream(), nil
}

func writeSector(w *mfm.Writer, trackNum, sector int, data []byte) {
	info := uint32(0xff)<<24 | uint32(trackNum)<<16 | uint32(sector)<<8 |
		uint32(sectorsPerTrack-sector)
	var label [4]uint32
	longs := payloadLongs(data)
	headerSum := checksum(append([]uint32{info}, label[:]...))
	writeSectorFields(w, info, label, headerSum, checksum(longs), longs)
}

// writeSectorFields writes one sector body with explicit checksums, which
// also allows synthesizing corrupted sectors.
func writeSectorFields(w *mfm.Writer, info uint32, label [4]uint32, headerSum, dataSum uint32, longs []uint32) {
	w.WriteZeros(2)
	w.WriteSyncA1(2)

	writeLongPair(w, info)

	// Label: all odd halves first, then all even halves.
	var odd, even [4]uint16
	for i, l := range label {
		odd[i], even[i] = shuffle(l)
	}
	for _, o := range odd {
		writeHalf(w, o)
	}
	for _, e := range even {
		writeHalf(w, e)
	}

	writeLongPair(w, headerSum)
	writeLongPair(w, dataSum)

	// Data: the odd block of all longwords, then the even block.
	oddHalves := make([]uint16, len(longs))
	evenHalves := make([]uint16, len(longs))
	for i, l := range longs {
		oddHalves[i], evenHalves[i] = shuffle(l)
	}
	for _, o := range oddHalves {
		writeHalf(w, o)
	}
	for _, e := range evenHalves {
		writeHalf(w, e)
	}
}

// shuffle splits a longword into its odd and even bit halves.
func shuffle(word uint32) (odd, even uint16) {
	for i := 0; i < 16; i++ {
		odd = odd<<1 | uint16(word>>31&1)
		even = even<<1 | uint16(word>>30&1)
		word <<= 2
	}
	return odd, even
}

func writeLongPair(w *mfm.Writer, l uint32) {
	odd, even := shuffle(l)
	writeHalf(w, odd)
	writeHalf(w, even)
}

func writeHalf(w *mfm.Writer, h uint16) {
	w.WriteByte(byte(h >> 8))
	w.WriteByte(byte(h))
}

func payloadLongs(data []byte) []uint32 {
	longs := make([]uint32, len(data)/4)
	for i := range longs {
		longs[i] = binary.BigEndian.Uint32(data[4*i:])
	}
	return longs
}
