package ibm

import (
	"fmt"

	"fluxdec/bitstream"
	"fluxdec/mfm"
)

const (
	sectorSize = 512

	startGap = 80 // gap4a, before the index marker
	indexGap = 50 // gap1, before the first sector
)

// EncodeTrack builds the raw MFM bitstream of one IBM PC track.
//
// Layout: gap4a, index marker, gap1, then per sector an address field,
// gap2, a data field and gap3, with the remainder filled by gap bytes.
func (d *Decoder) EncodeTrack(sectors [][]byte, cylinder, head int) (*bitstream.Bitstream, error) {
	if len(sectors) != d.cfg.SectorsPerTrack {
		return nil, fmt.Errorf("ibm: track needs %d sectors, got %d", d.cfg.SectorsPerTrack, len(sectors))
	}
	for i, s := range sectors {
		if len(s) != sectorSize {
			return nil, fmt.Errorf("ibm: sector %d is %d bytes, want %d", i, len(s), sectorSize)
		}
	}

	// Raw bits in one 200 ms revolution at the configured data rate.
	maxBits := int(d.cfg.BitRateKhz) * 400
	headerGap, sectorGap := gapsFor(d.cfg.BitRateKhz, d.cfg.SectorsPerTrack)

	w := mfm.NewWriter(maxBits)
	w.WriteGap(startGap)
	writeMarker(w, true, indexTag)
	w.WriteGap(indexGap)

	for s, data := range sectors {
		writeMarker(w, false, idamTag)
		id := []byte{byte(cylinder), byte(head), byte(s + 1), 2}
		for _, b := range id {
			w.WriteByte(b)
		}
		sum := crc16(headerCRCSeed, id)
		w.WriteByte(byte(sum >> 8))
		w.WriteByte(byte(sum))

		w.WriteGap(headerGap)

		writeMarker(w, false, damTag)
		for _, b := range data {
			w.WriteByte(b)
		}
		sum = crc16(crc16Byte(dataCRCSeed, damTag), data)
		w.WriteByte(byte(sum >> 8))
		w.WriteByte(byte(sum))

		w.WriteGap(sectorGap)
	}

	w.FillTrack()
	return w.Bitstream(), nil
}

// writeMarker emits twelve zero bytes, the tripled sync mark (C2 for the
// index marker, A1 otherwise) and the tag byte.
func writeMarker(w *mfm.Writer, index bool, tag byte) {
	w.WriteZeros(12)
	if index {
		w.WriteSyncC2(3)
	} else {
		w.WriteSyncA1(3)
	}
	w.WriteByte(tag)
}

// gapsFor returns the gap2 and gap3 byte counts for the data rate and
// sector count, following the classic PC track layouts.
func gapsFor(bitRateKhz uint16, sectorsPerTrack int) (headerGap, sectorGap int) {
	headerGap = 22
	if bitRateKhz > 500 {
		// 2.88M media needs more time for the head to switch.
		headerGap = 41
	}

	sectorGap = 80
	switch {
	case bitRateKhz >= 1000:
		sectorGap = 84
		if sectorsPerTrack > 36 {
			sectorGap = 40
		}
	case bitRateKhz == 500:
		switch {
		case sectorsPerTrack < 18:
			sectorGap = 84
		case sectorsPerTrack > 18:
			sectorGap = 44
		default:
			sectorGap = 108
		}
	default:
		if sectorsPerTrack > 9 {
			sectorGap = 34
		}
	}
	return headerGap, sectorGap
}
