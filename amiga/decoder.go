// Package amiga decodes and encodes AmigaDOS MFM tracks: 11 sectors of 512
// bytes per DD track, each protected by independent header and data
// checksums over odd/even interleaved longwords.
package amiga

import (
	"encoding/binary"

	"fluxdec/bitstream"
	"fluxdec/decoder"
	"fluxdec/flux"
	"fluxdec/mfm"
	"fluxdec/pll"
	"fluxdec/track"
)

const (
	sectorSize      = 512
	sectorsPerTrack = 11
	maxSectors      = 22 // long-track sector budget
	dataLongs       = sectorSize / 4

	// cellTimeNs is the raw bit-cell width of a DD Amiga track.
	cellTimeNs = 2000

	// sectorRawBits is the raw length of one sector body after its sync
	// mark: info pair, label, two checksum pairs, data odd+even blocks.
	sectorRawBits = (2 + 8 + 2 + 2 + 2*dataLongs) * 32

	// probeFluxCap bounds the flux prefix decoded by Probe.
	probeFluxCap = 50000
)

func init() {
	decoder.Register(New())
}

// Decoder implements AmigaDOS MFM track decoding.
type Decoder struct{}

// New creates the AmigaDOS decoder.
func New() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Name() string {
	return "amigados"
}

func (d *Decoder) Encoding() decoder.Encoding {
	return decoder.AmigaMFM
}

// DecodeTrack recovers the bitstream with the continuous loop and extracts
// sectors. Amiga data integrity rests on its checksums rather than exact
// timing, so the generic loop is sufficient here.
func (d *Decoder) DecodeTrack(stream *flux.Stream, cylinder, head int) (*track.Track, error) {
	p := pll.New(pll.Config{CellTimeNs: cellTimeNs})
	bs, err := bitstream.Assemble(stream, p)
	if err != nil {
		return nil, err
	}
	return d.DecodeBitstream(bs, cylinder, head)
}

// DecodeBitstream extracts sectors from an assembled raw bitstream,
// resuming the sync search after every sector until the stream is
// exhausted or the sector budget is reached.
func (d *Decoder) DecodeBitstream(bs *bitstream.Bitstream, cylinder, head int) (*track.Track, error) {
	trk := &track.Track{Cylinder: cylinder, Head: head}
	pos := 0
	for len(trk.Sectors) < maxSectors {
		off := bitstream.FindSync(bs, mfm.SyncA1, 16, pos)
		if off < 0 {
			// No further sync mark: fewer sectors, not an error.
			break
		}
		pos = skipSyncWords(bs, off+16)

		rec, ok := readSector(bs, pos)
		if !ok {
			continue
		}
		trk.Sectors = append(trk.Sectors, rec)
		pos += sectorRawBits
	}
	return trk, nil
}

// Probe decodes a capped flux prefix and counts the sync words of sectors
// whose headers verify.
func (d *Decoder) Probe(stream *flux.Stream) int {
	times := stream.Times()
	if len(times) > probeFluxCap {
		if capped, err := flux.New(times[:probeFluxCap]); err == nil {
			stream = capped
		}
	}
	p := pll.New(pll.Config{CellTimeNs: cellTimeNs})
	bs, err := bitstream.Assemble(stream, p)
	if err != nil {
		return 0
	}
	trk, err := d.DecodeBitstream(bs, 0, 0)
	if err != nil {
		return 0
	}
	marks := 0
	for i := range trk.Sectors {
		if trk.Sectors[i].HeaderOK {
			marks += 2 // doubled sync mark per sector
		}
	}
	return decoder.ConfidenceFromMarks(marks)
}

// skipSyncWords steps over the remaining words of a doubled or repeated
// sync mark and returns the offset of the first body bit.
func skipSyncWords(bs *bitstream.Bitstream, pos int) int {
	r := bitstream.NewReader(bs)
	for {
		r.Seek(pos)
		w, err := r.ReadWord(16)
		if err != nil || w != mfm.SyncA1 {
			return pos
		}
		pos += 16
	}
}

// readSector decodes the sector body following a sync mark at the given raw
// bit offset. Returns false if the bitstream ends inside the sector or the
// header is not plausible.
func readSector(bs *bitstream.Bitstream, bitOff int) (track.SectorRecord, bool) {
	r := bitstream.NewReader(bs)
	r.Seek(bitOff)

	header, err := readLongs(r, 14)
	if err != nil {
		return track.SectorRecord{}, false
	}
	info := combine(header[0], header[1])
	var label [4]uint32
	for i := 0; i < 4; i++ {
		label[i] = combine(header[2+i], header[6+i])
	}
	storedHeaderSum := combine(header[10], header[11])
	storedDataSum := combine(header[12], header[13])

	trackNum := int(info >> 16 & 0xff)
	sector := int(info >> 8 & 0xff)
	if sector >= maxSectors {
		return track.SectorRecord{}, false
	}

	raw, err := readLongs(r, 2*dataLongs)
	if err != nil {
		return track.SectorRecord{}, false
	}
	data := make([]byte, sectorSize)
	longs := make([]uint32, dataLongs)
	for i := 0; i < dataLongs; i++ {
		longs[i] = combine(raw[i], raw[dataLongs+i])
		binary.BigEndian.PutUint32(data[4*i:], longs[i])
	}

	headerOK := checksum(append([]uint32{info}, label[:]...)) == storedHeaderSum
	dataOK := checksum(longs) == storedDataSum

	return track.SectorRecord{
		Cylinder: trackNum >> 1,
		Head:     trackNum & 1,
		Sector:   sector,
		SizeCode: 2,
		Data:     data,
		HeaderOK: headerOK,
		DataOK:   dataOK,
		Status:   track.StatusFor(headerOK, dataOK),
	}, true
}

func readLongs(r *bitstream.Reader, n int) ([]uint32, error) {
	longs := make([]uint32, n)
	for i := range longs {
		l, err := r.ReadWord(32)
		if err != nil {
			return nil, err
		}
		longs[i] = l
	}
	return longs, nil
}

// combine recombines an odd/even raw longword pair into its decoded value.
func combine(odd, even uint32) uint32 {
	return (odd&0x55555555)<<1 | even&0x55555555
}

// checksum implements the AmigaDOS track checksum: the XOR of the raw MFM
// longwords under the 0x55555555 data-bit mask, computed here from decoded
// longwords.
func checksum(longs []uint32) uint32 {
	var c uint32
	for _, l := range longs {
		c ^= l>>1 ^ l
	}
	return c & 0x55555555
}
