// Package ibm decodes and encodes IBM PC MFM tracks: A1-marked address and
// data fields protected by CRC16-CCITT, as produced by WD177x-class
// controllers.
package ibm

import (
	"fluxdec/bitstream"
	"fluxdec/decoder"
	"fluxdec/dpll"
	"fluxdec/flux"
	"fluxdec/mfm"
	"fluxdec/track"
)

const (
	idamTag       = 0xFE
	damTag        = 0xFB
	deletedDamTag = 0xF8
	indexTag      = 0xFC

	// maxSectorBudget caps extraction per track.
	maxSectorBudget = 64

	// probeFluxCap bounds the flux prefix decoded by Probe.
	probeFluxCap = 50000
)

func init() {
	decoder.Register(New(Config{}))
}

// Config selects the geometry the codec expects. Zero values mean a DD
// 3.5"/5.25" layout.
type Config struct {
	HighDensity     bool
	BitRateKhz      uint16 // data rate; 0 means 250 at DD, 500 at HD
	SectorsPerTrack int    // encode-side geometry; 0 means 9 at DD, 18 at HD
}

// Decoder implements IBM PC MFM track decoding.
type Decoder struct {
	cfg Config
}

// New creates an IBM PC decoder for the given geometry.
func New(cfg Config) *Decoder {
	if cfg.BitRateKhz == 0 {
		cfg.BitRateKhz = 250
		if cfg.HighDensity {
			cfg.BitRateKhz = 500
		}
	}
	if cfg.SectorsPerTrack == 0 {
		cfg.SectorsPerTrack = 9
		if cfg.HighDensity {
			cfg.SectorsPerTrack = 18
		}
	}
	return &Decoder{cfg: cfg}
}

func (d *Decoder) Name() string {
	return "ibm-mfm"
}

func (d *Decoder) Encoding() decoder.Encoding {
	return decoder.MFM
}

// DecodeTrack recovers the bitstream with the hardware-exact separator, the
// same loop the original controllers used for this format, and extracts
// sectors.
func (d *Decoder) DecodeTrack(stream *flux.Stream, cylinder, head int) (*track.Track, error) {
	sep := dpll.New(dpll.Config{HighDensity: d.cfg.HighDensity})
	bs, err := bitstream.Assemble(stream, sep)
	if err != nil {
		return nil, err
	}
	return d.DecodeBitstream(bs, cylinder, head)
}

// DecodeBitstream extracts sectors from an assembled raw bitstream. Each
// data field is paired with the most recent address field; CRC failures are
// recorded on the sector, never dropped.
func (d *Decoder) DecodeBitstream(bs *bitstream.Bitstream, cylinder, head int) (*track.Track, error) {
	r := mfm.NewReader(bs)
	trk := &track.Track{Cylinder: cylinder, Head: head}

	var hdr *idField
	for len(trk.Sectors) < maxSectorBudget {
		tag, err := scanMarker(r)
		if err != nil {
			break // end of bitstream
		}
		switch tag {
		case idamTag:
			hdr, _ = readIDField(r)
		case damTag, deletedDamTag:
			if hdr == nil {
				// Orphan data field, nothing to attribute it to.
				continue
			}
			rec, err := readDataField(r, byte(tag), hdr)
			hdr = nil
			if err != nil {
				continue
			}
			trk.Sectors = append(trk.Sectors, rec)
		}
	}
	return trk, nil
}

// Probe decodes a capped flux prefix and counts address and data marks.
func (d *Decoder) Probe(stream *flux.Stream) int {
	times := stream.Times()
	if len(times) > probeFluxCap {
		if capped, err := flux.New(times[:probeFluxCap]); err == nil {
			stream = capped
		}
	}
	sep := dpll.New(dpll.Config{HighDensity: d.cfg.HighDensity})
	bs, err := bitstream.Assemble(stream, sep)
	if err != nil {
		return 0
	}
	r := mfm.NewReader(bs)
	marks := 0
	for {
		tag, err := scanMarker(r)
		if err != nil {
			break
		}
		switch tag {
		case idamTag, damTag, deletedDamTag:
			marks++
		}
	}
	return decoder.ConfidenceFromMarks(marks)
}

// idField is a decoded address field.
type idField struct {
	cylinder int
	head     int
	sector   int
	sizeCode int
	crcOK    bool
}

// scanMarker hunts for the next 00-A1-A1-A1 or 00-C2-C2-C2 marker and
// returns the tag byte that follows it. A run of all-ones history means the
// reader is half-bit misaligned inside a gap, so it slips one half-bit to
// resynchronize.
func scanMarker(r *mfm.Reader) (int, error) {
	history := uint32(0x13713713)
	for {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		history = history<<1 | uint32(bit)

		if history == 0xffffffff {
			if _, err := r.ReadHalfBit(); err != nil {
				return 0, err
			}
			history = 0
			continue
		}

		if history == 0x00a1a1a1 || history == 0x00c2c2c2 {
			tag, err := r.ReadByte()
			if err != nil {
				return 0, err
			}
			return int(tag), nil
		}
	}
}

func readIDField(r *mfm.Reader) (*idField, error) {
	var buf [6]byte
	for i := range buf {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		buf[i] = b
	}
	stored := uint16(buf[4])<<8 | uint16(buf[5])
	return &idField{
		cylinder: int(buf[0]),
		head:     int(buf[1]),
		sector:   int(buf[2]),
		sizeCode: int(buf[3]),
		crcOK:    crc16(headerCRCSeed, buf[:4]) == stored,
	}, nil
}

func readDataField(r *mfm.Reader, tag byte, hdr *idField) (track.SectorRecord, error) {
	sizeCode := hdr.sizeCode
	if !hdr.crcOK || sizeCode > 7 {
		// The size code is unreliable, assume the common 512 bytes.
		sizeCode = 2
	}
	data := make([]byte, 128<<sizeCode)
	for i := range data {
		b, err := r.ReadByte()
		if err != nil {
			return track.SectorRecord{}, err
		}
		data[i] = b
	}
	sumHigh, err := r.ReadByte()
	if err != nil {
		return track.SectorRecord{}, err
	}
	sumLow, err := r.ReadByte()
	if err != nil {
		return track.SectorRecord{}, err
	}
	stored := uint16(sumHigh)<<8 | uint16(sumLow)
	sum := crc16(crc16Byte(dataCRCSeed, tag), data)

	dataOK := sum == stored
	return track.SectorRecord{
		Cylinder: hdr.cylinder,
		Head:     hdr.head,
		Sector:   hdr.sector - 1, // 1-based on disk
		SizeCode: hdr.sizeCode,
		Data:     data,
		HeaderOK: hdr.crcOK,
		DataOK:   dataOK,
		Status:   track.StatusFor(hdr.crcOK, dataOK),
	}, nil
}
