package ibm

import (
	"bytes"
	"testing"

	"fluxdec/flux"
	"fluxdec/mfm"
	"fluxdec/track"
)

// Helper function: testSectors builds n distinct 512-byte payloads.
func testSectors(n int) [][]byte {
	sectors := make([][]byte, n)
	for s := range sectors {
		data := make([]byte, sectorSize)
		for i := range data {
			data[i] = byte(s*11 + i)
		}
		sectors[s] = data
	}
	return sectors
}

// TestCRC16 pins the polynomial with the standard check value and verifies
// the precomputed mark seeds.
func TestCRC16(t *testing.T) {
	if got := crc16(0xffff, []byte("123456789")); got != 0x29b1 {
		t.Errorf("crc16 check value = %#04x, want 0x29b1", got)
	}
	if got := crc16(0xffff, []byte{0xa1, 0xa1, 0xa1}); got != dataCRCSeed {
		t.Errorf("CRC after A1 A1 A1 = %#04x, want %#04x", got, uint16(dataCRCSeed))
	}
	if got := crc16Byte(dataCRCSeed, idamTag); got != headerCRCSeed {
		t.Errorf("CRC after A1 A1 A1 FE = %#04x, want %#04x", got, uint16(headerCRCSeed))
	}
}

// TestEncodeDecodeRoundTrip encodes a DD track and extracts it back from the
// raw bitstream.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	d := New(Config{})
	sectors := testSectors(9)

	bs, err := d.EncodeTrack(sectors, 30, 1)
	if err != nil {
		t.Fatalf("EncodeTrack failed: %v", err)
	}

	trk, err := d.DecodeBitstream(bs, 30, 1)
	if err != nil {
		t.Fatalf("DecodeBitstream failed: %v", err)
	}
	if len(trk.Sectors) != 9 {
		t.Fatalf("decoded %d sectors, want 9: %s", len(trk.Sectors), trk.Summary())
	}

	for i := range trk.Sectors {
		rec := &trk.Sectors[i]
		if rec.Status != track.StatusOK {
			t.Errorf("sector %d status = %v, want ok", rec.Sector, rec.Status)
		}
		if rec.Cylinder != 30 || rec.Head != 1 {
			t.Errorf("sector %d position = cyl %d head %d, want 30/1", rec.Sector, rec.Cylinder, rec.Head)
		}
		if rec.SizeCode != 2 {
			t.Errorf("sector %d size code = %d, want 2", rec.Sector, rec.SizeCode)
		}
		if !bytes.Equal(rec.Data, sectors[rec.Sector]) {
			t.Errorf("sector %d payload mismatch", rec.Sector)
		}
	}
}

// TestFluxRoundTrip runs the full pipeline through the hardware-exact
// separator, at both densities.
func TestFluxRoundTrip(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		cellNs  uint64
		sectors int
	}{
		{"DoubleDensity", Config{}, 2000, 9},
		{"HighDensity", Config{HighDensity: true}, 1000, 18},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := New(tc.cfg)
			sectors := testSectors(tc.sectors)

			bs, err := d.EncodeTrack(sectors, 5, 0)
			if err != nil {
				t.Fatalf("EncodeTrack failed: %v", err)
			}
			stream, err := flux.FromBits(bs.Bytes(), bs.Len(), tc.cellNs)
			if err != nil {
				t.Fatalf("FromBits failed: %v", err)
			}

			trk, err := d.DecodeTrack(stream, 5, 0)
			if err != nil {
				t.Fatalf("DecodeTrack failed: %v", err)
			}
			if got := trk.OKCount(); got != tc.sectors {
				t.Fatalf("%d sectors ok, want %d: %s", got, tc.sectors, trk.Summary())
			}
			for i := range trk.Sectors {
				rec := &trk.Sectors[i]
				if !bytes.Equal(rec.Data, sectors[rec.Sector]) {
					t.Errorf("sector %d payload mismatch", rec.Sector)
				}
			}
		})
	}
}

// Helper function: writeIDField emits an address field with an explicit CRC.
func writeIDField(w *mfm.Writer, id []byte, sum uint16) {
	writeMarker(w, false, idamTag)
	for _, b := range id {
		w.WriteByte(b)
	}
	w.WriteByte(byte(sum >> 8))
	w.WriteByte(byte(sum))
}

// Helper function: writeDataField emits a data field with an explicit CRC.
func writeDataField(w *mfm.Writer, tag byte, data []byte, sum uint16) {
	writeMarker(w, false, tag)
	for _, b := range data {
		w.WriteByte(b)
	}
	w.WriteByte(byte(sum >> 8))
	w.WriteByte(byte(sum))
}

// TestDataCRCError synthesizes a sector whose stored data CRC disagrees
// with its payload: the header still verifies and the payload is returned.
func TestDataCRCError(t *testing.T) {
	data := make([]byte, sectorSize)
	for i := range data {
		data[i] = byte(i)
	}
	id := []byte{12, 0, 4, 2}

	w := mfm.NewWriter(0)
	w.WriteGap(20)
	writeIDField(w, id, crc16(headerCRCSeed, id))
	w.WriteGap(22)
	writeDataField(w, damTag, data, crc16(crc16Byte(dataCRCSeed, damTag), data)^0x5a5a)
	w.WriteGap(20)

	d := New(Config{})
	trk, err := d.DecodeBitstream(w.Bitstream(), 12, 0)
	if err != nil {
		t.Fatalf("DecodeBitstream failed: %v", err)
	}
	if len(trk.Sectors) != 1 {
		t.Fatalf("decoded %d sectors, want 1", len(trk.Sectors))
	}

	rec := &trk.Sectors[0]
	if !rec.HeaderOK || rec.DataOK {
		t.Errorf("HeaderOK = %v, DataOK = %v, want true/false", rec.HeaderOK, rec.DataOK)
	}
	if rec.Status != track.StatusDataCRCError {
		t.Errorf("Status = %v, want data-crc-error", rec.Status)
	}
	if rec.Sector != 3 {
		t.Errorf("Sector = %d, want 3 (0-based)", rec.Sector)
	}
	if !bytes.Equal(rec.Data, data) {
		t.Error("corrupt sector payload not returned")
	}
}

// TestHeaderCRCError corrupts the address-field CRC and expects the sector
// to surface with header-crc-error and the fallback 512-byte size.
func TestHeaderCRCError(t *testing.T) {
	data := make([]byte, sectorSize)
	id := []byte{2, 1, 1, 7}

	w := mfm.NewWriter(0)
	w.WriteGap(20)
	writeIDField(w, id, crc16(headerCRCSeed, id)^0x0001)
	w.WriteGap(22)
	writeDataField(w, damTag, data, crc16(crc16Byte(dataCRCSeed, damTag), data))
	w.WriteGap(20)

	d := New(Config{})
	trk, err := d.DecodeBitstream(w.Bitstream(), 2, 1)
	if err != nil {
		t.Fatalf("DecodeBitstream failed: %v", err)
	}
	if len(trk.Sectors) != 1 {
		t.Fatalf("decoded %d sectors, want 1", len(trk.Sectors))
	}
	if got := trk.Sectors[0].Status; got != track.StatusHeaderCRCError {
		t.Errorf("Status = %v, want header-crc-error", got)
	}
	if got := len(trk.Sectors[0].Data); got != sectorSize {
		t.Errorf("fallback read %d bytes, want %d", got, sectorSize)
	}
}

// TestOrphanDataField checks that a data field with no preceding address
// field is skipped.
func TestOrphanDataField(t *testing.T) {
	data := make([]byte, sectorSize)

	w := mfm.NewWriter(0)
	w.WriteGap(20)
	writeDataField(w, damTag, data, crc16(crc16Byte(dataCRCSeed, damTag), data))
	w.WriteGap(20)

	d := New(Config{})
	trk, err := d.DecodeBitstream(w.Bitstream(), 0, 0)
	if err != nil {
		t.Fatalf("DecodeBitstream failed: %v", err)
	}
	if len(trk.Sectors) != 0 {
		t.Errorf("decoded %d sectors from orphan data field, want 0", len(trk.Sectors))
	}
}

// TestDeletedDataField checks that a deleted data mark decodes with its own
// CRC tag.
func TestDeletedDataField(t *testing.T) {
	data := make([]byte, sectorSize)
	for i := range data {
		data[i] = 0xe5
	}
	id := []byte{0, 0, 1, 2}

	w := mfm.NewWriter(0)
	w.WriteGap(20)
	writeIDField(w, id, crc16(headerCRCSeed, id))
	w.WriteGap(22)
	writeDataField(w, deletedDamTag, data, crc16(crc16Byte(dataCRCSeed, deletedDamTag), data))
	w.WriteGap(20)

	d := New(Config{})
	trk, err := d.DecodeBitstream(w.Bitstream(), 0, 0)
	if err != nil {
		t.Fatalf("DecodeBitstream failed: %v", err)
	}
	if len(trk.Sectors) != 1 || trk.Sectors[0].Status != track.StatusOK {
		t.Fatalf("deleted data field: got %+v", trk.Sectors)
	}
}

func TestGapsFor(t *testing.T) {
	testCases := []struct {
		bitRateKhz uint16
		sectors    int
		headerGap  int
		sectorGap  int
	}{
		{250, 9, 22, 80},
		{250, 10, 22, 34},
		{500, 18, 22, 108},
		{500, 15, 22, 84},
		{500, 21, 22, 44},
		{1000, 36, 41, 84},
		{1000, 48, 41, 40},
	}

	for _, tc := range testCases {
		h, s := gapsFor(tc.bitRateKhz, tc.sectors)
		if h != tc.headerGap || s != tc.sectorGap {
			t.Errorf("gapsFor(%d, %d) = %d, %d, want %d, %d",
				tc.bitRateKhz, tc.sectors, h, s, tc.headerGap, tc.sectorGap)
		}
	}
}

// TestProbe checks the confidence tiers against a well-formed track and
// against flux with no address marks.
func TestProbe(t *testing.T) {
	d := New(Config{})
	bs, err := d.EncodeTrack(testSectors(9), 0, 0)
	if err != nil {
		t.Fatalf("EncodeTrack failed: %v", err)
	}
	stream, err := flux.FromBits(bs.Bytes(), bs.Len(), 2000)
	if err != nil {
		t.Fatalf("FromBits failed: %v", err)
	}
	if got := d.Probe(stream); got < 80 {
		t.Errorf("Probe on valid track = %d, want at least 80", got)
	}

	w := mfm.NewWriter(0)
	w.WriteGap(500)
	gb := w.Bitstream()
	gapStream, err := flux.FromBits(gb.Bytes(), gb.Len(), 2000)
	if err != nil {
		t.Fatalf("FromBits failed: %v", err)
	}
	if got := d.Probe(gapStream); got != 0 {
		t.Errorf("Probe on gap flux = %d, want 0", got)
	}
}
