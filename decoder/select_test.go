package decoder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluxdec/amiga"
	"fluxdec/decoder"
	"fluxdec/flux"
	"fluxdec/ibm"
)

// Helper function: fullSectors builds n distinct 512-byte payloads.
func fullSectors(n int) [][]byte {
	sectors := make([][]byte, n)
	for s := range sectors {
		data := make([]byte, 512)
		for i := range data {
			data[i] = byte(s + i)
		}
		sectors[s] = data
	}
	return sectors
}

// TestSelectBest probes synthesized tracks of both supported encodings and
// checks that auto-detection picks the right decoder for each.
func TestSelectBest(t *testing.T) {
	amigaBits, err := amiga.New().EncodeTrack(fullSectors(11), 0, 0)
	require.NoError(t, err)
	amigaFlux, err := flux.FromBits(amigaBits.Bytes(), amigaBits.Len(), 2000)
	require.NoError(t, err)

	ibmBits, err := ibm.New(ibm.Config{}).EncodeTrack(fullSectors(9), 0, 0)
	require.NoError(t, err)
	ibmFlux, err := flux.FromBits(ibmBits.Bytes(), ibmBits.Len(), 2000)
	require.NoError(t, err)

	best, confidence, err := decoder.SelectBest(amigaFlux)
	require.NoError(t, err)
	assert.Equal(t, "amigados", best.Name())
	assert.GreaterOrEqual(t, confidence, 80)

	best, confidence, err = decoder.SelectBest(ibmFlux)
	require.NoError(t, err)
	assert.Equal(t, "ibm-mfm", best.Name())
	assert.GreaterOrEqual(t, confidence, 80)
}

// TestSelectBestNoMatch feeds flux that carries no sync marks at all.
func TestSelectBestNoMatch(t *testing.T) {
	// A steady 4-microsecond pulse train decodes to a featureless bitstream.
	times := make([]uint64, 2000)
	for i := range times {
		times[i] = uint64(i+1) * 4000
	}
	stream, err := flux.New(times)
	require.NoError(t, err)

	_, _, err = decoder.SelectBest(stream)
	assert.ErrorIs(t, err, decoder.ErrNoDecoder)
}
