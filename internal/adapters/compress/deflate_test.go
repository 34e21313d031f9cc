package compress_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/adapters/compress"
	"go.trai.ch/weld/internal/core/domain"
)

func TestDeflate_RoundTrip(t *testing.T) {
	d := compress.NewDeflate()
	data := bytes.Repeat([]byte("weld embeds dependencies "), 200)

	packed, err := d.Compress(data)
	require.NoError(t, err)
	assert.Less(t, len(packed), len(data))

	unpacked, err := d.Decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, data, unpacked)
}

func TestDeflate_Empty(t *testing.T) {
	d := compress.NewDeflate()

	packed, err := d.Compress(nil)
	require.NoError(t, err)

	unpacked, err := d.Decompress(packed)
	require.NoError(t, err)
	assert.Empty(t, unpacked)
}

func TestDeflate_DecompressGarbage(t *testing.T) {
	d := compress.NewDeflate()

	_, err := d.Decompress([]byte{0xff, 0xff, 0xff, 0xff})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDecompressionFailed))
}
