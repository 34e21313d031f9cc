// Package compress implements resource compression with DEFLATE.
package compress

import (
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/flate"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Compressor = (*Deflate)(nil)

// Deflate implements ports.Compressor with raw DEFLATE streams.
type Deflate struct {
	level int
}

// NewDeflate creates a compressor using the best compression level.
func NewDeflate() *Deflate {
	return &Deflate{level: flate.BestCompression}
}

// Compress returns the DEFLATE encoding of data.
func (d *Deflate) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, d.level)
	if err != nil {
		return nil, errors.Join(domain.ErrCompressionFailed, err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.Join(domain.ErrCompressionFailed, err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Join(domain.ErrCompressionFailed, err)
	}
	return buf.Bytes(), nil
}

// Decompress inflates a DEFLATE stream.
func (d *Deflate) Decompress(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close() //nolint:errcheck // Reader close never fails

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrDecompressionFailed, err), "size", len(data))
	}
	return out, nil
}
