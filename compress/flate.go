package compress

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
)

// flateCompressor is the default registered Compressor, named "flate". It
// uses klauspost/compress's drop-in, faster flate implementation rather
// than the standard library's compress/flate. wstransport does not enable
// WebSocket permessage-deflate; this payload-level compressor is the only
// compression it applies.
type flateCompressor struct{}

func (flateCompressor) Name() string { return "flate" }

func (flateCompressor) Compress(p []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(p); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (flateCompressor) Decompress(p []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(p))
	defer r.Close()
	return io.ReadAll(r)
}
