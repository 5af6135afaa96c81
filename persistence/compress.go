package persistence

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression names accepted by WithCompression and recorded in the manifest.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
	CompressionLZ4  = "lz4"
)

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// compressWriter wraps w with the named compression. The returned writer must
// be closed to flush the compressed stream before the underlying blob is
// finalized.
func compressWriter(name string, w io.Writer) (io.WriteCloser, error) {
	switch name {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionZstd:
		return zstd.NewWriter(w)
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}

// compressReader wraps r with the named decompression.
func compressReader(name string, r io.Reader) (io.ReadCloser, error) {
	switch name {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}
