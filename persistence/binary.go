package persistence

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/visearch/index/flat"
)

// Index blob layout (little-endian, before compression):
//
//	magic     uint32
//	version   uint32
//	dimension uint32
//	count     uint64
//	vectors   count * dimension * float32
//
// Vectors are stored in position order, so positions survive a round trip
// without being written explicitly.

// encodeIndex writes the flat index to w in the binary snapshot layout.
func encodeIndex(w io.Writer, idx *flat.Flat) error {
	dim := idx.Dimension()
	count := idx.Count()

	header := make([]byte, 20)
	binary.LittleEndian.PutUint32(header[0:4], MagicNumber)
	binary.LittleEndian.PutUint32(header[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(dim))
	binary.LittleEndian.PutUint64(header[12:20], uint64(count))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write index header: %w", err)
	}

	buf := make([]byte, dim*4)
	for pos := 0; pos < count; pos++ {
		vec, err := idx.VectorAt(uint32(pos))
		if err != nil {
			return fmt.Errorf("read vector %d: %w", pos, err)
		}
		for i, v := range vec {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write vector %d: %w", pos, err)
		}
	}

	return nil
}

// decodeIndex reads a flat index from r. Structural problems (bad magic,
// unsupported version, truncated data) are reported as corruption.
func decodeIndex(r io.Reader) (*flat.Flat, error) {
	header := make([]byte, 20)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, corruptf(err, "index header truncated")
	}

	if magic := binary.LittleEndian.Uint32(header[0:4]); magic != MagicNumber {
		return nil, corruptf(nil, "bad magic 0x%08x", magic)
	}
	if version := binary.LittleEndian.Uint32(header[4:8]); version != FormatVersion {
		return nil, corruptf(nil, "unsupported format version %d", version)
	}

	dim := int(binary.LittleEndian.Uint32(header[8:12]))
	count := binary.LittleEndian.Uint64(header[12:20])
	if dim <= 0 {
		return nil, corruptf(nil, "invalid dimension %d", dim)
	}

	vectors := make([][]float32, count)
	buf := make([]byte, dim*4)
	for pos := uint64(0); pos < count; pos++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, corruptf(err, "vector %d truncated", pos)
		}
		vec := make([]float32, dim)
		for i := range vec {
			vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		}
		vectors[pos] = vec
	}

	idx, err := flat.FromVectors(dim, vectors)
	if err != nil {
		return nil, corruptf(err, "rebuild index")
	}

	return idx, nil
}
