package bintrie

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// compressBlock LZ4-compresses data and prepends a 4-byte little-endian
// uncompressed-size header, mirroring the original implementation's
// size-prefixed block framing (lz4_flex's compress_prepend_size in the
// florisboard source this format is carried from).
func compressBlock(data []byte) ([]byte, error) {
	out := make([]byte, 4, 4+lz4.CompressBlockBound(len(data)))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(data)))
	if len(data) == 0 {
		return out, nil
	}

	block := make([]byte, lz4.CompressBlockBound(len(data)))
	var c lz4.Compressor
	n, err := c.CompressBlock(data, block)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return append(out, block[:n]...), nil
}

// decompressBlock reverses compressBlock.
func decompressBlock(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("lz4 frame too small: %d bytes", len(data))
	}
	size := binary.LittleEndian.Uint32(data[0:4])
	body := data[4:]
	if size == 0 {
		return []byte{}, nil
	}

	out := make([]byte, size)
	n, err := lz4.UncompressBlock(body, out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if uint32(n) != size {
		return nil, fmt.Errorf("lz4 decompressed size mismatch: got %d, want %d", n, size)
	}
	return out, nil
}
