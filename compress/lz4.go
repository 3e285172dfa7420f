package compress

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances for reuse.
// The lz4.Compressor maintains internal state that benefits from reuse.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// lz4HighCompressionLevel is fixed at the lowest high-compression level,
// per the writer's compression_type=2 (LZ4 high) wire contract.
const lz4HighCompressionLevel = lz4.Level1

// lz4HighCompressorPool pools lz4.CompressorHC instances for reuse.
var lz4HighCompressorPool = sync.Pool{
	New: func() any {
		return &lz4.CompressorHC{Level: lz4HighCompressionLevel}
	},
}

// LZ4FastCompressor implements format.CompressionLZ4Fast, favoring
// compression speed over ratio.
type LZ4FastCompressor struct{}

var _ Codec = (*LZ4FastCompressor)(nil)

// NewLZ4FastCompressor creates a new fast-mode LZ4 compressor.
func NewLZ4FastCompressor() LZ4FastCompressor {
	return LZ4FastCompressor{}
}

// Compress compresses data using LZ4's fast block mode.
func (c LZ4FastCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// Decompress reverses Compress.
func (c LZ4FastCompressor) Decompress(data []byte) ([]byte, error) {
	return lz4Uncompress(data)
}

// LZ4HighCompressor implements format.CompressionLZ4High, favoring
// compression ratio over speed via LZ4's high-compression mode.
type LZ4HighCompressor struct{}

var _ Codec = (*LZ4HighCompressor)(nil)

// NewLZ4HighCompressor creates a new high-compression-mode LZ4 compressor.
func NewLZ4HighCompressor() LZ4HighCompressor {
	return LZ4HighCompressor{}
}

// Compress compresses data using LZ4's high-compression block mode.
func (c LZ4HighCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4HighCompressorPool.Get().(*lz4.CompressorHC)
	defer lz4HighCompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// Decompress reverses Compress.
func (c LZ4HighCompressor) Decompress(data []byte) ([]byte, error) {
	return lz4Uncompress(data)
}

// lz4Uncompress decompresses an LZ4 block produced by either mode above,
// growing its guess buffer until it's large enough.
//
//  1. Start with a buffer 4x the compressed size (common expansion ratio)
//  2. On ErrInvalidSourceShortBuffer, double the buffer size (up to maxSize)
//  3. Return an error if the buffer exceeds a reasonable limit
func lz4Uncompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	bufSize := len(data) * 4
	const maxSize = 128 * 1024 * 1024 // 128MB safety limit

	for bufSize <= maxSize {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
				bufSize *= 2
				continue
			}

			return nil, err
		}

		return buf[:n], nil
	}

	return nil, lz4.ErrInvalidSourceShortBuffer
}
