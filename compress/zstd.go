package compress

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	zstdEncoder     *zstd.Encoder
	zstdEncoderOnce sync.Once
	zstdDecoder     *zstd.Decoder
	zstdDecoderOnce sync.Once
)

func sharedZstdEncoder() *zstd.Encoder {
	zstdEncoderOnce.Do(func() {
		zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	})
	return zstdEncoder
}

func sharedZstdDecoder() *zstd.Decoder {
	zstdDecoderOnce.Do(func() {
		zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	})
	return zstdDecoder
}

// ZstdCompressor implements the vendor-extension format.CompressionZstd
// codec, favoring compression ratio over speed.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor using a package-shared
// encoder/decoder pair. zstd.Encoder and zstd.Decoder are both safe for
// concurrent use.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}

// Compress compresses data with Zstandard.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return sharedZstdEncoder().EncodeAll(data, make([]byte, 0, len(data))), nil
}

// Decompress reverses Compress.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return sharedZstdDecoder().DecodeAll(data, nil)
}
