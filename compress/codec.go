package compress

import (
	"fmt"

	"github.com/jlab-evio/evio/format"
)

// Compressor compresses a record's payload region (everything after the
// 14-word header, per spec.md §4.7) into a wire-ready compressed form.
type Compressor interface {
	// Compress compresses data and returns the compressed result.
	//
	// Memory management:
	//   - Returned slice is owned by the caller; it is newly allocated,
	//     except that NoOpCompressor returns the input slice itself
	//   - Input slice is not modified
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses Compressor.
type Decompressor interface {
	// Decompress decompresses data and returns the original bytes.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec is a factory function that creates a Codec for the
// specified compression type.
//
// Parameters:
//   - compressionType: the record's compression_type field
//   - target: description of the caller, used in the error message
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionLZ4Fast:
		return NewLZ4FastCompressor(), nil
	case format.CompressionLZ4High:
		return NewLZ4HighCompressor(), nil
	case format.CompressionGzip:
		return NewGzipCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone:    NewNoOpCompressor(),
	format.CompressionLZ4Fast: NewLZ4FastCompressor(),
	format.CompressionLZ4High: NewLZ4HighCompressor(),
	format.CompressionGzip:    NewGzipCompressor(),
	format.CompressionZstd:    NewZstdCompressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
