// Package compress provides the compression codecs used for a record's
// payload region: everything in a record after the 14-word header, per
// spec.md §4.7. A record's compression_type header field selects one of
// four standard codecs plus one vendor extension; see format.CompressionType.
//
// # Architecture
//
// The package defines three interfaces:
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// # Supported Algorithms
//
//   - None (format.CompressionNone): passthrough, no allocation on Compress.
//   - LZ4 fast (format.CompressionLZ4Fast): lz4.CompressBlock, favors speed.
//   - LZ4 high (format.CompressionLZ4High): lz4.CompressBlockHC, favors ratio.
//   - Gzip (format.CompressionGzip): klauspost/compress/gzip, widest interop.
//   - Zstd (format.CompressionZstd): klauspost/compress/zstd, vendor extension;
//     see format.CompressionType.IsStandard.
//
// CreateCodec and GetCodec select a Codec by format.CompressionType; callers
// that already know the type at compile time can construct a codec directly
// (NewLZ4FastCompressor, NewGzipCompressor, ...).
package compress
