package compress

import (
	"testing"

	"github.com/jlab-evio/evio/format"
	"github.com/stretchr/testify/require"
)

func TestCodecsRoundTrip(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, repeated for compressibility: " +
		"the quick brown fox jumps over the lazy dog, the quick brown fox jumps over the lazy dog")

	codecs := map[format.CompressionType]Codec{
		format.CompressionNone:    NewNoOpCompressor(),
		format.CompressionLZ4Fast: NewLZ4FastCompressor(),
		format.CompressionLZ4High: NewLZ4HighCompressor(),
		format.CompressionGzip:    NewGzipCompressor(),
		format.CompressionZstd:    NewZstdCompressor(),
	}

	for ct, codec := range codecs {
		compressed, err := codec.Compress(data)
		require.NoError(t, err, ct)

		decompressed, err := codec.Decompress(compressed)
		require.NoError(t, err, ct)
		require.Equal(t, data, decompressed, ct)
	}
}

func TestCodecsEmptyInput(t *testing.T) {
	for _, codec := range []Codec{
		NewNoOpCompressor(),
		NewLZ4FastCompressor(),
		NewLZ4HighCompressor(),
		NewGzipCompressor(),
		NewZstdCompressor(),
	} {
		compressed, err := codec.Compress(nil)
		require.NoError(t, err)
		require.Empty(t, compressed)

		decompressed, err := codec.Decompress(nil)
		require.NoError(t, err)
		require.Empty(t, decompressed)
	}
}

func TestCreateCodecAndGetCodec(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone, format.CompressionLZ4Fast, format.CompressionLZ4High,
		format.CompressionGzip, format.CompressionZstd,
	} {
		c, err := CreateCodec(ct, "test")
		require.NoError(t, err)
		require.NotNil(t, c)

		c2, err := GetCodec(ct)
		require.NoError(t, err)
		require.NotNil(t, c2)
	}

	_, err := CreateCodec(format.CompressionType(99), "test")
	require.Error(t, err)

	_, err = GetCodec(format.CompressionType(99))
	require.Error(t, err)
}
