package record

import (
	"testing"

	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/format"
	"github.com/jlab-evio/evio/tree"
	"github.com/stretchr/testify/require"
)

func buildEventBytes(t *testing.T, tag uint16, values []uint32) []byte {
	t.Helper()
	b := tree.NewBank(tag, 0, format.Uint32)
	b.Payload = tree.Uint32Payload{Values: values}

	buf := bytebuf.New(64)
	require.NoError(t, b.Write(buf))
	buf.Flip()

	return buf.Bytes()
}

func TestRecordOutputInputRoundTripUncompressed(t *testing.T) {
	out := NewRecordOutput(1, endian.GetLittleEndianEngine())
	out.UserHeader = []byte("hello")

	e1 := buildEventBytes(t, 10, []uint32{1, 2, 3})
	e2 := buildEventBytes(t, 11, []uint32{4, 5})
	require.True(t, out.AddEvent(e1))
	require.True(t, out.AddEvent(e2))

	buf, err := out.Build()
	require.NoError(t, err)

	var in RecordInput
	require.NoError(t, in.Read(buf, 0))
	require.Equal(t, 2, in.EventCount())
	require.Equal(t, []byte("hello"), in.UserHeader())

	got1, err := in.Event(0)
	require.NoError(t, err)
	require.Equal(t, e1, got1)

	got2, err := in.Event(1)
	require.NoError(t, err)
	require.Equal(t, e2, got2)
}

func TestRecordOutputInputRoundTripCompressed(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionLZ4Fast, format.CompressionLZ4High, format.CompressionGzip, format.CompressionZstd,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			out := NewRecordOutput(7, endian.GetLittleEndianEngine())
			out.Compression = ct

			e1 := buildEventBytes(t, 20, []uint32{9, 9, 9, 9})
			require.True(t, out.AddEvent(e1))

			buf, err := out.Build()
			require.NoError(t, err)

			var in RecordInput
			require.NoError(t, in.Read(buf, 0))
			require.Equal(t, 1, in.EventCount())

			got, err := in.Event(0)
			require.NoError(t, err)
			require.Equal(t, e1, got)
		})
	}
}

func TestRecordOutputAddEventRespectsLimits(t *testing.T) {
	out := NewRecordOutput(1, endian.GetLittleEndianEngine())
	out.MaxEventCount = 1
	require.True(t, out.AddEvent([]byte{1, 2, 3, 4}))
	require.False(t, out.AddEvent([]byte{5, 6, 7, 8}))

	out2 := NewRecordOutput(1, endian.GetLittleEndianEngine())
	out2.MaxBufferSize = 4
	require.True(t, out2.AddEvent([]byte{1, 2, 3, 4}))
	require.False(t, out2.AddEvent([]byte{5, 6, 7, 8}))
}

func TestRecordInputRecoversIndexWhenAbsent(t *testing.T) {
	out := NewRecordOutput(3, endian.GetLittleEndianEngine())
	out.OmitIndex = true
	e1 := buildEventBytes(t, 30, []uint32{1})
	e2 := buildEventBytes(t, 31, []uint32{2, 3})
	require.True(t, out.AddEvent(e1))
	require.True(t, out.AddEvent(e2))

	buf, err := out.Build()
	require.NoError(t, err)

	var in RecordInput
	require.NoError(t, in.Read(buf, 0))
	require.Equal(t, 2, in.EventCount())

	got1, err := in.Event(0)
	require.NoError(t, err)
	require.Equal(t, e1, got1)
}
