package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/format"
	"github.com/jlab-evio/evio/header"
	"github.com/jlab-evio/evio/tree"
	"github.com/stretchr/testify/require"
)

func buildEvent(t *testing.T, tag uint16, values []uint32) []byte {
	t.Helper()
	b := tree.NewBank(tag, 0, format.Uint32)
	b.Payload = tree.Uint32Payload{Values: values}

	buf := bytebuf.New(64)
	require.NoError(t, b.Write(buf))
	buf.Flip()

	return buf.Bytes()
}

func TestWriterWritesFileAndRecordHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.evio")

	w, err := New(path, WithMaxRecordEvents(1))
	require.NoError(t, err)

	require.NoError(t, w.AddEvent(buildEvent(t, 1, []uint32{1, 2, 3})))
	require.NoError(t, w.AddEvent(buildEvent(t, 2, []uint32{4, 5})))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, len(data) > header.RecordByteCount)

	buf := bytebuf.Wrap(data)
	var fh header.FileHeader
	require.NoError(t, fh.Decode(buf, 0))
	require.True(t, fh.IsEvio())
	require.Equal(t, uint32(2), fh.Entries) // trailer is not counted as an entry

	stats := w.Stats()
	require.Equal(t, uint64(2), stats.EventsWritten)
	require.Equal(t, uint64(2), stats.RecordsWritten)
}

func TestWriterDictionaryAndFirstEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.evio")

	firstEvent := buildEvent(t, 99, []uint32{7})
	w, err := New(path, WithDictionaryXML("<xmlDict/>"), WithFirstEventBytes(firstEvent))
	require.NoError(t, err)
	require.NoError(t, w.AddEvent(buildEvent(t, 1, []uint32{1})))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	buf := bytebuf.Wrap(data)
	var fh header.FileHeader
	require.NoError(t, fh.Decode(buf, 0))
	require.True(t, fh.BitInfo.HasDictionary())
	require.True(t, fh.BitInfo.HasFirstEvent())
	require.True(t, fh.UserHdrLenBytes > 0)
}

func TestWriterCompressionThreadsRing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.evio")

	w, err := New(path, WithCompressionThreads(4), WithCompression(format.CompressionLZ4Fast), WithMaxRecordEvents(1))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, w.AddEvent(buildEvent(t, uint16(i), []uint32{uint32(i)})))
	}
	require.NoError(t, w.Close())

	stats := w.Stats()
	require.Equal(t, uint64(20), stats.EventsWritten)
	require.Equal(t, uint64(20), stats.RecordsWritten)
}

func TestWriterRejectsAddEventAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.evio")

	w, err := New(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	err = w.AddEvent(buildEvent(t, 1, []uint32{1}))
	require.Error(t, err)
}
