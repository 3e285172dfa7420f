package evio

import (
	"path/filepath"
	"testing"

	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/format"
	"github.com/jlab-evio/evio/tree"
	"github.com/jlab-evio/evio/writer"
	"github.com/stretchr/testify/require"
)

func buildEvent(t *testing.T, tag uint16) []byte {
	t.Helper()
	b := tree.NewBank(tag, 0, format.Uint32)
	b.Payload = tree.Uint32Payload{Values: []uint32{1, 2, 3}}

	buf := bytebuf.New(32)
	require.NoError(t, b.Write(buf))
	buf.Flip()

	return buf.Bytes()
}

func TestCreateWriterOpenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.evio")

	w, err := CreateWriter(path, writer.WithCompression(format.CompressionLZ4Fast))
	require.NoError(t, err)
	require.NoError(t, w.AddEvent(buildEvent(t, 7)))
	require.NoError(t, w.Close())

	r, err := OpenFile(path)
	require.NoError(t, err)
	defer r.Close()

	has, err := r.HasNext()
	require.NoError(t, err)
	require.True(t, has)

	ev, err := r.NextEvent()
	require.NoError(t, err)
	require.Equal(t, uint16(7), ev.Tag)
}
