package compact

import (
	"testing"

	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/format"
	"github.com/jlab-evio/evio/tree"
	"github.com/stretchr/testify/require"
)

func buildFiveChildEvent(t *testing.T) *bytebuf.Buffer {
	t.Helper()
	event := tree.NewBank(100, 0, format.Bank)
	for i := 0; i < 5; i++ {
		c := tree.NewBank(uint16(10+i), uint8(i), format.Uint32)
		c.Payload = tree.Uint32Payload{Values: []uint32{uint32(i), uint32(i * 10)}}
		require.NoError(t, event.AddChild(c))
	}

	buf := bytebuf.New(512)
	require.NoError(t, event.Write(buf))
	buf.Flip()
	return buf
}

// TestRemoveThenAddStructure mirrors scenario S4: remove child 4, add a
// new bank, and assert the re-scanned node list has 5 children with the
// new one last and the event header's length word reflects the net delta.
func TestRemoveThenAddStructure(t *testing.T) {
	buf := buildFiveChildEvent(t)
	originalLen := buf.GetUint32At(0)

	root, err := ExtractEventNode(buf, 0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, Scan(root))
	require.Len(t, root.Children, 5)

	fourth := root.Children[3]
	removedWords := uint32(fourth.TotalBytes() / 4)
	require.NoError(t, RemoveStructure(fourth))
	require.Len(t, root.Children, 4)
	require.Equal(t, originalLen-removedWords, buf.GetUint32At(0))
	require.Equal(t, root.Len, buf.GetUint32At(0))

	newChild := tree.NewBank(99, 7, format.Uint32)
	newChild.Payload = tree.Uint32Payload{Values: []uint32{1, 2, 3}}
	raw := bytebuf.New(64)
	require.NoError(t, newChild.Write(raw))
	raw.Flip()

	added, err := AddStructure(root, raw.Bytes(), format.KindBank)
	require.NoError(t, err)
	require.Len(t, root.Children, 5)
	require.Equal(t, added, root.Children[4])
	require.Equal(t, uint16(99), root.Children[4].Tag)

	addedWords := uint32(len(raw.Bytes()) / 4)
	require.Equal(t, originalLen-removedWords+addedWords, buf.GetUint32At(0))
	require.Equal(t, root.Len, buf.GetUint32At(0))

	rescanned, err := ExtractEventNode(buf, 0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, Scan(rescanned))
	require.Len(t, rescanned.Children, 5)
	require.Equal(t, uint16(99), rescanned.Children[4].Tag)
}

func TestScanBufferMultipleEvents(t *testing.T) {
	first := tree.NewBank(1, 0, format.Uint32)
	first.Payload = tree.Uint32Payload{Values: []uint32{1}}
	second := tree.NewBank(2, 0, format.Uint32)
	second.Payload = tree.Uint32Payload{Values: []uint32{2, 3}}

	buf := bytebuf.New(64)
	require.NoError(t, first.Write(buf))
	require.NoError(t, second.Write(buf))
	buf.Flip()

	events, err := ScanBuffer(buf, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, uint16(1), events[0].Tag)
	require.Equal(t, uint16(2), events[1].Tag)
}

func TestSearchByTagAndNum(t *testing.T) {
	buf := buildFiveChildEvent(t)
	root, err := ExtractEventNode(buf, 0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, Scan(root))

	matches := Search(root, 12, 2, true)
	require.Len(t, matches, 1)
	require.Equal(t, uint16(12), matches[0].Tag)

	tagOnly := Search(root, 12, 0, false)
	require.Len(t, tagOnly, 1)
}
