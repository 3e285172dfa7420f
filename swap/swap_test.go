package swap

import (
	"testing"

	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/composite"
	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/format"
	"github.com/jlab-evio/evio/tree"
	"github.com/stretchr/testify/require"
)

func TestStructureSwapInPlaceIsIdempotentPair(t *testing.T) {
	root := tree.NewBank(1, 1, format.Bank)
	child := tree.NewBank(11, 11, format.Float32)
	child.Payload = tree.Float32Payload{Values: []float32{0, 1, 2, 2.008}}
	require.NoError(t, root.AddChild(child))

	buf := bytebuf.New(128)
	require.NoError(t, root.Write(buf))
	buf.Flip()
	original := append([]byte(nil), buf.Bytes()...)

	n, err := Structure(buf, 0, format.KindBank, nil)
	require.NoError(t, err)
	require.Equal(t, len(original), n)
	require.NotEqual(t, original, buf.Bytes())

	// The bytes are now big-endian; the second pass reads headers in that order.
	buf.SetOrder(endian.GetBigEndianEngine())
	_, err = Structure(buf, 0, format.KindBank, nil)
	require.NoError(t, err)
	require.Equal(t, original, buf.Bytes())
}

func TestStructureSwapToDestLeavesSourceUntouched(t *testing.T) {
	root := tree.NewBank(2, 0, format.Bank)
	child := tree.NewBank(5, 0, format.Uint32)
	child.Payload = tree.Uint32Payload{Values: []uint32{10, 20, 30}}
	require.NoError(t, root.AddChild(child))

	src := bytebuf.New(64)
	require.NoError(t, root.Write(src))
	src.Flip()
	original := append([]byte(nil), src.Bytes()...)

	dst := bytebuf.New(64)
	dst.SetLimit(src.Limit())
	n, err := Structure(src, 0, format.KindBank, dst)
	require.NoError(t, err)
	require.Equal(t, len(original), n)
	require.Equal(t, original, src.Bytes())
	require.NotEqual(t, original, dst.Bytes())
}

// TestStructureSwapsSelfDescribingComposite confirms a composite bank's
// format is recovered from its own embedded tagsegment rather than an
// external lookup (spec.md §3.8), and that swapping it twice is
// idempotent like any other structure.
func TestStructureSwapsSelfDescribingComposite(t *testing.T) {
	items := []composite.Item{
		{Type: composite.TypeInt32, Data: []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0}},
	}
	payload, err := tree.NewCompositePayload("3I", items, endian.GetLittleEndianEngine())
	require.NoError(t, err)

	root := tree.NewBank(9, 3, format.Composite)
	root.Payload = payload

	buf := bytebuf.New(64)
	require.NoError(t, root.Write(buf))
	buf.Flip()
	original := append([]byte(nil), buf.Bytes()...)

	_, err = Structure(buf, 0, format.KindBank, nil)
	require.NoError(t, err)
	require.NotEqual(t, original, buf.Bytes())

	buf.SetOrder(endian.GetBigEndianEngine())
	_, err = Structure(buf, 0, format.KindBank, nil)
	require.NoError(t, err)
	require.Equal(t, original, buf.Bytes())
}
