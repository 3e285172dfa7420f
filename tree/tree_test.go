package tree

import (
	"testing"

	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/composite"
	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/format"
	"github.com/stretchr/testify/require"
)

func TestBankWithFloatChildRoundTrip(t *testing.T) {
	root := NewBank(1, 1, format.Bank)
	child := NewBank(11, 11, format.Float32)
	child.Payload = Float32Payload{Values: []float32{0.0, 1.0, 2.0, 2.008}}
	require.NoError(t, root.AddChild(child))

	buf := bytebuf.New(128)
	require.NoError(t, root.Write(buf))
	buf.Flip()

	parsed, n, err := Parse(buf, 0, format.KindBank)
	require.NoError(t, err)
	require.Equal(t, root.TotalBytes(), n)
	require.Equal(t, 1, parsed.ChildCount())

	got := parsed.Children()[0]
	require.Equal(t, uint16(11), got.Tag)
	require.Equal(t, uint8(11), got.Num)
	require.Equal(t, format.Float32, got.DataType)
	require.Equal(t, Float32Payload{Values: []float32{0.0, 1.0, 2.0, 2.008}}, got.Payload)
}

// TestCompositeBankRoundTrip confirms composite payloads are decoded
// into structured Items when parsing a tree, rather than falling to
// RawPayload (spec.md §3.6's "vector of composite data").
func TestCompositeBankRoundTrip(t *testing.T) {
	order := endian.GetLittleEndianEngine()
	items := []composite.Item{
		{Type: composite.TypeInt32, Data: []byte{7, 0, 0, 0}},
		{Type: composite.TypeFloat32, Data: []byte{0, 0, 0x20, 0x41}}, // 10.0
	}
	payload, err := NewCompositePayload("I,F", items, order)
	require.NoError(t, err)

	root := NewBank(6, 3, format.Composite)
	root.Payload = payload

	buf := bytebuf.New(64)
	buf.SetOrder(order)
	require.NoError(t, root.Write(buf))
	buf.Flip()

	parsed, n, err := Parse(buf, 0, format.KindBank)
	require.NoError(t, err)
	require.Equal(t, root.TotalBytes(), n)
	require.Equal(t, format.Composite, parsed.DataType)

	got, ok := parsed.Payload.(CompositePayload)
	require.True(t, ok)
	require.Equal(t, "I,F", got.Format)
	require.Equal(t, items, got.Items)
}

func TestAddChildRejectsNonContainer(t *testing.T) {
	leaf := NewBank(1, 1, format.Uint32)
	child := NewBank(2, 2, format.Uint32)
	require.Error(t, leaf.AddChild(child))
}

func TestAddChildDetachesFromPriorParent(t *testing.T) {
	a := NewBank(1, 0, format.Bank)
	b := NewBank(2, 0, format.Bank)
	child := NewBank(3, 0, format.Uint32)

	require.NoError(t, a.AddChild(child))
	require.Equal(t, a, child.Parent())

	require.NoError(t, b.AddChild(child))
	require.Equal(t, b, child.Parent())
	require.Equal(t, 0, a.ChildCount())
	require.Equal(t, 1, b.ChildCount())
}

func TestStringPayloadCanonicalEmpty(t *testing.T) {
	p := StringPayload{}
	require.Equal(t, 4, p.ByteLen())

	buf := bytebuf.New(4)
	p.writeBytes(buf, nil)
	require.Equal(t, []byte{4, 4, 4, 4}, buf.Bytes())
}

func TestStringPayloadRoundTrip(t *testing.T) {
	p := StringPayload{Values: []string{"hello", "evio"}}
	buf := bytebuf.New(p.ByteLen())
	p.writeBytes(buf, nil)
	buf.Flip()

	decoded := DecodeStringPayload(buf.Bytes())
	require.Equal(t, p.Values, decoded.Values)
}

func TestTraversalPreorderAndPostorder(t *testing.T) {
	root := NewBank(0, 0, format.Bank)
	a := NewBank(1, 0, format.Bank)
	b := NewBank(2, 0, format.Uint32)
	require.NoError(t, root.AddChild(a))
	require.NoError(t, root.AddChild(b))
	c := NewBank(3, 0, format.Uint32)
	require.NoError(t, a.AddChild(c))

	require.Equal(t, a, root.NextNode())
	require.Equal(t, c, a.NextNode())
	require.Equal(t, b, c.NextNode())
	require.Nil(t, b.NextNode())

	require.Equal(t, a, c.PreviousNode())
	require.Equal(t, root, a.PreviousNode())
}

func TestGetMatchingStructures(t *testing.T) {
	root := NewBank(0, 0, format.Bank)
	a := NewBank(1, 0, format.Uint32)
	b := NewBank(2, 0, format.Uint32)
	require.NoError(t, root.AddChild(a))
	require.NoError(t, root.AddChild(b))

	matches := root.GetMatchingStructures(func(s *Structure) bool { return s.Tag == 2 })
	require.Equal(t, []*Structure{b}, matches)
}
