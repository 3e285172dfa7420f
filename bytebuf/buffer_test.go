package bytebuf

import (
	"testing"

	"github.com/jlab-evio/evio/endian"
	"github.com/stretchr/testify/require"
)

func TestRelativeAccessorsRoundTrip(t *testing.T) {
	b := New(32)
	b.PutUint32(0xdeadbeef)
	b.PutInt16(-7)
	b.PutFloat64(3.5)
	b.Flip()

	require.Equal(t, uint32(0xdeadbeef), b.GetUint32())
	require.Equal(t, int16(-7), b.GetInt16())
	require.Equal(t, 3.5, b.GetFloat64())
}

func TestByteOrderAffectsEncoding(t *testing.T) {
	le := New(4).SetOrder(endian.GetLittleEndianEngine())
	be := New(4).SetOrder(endian.GetBigEndianEngine())

	le.PutUint32(0x01020304)
	be.PutUint32(0x01020304)

	require.NotEqual(t, le.Bytes(), be.Bytes())
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, le.Bytes())
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, be.Bytes())
}

func TestSliceSharesStorage(t *testing.T) {
	b := New(16)
	b.SetPosition(4)
	s := b.Slice()

	s.PutUint8At(0, 0xAB)
	require.Equal(t, uint8(0xAB), b.GetUint8At(4))
}

func TestSliceRangeIndependentOfParentCursor(t *testing.T) {
	b := New(16)
	sub := b.SliceRange(8, 4)
	sub.PutUint32(0x11223344)

	require.Equal(t, uint32(0x11223344), b.GetUint32At(8))
}

func TestDuplicateSharesStorageButIndependentCursor(t *testing.T) {
	b := New(8)
	b.PutUint32(0x1)
	dup := b.Duplicate()
	dup.SetPosition(0)

	require.Equal(t, 4, b.Position())
	require.Equal(t, 0, dup.Position())

	dup.PutUint8At(4, 0x42)
	require.Equal(t, uint8(0x42), b.GetUint8At(4))
}

func TestCopyIsIndependentStorage(t *testing.T) {
	b := New(4)
	b.PutUint32At(0, 0x1)
	cp := b.Copy()
	cp.PutUint32At(0, 0x2)

	require.Equal(t, uint32(0x1), b.GetUint32At(0))
	require.Equal(t, uint32(0x2), cp.GetUint32At(0))
}

func TestFlipClearRewindCompact(t *testing.T) {
	b := New(8)
	b.PutUint32(1)
	b.Flip()
	require.Equal(t, 0, b.Position())
	require.Equal(t, 4, b.Limit())

	b.GetUint32()
	b.Clear()
	require.Equal(t, 0, b.Position())
	require.Equal(t, 8, b.Limit())

	b.SetPosition(4)
	b.Rewind()
	require.Equal(t, 0, b.Position())

	b2 := New(8)
	b2.PutUint32(1)
	b2.PutUint32(2)
	b2.SetPosition(4)
	b2.SetLimit(8)
	b2.Compact()
	require.Equal(t, 4, b2.Position())
	require.Equal(t, 8, b2.Limit())
	require.Equal(t, uint32(2), b2.GetUint32At(0))
}

func TestWrapDoesNotCopy(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	b := Wrap(data)
	b.PutUint8At(0, 0xFF)
	require.Equal(t, byte(0xFF), data[0])
}

func TestRequireRemaining(t *testing.T) {
	b := New(4)
	require.NoError(t, b.RequireRemaining(4, "ctx"))
	require.Error(t, b.RequireRemaining(5, "ctx"))
}
