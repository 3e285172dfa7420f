package composite

import (
	"testing"

	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/endian"
	"github.com/stretchr/testify/require"
)

func TestCompileSimpleGroup(t *testing.T) {
	ops, err := Compile("N(I,D,F,2S,8a)")
	require.NoError(t, err)
	require.NotEmpty(t, ops)
	require.True(t, ops[0].IsGroupStart())
	require.Equal(t, RepeatFromInt32, ops[0].Source())
	require.True(t, ops[len(ops)-1].IsGroupEnd())
}

func TestCompileRejectsUnmatchedParen(t *testing.T) {
	_, err := Compile("N(I,D")
	require.Error(t, err)
}

func TestCompileRejectsBadCharacter(t *testing.T) {
	_, err := Compile("Q")
	require.Error(t, err)
}

func TestCompileRejectsExcessiveRepeatCount(t *testing.T) {
	_, err := Compile("999I")
	require.Error(t, err)
}

// TestSwapDoubleIdempotent mirrors scenario S3: swap a composite payload
// built from "N(I,D,F,2S,8a)" with N=2, swap it again, and assert
// byte-for-byte equality with the original.
func TestSwapDoubleIdempotent(t *testing.T) {
	ops, err := Compile("N(I,D,F,2S,8a)")
	require.NoError(t, err)

	buf := bytebuf.New(256)
	buf.PutUint32(2) // N = 2

	for i := 0; i < 2; i++ {
		buf.PutInt32(-42 - int32(i))
		buf.PutFloat64(-3.14159 - float64(i))
		buf.PutFloat32(-2.5 - float32(i))
		buf.PutInt16(int16(-100 - i))
		buf.PutInt16(int16(200 + i))
		buf.PutBytes([]byte("abcdefg\x00"))
	}

	buf.Flip()
	original := append([]byte(nil), buf.Bytes()...)

	require.NoError(t, SwapAll(ops, buf, 0))
	require.NotEqual(t, original, buf.Bytes())

	buf.Rewind()
	require.NoError(t, SwapAll(ops, buf, 0))
	require.Equal(t, original, buf.Bytes())
}

func TestDecodeSimpleInts(t *testing.T) {
	ops, err := Compile("3I")
	require.NoError(t, err)

	buf := bytebuf.New(12)
	buf.PutInt32(1)
	buf.PutInt32(2)
	buf.PutInt32(3)
	buf.Flip()

	items, err := Decode(ops, buf, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, TypeInt32, items[0].Type)
	require.Equal(t, 3, items[0].Count())
}

func TestDumpProducesOutput(t *testing.T) {
	ops, err := Compile("2I")
	require.NoError(t, err)

	buf := bytebuf.New(8)
	buf.PutInt32(7)
	buf.PutInt32(8)
	buf.Flip()

	out, err := Dump(ops, buf, 0)
	require.NoError(t, err)
	require.Contains(t, out, "32bit:")
}

// TestBuildDecodeRoundTripHardcoded exercises P7 (spec.md §8): for a
// hardcoded-repeat format, decode(build(format, items)) must reproduce
// items exactly.
func TestBuildDecodeRoundTripHardcoded(t *testing.T) {
	const fmtStr = "3I"
	order := endian.GetLittleEndianEngine()

	buf := bytebuf.New(12)
	buf.SetOrder(order)
	buf.PutInt32(1)
	buf.PutInt32(2)
	buf.PutInt32(3)
	buf.Flip()

	ops, err := Compile(fmtStr)
	require.NoError(t, err)
	items, err := Decode(ops, buf, 0)
	require.NoError(t, err)

	built, err := Build(fmtStr, items, order)
	require.NoError(t, err)
	require.Equal(t, buf.Bytes(), built)

	roundTripped, err := Decode(ops, bytebuf.Wrap(built).SetOrder(order), 0)
	require.NoError(t, err)
	require.Equal(t, items, roundTripped)
}

// TestBuildDecodeRoundTripDynamicRepeat covers the N(...) dynamic
// repeat case the CompositeTester.cpp test1 scenario exercises.
func TestBuildDecodeRoundTripDynamicRepeat(t *testing.T) {
	const fmtStr = "N(I,D,F,2S,8a)"
	order := endian.GetLittleEndianEngine()

	buf := bytebuf.New(256)
	buf.SetOrder(order)
	buf.PutUint32(2) // N = 2

	for i := 0; i < 2; i++ {
		buf.PutInt32(-42 - int32(i))
		buf.PutFloat64(-3.14159 - float64(i))
		buf.PutFloat32(-2.5 - float32(i))
		buf.PutInt16(int16(-100 - i))
		buf.PutInt16(int16(200 + i))
		buf.PutBytes([]byte("abcdefg\x00"))
	}
	buf.Flip()

	ops, err := Compile(fmtStr)
	require.NoError(t, err)
	items, err := Decode(ops, buf, 0)
	require.NoError(t, err)

	built, err := Build(fmtStr, items, order)
	require.NoError(t, err)
	require.Equal(t, buf.Bytes(), built)

	roundTripped, err := Decode(ops, bytebuf.Wrap(built).SetOrder(order), 0)
	require.NoError(t, err)
	require.Equal(t, items, roundTripped)
}

// TestContainerRoundTrip covers the self-contained tagsegment+bank
// wrapper (spec.md §3.8): EncodeContainer followed by DecodeContainer
// must recover the same format string and items.
func TestContainerRoundTrip(t *testing.T) {
	const fmtStr = "N(I,F)"
	order := endian.GetLittleEndianEngine()

	ops, err := Compile(fmtStr)
	require.NoError(t, err)

	data := bytebuf.New(64)
	data.SetOrder(order)
	data.PutUint32(3)
	for i := 0; i < 3; i++ {
		data.PutInt32(int32(i))
		data.PutFloat32(float32(i) * 1.5)
	}
	data.Flip()

	items, err := Decode(ops, data, 0)
	require.NoError(t, err)

	packed, err := EncodeContainer(fmtStr, items, order)
	require.NoError(t, err)

	gotFormat, gotItems, err := DecodeContainer(packed, order)
	require.NoError(t, err)
	require.Equal(t, fmtStr, gotFormat)
	require.Equal(t, items, gotItems)
}

func TestBuildRejectsWrongItemType(t *testing.T) {
	_, err := Build("3I", []Item{{Type: TypeFloat32, Data: make([]byte, 12)}}, endian.GetLittleEndianEngine())
	require.Error(t, err)
}
