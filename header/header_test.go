package header

import (
	"testing"

	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/format"
	"github.com/stretchr/testify/require"
)

func TestRecordHeaderRoundTrip(t *testing.T) {
	buf := bytebuf.New(RecordByteCount)
	h := &RecordHeader{
		LenWords:           100,
		RecordNumber:       1,
		HeaderLenWords:     RecordWordCount,
		EventCount:         4,
		IndexLenBytes:      16,
		BitInfo:            NewBitInfo(6, 0, HeaderTypeEvioRecord, false, false, false),
		UserHdrLenBytes:    0,
		UncompressedLen:    48,
		CompressionType:    format.CompressionLZ4Fast,
		CompressedLenWords: 10,
		UserReg1:           0x1122334455667788,
		UserInt1:           7,
		UserInt2:           9,
	}
	h.Encode(buf, 0)

	var out RecordHeader
	require.NoError(t, out.Decode(buf, 0))
	require.Equal(t, *h, out)
}

func TestRecordHeaderDetectsSwappedMagic(t *testing.T) {
	buf := bytebuf.New(RecordByteCount).SetOrder(endian.GetBigEndianEngine())
	h := &RecordHeader{HeaderLenWords: RecordWordCount, BitInfo: NewBitInfo(6, 0, HeaderTypeEvioRecord, false, false, false)}
	h.Encode(buf, 0)

	// Force the buffer to decode it with the opposite starting order; the
	// magic word should steer it back.
	buf.SetOrder(endian.GetLittleEndianEngine())
	var out RecordHeader
	require.NoError(t, out.Decode(buf, 0))
	require.Equal(t, endian.GetBigEndianEngine(), buf.Order())
}

func TestRecordHeaderBadMagic(t *testing.T) {
	buf := bytebuf.New(RecordByteCount)
	buf.PutUint32At(28, 0xdeadbeef)
	var out RecordHeader
	require.Error(t, out.Decode(buf, 0))
}

func TestFileHeaderRoundTrip(t *testing.T) {
	buf := bytebuf.New(RecordByteCount)
	h := &FileHeader{
		FileID:          EvioFileMagic,
		FileNumber:      1,
		HeaderLenWords:  RecordWordCount,
		Entries:         3,
		IndexLenBytes:   12,
		BitInfo:         NewBitInfo(6, 0, HeaderTypeEvioFile, true, false, false),
		UserHdrLenBytes: 0,
		UserRegister:    42,
		TrailerPosition: 0x100,
		UserInt1:        1,
		UserInt2:        2,
	}
	h.Encode(buf, 0)

	var out FileHeader
	require.NoError(t, out.Decode(buf, 0))
	require.Equal(t, *h, out)
	require.True(t, out.IsEvio())
	require.True(t, out.BitInfo.HasDictionary())
}

func TestBankSegmentTagSegmentRoundTrip(t *testing.T) {
	buf := bytebuf.New(64)

	bank := &BankHeader{LenWords: 5, Tag: 0x1234, Pad: 2, Type: format.Int16, Num: 0x42}
	bank.Encode(buf, 0)
	var bankOut BankHeader
	bankOut.Decode(buf, 0)
	require.Equal(t, *bank, bankOut)

	seg := &SegmentHeader{Tag: 0x55, Pad: 1, Type: format.Float64, LenWords: 9}
	seg.Encode(buf, 8)
	var segOut SegmentHeader
	segOut.Decode(buf, 8)
	require.Equal(t, *seg, segOut)

	ts := &TagSegmentHeader{Tag: 0x0abc, Type: format.Uint32, LenWords: 3}
	ts.Encode(buf, 12)
	var tsOut TagSegmentHeader
	tsOut.Decode(buf, 12)
	require.Equal(t, *ts, tsOut)
}

func TestPadValue(t *testing.T) {
	require.Equal(t, 0, PadValue(4))
	require.Equal(t, 3, PadValue(1))
	require.Equal(t, 2, PadValue(2))
	require.Equal(t, 1, PadValue(3))
}
