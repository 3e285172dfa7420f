package header

import (
	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/evioerr"
	"github.com/jlab-evio/evio/format"
)

// RecordWordCount is the canonical record/file header length in 32-bit
// words. Writers always emit exactly this many; readers tolerate more,
// per spec.md's header-length-is-authoritative rule.
const RecordWordCount = 14

// RecordByteCount is RecordWordCount expressed in bytes.
const RecordByteCount = RecordWordCount * 4

// RecordMagic is the fixed magic word stored in word 7 of every record
// (and file) header, used to detect the byte order the rest of the header
// and payload were written in.
const RecordMagic uint32 = 0xC0DA0100

const (
	recLenWordsOff        = 0
	recNumberOff           = 4
	recHeaderLenWordsOff   = 8
	recEventCountOff       = 12
	recIndexLenBytesOff    = 16
	recBitInfoOff          = 20
	recUserHdrLenBytesOff  = 24
	recMagicOff            = 28
	recUncompDataLenOff    = 32
	recCompressionWordOff  = 36
	recUserReg1Off         = 40
	recUserInt1Off         = 48
	recUserInt2Off         = 52
)

// RecordHeader is the 14-word header framing one record: a group of
// events, an optional event-length index array, an optional user header,
// and the (possibly compressed) event payload. See spec.md §3.4.
//
// Field layout follows FileHeader.cpp's readHeader/writeHeader offsets,
// which file and record headers share; the record header omits the
// file-only fileId/fileNumber/trailerPosition fields and instead carries
// the compression word and uncompressed-length field a record needs.
type RecordHeader struct {
	LenWords           uint32 // total record length in words: HeaderLenWords + payload words
	RecordNumber       uint32
	HeaderLenWords     uint32 // normally RecordWordCount; readers tolerate more
	EventCount         uint32
	IndexLenBytes      uint32
	BitInfo            BitInfo
	UserHdrLenBytes    uint32
	UncompressedLen    uint32 // uncompressed event-payload length, bytes
	CompressionType    format.CompressionType
	CompressedLenWords uint32 // valid only when CompressionType != None
	UserReg1           uint64
	UserInt1           uint32
	UserInt2           uint32
}

// compressionWord packs CompressionType (bits 28-31) and
// CompressedLenWords (bits 0-27), matching spec.md §3.4's
// `compression_word(type:4|compressed_len_words:28)`.
func (h *RecordHeader) compressionWord() uint32 {
	return uint32(h.CompressionType&0xf)<<28 | (h.CompressedLenWords & 0x0fffffff)
}

func decodeCompressionWord(w uint32) (format.CompressionType, uint32) {
	return format.CompressionType(w >> 28), w & 0x0fffffff
}

// Encode writes the header at byte offset off in buf, in buf's current
// byte order, using RecordWordCount words. The caller is responsible for
// positioning/limiting buf to have room; Encode does not touch buf's
// position.
func (h *RecordHeader) Encode(buf *bytebuf.Buffer, off int) {
	buf.PutUint32At(off+recLenWordsOff, h.LenWords)
	buf.PutUint32At(off+recNumberOff, h.RecordNumber)
	buf.PutUint32At(off+recHeaderLenWordsOff, h.HeaderLenWords)
	buf.PutUint32At(off+recEventCountOff, h.EventCount)
	buf.PutUint32At(off+recIndexLenBytesOff, h.IndexLenBytes)
	buf.PutUint32At(off+recBitInfoOff, uint32(h.BitInfo))
	buf.PutUint32At(off+recUserHdrLenBytesOff, h.UserHdrLenBytes)
	buf.PutUint32At(off+recMagicOff, RecordMagic)
	buf.PutUint32At(off+recUncompDataLenOff, h.UncompressedLen)
	buf.PutUint32At(off+recCompressionWordOff, h.compressionWord())
	buf.PutUint64At(off+recUserReg1Off, h.UserReg1)
	buf.PutUint32At(off+recUserInt1Off, h.UserInt1)
	buf.PutUint32At(off+recUserInt2Off, h.UserInt2)
}

// Decode reads a record header at byte offset off in buf. It first reads
// the magic word and, if it doesn't match RecordMagic in the buffer's
// current order, retries in the swapped order and flips buf's order on
// success; ErrBadMagic is returned if neither orientation matches.
func (h *RecordHeader) Decode(buf *bytebuf.Buffer, off int) error {
	if off+RecordByteCount > buf.Limit() {
		return evioerr.Wrap(evioerr.ErrTruncated, "record header at offset %d: need %d bytes, have %d", off, RecordByteCount, buf.Limit()-off)
	}

	raw := buf.GetUint32At(off + recMagicOff)
	order, ok := endian.DetectFromMagic(raw, RecordMagic, buf.Order())
	if !ok {
		return evioerr.Wrap(evioerr.ErrBadMagic, "record header at offset %d: magic word 0x%08x", off, raw)
	}
	buf.SetOrder(order)

	h.LenWords = buf.GetUint32At(off + recLenWordsOff)
	h.RecordNumber = buf.GetUint32At(off + recNumberOff)
	h.HeaderLenWords = buf.GetUint32At(off + recHeaderLenWordsOff)
	h.EventCount = buf.GetUint32At(off + recEventCountOff)
	h.IndexLenBytes = buf.GetUint32At(off + recIndexLenBytesOff)
	h.BitInfo = BitInfo(buf.GetUint32At(off + recBitInfoOff))
	h.UserHdrLenBytes = buf.GetUint32At(off + recUserHdrLenBytesOff)
	h.UncompressedLen = buf.GetUint32At(off + recUncompDataLenOff)
	h.CompressionType, h.CompressedLenWords = decodeCompressionWord(buf.GetUint32At(off + recCompressionWordOff))
	h.UserReg1 = buf.GetUint64At(off + recUserReg1Off)
	h.UserInt1 = buf.GetUint32At(off + recUserInt1Off)
	h.UserInt2 = buf.GetUint32At(off + recUserInt2Off)

	if h.BitInfo.Version() < 1 || h.BitInfo.Version() > 6 {
		return evioerr.Wrap(evioerr.ErrUnsupportedVersion, "record header at offset %d: version %d", off, h.BitInfo.Version())
	}

	return nil
}

// ExtraHeaderWords returns the number of words past RecordWordCount that
// a non-standard-but-legal header declares; callers must skip this many
// additional words before the index array begins. See spec.md's "header
// length is authoritative" rule in §4.2.
func (h *RecordHeader) ExtraHeaderWords() int {
	if int(h.HeaderLenWords) <= RecordWordCount {
		return 0
	}
	return int(h.HeaderLenWords) - RecordWordCount
}

// IsCompressed reports whether the event payload is compressed.
func (h *RecordHeader) IsCompressed() bool { return h.CompressionType != format.CompressionNone }
