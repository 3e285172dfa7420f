// Package header implements bit-exact codecs for every EVIO header shape:
// the 14-word file and record headers (shared layout, distinct magic
// words) and the compact bank/segment/tagsegment structure headers. Every
// Decode first resolves byte order from a magic word (file/record) or is
// told the order by its caller (structure headers carry no magic of their
// own and rely on the enclosing record/file's detected order).
package header

import (
	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/format"
)

// BankHeader is the 2-word header of a BANK structure (spec.md §3.2).
// Word 0 holds the total length in words, excluding the length word
// itself. Word 1 packs tag(16) | pad(2) | type(6) | num(8).
type BankHeader struct {
	LenWords uint32
	Tag      uint16
	Pad      uint8
	Type     format.DataType
	Num      uint8
}

// BankHeaderWords is the fixed word width of a bank header.
const BankHeaderWords = 2

func (h *BankHeader) word1() uint32 {
	return uint32(h.Tag)<<16 | uint32(h.Pad&0x3)<<14 | uint32(h.Type&0x3f)<<8 | uint32(h.Num)
}

// Encode writes the 2-word header at byte offset off.
func (h *BankHeader) Encode(buf *bytebuf.Buffer, off int) {
	buf.PutUint32At(off, h.LenWords)
	buf.PutUint32At(off+4, h.word1())
}

// Decode reads the 2-word header at byte offset off, in buf's current
// byte order (the order must already have been established by the
// enclosing record/file header).
func (h *BankHeader) Decode(buf *bytebuf.Buffer, off int) {
	h.LenWords = buf.GetUint32At(off)
	w1 := buf.GetUint32At(off + 4)
	h.Tag = uint16(w1 >> 16)
	h.Pad = uint8((w1 >> 14) & 0x3)
	h.Type = format.DataType((w1 >> 8) & 0x3f)
	h.Num = uint8(w1)
}

// TotalBytes returns the number of bytes this bank (header + payload)
// occupies, derived from LenWords.
func (h *BankHeader) TotalBytes() int { return 4 * (int(h.LenWords) + 1) }

// SegmentHeader is the 1-word header of a SEGMENT structure: tag(8) |
// pad(2) | type(6) | length(16), with length excluding the header word.
type SegmentHeader struct {
	Tag      uint8
	Pad      uint8
	Type     format.DataType
	LenWords uint32 // 16-bit field, stored widened
}

// SegmentHeaderWords is the fixed word width of a segment header.
const SegmentHeaderWords = 1

func (h *SegmentHeader) word() uint32 {
	return uint32(h.Tag)<<24 | uint32(h.Pad&0x3)<<22 | uint32(h.Type&0x3f)<<16 | (h.LenWords & 0xffff)
}

// Encode writes the 1-word header at byte offset off.
func (h *SegmentHeader) Encode(buf *bytebuf.Buffer, off int) {
	buf.PutUint32At(off, h.word())
}

// Decode reads the 1-word header at byte offset off.
func (h *SegmentHeader) Decode(buf *bytebuf.Buffer, off int) {
	w := buf.GetUint32At(off)
	h.Tag = uint8(w >> 24)
	h.Pad = uint8((w >> 22) & 0x3)
	h.Type = format.DataType((w >> 16) & 0x3f)
	h.LenWords = w & 0xffff
}

// TotalBytes returns the number of bytes this segment (header + payload) occupies.
func (h *SegmentHeader) TotalBytes() int { return 4 * (int(h.LenWords) + 1) }

// TagSegmentHeader is the 1-word header of a TAGSEGMENT structure:
// tag(12) | type(4) | length(16). There is no pad field and no num field.
type TagSegmentHeader struct {
	Tag      uint16 // 12-bit field, stored widened
	Type     format.DataType
	LenWords uint32 // 16-bit field, stored widened
}

// TagSegmentHeaderWords is the fixed word width of a tagsegment header.
const TagSegmentHeaderWords = 1

func (h *TagSegmentHeader) word() uint32 {
	return uint32(h.Tag&0xfff)<<20 | uint32(h.Type&0xf)<<16 | (h.LenWords & 0xffff)
}

// Encode writes the 1-word header at byte offset off.
func (h *TagSegmentHeader) Encode(buf *bytebuf.Buffer, off int) {
	buf.PutUint32At(off, h.word())
}

// Decode reads the 1-word header at byte offset off.
func (h *TagSegmentHeader) Decode(buf *bytebuf.Buffer, off int) {
	w := buf.GetUint32At(off)
	h.Tag = uint16((w >> 20) & 0xfff)
	h.Type = format.DataType((w >> 16) & 0xf)
	h.LenWords = w & 0xffff
}

// TotalBytes returns the number of bytes this tagsegment (header + payload) occupies.
func (h *TagSegmentHeader) TotalBytes() int { return 4 * (int(h.LenWords) + 1) }
