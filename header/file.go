package header

import (
	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/evioerr"
)

// EvioFileMagic is the file-id magic word for an evio-flavored file
// ("EVIO" read as big-endian ASCII).
const EvioFileMagic uint32 = 0x4556494F

// HipoFileMagic is the file-id magic word for a hipo-flavored file
// ("HIPO" read as big-endian ASCII).
const HipoFileMagic uint32 = 0x4849504F

const (
	fileIdOff          = 0
	fileNumberOff      = 4
	fileHeaderLenOff   = 8
	fileEntriesOff     = 12
	fileIndexLenOff    = 16
	fileBitInfoOff     = 20
	fileUserHdrLenOff  = 24
	fileMagicOff       = 28
	fileUserRegOff     = 32
	fileTrailerPosOff  = 40
	fileUserInt1Off    = 48
	fileUserInt2Off    = 52
)

// FileHeader is the 14-word header opening an evio/hipo file: file-id
// magic, split/file number, record count ("entries"), trailer byte
// position, and user registers. Grounded on FileHeader.cpp's
// writeHeader/readHeader field offsets.
type FileHeader struct {
	FileID          uint32 // EvioFileMagic or HipoFileMagic
	FileNumber      uint32 // split sequence number, starting at 1
	HeaderLenWords  uint32 // normally RecordWordCount; readers tolerate more
	Entries         uint32 // number of records in the file, excluding the trailer
	IndexLenBytes   uint32
	BitInfo         BitInfo
	UserHdrLenBytes uint32
	UserRegister    uint64
	TrailerPosition uint64 // byte offset of the trailer record, 0 if unknown
	UserInt1        uint32
	UserInt2        uint32
}

// Encode writes the header at byte offset off in buf, using
// RecordWordCount words, in buf's current byte order.
func (h *FileHeader) Encode(buf *bytebuf.Buffer, off int) {
	buf.PutUint32At(off+fileIdOff, h.FileID)
	buf.PutUint32At(off+fileNumberOff, h.FileNumber)
	buf.PutUint32At(off+fileHeaderLenOff, h.HeaderLenWords)
	buf.PutUint32At(off+fileEntriesOff, h.Entries)
	buf.PutUint32At(off+fileIndexLenOff, h.IndexLenBytes)
	buf.PutUint32At(off+fileBitInfoOff, uint32(h.BitInfo))
	buf.PutUint32At(off+fileUserHdrLenOff, h.UserHdrLenBytes)
	buf.PutUint32At(off+fileMagicOff, RecordMagic)
	buf.PutUint64At(off+fileUserRegOff, h.UserRegister)
	buf.PutUint64At(off+fileTrailerPosOff, h.TrailerPosition)
	buf.PutUint32At(off+fileUserInt1Off, h.UserInt1)
	buf.PutUint32At(off+fileUserInt2Off, h.UserInt2)
}

// Decode reads a file header at byte offset off in buf, detecting byte
// order from the RecordMagic word at word 7 the same way a record header
// does, then checking fileId against EvioFileMagic/HipoFileMagic.
func (h *FileHeader) Decode(buf *bytebuf.Buffer, off int) error {
	if off+RecordByteCount > buf.Limit() {
		return evioerr.Wrap(evioerr.ErrTruncated, "file header at offset %d: need %d bytes, have %d", off, RecordByteCount, buf.Limit()-off)
	}

	raw := buf.GetUint32At(off + fileMagicOff)
	order, ok := endian.DetectFromMagic(raw, RecordMagic, buf.Order())
	if !ok {
		return evioerr.Wrap(evioerr.ErrBadMagic, "file header at offset %d: magic word 0x%08x", off, raw)
	}
	buf.SetOrder(order)

	h.FileID = buf.GetUint32At(off + fileIdOff)
	if h.FileID != EvioFileMagic && h.FileID != HipoFileMagic {
		// The fileId word is itself endian-dependent ASCII; a mismatch
		// after magic-word-based order detection means the id is simply
		// wrong, not mis-oriented.
		return evioerr.Wrap(evioerr.ErrBadMagic, "file header at offset %d: file id 0x%08x", off, h.FileID)
	}

	h.FileNumber = buf.GetUint32At(off + fileNumberOff)
	h.HeaderLenWords = buf.GetUint32At(off + fileHeaderLenOff)
	h.Entries = buf.GetUint32At(off + fileEntriesOff)
	h.IndexLenBytes = buf.GetUint32At(off + fileIndexLenOff)
	h.BitInfo = BitInfo(buf.GetUint32At(off + fileBitInfoOff))
	h.UserHdrLenBytes = buf.GetUint32At(off + fileUserHdrLenOff)
	h.UserRegister = buf.GetUint64At(off + fileUserRegOff)
	h.TrailerPosition = buf.GetUint64At(off + fileTrailerPosOff)
	h.UserInt1 = buf.GetUint32At(off + fileUserInt1Off)
	h.UserInt2 = buf.GetUint32At(off + fileUserInt2Off)

	if h.BitInfo.Version() < 1 || h.BitInfo.Version() > 6 {
		return evioerr.Wrap(evioerr.ErrUnsupportedVersion, "file header at offset %d: version %d", off, h.BitInfo.Version())
	}

	return nil
}

// ExtraHeaderWords returns the number of words past RecordWordCount that
// a non-standard-but-legal header declares.
func (h *FileHeader) ExtraHeaderWords() int {
	if int(h.HeaderLenWords) <= RecordWordCount {
		return 0
	}
	return int(h.HeaderLenWords) - RecordWordCount
}

// IsEvio reports whether the file-id identifies an evio-flavored file.
func (h *FileHeader) IsEvio() bool { return h.FileID == EvioFileMagic }
