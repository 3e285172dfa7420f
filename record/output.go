// Package record implements the record builder and reader: a record is a
// framed, optionally compressed group of events, per spec.md §3.4/§4.7.
package record

import (
	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/compress"
	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/evioerr"
	"github.com/jlab-evio/evio/format"
	"github.com/jlab-evio/evio/header"
)

// RecordOutput accumulates events (each a fully serialized top-level bank)
// into a record, then serializes the record's wire bytes on Build.
type RecordOutput struct {
	Order        endian.EndianEngine
	Compression  format.CompressionType
	RecordNumber uint32

	// MaxEventCount and MaxBufferSize bound AddEvent; 0 means unbounded.
	MaxEventCount int
	MaxBufferSize int

	// UserHeader, if set, is placed between the index array and the event
	// data, 4-byte padded.
	UserHeader []byte

	// OmitIndex skips writing the event-length index array, matching the
	// externally produced records spec.md §3.4/§4.7 requires readers to
	// tolerate.
	OmitIndex bool

	events  [][]byte
	dataLen int
}

// NewRecordOutput creates an empty record builder for the given record
// number and byte order, uncompressed by default.
func NewRecordOutput(recordNumber uint32, order endian.EndianEngine) *RecordOutput {
	return &RecordOutput{
		Order:        order,
		Compression:  format.CompressionNone,
		RecordNumber: recordNumber,
	}
}

// EventCount returns the number of events added so far.
func (r *RecordOutput) EventCount() int { return len(r.events) }

// DataLen returns the total uncompressed byte length of events added so far.
func (r *RecordOutput) DataLen() int { return r.dataLen }

// AddEvent appends data (a fully serialized event bank) to the record.
// It returns false without modifying the record if doing so would exceed
// MaxEventCount or MaxBufferSize.
func (r *RecordOutput) AddEvent(data []byte) bool {
	if r.MaxEventCount > 0 && len(r.events)+1 > r.MaxEventCount {
		return false
	}
	if r.MaxBufferSize > 0 && r.dataLen+len(data) > r.MaxBufferSize {
		return false
	}

	r.events = append(r.events, data)
	r.dataLen += len(data)

	return true
}

// Reset empties the record so the RecordOutput can be reused for the next
// record number.
func (r *RecordOutput) Reset() {
	r.events = r.events[:0]
	r.dataLen = 0
	r.UserHeader = nil
}

// Build serializes the record: header, index array, user header, then
// event bytes, compressing the region after the header when Compression
// is not format.CompressionNone. See spec.md §4.7.
func (r *RecordOutput) Build() (*bytebuf.Buffer, error) {
	indexLenBytes := 0
	if !r.OmitIndex {
		indexLenBytes = 4 * len(r.events)
	}
	userPad := header.PadValue(len(r.UserHeader))
	userLenPadded := len(r.UserHeader) + userPad
	uncompressedLen := indexLenBytes + userLenPadded + r.dataLen

	region := bytebuf.New(uncompressedLen)
	region.SetOrder(r.Order)
	if !r.OmitIndex {
		for _, e := range r.events {
			region.PutUint32(uint32(len(e)))
		}
	}
	region.PutBytes(r.UserHeader)
	for i := 0; i < userPad; i++ {
		region.PutUint8(0)
	}
	for _, e := range r.events {
		region.PutBytes(e)
	}
	region.Flip()

	payload := region.Bytes()
	compressedLenWords := uint32(0)

	if r.Compression != format.CompressionNone {
		codec, err := compress.GetCodec(r.Compression)
		if err != nil {
			return nil, err
		}
		compressed, err := codec.Compress(payload)
		if err != nil {
			return nil, evioerr.WrapCause(evioerr.ErrCompressionError, err, "compressing record %d", r.RecordNumber)
		}
		payload = compressed
		compressedLenWords = uint32((len(payload) + 3) / 4)
	}

	pad := (4 - len(payload)%4) % 4
	payloadWords := (len(payload) + pad) / 4

	buf := bytebuf.New(header.RecordByteCount + len(payload) + pad)
	buf.SetOrder(r.Order)

	h := header.RecordHeader{
		LenWords:           uint32(header.RecordWordCount + payloadWords),
		RecordNumber:       r.RecordNumber,
		HeaderLenWords:     header.RecordWordCount,
		EventCount:         uint32(len(r.events)),
		IndexLenBytes:      uint32(indexLenBytes),
		BitInfo:            header.NewBitInfo(6, userPad, header.HeaderTypeEvioRecord, false, false, false),
		UserHdrLenBytes:    uint32(len(r.UserHeader)),
		UncompressedLen:    uint32(uncompressedLen),
		CompressionType:    r.Compression,
		CompressedLenWords: compressedLenWords,
	}
	h.Encode(buf, 0)

	buf.SetPosition(header.RecordByteCount)
	buf.PutBytes(payload)
	for i := 0; i < pad; i++ {
		buf.PutUint8(0)
	}
	buf.Flip()

	return buf, nil
}
