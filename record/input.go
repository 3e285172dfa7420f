package record

import (
	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/compress"
	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/evioerr"
	"github.com/jlab-evio/evio/header"
	"github.com/jlab-evio/evio/internal/pool"
)

// RecordInput parses a record previously written by RecordOutput.Build,
// exposing zero-copy event views. See spec.md §4.7.
type RecordInput struct {
	Header header.RecordHeader

	userHeader     []byte
	eventData      []byte
	eventOffsets   []int
	eventLengths   []uint32
	releaseLengths func()
}

// Release returns eventLengths' backing slice to the shared pool, if it
// came from one. Callers that reuse a RecordInput value across multiple
// Read calls (e.g. a reader memoizing the last-decoded record) should
// call Release before discarding it; it is a no-op otherwise.
func (r *RecordInput) Release() {
	if r.releaseLengths != nil {
		r.releaseLengths()
		r.releaseLengths = nil
	}
}

// Read decodes the record at byte offset off in buf: the header (which
// also establishes buf's byte order), then — if compressed — decompresses
// the whole post-header region, then reads the index array, the user
// header and the event boundaries from that region.
func (r *RecordInput) Read(buf *bytebuf.Buffer, off int) error {
	var h header.RecordHeader
	if err := h.Decode(buf, off); err != nil {
		return err
	}
	r.Header = h
	order := buf.Order()

	dataStart := off + 4*int(h.HeaderLenWords)

	var region []byte
	if h.IsCompressed() {
		compressedLen := 4 * int(h.CompressedLenWords)
		if dataStart+compressedLen > buf.Limit() {
			return evioerr.Wrap(evioerr.ErrTruncated, "record %d: compressed region out of range", h.RecordNumber)
		}
		codec, err := compress.GetCodec(h.CompressionType)
		if err != nil {
			return err
		}
		decompressed, err := codec.Decompress(buf.Bytes()[dataStart : dataStart+compressedLen])
		if err != nil {
			return evioerr.WrapCause(evioerr.ErrCompressionError, err, "decompressing record %d", h.RecordNumber)
		}
		region = decompressed
	} else {
		if dataStart+int(h.UncompressedLen) > buf.Limit() {
			return evioerr.Wrap(evioerr.ErrTruncated, "record %d: data region out of range", h.RecordNumber)
		}
		region = buf.Bytes()[dataStart : dataStart+int(h.UncompressedLen)]
	}

	rb := bytebuf.Wrap(region).SetOrder(order)

	indexWords := int(h.IndexLenBytes) / 4
	lengths, releaseLengths := pool.GetUint32Slice(indexWords)
	for i := range lengths {
		lengths[i] = rb.GetUint32()
	}

	userLen := int(h.UserHdrLenBytes)
	userHeader := rb.GetBytes(userLen)
	rb.SetPosition(rb.Position() + h.BitInfo.Padding())

	eventData := region[rb.Position():]

	r.userHeader = userHeader
	r.eventData = eventData

	if indexWords > 0 && uint32(indexWords) == h.EventCount {
		offsets := make([]int, len(lengths))
		pos := 0
		for i, l := range lengths {
			offsets[i] = pos
			pos += int(l)
		}
		r.eventOffsets = offsets
		r.eventLengths = lengths
		r.releaseLengths = releaseLengths
		return nil
	}

	releaseLengths()
	return r.recoverIndex(order)
}

// recoverIndex reconstructs event boundaries by reading each event bank's
// own length word sequentially, used when the record's index array is
// absent, per spec.md §4.7.
func (r *RecordInput) recoverIndex(order endian.EndianEngine) error {
	eb := bytebuf.Wrap(r.eventData).SetOrder(order)

	var offsets []int
	var lengths []uint32
	pos := 0

	for uint32(len(offsets)) < r.Header.EventCount {
		if pos+4 > len(r.eventData) {
			return evioerr.Wrap(evioerr.ErrTruncated, "record %d: event %d length word out of range", r.Header.RecordNumber, len(offsets))
		}
		lenWords := eb.GetUint32At(pos)
		eventLen := 4 * (int(lenWords) + 1)
		if pos+eventLen > len(r.eventData) {
			return evioerr.Wrap(evioerr.ErrTruncated, "record %d: event %d overruns data region", r.Header.RecordNumber, len(offsets))
		}
		offsets = append(offsets, pos)
		lengths = append(lengths, uint32(eventLen))
		pos += eventLen
	}

	r.eventOffsets = offsets
	r.eventLengths = lengths

	return nil
}

// EventCount returns the number of events recovered from the record.
func (r *RecordInput) EventCount() int { return len(r.eventOffsets) }

// UserHeader returns the record's user header bytes, or nil if absent.
func (r *RecordInput) UserHeader() []byte { return r.userHeader }

// Event returns a zero-copy view of the i-th event's bytes.
func (r *RecordInput) Event(i int) ([]byte, error) {
	if i < 0 || i >= len(r.eventOffsets) {
		return nil, evioerr.Wrap(evioerr.ErrInvalidLength, "event index %d out of range [0,%d)", i, len(r.eventOffsets))
	}
	off := r.eventOffsets[i]
	n := int(r.eventLengths[i])

	return r.eventData[off : off+n], nil
}
