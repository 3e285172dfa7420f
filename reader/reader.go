// Package reader implements sequential and random-access reading of evio
// v6 files: header decoding, a lazily built file-wide event index, and
// event retrieval as raw bytes, a fully parsed tree, or a compact node.
// See spec.md §4.9.
package reader

import (
	"os"

	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/compact"
	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/evioerr"
	"github.com/jlab-evio/evio/format"
	"github.com/jlab-evio/evio/header"
	"github.com/jlab-evio/evio/record"
	"github.com/jlab-evio/evio/tree"
)

// recordInfo is one entry in the file's lazily built index: grounded on
// FileEventIndex.cpp's cumulative-event-count-per-record table.
type recordInfo struct {
	offset     int64
	eventCount uint32
}

// Reader reads a single evio v6 file opened by Open. It is not safe for
// concurrent use by multiple goroutines.
type Reader struct {
	data []byte
	buf  *bytebuf.Buffer

	fileHeader header.FileHeader
	firstDataOffset int64

	dictionaryXML string
	firstEvent    []byte

	records []recordInfo
	// cumulative[i] is the total event count in records[0:i]; cumulative[0] == 0.
	cumulative []uint32
	indexed    bool

	currentRecord      int
	currentEvent       uint32
	currentRecordEvent uint32
	loadedRecord       int
	loadedInput        record.RecordInput

	closed bool
}

// Open reads the whole file into memory and decodes its file header. The
// per-record event index is built lazily on first use by EventCount,
// NextEvent, or Event.
func Open(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, evioerr.WrapCause(evioerr.ErrIoError, err, "opening %s", path)
	}

	buf := bytebuf.Wrap(data)
	r := &Reader{data: data, buf: buf, loadedRecord: -1}

	if err := r.fileHeader.Decode(buf, 0); err != nil {
		return nil, err
	}

	pad := r.fileHeader.BitInfo.Padding()
	userHdrStart := header.RecordByteCount
	userHdrEnd := userHdrStart + int(r.fileHeader.UserHdrLenBytes) + pad
	r.firstDataOffset = int64(userHdrEnd)

	if r.fileHeader.BitInfo.HasDictionary() || r.fileHeader.BitInfo.HasFirstEvent() {
		if err := r.decodeFileUserHeader(userHdrStart, int(r.fileHeader.UserHdrLenBytes)); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Reader) decodeFileUserHeader(off, length int) error {
	if length == 0 {
		return nil
	}

	var in record.RecordInput
	if err := in.Read(r.buf, off); err != nil {
		return evioerr.WrapCause(evioerr.ErrInvalidStructure, err, "decoding file-level user header")
	}

	idx := 0
	if r.fileHeader.BitInfo.HasDictionary() {
		dictBytes, err := in.Event(idx)
		if err != nil {
			return err
		}
		s, _, err := tree.Parse(bytebuf.Wrap(dictBytes).SetOrder(r.buf.Order()), 0, format.KindBank)
		if err != nil {
			return evioerr.WrapCause(evioerr.ErrInvalidStructure, err, "decoding dictionary bank")
		}
		if sp, ok := s.Payload.(tree.StringPayload); ok && len(sp.Values) > 0 {
			r.dictionaryXML = sp.Values[0]
		}
		idx++
	}
	if r.fileHeader.BitInfo.HasFirstEvent() {
		fe, err := in.Event(idx)
		if err != nil {
			return err
		}
		r.firstEvent = fe
	}

	return nil
}

// ByteOrder returns the byte order the file was written in.
func (r *Reader) ByteOrder() endian.EndianEngine { return r.buf.Order() }

// Version returns the evio format version the file was written with.
func (r *Reader) Version() int { return r.fileHeader.BitInfo.Version() }

// HasDictionary reports whether the file carries an XML dictionary.
func (r *Reader) HasDictionary() bool { return r.fileHeader.BitInfo.HasDictionary() }

// DictionaryXML returns the file's embedded dictionary text, or "" if none.
func (r *Reader) DictionaryXML() string { return r.dictionaryXML }

// FirstEvent returns the file's embedded first event bytes, or nil if none.
func (r *Reader) FirstEvent() []byte { return r.firstEvent }

// buildIndex walks every record header from the first data record to the
// trailer, accumulating per-record event counts. Grounded on
// FileEventIndex.cpp's recordIndex table: cumulative[0] is always 0, and
// cumulative[i] is the total event count through record i-1.
func (r *Reader) buildIndex() error {
	if r.indexed {
		return nil
	}

	off := r.firstDataOffset
	var records []recordInfo
	cumulative := []uint32{0}
	total := uint32(0)

	for off < int64(len(r.data)) {
		var h header.RecordHeader
		if err := h.Decode(r.buf, int(off)); err != nil {
			return err
		}
		if h.BitInfo.HeaderType().IsTrailer() {
			break
		}

		records = append(records, recordInfo{offset: off, eventCount: h.EventCount})
		total += h.EventCount
		cumulative = append(cumulative, total)

		// LenWords is the record's total word count (header + payload), per
		// RecordOutput.Build's encoding.
		off += 4 * int64(h.LenWords)
	}

	r.records = records
	r.cumulative = cumulative
	r.indexed = true

	return nil
}

// RecordCount returns the number of data records in the file (excluding
// the trailer), building the index if not already built.
func (r *Reader) RecordCount() (int, error) {
	if err := r.buildIndex(); err != nil {
		return 0, err
	}
	return len(r.records), nil
}

// EventCount returns the total number of events in the file, building the
// index if not already built.
func (r *Reader) EventCount() (uint32, error) {
	if err := r.buildIndex(); err != nil {
		return 0, err
	}
	return r.cumulative[len(r.cumulative)-1], nil
}

// loadRecord decodes record i into r.loadedInput, memoizing the last
// record decoded since consecutive NextEvent calls usually stay within
// the same record.
func (r *Reader) loadRecord(i int) error {
	if r.loadedRecord == i {
		return nil
	}
	if i < 0 || i >= len(r.records) {
		return evioerr.Wrap(evioerr.ErrInvalidLength, "record index %d out of range [0,%d)", i, len(r.records))
	}

	var in record.RecordInput
	if err := in.Read(r.buf, int(r.records[i].offset)); err != nil {
		return err
	}

	r.loadedInput.Release()
	r.loadedInput = in
	r.loadedRecord = i

	return nil
}

// recordForEvent returns the record index and in-record offset containing
// the given file-wide event number.
func (r *Reader) recordForEvent(eventNumber uint32) (int, uint32, error) {
	if err := r.buildIndex(); err != nil {
		return 0, 0, err
	}
	if eventNumber >= r.cumulative[len(r.cumulative)-1] {
		return 0, 0, evioerr.Wrap(evioerr.ErrInvalidLength, "event number %d out of range [0,%d)", eventNumber, r.cumulative[len(r.cumulative)-1])
	}

	for i := 1; i < len(r.cumulative); i++ {
		if eventNumber < r.cumulative[i] {
			return i - 1, eventNumber - r.cumulative[i-1], nil
		}
	}

	return 0, 0, evioerr.Wrap(evioerr.ErrInvalidLength, "event number %d not found", eventNumber)
}

// EventBytes returns the zero-copy wire bytes of the eventNumber-th event
// in the file (random access; see spec.md §4.9 "Random").
func (r *Reader) EventBytes(eventNumber uint32) ([]byte, error) {
	if r.closed {
		return nil, evioerr.Wrap(evioerr.ErrClosed, "EventBytes on closed reader")
	}

	recIdx, inRecIdx, err := r.recordForEvent(eventNumber)
	if err != nil {
		return nil, err
	}
	if err := r.loadRecord(recIdx); err != nil {
		return nil, err
	}

	return r.loadedInput.Event(int(inRecIdx))
}

// Event returns a fully parsed tree (C3) of the eventNumber-th event.
func (r *Reader) Event(eventNumber uint32) (*tree.Structure, error) {
	data, err := r.EventBytes(eventNumber)
	if err != nil {
		return nil, err
	}

	s, _, err := tree.Parse(bytebuf.Wrap(data).SetOrder(r.buf.Order()), 0, format.KindBank)
	return s, err
}

// CompactEvent returns a compact node (C6) view of the eventNumber-th
// event, addressing the record's backing bytes without materializing a
// tree.
func (r *Reader) CompactEvent(eventNumber uint32) (*compact.Node, error) {
	if r.closed {
		return nil, evioerr.Wrap(evioerr.ErrClosed, "CompactEvent on closed reader")
	}

	recIdx, inRecIdx, err := r.recordForEvent(eventNumber)
	if err != nil {
		return nil, err
	}
	if err := r.loadRecord(recIdx); err != nil {
		return nil, err
	}

	data, err := r.loadedInput.Event(int(inRecIdx))
	if err != nil {
		return nil, err
	}

	return compact.ExtractEventNode(bytebuf.Wrap(data).SetOrder(r.buf.Order()), 0, 0, inRecIdx)
}

// NextEvent returns the next event in file order as a fully parsed tree,
// advancing the sequential cursor; see spec.md §4.9 "Sequential".
func (r *Reader) NextEvent() (*tree.Structure, error) {
	data, _, err := r.nextEventBytes()
	if err != nil {
		return nil, err
	}

	s, _, err := tree.Parse(bytebuf.Wrap(data).SetOrder(r.buf.Order()), 0, format.KindBank)
	return s, err
}

// NextCompactEvent is NextEvent's compact-node (C6) equivalent.
func (r *Reader) NextCompactEvent() (*compact.Node, error) {
	data, place, err := r.nextEventBytes()
	if err != nil {
		return nil, err
	}
	return compact.ExtractEventNode(bytebuf.Wrap(data).SetOrder(r.buf.Order()), 0, 0, place)
}

// nextEventBytes returns the next event's bytes and its index within its
// containing record (the "place" compact nodes address by), then advances
// the sequential cursor.
func (r *Reader) nextEventBytes() ([]byte, uint32, error) {
	if r.closed {
		return nil, 0, evioerr.Wrap(evioerr.ErrClosed, "NextEvent on closed reader")
	}
	if err := r.buildIndex(); err != nil {
		return nil, 0, err
	}
	if r.currentEvent >= r.cumulative[len(r.cumulative)-1] {
		return nil, 0, evioerr.Wrap(evioerr.ErrInvalidLength, "no more events")
	}

	if err := r.loadRecord(r.currentRecord); err != nil {
		return nil, 0, err
	}

	place := r.currentRecordEvent
	data, err := r.loadedInput.Event(int(place))
	if err != nil {
		return nil, 0, err
	}

	r.currentEvent++
	r.currentRecordEvent++
	if r.currentRecordEvent >= r.records[r.currentRecord].eventCount {
		r.currentRecordEvent = 0
		r.currentRecord++
	}

	return data, place, nil
}

// HasNext reports whether a further call to NextEvent would succeed.
func (r *Reader) HasNext() (bool, error) {
	if err := r.buildIndex(); err != nil {
		return false, err
	}
	return r.currentEvent < r.cumulative[len(r.cumulative)-1], nil
}

// Rewind resets the sequential cursor to the first event.
func (r *Reader) Rewind() {
	r.currentRecord = 0
	r.currentEvent = 0
	r.currentRecordEvent = 0
}

// Close releases the reader. Further calls to NextEvent/Event/EventBytes
// return evioerr.ErrClosed.
func (r *Reader) Close() error {
	r.closed = true
	return nil
}
