// Package writer builds evio v6 files: it frames events into records,
// compresses them, and streams them to disk through a producer/compressor
// pool/writer pipeline, splitting across files and closing with a trailer.
// See spec.md §4.8 and §6.3.
package writer

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/evioerr"
	"github.com/jlab-evio/evio/format"
	"github.com/jlab-evio/evio/header"
	"github.com/jlab-evio/evio/internal/options"
	"github.com/jlab-evio/evio/record"
	"github.com/jlab-evio/evio/tree"
)

// Stats is a point-in-time snapshot of a Writer's progress.
type Stats struct {
	RecordsWritten uint64
	EventsWritten  uint64
	BytesWritten   uint64
	FilesWritten   uint64
}

// Writer is an evio v6 file writer. A Writer is safe for one producer
// goroutine to call AddEvent/Flush/Close on; it is not safe to call those
// methods concurrently from multiple goroutines.
type Writer struct {
	cfg *Config

	path          string
	fileNumber    uint32
	userHeader    []byte
	hasDictionary bool
	hasFirstEvent bool

	ring *ring

	file         *os.File
	bytesWritten uint64
	recordCount  uint32
	recordLens   []uint32 // words, for the trailer's record-length index

	current    *record.RecordOutput
	nextSeq    uint64
	mu         sync.Mutex
	closed     bool

	compressWG sync.WaitGroup
	writerDone chan error

	recordsWritten atomic.Uint64
	eventsWritten  atomic.Uint64
	bytesStat      atomic.Uint64
	filesWritten   atomic.Uint64
}

// New opens path for writing and starts the writer's compressor/writer
// goroutines. The file header (with dictionary/first-event user header, if
// configured) is written immediately.
func New(path string, opts ...Option) (*Writer, error) {
	cfg := defaultConfig()
	if err := options.Apply[*Config](cfg, opts...); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, evioerr.WrapCause(evioerr.ErrIoError, err, "creating %s", path)
	}

	userHeader, hasDict, hasFirst, err := buildFileUserHeader(cfg)
	if err != nil {
		f.Close()
		return nil, err
	}

	w := &Writer{
		cfg:           cfg,
		path:          path,
		fileNumber:    1,
		userHeader:    userHeader,
		hasDictionary: hasDict,
		hasFirstEvent: hasFirst,
		ring:          newRing(cfg.ringSize),
		file:          f,
		writerDone:    make(chan error, 1),
	}

	if err := w.writeFileHeader(); err != nil {
		f.Close()
		return nil, err
	}

	w.startPipeline()
	w.current = record.NewRecordOutput(1, w.cfg.order)
	w.current.Compression = w.cfg.compression
	w.current.MaxEventCount = w.cfg.maxRecordEvents
	w.current.MaxBufferSize = w.cfg.maxRecordBytes

	return w, nil
}

func buildFileUserHeader(cfg *Config) ([]byte, bool, bool, error) {
	if cfg.dictionaryXML == "" && len(cfg.firstEventBytes) == 0 {
		return nil, false, false, nil
	}

	rec := record.NewRecordOutput(0, cfg.order)
	hasDict := cfg.dictionaryXML != ""
	hasFirst := len(cfg.firstEventBytes) > 0

	if hasDict {
		b := tree.NewBank(0, 0, format.CharStar8)
		b.Payload = tree.StringPayload{Values: []string{cfg.dictionaryXML}}
		buf := bytebuf.New(b.Payload.ByteLen() + 64)
		buf.SetOrder(cfg.order)
		if err := b.Write(buf); err != nil {
			return nil, false, false, evioerr.WrapCause(evioerr.ErrInvalidStructure, err, "encoding dictionary bank")
		}
		buf.Flip()
		rec.AddEvent(buf.Bytes())
	}
	if hasFirst {
		rec.AddEvent(cfg.firstEventBytes)
	}

	built, err := rec.Build()
	if err != nil {
		return nil, false, false, err
	}

	return built.Bytes(), hasDict, hasFirst, nil
}

func (w *Writer) writeFileHeader() error {
	pad := header.PadValue(len(w.userHeader))
	buf := bytebuf.New(header.RecordByteCount + len(w.userHeader) + pad)
	buf.SetOrder(w.cfg.order)

	h := header.FileHeader{
		FileID:          header.EvioFileMagic,
		FileNumber:      w.fileNumber,
		HeaderLenWords:  header.RecordWordCount,
		Entries:         0,
		IndexLenBytes:   0,
		BitInfo:         header.NewBitInfo(6, pad, header.HeaderTypeEvioFile, w.hasDictionary, w.hasFirstEvent, false),
		UserHdrLenBytes: uint32(len(w.userHeader)),
	}
	h.Encode(buf, 0)
	buf.SetPosition(header.RecordByteCount)
	buf.PutBytes(w.userHeader)
	for i := 0; i < pad; i++ {
		buf.PutUint8(0)
	}
	buf.Flip()

	n, err := w.file.Write(buf.Bytes())
	if err != nil {
		return evioerr.WrapCause(evioerr.ErrIoError, err, "writing file header")
	}
	w.bytesWritten += uint64(n)

	return nil
}

func (w *Writer) startPipeline() {
	n := w.cfg.compressionThreads
	w.compressWG.Add(n)
	for i := 0; i < n; i++ {
		go w.runCompressor()
	}
	go w.runWriterStage()
}

// runCompressor claims slots published by the producer and builds each
// record's wire bytes, including compression. Ordering-independence is
// the point: any compressor may process any slot, because the writer
// stage below reassembles publication order before touching disk.
func (w *Writer) runCompressor() {
	defer w.compressWG.Done()
	for slot := range w.ring.toCompress {
		if slot.output != nil {
			built, err := slot.output.Build()
			slot.built = built
			slot.err = err
		}
		w.ring.compressed <- slot
	}
}

// runWriterStage claims compressed slots strictly in publication order,
// writes each record's bytes to the current output file, handles file
// splits, and finalizes the file once it sees the last slot.
func (w *Writer) runWriterStage() {
	pending := make(map[uint64]*recordSlot)
	next := uint64(0)
	var firstErr error

	for slot := range w.ring.compressed {
		pending[slot.seq] = slot
		for {
			s, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++

			if firstErr == nil {
				if err := w.writeSlot(s); err != nil {
					firstErr = err
				}
			}

			last := s.lastItem
			s.reset()
			w.ring.freeSlots <- s

			if last {
				if firstErr == nil {
					firstErr = w.finalize()
				}
				w.writerDone <- firstErr
				return
			}
		}
	}
}

func (w *Writer) writeSlot(s *recordSlot) error {
	if s.output == nil {
		return nil
	}
	if s.err != nil {
		return s.err
	}

	if w.cfg.splitBytes > 0 && w.bytesWritten > 0 &&
		w.bytesWritten+uint64(s.built.Remaining()) > w.cfg.splitBytes {
		if err := w.split(); err != nil {
			return err
		}
	}

	data := s.built.Bytes()
	n, err := w.file.Write(data)
	if err != nil {
		return evioerr.WrapCause(evioerr.ErrIoError, err, "writing record %d", s.output.RecordNumber)
	}

	w.bytesWritten += uint64(n)
	w.recordCount++
	w.recordLens = append(w.recordLens, uint32(len(data))/4)

	w.recordsWritten.Add(1)
	w.eventsWritten.Add(uint64(s.output.EventCount()))
	w.bytesStat.Add(uint64(n))

	return nil
}

// split closes out the current file with a trailer and opens the next
// split, reusing the dictionary/first-event user header. See spec.md
// §4.8 "File split".
func (w *Writer) split() error {
	trailerPos := w.bytesWritten
	if err := w.writeTrailer(false); err != nil {
		return err
	}
	if err := w.patchFileHeader(trailerPos); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return evioerr.WrapCause(evioerr.ErrIoError, err, "closing split file")
	}

	w.fileNumber++
	w.filesWritten.Add(1)

	path := fmt.Sprintf("%s.%d", w.path, w.fileNumber)
	f, err := os.Create(path)
	if err != nil {
		return evioerr.WrapCause(evioerr.ErrIoError, err, "creating split file %s", path)
	}
	w.file = f
	w.bytesWritten = 0
	w.recordCount = 0
	w.recordLens = w.recordLens[:0]

	return w.writeFileHeader()
}

// writeTrailer appends a trailer record: event_count=0, last-record bit
// set, and (if withIndex) an index array of every record's byte length
// written to the current file. Grounded on WriterMT.cpp's writeTrailer.
func (w *Writer) writeTrailer(withIndex bool) error {
	indexLenBytes := 0
	if withIndex {
		indexLenBytes = 4 * len(w.recordLens)
	}

	buf := bytebuf.New(header.RecordByteCount + indexLenBytes)
	buf.SetOrder(w.cfg.order)

	h := header.RecordHeader{
		LenWords:        uint32(header.RecordWordCount + indexLenBytes/4),
		RecordNumber:    w.recordCount + 1,
		HeaderLenWords:  header.RecordWordCount,
		EventCount:      0,
		IndexLenBytes:   uint32(indexLenBytes),
		BitInfo:         header.NewBitInfo(6, 0, header.HeaderTypeEvioTrailer, false, true, withIndex),
		UncompressedLen: uint32(indexLenBytes),
	}
	h.Encode(buf, 0)

	buf.SetPosition(header.RecordByteCount)
	if withIndex {
		for _, l := range w.recordLens {
			buf.PutUint32(4 * l)
		}
	}
	buf.Flip()

	n, err := w.file.Write(buf.Bytes())
	if err != nil {
		return evioerr.WrapCause(evioerr.ErrIoError, err, "writing trailer")
	}
	w.bytesWritten += uint64(n)

	return nil
}

// patchFileHeader seeks back and rewrites the record-count and
// trailer-position fields the file header could not have known at the
// time it was first written. Grounded on WriterMT.cpp's seekp-based
// back-patch of FileHeader::RECORD_COUNT_OFFSET/TRAILER_POSITION_OFFSET.
func (w *Writer) patchFileHeader(trailerPos uint64) error {
	entriesBuf := bytebuf.New(4)
	entriesBuf.SetOrder(w.cfg.order)
	entriesBuf.PutUint32(w.recordCount)
	entriesBuf.Flip()
	if err := w.writeAt(12, entriesBuf.Bytes()); err != nil {
		return err
	}

	posBuf := bytebuf.New(8)
	posBuf.SetOrder(w.cfg.order)
	posBuf.PutUint64(trailerPos)
	posBuf.Flip()

	return w.writeAt(40, posBuf.Bytes())
}

func (w *Writer) writeAt(off int64, data []byte) error {
	if _, err := w.file.WriteAt(data, off); err != nil {
		return evioerr.WrapCause(evioerr.ErrIoError, err, "patching file header at offset %d", off)
	}
	return nil
}

// AddEvent appends a fully serialized event (a top-level bank) to the
// record currently being built, publishing and starting a fresh record
// when the current one is full.
func (w *Writer) AddEvent(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return evioerr.Wrap(evioerr.ErrClosed, "AddEvent after Close")
	}

	if !w.current.AddEvent(data) {
		if err := w.publishLocked(false); err != nil {
			return err
		}
		if !w.current.AddEvent(data) {
			return evioerr.Wrap(evioerr.ErrInvalidLength, "event of %d bytes exceeds max_record_bytes", len(data))
		}
	}

	return nil
}

// Flush publishes the in-progress record immediately, even if not full.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return evioerr.Wrap(evioerr.ErrClosed, "Flush after Close")
	}
	if w.current.EventCount() == 0 {
		return nil
	}

	return w.publishLocked(false)
}

// publishLocked sends the current record into the pipeline and starts a
// new one for the next record number. The caller must hold w.mu.
func (w *Writer) publishLocked(lastItem bool) error {
	slot := <-w.ring.freeSlots
	slot.output = w.current
	slot.seq = w.nextSeq
	slot.lastItem = lastItem
	w.nextSeq++

	w.ring.toCompress <- slot

	w.current = record.NewRecordOutput(w.current.RecordNumber+1, w.cfg.order)
	w.current.Compression = w.cfg.compression
	w.current.MaxEventCount = w.cfg.maxRecordEvents
	w.current.MaxBufferSize = w.cfg.maxRecordBytes

	return nil
}

// Close publishes any in-progress record, drains the pipeline, writes the
// trailer, patches the file header, and closes the output file. Any
// already-published event is guaranteed to reach disk before Close
// returns, per spec.md §4.8 "Cancellation".
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true

	if w.current.EventCount() > 0 {
		_ = w.publishLocked(true)
	} else {
		slot := <-w.ring.freeSlots
		slot.seq = w.nextSeq
		w.nextSeq++
		slot.lastItem = true
		w.ring.toCompress <- slot
	}
	w.mu.Unlock()

	close(w.ring.toCompress)
	w.compressWG.Wait()
	close(w.ring.compressed)

	err := <-w.writerDone
	if closeErr := w.file.Close(); err == nil {
		err = closeErr
	}

	return err
}

func (w *Writer) finalize() error {
	trailerPos := w.bytesWritten
	if err := w.writeTrailer(true); err != nil {
		return err
	}
	return w.patchFileHeader(trailerPos)
}

// Stats returns a snapshot of progress across the file (or files, if
// split) written so far.
func (w *Writer) Stats() Stats {
	return Stats{
		RecordsWritten: w.recordsWritten.Load(),
		EventsWritten:  w.eventsWritten.Load(),
		BytesWritten:   w.bytesStat.Load(),
		FilesWritten:   w.filesWritten.Load() + 1,
	}
}

// ByteOrder returns the byte order records are being encoded in.
func (w *Writer) ByteOrder() endian.EndianEngine { return w.cfg.order }
