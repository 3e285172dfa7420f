package writer

import (
	"sync/atomic"

	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/record"
)

// recordSlot is one in-flight record moving through the producer ->
// compressor -> writer pipeline. Field set is grounded on RecordRingItem.h:
// splitFileAfterWrite/forceToDisk/checkDisk/lastItem/id carry the same
// per-record bookkeeping the original ring item does; sequenceObj's role
// (letting a consumer release a slot back to the ring) is played here by
// sending the slot back on freeSlots instead of an explicit Sequence type,
// since the Disruptor library itself isn't available to this module.
type recordSlot struct {
	seq    uint64
	output *record.RecordOutput

	// built is the record's encoded wire bytes, set once the compressor
	// stage (which drives RecordOutput.Build, including compression) has
	// run.
	built *bytebuf.Buffer
	err   error

	splitFileAfterWrite bool
	forceToDisk         bool
	checkDisk           bool
	lastItem            bool

	id uint64
}

var slotIDCounter atomic.Uint64

func newRecordSlot() *recordSlot {
	return &recordSlot{id: slotIDCounter.Add(1)}
}

func (s *recordSlot) reset() {
	s.output = nil
	s.built = nil
	s.err = nil
	s.splitFileAfterWrite = false
	s.forceToDisk = false
	s.checkDisk = false
	s.lastItem = false
}

// ring is the fixed-size pool of record slots the pipeline's three stages
// hand off between each other via buffered channels, modeling the
// single-producer/multi-consumer/single-consumer disruptor ring spec.md
// §4.8 describes: freeSlots is where the producer waits for a slot to
// become available, toCompress is where compressors pick up published
// slots, compressed is where the writer reassembles publication order.
type ring struct {
	freeSlots  chan *recordSlot
	toCompress chan *recordSlot
	compressed chan *recordSlot
}

func newRing(size int) *ring {
	r := &ring{
		freeSlots:  make(chan *recordSlot, size),
		toCompress: make(chan *recordSlot, size),
		compressed: make(chan *recordSlot, size),
	}
	for i := 0; i < size; i++ {
		r.freeSlots <- newRecordSlot()
	}
	return r
}
