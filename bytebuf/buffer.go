// Package bytebuf implements a positioned, limited byte window over a
// shared backing array with endian-aware accessors, modeled on the
// java.nio.ByteBuffer semantics the original EVIO implementation's own
// ByteBuffer class followed, and on the growth/slice conventions of the
// teacher's internal/pool.ByteBuffer.
package bytebuf

import (
	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/evioerr"
)

// Buffer is a byte window: a backing array plus position, limit, and
// capacity, accessed through an explicit, mutable byte order. Slicing and
// duplication share the backing array; Copy performs a deep copy.
//
// A Buffer constructed by Wrap does not own its backing array; the caller
// remains responsible for the array's lifetime. A Buffer constructed by
// New owns an allocation sized to capacity.
type Buffer struct {
	data  []byte
	order endian.EndianEngine
	pos   int
	lim   int
}

// New allocates an owned buffer of the given capacity, little-endian by
// default, position 0, limit == capacity.
func New(capacity int) *Buffer {
	return &Buffer{
		data:  make([]byte, capacity),
		order: endian.GetLittleEndianEngine(),
		pos:   0,
		lim:   capacity,
	}
}

// Wrap constructs a buffer over an externally owned byte slice without
// copying. The buffer's capacity and limit equal len(data); releasing the
// slice's backing memory remains the caller's responsibility.
func Wrap(data []byte) *Buffer {
	return &Buffer{
		data:  data,
		order: endian.GetLittleEndianEngine(),
		pos:   0,
		lim:   len(data),
	}
}

// Order returns the buffer's current byte order.
func (b *Buffer) Order() endian.EndianEngine { return b.order }

// SetOrder changes the byte order used by subsequent accessors. It does
// not touch any bytes already written.
func (b *Buffer) SetOrder(order endian.EndianEngine) *Buffer {
	b.order = order
	return b
}

// Position returns the current relative-access cursor.
func (b *Buffer) Position() int { return b.pos }

// SetPosition moves the cursor. Panics if pos is negative or past the limit.
func (b *Buffer) SetPosition(pos int) *Buffer {
	if pos < 0 || pos > b.lim {
		panic("bytebuf: position out of range")
	}
	b.pos = pos
	return b
}

// Limit returns the current limit: the first byte that must not be read or written.
func (b *Buffer) Limit() int { return b.lim }

// SetLimit moves the limit. Panics if lim is negative or past capacity.
// If the position is beyond the new limit, it is pulled back to it.
func (b *Buffer) SetLimit(lim int) *Buffer {
	if lim < 0 || lim > cap(b.data) {
		panic("bytebuf: limit out of range")
	}
	b.lim = lim
	if b.pos > lim {
		b.pos = lim
	}
	return b
}

// Capacity returns the total size of the backing array.
func (b *Buffer) Capacity() int { return cap(b.data) }

// Remaining returns the number of bytes between position and limit.
func (b *Buffer) Remaining() int { return b.lim - b.pos }

// HasRemaining reports whether Remaining() > 0.
func (b *Buffer) HasRemaining() bool { return b.lim > b.pos }

// Bytes returns the backing array truncated to [0:limit]. The returned
// slice aliases the buffer's storage; mutating it mutates the buffer.
func (b *Buffer) Bytes() []byte { return b.data[:b.lim] }

// Flip sets the limit to the current position, then resets position to
// zero — preparing a just-filled buffer for draining.
func (b *Buffer) Flip() *Buffer {
	b.lim = b.pos
	b.pos = 0
	return b
}

// Clear resets position to zero and limit to capacity, without touching
// any bytes — preparing the buffer for a fresh fill.
func (b *Buffer) Clear() *Buffer {
	b.pos = 0
	b.lim = cap(b.data)
	return b
}

// Rewind resets position to zero, keeping the limit unchanged.
func (b *Buffer) Rewind() *Buffer {
	b.pos = 0
	return b
}

// Compact discards bytes [0:position), shifting [position:limit) down to
// the front, then sets position to the shifted length and limit to
// capacity — preparing a partially drained buffer for more filling.
func (b *Buffer) Compact() *Buffer {
	n := copy(b.data[0:cap(b.data)], b.data[b.pos:b.lim])
	b.pos = n
	b.lim = cap(b.data)
	return b
}

// Slice returns a new buffer sharing this buffer's backing array, whose
// own byte 0 is this buffer's current position and whose capacity and
// limit equal this buffer's Remaining(). The new buffer's position and
// limit are independent of the parent's from that point forward; the
// underlying bytes are shared, so writes through either view are visible
// through the other.
func (b *Buffer) Slice() *Buffer {
	sub := b.data[b.pos:b.lim:b.lim]
	return &Buffer{
		data:  sub,
		order: b.order,
		pos:   0,
		lim:   len(sub),
	}
}

// SliceRange returns a shared-storage view over the absolute byte range
// [off, off+length) of this buffer's backing array, independent of the
// parent's current position/limit.
func (b *Buffer) SliceRange(off, length int) *Buffer {
	if off < 0 || length < 0 || off+length > cap(b.data) {
		panic("bytebuf: slice range out of bounds")
	}
	sub := b.data[off : off+length : off+length]
	return &Buffer{
		data:  sub,
		order: b.order,
		pos:   0,
		lim:   length,
	}
}

// Duplicate returns a new buffer sharing this buffer's backing array and
// offset, with its own independent position and limit initialized to
// this buffer's current position and limit.
func (b *Buffer) Duplicate() *Buffer {
	return &Buffer{
		data:  b.data,
		order: b.order,
		pos:   b.pos,
		lim:   b.lim,
	}
}

// Copy returns a deep copy: a new owned backing array holding the whole
// backing array up to capacity, with position and limit matching this
// buffer's.
func (b *Buffer) Copy() *Buffer {
	cp := make([]byte, cap(b.data))
	copy(cp, b.data)
	return &Buffer{
		data:  cp,
		order: b.order,
		pos:   b.pos,
		lim:   b.lim,
	}
}

func (b *Buffer) checkAbs(off, width int) {
	if off < 0 || off+width > cap(b.data) {
		panic("bytebuf: absolute access out of bounds")
	}
}

func (b *Buffer) advance(n int) int {
	if b.pos+n > b.lim {
		panic("bytebuf: relative access past limit")
	}
	p := b.pos
	b.pos += n
	return p
}

// -- absolute accessors --

func (b *Buffer) GetUint8At(off int) uint8 {
	b.checkAbs(off, 1)
	return b.data[off]
}

func (b *Buffer) PutUint8At(off int, v uint8) {
	b.checkAbs(off, 1)
	b.data[off] = v
}

func (b *Buffer) GetInt8At(off int) int8 { return int8(b.GetUint8At(off)) }

func (b *Buffer) PutInt8At(off int, v int8) { b.PutUint8At(off, uint8(v)) }

func (b *Buffer) GetUint16At(off int) uint16 {
	b.checkAbs(off, 2)
	return b.order.Uint16(b.data[off : off+2])
}

func (b *Buffer) PutUint16At(off int, v uint16) {
	b.checkAbs(off, 2)
	b.order.PutUint16(b.data[off:off+2], v)
}

func (b *Buffer) GetInt16At(off int) int16 { return int16(b.GetUint16At(off)) }

func (b *Buffer) PutInt16At(off int, v int16) { b.PutUint16At(off, uint16(v)) }

func (b *Buffer) GetUint32At(off int) uint32 {
	b.checkAbs(off, 4)
	return b.order.Uint32(b.data[off : off+4])
}

func (b *Buffer) PutUint32At(off int, v uint32) {
	b.checkAbs(off, 4)
	b.order.PutUint32(b.data[off:off+4], v)
}

func (b *Buffer) GetInt32At(off int) int32 { return int32(b.GetUint32At(off)) }

func (b *Buffer) PutInt32At(off int, v int32) { b.PutUint32At(off, uint32(v)) }

func (b *Buffer) GetUint64At(off int) uint64 {
	b.checkAbs(off, 8)
	return b.order.Uint64(b.data[off : off+8])
}

func (b *Buffer) PutUint64At(off int, v uint64) {
	b.checkAbs(off, 8)
	b.order.PutUint64(b.data[off:off+8], v)
}

func (b *Buffer) GetInt64At(off int) int64 { return int64(b.GetUint64At(off)) }

func (b *Buffer) PutInt64At(off int, v int64) { b.PutUint64At(off, uint64(v)) }

func (b *Buffer) GetFloat32At(off int) float32 {
	return float32FromBits(b.GetUint32At(off))
}

func (b *Buffer) PutFloat32At(off int, v float32) {
	b.PutUint32At(off, float32Bits(v))
}

func (b *Buffer) GetFloat64At(off int) float64 {
	return float64FromBits(b.GetUint64At(off))
}

func (b *Buffer) PutFloat64At(off int, v float64) {
	b.PutUint64At(off, float64Bits(v))
}

// -- relative accessors --

func (b *Buffer) GetUint8() uint8   { return b.GetUint8At(b.advance(1)) }
func (b *Buffer) PutUint8(v uint8)  { b.PutUint8At(b.advance(1), v) }
func (b *Buffer) GetInt8() int8     { return int8(b.GetUint8()) }
func (b *Buffer) PutInt8(v int8)    { b.PutUint8(uint8(v)) }

func (b *Buffer) GetUint16() uint16  { return b.GetUint16At(b.advance(2)) }
func (b *Buffer) PutUint16(v uint16) { b.PutUint16At(b.advance(2), v) }
func (b *Buffer) GetInt16() int16    { return int16(b.GetUint16()) }
func (b *Buffer) PutInt16(v int16)   { b.PutUint16(uint16(v)) }

func (b *Buffer) GetUint32() uint32  { return b.GetUint32At(b.advance(4)) }
func (b *Buffer) PutUint32(v uint32) { b.PutUint32At(b.advance(4), v) }
func (b *Buffer) GetInt32() int32    { return int32(b.GetUint32()) }
func (b *Buffer) PutInt32(v int32)   { b.PutUint32(uint32(v)) }

func (b *Buffer) GetUint64() uint64  { return b.GetUint64At(b.advance(8)) }
func (b *Buffer) PutUint64(v uint64) { b.PutUint64At(b.advance(8), v) }
func (b *Buffer) GetInt64() int64    { return int64(b.GetUint64()) }
func (b *Buffer) PutInt64(v int64)   { b.PutUint64(uint64(v)) }

func (b *Buffer) GetFloat32() float32  { return b.GetFloat32At(b.advance(4)) }
func (b *Buffer) PutFloat32(v float32) { b.PutFloat32At(b.advance(4), v) }
func (b *Buffer) GetFloat64() float64  { return b.GetFloat64At(b.advance(8)) }
func (b *Buffer) PutFloat64(v float64) { b.PutFloat64At(b.advance(8), v) }

// GetBytes copies n bytes starting at the current position into a new
// slice and advances the position.
func (b *Buffer) GetBytes(n int) []byte {
	off := b.advance(n)
	out := make([]byte, n)
	copy(out, b.data[off:off+n])
	return out
}

// PutBytes copies src into the buffer at the current position and
// advances it.
func (b *Buffer) PutBytes(src []byte) {
	off := b.advance(len(src))
	copy(b.data[off:off+len(src)], src)
}

// RequireRemaining returns evioerr.ErrTruncated (wrapped with context) if
// fewer than n bytes remain between position and limit.
func (b *Buffer) RequireRemaining(n int, context string) error {
	if b.Remaining() < n {
		return evioerr.Wrap(evioerr.ErrTruncated, "%s: need %d bytes, have %d", context, n, b.Remaining())
	}
	return nil
}
