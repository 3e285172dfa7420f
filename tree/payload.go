package tree

import (
	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/composite"
	"github.com/jlab-evio/evio/endian"
)

// Payload is a leaf structure's typed data. Concrete implementations
// cover the primitive vectors, the string-array form, raw undecoded
// bytes, and composite data; see spec.md §3.6 and §9 ("payload variant").
type Payload interface {
	// ByteLen returns the unpadded byte length of the encoded payload.
	ByteLen() int
	// writeBytes appends the payload's encoded bytes (order-sensitive,
	// unpadded) to buf at the buffer's current relative position.
	writeBytes(buf *bytebuf.Buffer, order endian.EndianEngine)
}

// RawPayload is an opaque, already-encoded byte payload: used for data
// types this package does not further decode (e.g. bytes read from a
// node whose type was not recognized).
type RawPayload struct{ Bytes []byte }

func (p RawPayload) ByteLen() int { return len(p.Bytes) }
func (p RawPayload) writeBytes(buf *bytebuf.Buffer, _ endian.EndianEngine) {
	buf.PutBytes(p.Bytes)
}

type Uint32Payload struct{ Values []uint32 }

func (p Uint32Payload) ByteLen() int { return 4 * len(p.Values) }
func (p Uint32Payload) writeBytes(buf *bytebuf.Buffer, _ endian.EndianEngine) {
	for _, v := range p.Values {
		buf.PutUint32(v)
	}
}

type Int32Payload struct{ Values []int32 }

func (p Int32Payload) ByteLen() int { return 4 * len(p.Values) }
func (p Int32Payload) writeBytes(buf *bytebuf.Buffer, _ endian.EndianEngine) {
	for _, v := range p.Values {
		buf.PutInt32(v)
	}
}

type Float32Payload struct{ Values []float32 }

func (p Float32Payload) ByteLen() int { return 4 * len(p.Values) }
func (p Float32Payload) writeBytes(buf *bytebuf.Buffer, _ endian.EndianEngine) {
	for _, v := range p.Values {
		buf.PutFloat32(v)
	}
}

type Float64Payload struct{ Values []float64 }

func (p Float64Payload) ByteLen() int { return 8 * len(p.Values) }
func (p Float64Payload) writeBytes(buf *bytebuf.Buffer, _ endian.EndianEngine) {
	for _, v := range p.Values {
		buf.PutFloat64(v)
	}
}

type Int64Payload struct{ Values []int64 }

func (p Int64Payload) ByteLen() int { return 8 * len(p.Values) }
func (p Int64Payload) writeBytes(buf *bytebuf.Buffer, _ endian.EndianEngine) {
	for _, v := range p.Values {
		buf.PutInt64(v)
	}
}

type Uint64Payload struct{ Values []uint64 }

func (p Uint64Payload) ByteLen() int { return 8 * len(p.Values) }
func (p Uint64Payload) writeBytes(buf *bytebuf.Buffer, _ endian.EndianEngine) {
	for _, v := range p.Values {
		buf.PutUint64(v)
	}
}

type Int16Payload struct{ Values []int16 }

func (p Int16Payload) ByteLen() int { return 2 * len(p.Values) }
func (p Int16Payload) writeBytes(buf *bytebuf.Buffer, _ endian.EndianEngine) {
	for _, v := range p.Values {
		buf.PutInt16(v)
	}
}

type Uint16Payload struct{ Values []uint16 }

func (p Uint16Payload) ByteLen() int { return 2 * len(p.Values) }
func (p Uint16Payload) writeBytes(buf *bytebuf.Buffer, _ endian.EndianEngine) {
	for _, v := range p.Values {
		buf.PutUint16(v)
	}
}

type Int8Payload struct{ Values []int8 }

func (p Int8Payload) ByteLen() int { return len(p.Values) }
func (p Int8Payload) writeBytes(buf *bytebuf.Buffer, _ endian.EndianEngine) {
	for _, v := range p.Values {
		buf.PutInt8(v)
	}
}

type Uint8Payload struct{ Values []uint8 }

func (p Uint8Payload) ByteLen() int { return len(p.Values) }
func (p Uint8Payload) writeBytes(buf *bytebuf.Buffer, _ endian.EndianEngine) {
	buf.PutBytes(p.Values)
}

// StringPayload is the charstar8 string-array payload: a sequence of
// NUL-terminated ASCII strings per spec.md §3.3, with the canonical
// `\4`-padding applied at encode time.
type StringPayload struct{ Values []string }

// ByteLen returns the packed byte length of the NUL-terminated strings
// plus the required `\4` padding, not yet rounded up beyond the final
// marker (encoding always adds at least one `\4`).
func (p StringPayload) ByteLen() int {
	n := 0
	for _, s := range p.Values {
		n += len(s) + 1 // string bytes + NUL terminator
	}
	if n == 0 {
		return 4 // canonical empty array: "\4\4\4\4"
	}
	// Pad up to a 4-byte boundary with '\4' bytes; if already aligned,
	// one full extra word of '\4' marks the end per spec.md §3.3.
	rem := n % 4
	if rem == 0 {
		return n + 4
	}
	return n + (4 - rem)
}

func (p StringPayload) writeBytes(buf *bytebuf.Buffer, _ endian.EndianEngine) {
	written := 0
	for _, s := range p.Values {
		buf.PutBytes([]byte(s))
		buf.PutUint8(0)
		written += len(s) + 1
	}
	total := p.ByteLen()
	for written < total {
		buf.PutUint8(4)
		written++
	}
}

// CompositePayload is composite data's decoded form (spec.md §3.8): the
// format string embedded in the payload's own tagsegment, and the
// Items that format compiles to against the embedded data bank. encoded
// carries the already-assembled self-contained bytes so Write
// reproduces a parsed payload exactly rather than re-running Build;
// NewCompositePayload builds it fresh for payloads constructed in code.
type CompositePayload struct {
	Format string
	Items  []composite.Item

	encoded []byte
}

// NewCompositePayload builds items against format and wraps the result
// in composite data's self-contained tagsegment+bank container, ready
// to assign to a Structure's Payload.
func NewCompositePayload(format string, items []composite.Item, order endian.EndianEngine) (CompositePayload, error) {
	enc, err := composite.EncodeContainer(format, items, order)
	if err != nil {
		return CompositePayload{}, err
	}
	return CompositePayload{Format: format, Items: items, encoded: enc}, nil
}

func (p CompositePayload) ByteLen() int { return len(p.encoded) }
func (p CompositePayload) writeBytes(buf *bytebuf.Buffer, _ endian.EndianEngine) {
	buf.PutBytes(p.encoded)
}

// DecodeStringPayload splits a raw charstar8 byte region (already
// stripped of the header's `pad` trailing bytes) into its NUL-separated
// strings, stopping at the first `\4` padding marker.
func DecodeStringPayload(raw []byte) StringPayload {
	var values []string
	start := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] == 0 {
			values = append(values, string(raw[start:i]))
			start = i + 1
		} else if raw[i] == 4 && i == start {
			break
		}
	}
	return StringPayload{Values: values}
}
