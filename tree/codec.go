package tree

import (
	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/composite"
	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/evioerr"
	"github.com/jlab-evio/evio/format"
	"github.com/jlab-evio/evio/header"
)

// Write serializes s at buf's current relative position: header first,
// then either recursively-written children (container kinds) or the raw
// payload bytes padded to a word boundary (leaf kinds). It recomputes
// Pad and the header length fields from the current payload/children
// before writing, per spec.md §4.3.
func (s *Structure) Write(buf *bytebuf.Buffer) error {
	s.RecomputePad()

	switch s.Kind {
	case format.KindBank:
		bh := header.BankHeader{LenWords: s.LenWords(), Tag: s.Tag, Pad: s.Pad, Type: s.DataType, Num: s.Num}
		off := buf.Position()
		buf.PutUint32(0) // length placeholder, patched below
		buf.PutUint32(0) // word1 placeholder
		bh.Encode(buf, off)
	case format.KindSegment:
		sh := header.SegmentHeader{Tag: uint8(s.Tag), Pad: s.Pad, Type: s.DataType, LenWords: s.LenWords()}
		off := buf.Position()
		buf.PutUint32(0)
		sh.Encode(buf, off)
	case format.KindTagSegment:
		th := header.TagSegmentHeader{Tag: s.Tag, Type: s.DataType, LenWords: s.LenWords()}
		off := buf.Position()
		buf.PutUint32(0)
		th.Encode(buf, off)
	}

	if s.IsContainer() {
		for _, c := range s.children {
			if err := c.Write(buf); err != nil {
				return err
			}
		}
		return nil
	}

	if s.Payload == nil {
		return nil
	}
	s.Payload.writeBytes(buf, buf.Order())
	for i := 0; i < int(s.Pad); i++ {
		buf.PutUint8(0)
	}

	return nil
}

// Parse decodes a structure of the given kind at buf's current absolute
// offset, recursing into children for container types. buf's byte order
// must already be established by the enclosing record/file header; this
// method does not perform magic-word detection (structure headers carry
// no magic of their own).
func Parse(buf *bytebuf.Buffer, off int, kind format.Kind) (*Structure, int, error) {
	s := &Structure{Kind: kind}

	var headerWords int
	var dataOff int

	switch kind {
	case format.KindBank:
		var bh header.BankHeader
		bh.Decode(buf, off)
		s.Tag, s.Num, s.Pad, s.DataType = bh.Tag, bh.Num, bh.Pad, bh.Type.Canonical()
		headerWords = header.BankHeaderWords
		dataOff = off + 4*headerWords
		if err := checkLen(buf, off, bh.TotalBytes()); err != nil {
			return nil, 0, err
		}
	case format.KindSegment:
		var sh header.SegmentHeader
		sh.Decode(buf, off)
		s.Tag, s.Pad, s.DataType = uint16(sh.Tag), sh.Pad, sh.Type.Canonical()
		headerWords = header.SegmentHeaderWords
		dataOff = off + 4*headerWords
		if err := checkLen(buf, off, sh.TotalBytes()); err != nil {
			return nil, 0, err
		}
	case format.KindTagSegment:
		var th header.TagSegmentHeader
		th.Decode(buf, off)
		s.Tag, s.DataType = th.Tag, th.Type.Canonical()
		headerWords = header.TagSegmentHeaderWords
		dataOff = off + 4*headerWords
		if err := checkLen(buf, off, th.TotalBytes()); err != nil {
			return nil, 0, err
		}
	}

	totalBytes := s.headerTotalBytes(buf, off, kind)

	if s.DataType.IsContainer() {
		childKind := containerKind(s.DataType)
		pos := dataOff
		end := off + totalBytes
		for pos < end {
			child, n, err := Parse(buf, pos, childKind)
			if err != nil {
				return nil, 0, err
			}
			if err := s.AddChild(child); err != nil {
				return nil, 0, err
			}
			pos += n
		}
		return s, totalBytes, nil
	}

	dataBytes := totalBytes - 4*headerWords - int(s.Pad)
	if dataBytes < 0 {
		return nil, 0, evioerr.Wrap(evioerr.ErrInvalidLength, "structure at offset %d: pad %d exceeds data region", off, s.Pad)
	}
	raw := make([]byte, dataBytes)
	copy(raw, buf.Bytes()[dataOff:dataOff+dataBytes])
	payload, err := decodePayload(s.DataType, raw, buf.Order())
	if err != nil {
		return nil, 0, evioerr.WrapCause(evioerr.ErrInvalidStructure, err, "structure at offset %d", off)
	}
	s.Payload = payload

	return s, totalBytes, nil
}

func (s *Structure) headerTotalBytes(buf *bytebuf.Buffer, off int, kind format.Kind) int {
	switch kind {
	case format.KindBank:
		var bh header.BankHeader
		bh.Decode(buf, off)
		return bh.TotalBytes()
	case format.KindSegment:
		var sh header.SegmentHeader
		sh.Decode(buf, off)
		return sh.TotalBytes()
	default:
		var th header.TagSegmentHeader
		th.Decode(buf, off)
		return th.TotalBytes()
	}
}

func checkLen(buf *bytebuf.Buffer, off, totalBytes int) error {
	if off+totalBytes > buf.Limit() {
		return evioerr.Wrap(evioerr.ErrInvalidLength, "structure at offset %d: declares %d bytes, buffer has %d remaining", off, totalBytes, buf.Limit()-off)
	}
	return nil
}

// containerKind returns the structure Kind that the Canonical() child
// data type decodes as.
func containerKind(t format.DataType) format.Kind {
	switch t {
	case format.Bank:
		return format.KindBank
	case format.Segment:
		return format.KindSegment
	default:
		return format.KindTagSegment
	}
}

func decodePayload(t format.DataType, raw []byte, order endian.EndianEngine) (Payload, error) {
	switch t {
	case format.Uint32, format.Unknown32:
		return Uint32Payload{Values: decodeFixed(raw, order, 4, func(b *bytebuf.Buffer) uint32 { return b.GetUint32() })}, nil
	case format.Int32:
		return Int32Payload{Values: decodeFixed(raw, order, 4, func(b *bytebuf.Buffer) int32 { return b.GetInt32() })}, nil
	case format.Float32:
		return Float32Payload{Values: decodeFixed(raw, order, 4, func(b *bytebuf.Buffer) float32 { return b.GetFloat32() })}, nil
	case format.Float64:
		return Float64Payload{Values: decodeFixed(raw, order, 8, func(b *bytebuf.Buffer) float64 { return b.GetFloat64() })}, nil
	case format.Int64:
		return Int64Payload{Values: decodeFixed(raw, order, 8, func(b *bytebuf.Buffer) int64 { return b.GetInt64() })}, nil
	case format.Uint64:
		return Uint64Payload{Values: decodeFixed(raw, order, 8, func(b *bytebuf.Buffer) uint64 { return b.GetUint64() })}, nil
	case format.Int16:
		return Int16Payload{Values: decodeFixed(raw, order, 2, func(b *bytebuf.Buffer) int16 { return b.GetInt16() })}, nil
	case format.Uint16:
		return Uint16Payload{Values: decodeFixed(raw, order, 2, func(b *bytebuf.Buffer) uint16 { return b.GetUint16() })}, nil
	case format.Int8:
		values := make([]int8, len(raw))
		for i, b := range raw {
			values[i] = int8(b)
		}
		return Int8Payload{Values: values}, nil
	case format.Uint8:
		return Uint8Payload{Values: raw}, nil
	case format.CharStar8:
		return DecodeStringPayload(raw), nil
	case format.Composite:
		formatStr, items, err := composite.DecodeContainer(raw, order)
		if err != nil {
			return nil, err
		}
		return CompositePayload{Format: formatStr, Items: items, encoded: raw}, nil
	default:
		return RawPayload{Bytes: raw}, nil
	}
}

// decodeFixed reads fixed-width elements out of raw using get, sharing
// the single-allocation pattern across every numeric payload type.
func decodeFixed[T any](raw []byte, order endian.EndianEngine, width int, get func(*bytebuf.Buffer) T) []T {
	if len(raw) == 0 {
		return nil
	}
	b := bytebuf.Wrap(raw).SetOrder(order)
	n := len(raw) / width
	values := make([]T, n)
	for i := 0; i < n; i++ {
		values[i] = get(b)
	}
	return values
}
