package composite

import (
	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/evioerr"
)

// Build encodes items against a compiled format string into a packed
// data-bank byte stream, per spec.md §4.5's CompositeData::build: each
// opcode visit consumes exactly one Item, hardcoded repeat counts come
// from the format itself, and dynamic (N/n/m) repeat counts are read
// back off the raw bytes Decode captured for them. order must match
// the order Decode used to produce items, since a repeat count's
// value is only recoverable from its captured bytes in that order.
// Decode(Compile(format), ...) and Build(format, ..., order) walk the
// same opcode stream in lockstep and are exact inverses — see
// composite_test.go's idempotence case.
func Build(fmtStr string, items []Item, order endian.EndianEngine) ([]byte, error) {
	ops, err := Compile(fmtStr)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, it := range items {
		total += len(it.Data)
	}

	out := make([]byte, 0, total)
	st := newStepper(ops)
	queue := items

	for len(queue) > 0 {
		typ, count, err := st.next(func(src RepeatSource) (int, error) {
			if len(queue) == 0 {
				return 0, evioerr.Wrap(evioerr.ErrInvalidData, "composite build: item stream exhausted reading a repeat count")
			}
			it := queue[0]
			queue = queue[1:]
			n, err := repeatCountFromItem(src, it, order)
			if err != nil {
				return 0, err
			}
			out = append(out, it.Data...)
			return n, nil
		})
		if err != nil {
			return nil, err
		}

		if typ.Width() == 0 {
			continue
		}

		if len(queue) == 0 {
			return nil, evioerr.Wrap(evioerr.ErrInvalidData, "composite build: item stream exhausted, expected %d more of type %s", count, typ)
		}
		it := queue[0]
		queue = queue[1:]
		if it.Type != typ {
			return nil, evioerr.Wrap(evioerr.ErrInvalidData, "composite build: expected item type %s, got %s", typ, it.Type)
		}
		if it.Count() != count {
			return nil, evioerr.Wrap(evioerr.ErrInvalidData, "composite build: expected %d elements of type %s, got %d", count, typ, it.Count())
		}
		out = append(out, it.Data...)
	}

	return out, nil
}

// repeatCountFromItem recovers a dynamic repeat count from the raw
// bytes Decode captured for it — the inverse of the byte capture in
// Decode's readCount closure.
func repeatCountFromItem(src RepeatSource, it Item, order endian.EndianEngine) (int, error) {
	width := src.Width()
	if len(it.Data) != width {
		return 0, evioerr.Wrap(evioerr.ErrInvalidData, "composite build: repeat count item has %d bytes, want %d", len(it.Data), width)
	}

	switch src {
	case RepeatFromInt32:
		if it.Type != TypeUint32 {
			return 0, evioerr.Wrap(evioerr.ErrInvalidData, "composite build: expected uint32 repeat count item, got %s", it.Type)
		}
		return int(order.Uint32(it.Data)), nil
	case RepeatFromInt16:
		if it.Type != TypeUint16 {
			return 0, evioerr.Wrap(evioerr.ErrInvalidData, "composite build: expected uint16 repeat count item, got %s", it.Type)
		}
		return int(order.Uint16(it.Data)), nil
	case RepeatFromInt8:
		if it.Type != TypeUint8 {
			return 0, evioerr.Wrap(evioerr.ErrInvalidData, "composite build: expected uint8 repeat count item, got %s", it.Type)
		}
		return int(it.Data[0]), nil
	default:
		return 0, nil
	}
}
