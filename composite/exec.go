package composite

import (
	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/evioerr"
)

type groupFrame struct {
	left    int // opcode index of the '(' that opened this group
	nrepeat int
	irepeat int
}

// stepper replays eviofmtswap.c's "get next format code" inner loop: it
// walks the opcode stream, entering/leaving '(' '...' ')' groups and
// restarting the whole format from index 0 (FORTRAN-style) when the
// format is exhausted but data remains. readCount is invoked whenever a
// dynamic (N/n/m) repeat count must be pulled from the data cursor; it
// receives the opcode's RepeatSource and returns the count.
type stepper struct {
	ops     []Opcode
	imt     int // next opcode index to examine (0-based)
	lev     int
	stack   [MaxGroupDepth]groupFrame
	wrapped bool // set when the format stream re-entered from index 0
}

func newStepper(ops []Opcode) *stepper { return &stepper{ops: ops, imt: 0} }

// consumeWrapped reports and clears whether the format was re-entered
// from the start since the last call, per eviofmtdump.c's row-per-reentry
// XML output.
func (s *stepper) consumeWrapped() bool {
	w := s.wrapped
	s.wrapped = false
	return w
}

// next returns the next leaf opcode's (type, repeat count) pair, or an
// error for an unmatched ')' or a failed readCount. It wraps to the start
// of the format when the opcodes run out, so callers only invoke next
// while bytes remain, mirroring eviofmtswap.c's outer
// `while (b8 < b8end)`.
func (s *stepper) next(readCount func(RepeatSource) (int, error)) (TypeCode, int, error) {
	for {
		if s.imt >= len(s.ops) {
			s.imt = 0
			s.wrapped = true
		}
		op := s.ops[s.imt]
		s.imt++

		if op.IsGroupEnd() {
			if s.lev == 0 {
				return 0, 0, evioerr.Wrap(evioerr.ErrInvalidFormat, "unmatched ')' while executing format")
			}
			s.stack[s.lev-1].irepeat++
			if s.stack[s.lev-1].irepeat >= s.stack[s.lev-1].nrepeat {
				s.lev--
			} else {
				s.imt = s.stack[s.lev-1].left
			}
			continue
		}

		if op.IsGroupStart() {
			count := op.Count()
			if op.Source() != RepeatHardcoded {
				n, err := readCount(op.Source())
				if err != nil {
					return 0, 0, err
				}
				count = n
			}
			s.stack[s.lev] = groupFrame{left: s.imt, nrepeat: count, irepeat: 0}
			s.lev++
			continue
		}

		count := op.Count()
		if op.Source() != RepeatHardcoded {
			n, err := readCount(op.Source())
			if err != nil {
				return 0, 0, err
			}
			count = n
		}

		return op.Type(), count, nil
	}
}

// Decode walks opcodes against data (starting at data's current
// position, stopping padding bytes before data's limit) in lockstep,
// returning one Item per opcode visit — including repeated visits from
// group repetition or FORTRAN-style format re-entry. A dynamic (N/n/m)
// repeat count is itself a real wire value (eviofmtswap.c byte-swaps
// it along with everything else), so it is captured as its own Item
// too, immediately preceding the items it governs; Build reads these
// back to recover the counts it needs to replay the same traversal.
func Decode(opcodes []Opcode, data *bytebuf.Buffer, padding int) ([]Item, error) {
	end := data.Limit() - padding
	st := newStepper(opcodes)
	var items []Item

	for data.Position() < end {
		typ, count, err := st.next(func(src RepeatSource) (int, error) {
			switch src {
			case RepeatFromInt32:
				raw := data.GetBytes(4)
				items = append(items, Item{Type: TypeUint32, Data: raw})
				return int(data.Order().Uint32(raw)), nil
			case RepeatFromInt16:
				raw := data.GetBytes(2)
				items = append(items, Item{Type: TypeUint16, Data: raw})
				return int(data.Order().Uint16(raw)), nil
			case RepeatFromInt8:
				raw := data.GetBytes(1)
				items = append(items, Item{Type: TypeUint8, Data: raw})
				return int(raw[0]), nil
			default:
				return 0, nil
			}
		})
		if err != nil {
			return nil, err
		}

		width := typ.Width()
		n := count
		if width > 0 {
			if data.Position()+n*width > end {
				n = (end - data.Position()) / width
			}
			items = append(items, Item{Type: typ, Data: data.GetBytes(n * width)})
		}
	}

	return items, nil
}

// SwapAll walks opcodes against data in lockstep, byte-swapping each
// element in place according to its width (64/32/16-bit swapped,
// 8-bit/char skipped), per spec.md §4.5 and eviofmtswap.c. Dynamic
// repeat counts are read in their pre-swap form (matching an in-place
// pass) and then swapped in place along with the rest of the stream.
func SwapAll(opcodes []Opcode, data *bytebuf.Buffer, padding int) error {
	end := data.Limit() - padding
	st := newStepper(opcodes)

	for data.Position() < end {
		typ, count, err := st.next(func(src RepeatSource) (int, error) {
			pos := data.Position()
			switch src {
			case RepeatFromInt32:
				v := data.GetUint32At(pos)
				data.PutUint32At(pos, endian.Swap32(v))
				data.SetPosition(pos + 4)
				return int(v), nil
			case RepeatFromInt16:
				v := data.GetUint16At(pos)
				data.PutUint16At(pos, endian.Swap16(v))
				data.SetPosition(pos + 2)
				return int(v), nil
			case RepeatFromInt8:
				v := data.GetUint8At(pos)
				data.SetPosition(pos + 1)
				return int(v), nil
			default:
				return 0, nil
			}
		})
		if err != nil {
			return err
		}

		width := typ.Width()
		if width == 0 {
			continue
		}
		n := count
		if data.Position()+n*width > end {
			n = (end - data.Position()) / width
		}

		pos := data.Position()
		switch width {
		case 8:
			for i := 0; i < n; i++ {
				off := pos + i*8
				data.PutUint64At(off, endian.Swap64(data.GetUint64At(off)))
			}
		case 4:
			for i := 0; i < n; i++ {
				off := pos + i*4
				data.PutUint32At(off, endian.Swap32(data.GetUint32At(off)))
			}
		case 2:
			for i := 0; i < n; i++ {
				off := pos + i*2
				data.PutUint16At(off, endian.Swap16(data.GetUint16At(off)))
			}
		}
		data.SetPosition(pos + n*width)
	}

	return nil
}

// Item is one decoded composite element: Data holds Count() raw elements
// of Type, in the byte order of the data they were read from.
type Item struct {
	Type TypeCode
	Data []byte
}

// Count returns the number of Type-width elements carried in Data.
func (it Item) Count() int {
	if it.Type.Width() == 0 {
		return 0
	}
	return len(it.Data) / it.Type.Width()
}
