// Package tree implements the fully-materialized EVIO structure tree:
// bank/segment/tagsegment nodes with typed payloads and parent/child
// links, as opposed to the zero-copy compact/ package view of the same
// bytes. Structure follows the "tagged variant" design note in
// spec.md §9: one node type carrying a common header record and a
// payload variant, rather than a class per container kind.
package tree

import (
	"github.com/jlab-evio/evio/evioerr"
	"github.com/jlab-evio/evio/format"
)

// Structure is a single node in an EVIO event tree. Its Kind determines
// which header shape it serializes as and whether Num is meaningful
// (bank only). Container kinds (IsContainer() on DataType == true) hold
// Children; leaf kinds hold a Payload.
type Structure struct {
	Kind     format.Kind
	Tag      uint16 // widened; segment truncates to 8 bits, tagsegment to 12
	Num      uint8  // bank only
	Pad      uint8
	DataType format.DataType

	Payload Payload // nil for container kinds

	children []*Structure
	parent   *Structure
}

// NewBank constructs an empty bank. If dataType is a container type, the
// bank starts empty and children may be attached with AddChild;
// otherwise it starts as a leaf with a nil payload until a Payload is
// assigned.
func NewBank(tag uint16, num uint8, dataType format.DataType) *Structure {
	return &Structure{Kind: format.KindBank, Tag: tag, Num: num, DataType: dataType}
}

// NewSegment constructs an empty segment.
func NewSegment(tag uint8, dataType format.DataType) *Structure {
	return &Structure{Kind: format.KindSegment, Tag: uint16(tag), DataType: dataType}
}

// NewTagSegment constructs an empty tagsegment.
func NewTagSegment(tag uint16, dataType format.DataType) *Structure {
	return &Structure{Kind: format.KindTagSegment, Tag: tag & 0xfff, DataType: dataType}
}

// IsContainer reports whether this node's data type holds children
// rather than a leaf payload.
func (s *Structure) IsContainer() bool { return s.DataType.IsContainer() }

// Parent returns the node's current parent, or nil for a root/event node.
func (s *Structure) Parent() *Structure { return s.parent }

// Children returns the node's child list in insertion/buffer order. The
// returned slice must not be mutated by the caller; use AddChild/
// RemoveChild.
func (s *Structure) Children() []*Structure { return s.children }

// ChildCount returns len(Children()).
func (s *Structure) ChildCount() int { return len(s.children) }

// AddChild appends child to s's child list, detaching it from any prior
// parent first. It fails with ErrInvalidStructure if s is not a
// container.
func (s *Structure) AddChild(child *Structure) error {
	if !s.IsContainer() {
		return evioerr.Wrap(evioerr.ErrInvalidStructure, "cannot add child to non-container kind %s", s.DataType)
	}
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = s
	s.children = append(s.children, child)

	return nil
}

// RemoveChild detaches child from s's child list. It is a no-op if
// child is not currently a direct child of s.
func (s *Structure) RemoveChild(child *Structure) {
	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			child.parent = nil

			return
		}
	}
}

// Detach removes this node from its parent, if any.
func (s *Structure) Detach() {
	if s.parent != nil {
		s.parent.RemoveChild(s)
	}
}

// HeaderWords returns the word width of this node's own header (2 for a
// bank, 1 for a segment or tagsegment).
func (s *Structure) HeaderWords() int {
	switch s.Kind {
	case format.KindBank:
		return 2
	default:
		return 1
	}
}

// LenWords computes the header length-word value per spec.md §3.6: for a
// container, header-words-excluding-the-length-word plus the sum of each
// child's total word count; for a leaf, header words plus the
// ceil-to-word payload length, both again excluding the node's own
// length word.
func (s *Structure) LenWords() uint32 {
	if s.IsContainer() {
		var total uint32
		for _, c := range s.children {
			total += c.TotalWords()
		}
		if s.Kind == format.KindBank {
			return 1 + total // word 1 (tag/type/num) + children
		}
		return total // segment/tagsegment header word itself is not counted in its own length
	}

	bytes := 0
	if s.Payload != nil {
		bytes = s.Payload.ByteLen()
	}
	dataWords := (bytes + 3) / 4
	if s.Kind == format.KindBank {
		return 1 + uint32(dataWords)
	}
	return uint32(dataWords)
}

// TotalWords returns the full word count of this node including its own
// length-carrying header word(s): LenWords()+1 for a bank (the length
// word is excluded from LenWords itself), or LenWords()+1 for
// segment/tagsegment (whose single header word carries both the type
// fields and the 16-bit length).
func (s *Structure) TotalWords() uint32 { return s.LenWords() + 1 }

// TotalBytes returns 4*TotalWords().
func (s *Structure) TotalBytes() int { return 4 * int(s.TotalWords()) }

// RecomputePad sets Pad to the value required by the current payload's
// byte length for byte/short-width leaf types, 0 otherwise. Callers
// invoke this after replacing a leaf payload; Write calls it before
// serializing.
func (s *Structure) RecomputePad() {
	if s.Payload == nil {
		s.Pad = 0
		return
	}
	switch s.DataType.Canonical() {
	case format.Int8, format.Uint8, format.Int16, format.Uint16:
		n := s.Payload.ByteLen() % 4
		if n == 0 {
			s.Pad = 0
		} else {
			s.Pad = uint8(4 - n)
		}
	default:
		s.Pad = 0
	}
}
