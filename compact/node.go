// Package compact implements a pointer-free descriptor view into a
// backing buffer, for zero-copy scanning and in-place structural edits
// without materializing a tree.Structure. Ported from
// original_source/src/newlib++/EvioNode.h/.cpp: Node carries the same
// position/length/tag/num/pad/type fields EvioNode does, but as a plain
// struct with ordinary pointer fields rather than shared_ptr, since Go's
// GC makes the original's reference-counting unnecessary.
package compact

import (
	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/evioerr"
	"github.com/jlab-evio/evio/format"
	"github.com/jlab-evio/evio/header"
)

// Node addresses one structure inside a Buffer without owning its bytes,
// per spec.md §3.7.
type Node struct {
	Pos       int // byte offset of this structure's header
	DataPos   int // byte offset of this structure's data
	Len       uint32 // header length field (words, excluding the length word)
	DataLen   uint32 // payload length in words, excluding pad
	Tag       uint16
	Num       uint8
	Pad       uint8
	Kind      format.Kind
	DataType  format.DataType
	RecordPos int // byte offset of the record containing this node
	Place     uint32 // index of the containing event, 0-based

	IsEvent  bool
	Obsolete bool
	scanned  bool

	Buf      *bytebuf.Buffer
	EventNode *Node
	Parent    *Node
	Children  []*Node

	allNodes *[]*Node // shared with every node in the same event; root allocates it

	// PoolID records which debug pool (if any) this node was checked out
	// of. -1 means unpooled. Per-pool, not global, per spec.md §9.
	PoolID int
}

// TotalBytes returns the number of bytes this node's header+payload
// occupies, counting the length word itself.
func (n *Node) TotalBytes() int { return 4 * (int(n.Len) + 1) }

func headerWords(kind format.Kind) int {
	switch kind {
	case format.KindBank:
		return header.BankHeaderWords
	case format.KindSegment:
		return header.SegmentHeaderWords
	default:
		return header.TagSegmentHeaderWords
	}
}

// ExtractEventNode reads the bank header at pos (an event is always a
// bank, per spec.md §3.2) and returns a fresh root node for it, with its
// own allNodes list seeded with itself.
func ExtractEventNode(buf *bytebuf.Buffer, recordPos, pos int, place uint32) (*Node, error) {
	if pos+4*header.BankHeaderWords > buf.Limit() {
		return nil, evioerr.Wrap(evioerr.ErrTruncated, "event node at offset %d: header out of range", pos)
	}

	var bh header.BankHeader
	bh.Decode(buf, pos)

	all := []*Node{}
	n := &Node{
		Pos:       pos,
		DataPos:   pos + 4*header.BankHeaderWords,
		Len:       bh.LenWords,
		Tag:       bh.Tag,
		Num:       bh.Num,
		Pad:       bh.Pad,
		Kind:      format.KindBank,
		DataType:  bh.Type.Canonical(),
		RecordPos: recordPos,
		Place:     place,
		IsEvent:   true,
		Buf:       buf,
		PoolID:    -1,
		allNodes:  &all,
	}
	n.DataLen = bh.LenWords - uint32(header.BankHeaderWords-1)
	*n.allNodes = append(*n.allNodes, n)

	return n, nil
}

// AllNodes returns every node (this event's root plus every descendant
// produced by Scan so far), in scan order.
func (n *Node) AllNodes() []*Node {
	root := n
	for root.EventNode != nil {
		root = root.EventNode
	}
	if root.allNodes == nil {
		return nil
	}
	return *root.allNodes
}

// ChildCount returns the number of direct children (0 until Scan runs).
func (n *Node) ChildCount() int { return len(n.Children) }

// Scan walks n's bytes, allocating one Node per descendant container or
// leaf, and appends each to the shared all-nodes list. Scan is
// idempotent: a rescan clears n's existing child list (and removes its
// descendants from allNodes) before rebuilding it, per spec.md §4.6.
func Scan(n *Node) error {
	if n.scanned {
		clearDescendants(n)
	}
	n.scanned = true

	if !n.DataType.IsContainer() {
		return nil
	}

	childKind := childKindOf(n.DataType)
	pos := n.DataPos
	end := n.Pos + n.TotalBytes()

	for pos < end {
		child, size, err := readNode(n.Buf, pos, childKind, n.RecordPos)
		if err != nil {
			return err
		}
		child.Parent = n
		child.EventNode = eventRootOf(n)
		child.Place = n.Place
		child.PoolID = -1
		n.Children = append(n.Children, child)

		root := eventRootOf(n)
		*root.allNodes = append(*root.allNodes, child)

		if err := Scan(child); err != nil {
			return err
		}
		pos += size
	}

	return nil
}

func eventRootOf(n *Node) *Node {
	for n.EventNode != nil {
		n = n.EventNode
	}
	return n
}

func clearDescendants(n *Node) {
	root := eventRootOf(n)
	dead := map[*Node]bool{}
	var mark func(*Node)
	mark = func(c *Node) {
		dead[c] = true
		for _, gc := range c.Children {
			mark(gc)
		}
	}
	for _, c := range n.Children {
		mark(c)
	}
	n.Children = nil

	if root.allNodes == nil {
		return
	}
	kept := (*root.allNodes)[:0]
	for _, node := range *root.allNodes {
		if !dead[node] {
			kept = append(kept, node)
		}
	}
	*root.allNodes = kept
}

func childKindOf(t format.DataType) format.Kind {
	switch t.Canonical() {
	case format.Bank:
		return format.KindBank
	case format.Segment:
		return format.KindSegment
	default:
		return format.KindTagSegment
	}
}

// readNode decodes one header of kind at pos, without touching its
// payload bytes, returning the new node and its total byte size.
func readNode(buf *bytebuf.Buffer, pos int, kind format.Kind, recordPos int) (*Node, int, error) {
	n := &Node{Pos: pos, Kind: kind, RecordPos: recordPos}

	switch kind {
	case format.KindBank:
		var bh header.BankHeader
		bh.Decode(buf, pos)
		n.Len, n.Tag, n.Num, n.Pad, n.DataType = bh.LenWords, bh.Tag, bh.Num, bh.Pad, bh.Type.Canonical()
		n.DataPos = pos + 4*header.BankHeaderWords
		n.DataLen = bh.LenWords - 1
		if pos+bh.TotalBytes() > buf.Limit() {
			return nil, 0, evioerr.Wrap(evioerr.ErrInvalidLength, "bank node at %d overruns buffer", pos)
		}
		return n, bh.TotalBytes(), nil
	case format.KindSegment:
		var sh header.SegmentHeader
		sh.Decode(buf, pos)
		n.Len, n.Tag, n.Pad, n.DataType = sh.LenWords, uint16(sh.Tag), sh.Pad, sh.Type.Canonical()
		n.DataPos = pos + 4*header.SegmentHeaderWords
		n.DataLen = sh.LenWords
		if pos+sh.TotalBytes() > buf.Limit() {
			return nil, 0, evioerr.Wrap(evioerr.ErrInvalidLength, "segment node at %d overruns buffer", pos)
		}
		return n, sh.TotalBytes(), nil
	default:
		var th header.TagSegmentHeader
		th.Decode(buf, pos)
		n.Len, n.Tag, n.DataType = th.LenWords, th.Tag, th.Type.Canonical()
		n.DataPos = pos + 4*header.TagSegmentHeaderWords
		n.DataLen = th.LenWords
		if pos+th.TotalBytes() > buf.Limit() {
			return nil, 0, evioerr.Wrap(evioerr.ErrInvalidLength, "tagsegment node at %d overruns buffer", pos)
		}
		return n, th.TotalBytes(), nil
	}
}

// ScanBuffer extracts and scans every top-level event (bank) in buf
// starting at off, returning one root node per event.
func ScanBuffer(buf *bytebuf.Buffer, recordPos, off int) ([]*Node, error) {
	var events []*Node
	pos := off
	place := uint32(0)

	for pos < buf.Limit() {
		n, err := ExtractEventNode(buf, recordPos, pos, place)
		if err != nil {
			return nil, err
		}
		if err := Scan(n); err != nil {
			return nil, err
		}
		events = append(events, n)
		pos += n.TotalBytes()
		place++
	}

	return events, nil
}

// Search filters root's all-nodes list by tag, or by tag and num when
// matchNum is true.
func Search(root *Node, tag uint16, num uint8, matchNum bool) []*Node {
	var out []*Node
	for _, n := range root.AllNodes() {
		if n.Tag != tag {
			continue
		}
		if matchNum && n.Num != num {
			continue
		}
		out = append(out, n)
	}
	return out
}
