package compact

import (
	"github.com/jlab-evio/evio/evioerr"
	"github.com/jlab-evio/evio/format"
	"github.com/jlab-evio/evio/header"
	"github.com/jlab-evio/evio/internal/pool"
)

// RemoveStructure marks node and its descendants obsolete, shifts every
// byte after node's region down by its length, patches every ancestor
// header's length field by -delta, and removes the obsolete entries from
// the shared all-nodes list, per spec.md §4.6.
func RemoveStructure(node *Node) error {
	if node.Parent == nil && node.EventNode == nil {
		return evioerr.Wrap(evioerr.ErrInvalidStructure, "cannot remove an event's own root node")
	}

	buf := node.Buf
	size := node.TotalBytes()
	deltaWords := uint32(size / 4)

	root := eventRootOf(node)
	markObsolete(node)

	tail := buf.Bytes()[node.Pos+size : buf.Limit()]
	dst := buf.Bytes()[node.Pos:]
	copy(dst, tail)
	buf.SetLimit(buf.Limit() - size)

	for anc := node.Parent; anc != nil; anc = anc.Parent {
		anc.Len -= deltaWords
		patchLen(anc)
	}

	for _, n := range root.AllNodes() {
		if n == node || n.Pos < node.Pos {
			continue
		}
		n.Pos -= size
		n.DataPos -= size
	}

	removeFromParent(node)
	compactAllNodes(root)

	return nil
}

func markObsolete(n *Node) {
	n.Obsolete = true
	for _, c := range n.Children {
		markObsolete(c)
	}
}

func removeFromParent(n *Node) {
	if n.Parent == nil {
		return
	}
	kept := n.Parent.Children[:0]
	for _, c := range n.Parent.Children {
		if c != n {
			kept = append(kept, c)
		}
	}
	n.Parent.Children = kept
}

func compactAllNodes(root *Node) {
	if root.allNodes == nil {
		return
	}
	kept := (*root.allNodes)[:0]
	for _, n := range *root.allNodes {
		if !n.Obsolete {
			kept = append(kept, n)
		}
	}
	*root.allNodes = kept
}

// patchLen rewrites n's header length word in its buffer from n.Len,
// leaving every other header field unchanged.
func patchLen(n *Node) {
	buf := n.Buf
	switch n.Kind {
	case format.KindBank:
		var bh header.BankHeader
		bh.Decode(buf, n.Pos)
		bh.LenWords = n.Len
		bh.Encode(buf, n.Pos)
	case format.KindSegment:
		var sh header.SegmentHeader
		sh.Decode(buf, n.Pos)
		sh.LenWords = n.Len
		sh.Encode(buf, n.Pos)
	default:
		var th header.TagSegmentHeader
		th.Decode(buf, n.Pos)
		th.LenWords = n.Len
		th.Encode(buf, n.Pos)
	}
}

// AddStructure appends raw (a fully serialized structure of the given
// kind) to the end of event's data region, grows the backing buffer's
// limit to cover it, patches the header length field of event and of
// each of its ancestors by +delta,
// shifts every later node's position, and scans the newly added
// subtree into event's children and the shared all-nodes list. The
// backing buffer must have at least len(raw) bytes of spare capacity
// beyond its current limit; AddStructure does not reallocate.
func AddStructure(event *Node, raw []byte, kind format.Kind) (*Node, error) {
	buf := event.Buf
	insertAt := event.Pos + event.TotalBytes()
	n := len(raw)

	if buf.Limit()+n > buf.Capacity() {
		return nil, evioerr.Wrap(evioerr.ErrInvalidLength, "buffer has no spare capacity for %d more bytes", n)
	}

	root := eventRootOf(event)

	tailLen := buf.Limit() - insertAt
	tail, releaseTail := pool.GetByteSlice(tailLen)
	defer releaseTail()
	copy(tail, buf.Bytes()[insertAt:buf.Limit()])
	buf.SetLimit(buf.Limit() + n)
	copy(buf.Bytes()[insertAt:insertAt+n], raw)
	copy(buf.Bytes()[insertAt+n:insertAt+n+tailLen], tail)

	deltaWords := uint32(n / 4)
	event.Len += deltaWords
	patchLen(event)
	for anc := event.Parent; anc != nil; anc = anc.Parent {
		anc.Len += deltaWords
		patchLen(anc)
	}

	for _, nd := range root.AllNodes() {
		if nd.Pos >= insertAt {
			nd.Pos += n
			nd.DataPos += n
		}
	}

	child, _, err := readNode(buf, insertAt, kind, event.RecordPos)
	if err != nil {
		return nil, err
	}
	child.Parent = event
	child.EventNode = root
	child.Place = event.Place
	child.PoolID = -1
	event.Children = append(event.Children, child)
	*root.allNodes = append(*root.allNodes, child)

	if err := Scan(child); err != nil {
		return nil, err
	}

	return child, nil
}
