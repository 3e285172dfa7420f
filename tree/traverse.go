package tree

// Visitor receives callbacks while Walk visits a tree, mirroring the
// listener pattern from spec.md §4.3: StartEvent/EndEvent bracket a
// top-level bank, GotStructure fires for every node (including the
// event bank itself, with a nil parent) as it is visited.
type Visitor interface {
	StartEvent(event *Structure)
	GotStructure(parent, s *Structure)
	EndEvent(event *Structure)
}

// Walk visits an already built (for example, Parse-produced) event tree,
// invoking v's callbacks in depth-first preorder.
func Walk(event *Structure, v Visitor) {
	v.StartEvent(event)
	v.GotStructure(nil, event)
	walkChildren(event, v)
	v.EndEvent(event)
}

func walkChildren(node *Structure, v Visitor) {
	for _, c := range node.children {
		v.GotStructure(node, c)
		walkChildren(c, v)
	}
}

// NextNode returns the next node in depth-first preorder starting from
// s's root, or nil if s is the last node in that traversal. It treats
// s's top-most ancestor as the traversal root.
func (s *Structure) NextNode() *Structure {
	if len(s.children) > 0 {
		return s.children[0]
	}

	cur := s
	for cur.parent != nil {
		siblings := cur.parent.children
		for i, sib := range siblings {
			if sib == cur && i+1 < len(siblings) {
				return siblings[i+1]
			}
		}
		cur = cur.parent
	}

	return nil
}

// PreviousNode returns the previous node in depth-first postorder,
// i.e. the inverse of NextNode, or nil if s is first.
func (s *Structure) PreviousNode() *Structure {
	if s.parent == nil {
		return nil
	}
	siblings := s.parent.children
	for i, sib := range siblings {
		if sib == s {
			if i == 0 {
				return s.parent
			}
			return lastDescendant(siblings[i-1])
		}
	}

	return nil
}

func lastDescendant(n *Structure) *Structure {
	for len(n.children) > 0 {
		n = n.children[len(n.children)-1]
	}
	return n
}

// GetMatchingStructures walks the subtree rooted at s (s included) in
// depth-first preorder and returns every node for which predicate
// returns true.
func (s *Structure) GetMatchingStructures(predicate func(*Structure) bool) []*Structure {
	var out []*Structure
	var visit func(*Structure)
	visit = func(n *Structure) {
		if predicate(n) {
			out = append(out, n)
		}
		for _, c := range n.children {
			visit(c)
		}
	}
	visit(s)

	return out
}
