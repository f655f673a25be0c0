package tree

import (
	"fmt"

	"github.com/samber/lo"
)

// Forest owns the ordered roots of the block tree. Each node owns the
// children held in its slots. Forest performs no schema checks; callers
// validate placement before inserting.
//
// Forest is not safe for concurrent use. A single owner (the editor
// session) serializes every access.
type Forest struct {
	roots   []*Node
	version uint64
}

// NewForest creates a forest holding roots.
func NewForest(roots ...*Node) *Forest {
	return &Forest{roots: roots}
}

// Roots returns the current roots. The slice is not cloned.
func (f *Forest) Roots() []*Node {
	return f.roots
}

// Version returns a counter that advances on every mutation, so consumers
// know when to re-project.
func (f *Forest) Version() uint64 {
	return f.version
}

// Touch records a mutation made directly on a node's fields.
func (f *Forest) Touch() {
	f.version++
}

// Replace swaps the whole forest for roots.
func (f *Forest) Replace(roots []*Node) {
	f.roots = roots
	f.version++
}

// AppendRoot adds n as the last root.
func (f *Forest) AppendRoot(n *Node) {
	n.Parent = ZeroID
	f.roots = append(f.roots, n)
	f.version++
}

// InsertChild appends child to parent's slot and points the child's
// back-reference at parent. It panics if slot is not a declared child slot
// of parent's kind.
func (f *Forest) InsertChild(parent *Node, slot string, child Child) {
	if !lo.Contains(ChildSlots(parent.Kind), slot) {
		panic(fmt.Sprintf("tree: kind %s has no slot %q", parent.Kind, slot))
	}
	if child.Node != nil {
		child.Node.Parent = parent.ID
	}
	parent.SetSlot(slot, append(parent.Slot(slot), child))
	f.version++
}

// RemoveByID removes the node with the given id together with its subtree.
// Roots are checked first; otherwise the search is depth-first over every
// root, in slot declaration order then sequence order, and stops at the
// first match. It returns false if no node has that id.
func (f *Forest) RemoveByID(id NodeID) bool {
	for i, r := range f.roots {
		if r.ID == id {
			f.roots = append(f.roots[:i], f.roots[i+1:]...)
			f.version++
			return true
		}
	}
	for _, r := range f.roots {
		if removeUnder(r, id) {
			f.version++
			return true
		}
	}
	return false
}

func removeUnder(n *Node, id NodeID) bool {
	for _, slot := range ChildSlots(n.Kind) {
		children := n.Slot(slot)
		for j, c := range children {
			if c.IsLeaf() {
				continue
			}
			if c.Node.ID == id {
				n.SetSlot(slot, append(children[:j], children[j+1:]...))
				return true
			}
			if removeUnder(c.Node, id) {
				return true
			}
		}
	}
	return false
}

// Find returns the node with the given id, or nil.
func (f *Forest) Find(id NodeID) *Node {
	var found *Node
	WalkNodes(f.roots, func(n *Node) bool {
		if n.ID == id {
			found = n
			return Break
		}
		return Continue
	})
	return found
}

// Contains reports whether a node with the given id is in the forest.
func (f *Forest) Contains(id NodeID) bool {
	return f.Find(id) != nil
}

// Len returns the number of structured nodes in the forest.
func (f *Forest) Len() int {
	count := 0
	WalkNodes(f.roots, func(*Node) bool {
		count++
		return Continue
	})
	return count
}

// ---------------------------------------------------------------------------
// Traversal
// ---------------------------------------------------------------------------

const (
	// Continue keeps walking.
	Continue = true
	// Break stops the walk.
	Break = false
)

// WalkNodes visits every structured node depth-first in pre-order, over
// slots in declaration order. The walk stops when fn returns Break.
func WalkNodes(roots []*Node, fn func(n *Node) bool) {
	var visit func(n *Node) bool
	visit = func(n *Node) bool {
		if !fn(n) {
			return false
		}
		for _, slot := range ChildSlots(n.Kind) {
			for _, c := range n.Slot(slot) {
				if c.IsLeaf() {
					continue
				}
				if !visit(c.Node) {
					return false
				}
			}
		}
		return true
	}
	for _, r := range roots {
		if !visit(r) {
			return
		}
	}
}
