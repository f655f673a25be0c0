package tree

import "fmt"

// NodeID uniquely identifies a node within a session.
type NodeID string

// ZeroID is the absent NodeID, used as the parent of roots.
const ZeroID NodeID = ""

// IsZero reports whether id is the absent NodeID.
func (id NodeID) IsZero() bool {
	return id == ZeroID
}

// Short returns the first 8 characters of the id for display.
func (id NodeID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// Node is one structured element of the block tree.
type Node struct {
	ID     NodeID   `json:"id"`
	Text   string   `json:"text"`
	Kind   Kind     `json:"kind"`
	Parent NodeID   `json:"parent,omitempty"`
	Data   NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

// BlockData holds the fields of a Block root.
type BlockData struct {
	Field     string  `json:"field"`
	Functions []Child `json:"functions"`
}

func (*BlockData) nodeData() {}

// ObjectData holds the fields of an Object parameter.
type ObjectData struct {
	Field     string  `json:"field"`
	Functions []Child `json:"functions"`
}

func (*ObjectData) nodeData() {}

// FunctionData holds the fields of a Function.
type FunctionData struct {
	Method string  `json:"method"`
	Params []Child `json:"params"`
}

func (*FunctionData) nodeData() {}

// Child is one entry of a slot sequence: a structured node, or a bare
// string leaf when Node is nil.
type Child struct {
	Node *Node  `json:"node,omitempty"`
	Leaf string `json:"leaf,omitempty"`
}

// Of wraps a node as a slot entry.
func Of(n *Node) Child {
	return Child{Node: n}
}

// Leaf returns a string leaf slot entry.
func Leaf(s string) Child {
	return Child{Leaf: s}
}

// IsLeaf reports whether c is a string leaf.
func (c Child) IsLeaf() bool {
	return c.Node == nil
}

// Kind returns KindString for leaves and the node's kind otherwise.
func (c Child) Kind() Kind {
	if c.IsLeaf() {
		return KindString
	}
	return c.Node.Kind
}

// ---------------------------------------------------------------------------
// Field access by schema name
// ---------------------------------------------------------------------------

// Scalar returns the value of the scalar field name.
func (n *Node) Scalar(name string) (string, bool) {
	p := n.scalarRef(name)
	if p == nil {
		return "", false
	}
	return *p, true
}

// SetScalar assigns the scalar field name. It reports false when n's kind
// declares no such scalar.
func (n *Node) SetScalar(name, value string) bool {
	p := n.scalarRef(name)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// Slot returns the sequence held in the child slot name. It panics when
// the slot is not declared for n's kind.
func (n *Node) Slot(name string) []Child {
	return *n.slotRef(name)
}

// SetSlot replaces the sequence held in the child slot name.
func (n *Node) SetSlot(name string, children []Child) {
	*n.slotRef(name) = children
}

func (n *Node) scalarRef(name string) *string {
	switch d := n.Data.(type) {
	case *BlockData:
		if name == "field" {
			return &d.Field
		}
	case *ObjectData:
		if name == "field" {
			return &d.Field
		}
	case *FunctionData:
		if name == "method" {
			return &d.Method
		}
	}
	return nil
}

func (n *Node) slotRef(name string) *[]Child {
	switch d := n.Data.(type) {
	case *BlockData:
		if name == "functions" {
			return &d.Functions
		}
	case *ObjectData:
		if name == "functions" {
			return &d.Functions
		}
	case *FunctionData:
		if name == "params" {
			return &d.Params
		}
	}
	panic(fmt.Sprintf("tree: node %s (%s) has no slot %q", n.ID.Short(), n.Kind, name))
}

// Clone returns a deep copy of n and its subtree. The copy shares no
// slot storage with n.
func (n *Node) Clone() *Node {
	c := *n
	switch d := n.Data.(type) {
	case *BlockData:
		c.Data = &BlockData{Field: d.Field, Functions: cloneChildren(d.Functions)}
	case *ObjectData:
		c.Data = &ObjectData{Field: d.Field, Functions: cloneChildren(d.Functions)}
	case *FunctionData:
		c.Data = &FunctionData{Method: d.Method, Params: cloneChildren(d.Params)}
	}
	return &c
}

func cloneChildren(children []Child) []Child {
	out := make([]Child, len(children))
	for i, ch := range children {
		if ch.Node != nil {
			ch.Node = ch.Node.Clone()
		}
		out[i] = ch
	}
	return out
}

// CloneAll deep-copies every root.
func CloneAll(roots []*Node) []*Node {
	out := make([]*Node, len(roots))
	for i, r := range roots {
		out[i] = r.Clone()
	}
	return out
}

// HasChildren reports whether any slot of n holds at least one entry.
func (n *Node) HasChildren() bool {
	for _, slot := range ChildSlots(n.Kind) {
		if len(n.Slot(slot)) > 0 {
			return true
		}
	}
	return false
}

// KeepsHomogeneous reports whether appending an entry of kind k to slot
// keeps the slot free of mixed string leaves and structured nodes.
func (n *Node) KeepsHomogeneous(slot string, k Kind) bool {
	for _, c := range n.Slot(slot) {
		if c.IsLeaf() != (k == KindString) {
			return false
		}
	}
	return true
}

// AllLeaves reports whether every entry of children is a string leaf. An
// empty sequence counts as all leaves.
func AllLeaves(children []Child) bool {
	for _, c := range children {
		if !c.IsLeaf() {
			return false
		}
	}
	return true
}
