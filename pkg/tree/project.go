package tree

import "fmt"

// Vertex is one entry of the flat node list handed to the canvas. String
// leaves appear as vertices of kind KindString with a synthetic id derived
// from their position.
type Vertex struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Kind   Kind   `json:"kind"`
	Parent NodeID `json:"parent,omitempty"`

	// HasChildren is set for nodes with at least one slot entry; the canvas
	// lays those out as containers.
	HasChildren bool `json:"hasChildren"`

	// Node is the structured node behind the vertex, nil for leaves.
	Node *Node `json:"-"`
}

// Edge is a sequencing edge inferred between two adjacent edgeable
// siblings of the same slot.
type Edge struct {
	ID     string `json:"id"`
	From   NodeID `json:"from"`
	To     NodeID `json:"to"`
	Parent NodeID `json:"parent"`
}

// Graph is the displayable projection of a forest.
type Graph struct {
	Nodes []Vertex `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

// LeafID returns the synthetic vertex id of the string leaf at index i of
// the given slot of parent.
func LeafID(parent NodeID, slot string, i int) string {
	return fmt.Sprintf("%s:%s%d", parent, slot, i)
}

// Project flattens the forest and derives its edges.
func Project(roots []*Node) Graph {
	return Graph{
		Nodes: Flatten(roots),
		Edges: DeriveEdges(roots),
	}
}

// Flatten returns every node and leaf of the forest, depth-first in
// pre-order, over slots in declaration order.
func Flatten(roots []*Node) []Vertex {
	nodes := []Vertex{}
	var visit func(n *Node)
	visit = func(n *Node) {
		nodes = append(nodes, Vertex{
			ID:          string(n.ID),
			Text:        n.Text,
			Kind:        n.Kind,
			Parent:      n.Parent,
			HasChildren: n.HasChildren(),
			Node:        n,
		})
		for _, slot := range ChildSlots(n.Kind) {
			for i, c := range n.Slot(slot) {
				if c.IsLeaf() {
					nodes = append(nodes, Vertex{
						ID:     LeafID(n.ID, slot, i),
						Text:   c.Leaf,
						Kind:   KindString,
						Parent: n.ID,
					})
					continue
				}
				visit(c.Node)
			}
		}
	}
	for _, r := range roots {
		visit(r)
	}
	return nodes
}

// DeriveEdges returns an edge for every pair of consecutive edgeable
// siblings in a slot. Slots holding any string leaf yield no edges, but
// their structured children are still visited.
func DeriveEdges(roots []*Node) []Edge {
	edges := []Edge{}
	WalkNodes(roots, func(n *Node) bool {
		for _, slot := range ChildSlots(n.Kind) {
			children := n.Slot(slot)
			if hasLeaf(children) {
				continue
			}
			for i := 0; i+1 < len(children); i++ {
				a, b := children[i].Node, children[i+1].Node
				if !IsEdgeable(a.Kind) || !IsEdgeable(b.Kind) {
					continue
				}
				edges = append(edges, Edge{
					ID:     fmt.Sprintf("%s-%s", a.ID, b.ID),
					From:   a.ID,
					To:     b.ID,
					Parent: n.ID,
				})
			}
		}
		return Continue
	})
	return edges
}

func hasLeaf(children []Child) bool {
	for _, c := range children {
		if c.IsLeaf() {
			return true
		}
	}
	return false
}
