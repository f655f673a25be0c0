package engine

import (
	"strconv"
	"strings"

	"github.com/chazu/blocktree/pkg/tree"
)

// Format renders a forest as script source that Evaluate turns back into
// an equivalent forest. Empty scalar fields are omitted; ids and display
// text are not part of the script.
func Format(roots []*tree.Node) string {
	var b strings.Builder
	for i, r := range roots {
		if i > 0 {
			b.WriteString("\n")
		}
		formatNode(&b, r, 0)
		b.WriteString("\n")
	}
	return b.String()
}

func formatNode(b *strings.Builder, n *tree.Node, depth int) {
	b.WriteString("(")
	b.WriteString(n.Kind.String())
	for _, f := range tree.Fields(n.Kind) {
		if f.IsSlot() {
			continue
		}
		if v, _ := n.Scalar(f.Name); v != "" {
			b.WriteString(" :" + f.Name + " " + strconv.Quote(v))
		}
	}
	for _, slot := range tree.ChildSlots(n.Kind) {
		for _, c := range n.Slot(slot) {
			b.WriteString("\n")
			b.WriteString(strings.Repeat("  ", depth+1))
			if c.IsLeaf() {
				b.WriteString(strconv.Quote(c.Leaf))
				continue
			}
			formatNode(b, c.Node, depth+1)
		}
	}
	b.WriteString(")")
}
