// Package fields converts a node's typed fields to a flat key/value record
// for the property widget, and applies edited records back to the node.
package fields

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/chazu/blocktree/pkg/tree"
)

// Record is the flat editable form of a node.
type Record struct {
	Title  string         `json:"title"`
	Values map[string]any `json:"values"`
	Order  []string       `json:"order"` // keys in declaration order, for display
}

// SequenceKey returns the record key for index i of a sequence field.
func SequenceKey(field string, i int) string {
	return field + strconv.Itoa(i)
}

// Export builds the editable record for n. Scalars are copied under their
// own name. A slot that may hold string leaves and currently holds nothing
// else is flattened to one key per index plus a blank trailing key for
// appending; slots holding structured nodes are not editable as text.
func Export(n *tree.Node) Record {
	rec := Record{
		Title:  n.Text,
		Values: make(map[string]any),
		Order:  []string{},
	}
	for _, f := range tree.Fields(n.Kind) {
		if !f.IsSlot() {
			v, _ := n.Scalar(f.Name)
			rec.set(f.Name, v)
			continue
		}
		if !editable(n, f) {
			continue
		}
		children := n.Slot(f.Name)
		for i, c := range children {
			rec.set(SequenceKey(f.Name, i), c.Leaf)
		}
		rec.set(SequenceKey(f.Name, len(children)), "")
	}
	return rec
}

func (r *Record) set(key, value string) {
	r.Values[key] = value
	r.Order = append(r.Order, key)
}

func editable(n *tree.Node, f tree.Field) bool {
	return lo.Contains(f.Accepts, tree.KindString) && tree.AllLeaves(n.Slot(f.Name))
}

// Apply writes an edited record into n and reports whether n changed.
//
// Scalar values are coerced to strings; keys missing from values leave the
// field untouched. For editable sequence fields every key made of the field
// name and a numeric suffix writes its value at that index; empty values
// are skipped. An index equal to the current length appends, so the blank
// trailing key grows the sequence by one; larger indices are ignored.
// Sequence fields holding structured nodes are never written.
func Apply(n *tree.Node, values map[string]any) bool {
	changed := false
	for _, f := range tree.Fields(n.Kind) {
		if !f.IsSlot() {
			raw, ok := values[f.Name]
			if !ok {
				continue
			}
			v := toString(raw)
			if old, _ := n.Scalar(f.Name); old != v {
				n.SetScalar(f.Name, v)
				changed = true
			}
			continue
		}
		if !editable(n, f) {
			continue
		}
		if applySequence(n, f.Name, values) {
			changed = true
		}
	}
	return changed
}

func applySequence(n *tree.Node, field string, values map[string]any) bool {
	edits := make(map[int]string)
	for key, raw := range values {
		if !strings.HasPrefix(key, field) {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(key, field))
		if err != nil || idx < 0 {
			continue
		}
		v := toString(raw)
		if v == "" {
			continue
		}
		edits[idx] = v
	}
	if len(edits) == 0 {
		return false
	}

	indices := lo.Keys(edits)
	sort.Ints(indices)

	children := n.Slot(field)
	changed := false
	for _, idx := range indices {
		if idx > len(children) {
			break
		}
		if idx == len(children) {
			children = append(children, tree.Leaf(edits[idx]))
			changed = true
			continue
		}
		if children[idx].Leaf != edits[idx] {
			children[idx] = tree.Leaf(edits[idx])
			changed = true
		}
	}
	n.SetSlot(field, children)
	return changed
}

// Changed reports whether next differs from prev by key count, key set or
// any value. Equal records need no Apply.
func Changed(prev, next map[string]any) bool {
	if len(prev) != len(next) {
		return true
	}
	for k, pv := range prev {
		nv, ok := next[k]
		if !ok {
			return true
		}
		if toString(pv) != toString(nv) {
			return true
		}
	}
	return false
}

// toString coerces a widget value to the string stored on the node. nil
// becomes the empty string.
func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
