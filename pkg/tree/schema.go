package tree

import (
	"fmt"

	"github.com/samber/lo"
)

// Kind enumerates the node kinds of the block tree.
type Kind int

const (
	KindBlock    Kind = iota // root container of functions
	KindObject               // parameter object holding functions
	KindFunction             // edgeable call with params
	KindString               // bare scalar leaf, never a node
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsNode reports whether instances of k are structured nodes that the
// factory can build. String leaves are stored inline and are not nodes.
func (k Kind) IsNode() bool {
	return k == KindBlock || k == KindObject || k == KindFunction
}

// ParseKind converts a kind name ("block", "object", "function", "string")
// to its Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range allKinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

// MarshalText implements encoding.TextMarshaler so kinds travel to the
// frontend by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

var allKinds = []Kind{KindBlock, KindObject, KindFunction, KindString}

// ---------------------------------------------------------------------------
// Schema tables
// ---------------------------------------------------------------------------

// Field is one editable field declared for a kind. A field with a non-nil
// Accepts list is a child slot holding an ordered sequence; otherwise it is
// a plain string scalar.
type Field struct {
	Name    string
	Accepts []Kind
}

// IsSlot reports whether the field holds a child sequence.
func (f Field) IsSlot() bool {
	return f.Accepts != nil
}

// Schema describes one node kind.
type Schema struct {
	Title    string // display name used for palettes and default text
	Edgeable bool   // may anchor a sequencing edge to an adjacent sibling
	RootOnly bool   // may only exist as a root of the forest
	Parents  []Kind // kinds that may hold this kind in one of their slots
	Fields   []Field
}

var schemas = map[Kind]Schema{
	KindBlock: {
		Title:    "Block",
		RootOnly: true,
		Fields: []Field{
			{Name: "field"},
			{Name: "functions", Accepts: []Kind{KindFunction}},
		},
	},
	KindObject: {
		Title:   "Object",
		Parents: []Kind{KindFunction},
		Fields: []Field{
			{Name: "field"},
			{Name: "functions", Accepts: []Kind{KindFunction}},
		},
	},
	KindFunction: {
		Title:    "Function",
		Edgeable: true,
		Parents:  []Kind{KindBlock, KindObject, KindFunction},
		Fields: []Field{
			{Name: "method"},
			{Name: "params", Accepts: []Kind{KindFunction, KindObject, KindString}},
		},
	},
}

// Lookup returns the schema entry for k. Kinds without an entry are a
// programming error and panic.
func Lookup(k Kind) Schema {
	s, ok := schemas[k]
	if !ok {
		panic(fmt.Sprintf("tree: no schema for kind %s", k))
	}
	return s
}

// NodeKinds returns the structured kinds in palette order.
func NodeKinds() []Kind {
	return lo.Filter(allKinds, func(k Kind, _ int) bool { return k.IsNode() })
}

// IsEdgeable reports whether k may anchor a sequencing edge.
func IsEdgeable(k Kind) bool {
	return Lookup(k).Edgeable
}

// AllowedParents returns the kinds that may hold k. rootOnly is true when k
// may only appear as a root, in which case kinds is empty.
func AllowedParents(k Kind) (kinds []Kind, rootOnly bool) {
	s := Lookup(k)
	return s.Parents, s.RootOnly
}

// Fields returns every field declared for k, in declaration order.
func Fields(k Kind) []Field {
	return Lookup(k).Fields
}

// ChildSlots returns the names of k's child slots in declaration order.
func ChildSlots(k Kind) []string {
	return lo.FilterMap(Lookup(k).Fields, func(f Field, _ int) (string, bool) {
		return f.Name, f.IsSlot()
	})
}

// SlotAccepts returns the kinds accepted by slot on kind k. It panics if
// slot is not a declared child slot of k.
func SlotAccepts(k Kind, slot string) []Kind {
	f, ok := lo.Find(Lookup(k).Fields, func(f Field) bool {
		return f.Name == slot && f.IsSlot()
	})
	if !ok {
		panic(fmt.Sprintf("tree: kind %s has no slot %q", k, slot))
	}
	return f.Accepts
}

// SlotFor returns the first slot of parent, in declaration order, that
// accepts child.
func SlotFor(parent, child Kind) (string, bool) {
	for _, f := range Lookup(parent).Fields {
		if f.IsSlot() && lo.Contains(f.Accepts, child) {
			return f.Name, true
		}
	}
	return "", false
}
