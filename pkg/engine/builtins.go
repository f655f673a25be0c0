package engine

import (
	"fmt"
	"strconv"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"

	"github.com/chazu/blocktree/pkg/tree"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms script source before passing it to zygomys:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals.
//
//     String literals that already start with either marker get litPrefix
//     in front so they never read as keywords; toText strips it again.
//
//  2. Comment conversion: ; and ;; line comments become // comments,
//     which is what zygomys understands.
//
// Both transformations respect string literal boundaries.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)
	b := []byte(source)
	for i := 0; i < len(b); {
		switch c := b[i]; {
		case c == '"':
			j := i + 1
			for j < len(b) && b[j] != '"' {
				if b[j] == '\\' {
					j++
				}
				j++
			}
			j = min(j+1, len(b))
			if lit := string(b[i+1 : j]); strings.HasPrefix(lit, kwPrefix) || strings.HasPrefix(lit, litPrefix) {
				out.WriteString(`"` + litPrefix)
				out.Write(b[i+1 : j])
			} else {
				out.Write(b[i:j])
			}
			i = j
		case c == ';':
			out.WriteString("//")
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				out.WriteByte(b[i])
				i++
			}
		case c == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out.WriteString(`"` + kwPrefix + string(b[i+1:j]) + `"`)
			i = j
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// litPrefix escapes user strings that would otherwise collide with kwPrefix.
const litPrefix = "__lit_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNode wraps a tree node so it can be returned from one builtin and
// adopted by another.
type sexpNode struct {
	node *tree.Node
}

func (n *sexpNode) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %s)", n.node.Kind, n.node.ID.Short())
}
func (n *sexpNode) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Forest builder
// ---------------------------------------------------------------------------

// builder accumulates the forest produced by one evaluation.
type builder struct {
	factory *tree.Factory
	forest  *tree.Forest
	created []*tree.Node
}

func newBuilder(factory *tree.Factory) *builder {
	return &builder{factory: factory, forest: tree.NewForest()}
}

// register installs one builtin per structured kind:
//
//	(block :field "main" (function :method "print" "hello"))
//	(object :field "opts" (function :method "get"))
//
// Keywords set scalar fields; positional arguments are children placed
// into the first slot that accepts them. Blocks become roots as soon as
// they are built.
func (b *builder) register(env *zygo.Zlisp) {
	for _, kind := range tree.NodeKinds() {
		env.AddFunction(kind.String(), b.nodeBuiltin(kind))
	}
}

func (b *builder) nodeBuiltin(kind tree.Kind) zygo.ZlispUserFunction {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		n := b.factory.New(kind, tree.ZeroID)
		b.created = append(b.created, n)

		for i := 0; i < len(args); i++ {
			if kw, ok := isKW(args[i]); ok {
				if i+1 >= len(args) {
					return zygo.SexpNull, fmt.Errorf("%s: keyword :%s has no value", name, kw)
				}
				if err := setScalar(n, kw, args[i+1]); err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
				}
				i++
				continue
			}
			child, err := toChild(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			if err := b.adopt(n, child); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
		}

		if _, rootOnly := tree.AllowedParents(kind); rootOnly {
			b.forest.AppendRoot(n)
		}
		return &sexpNode{node: n}, nil
	}
}

// adopt inserts child into the first slot of parent accepting its kind.
func (b *builder) adopt(parent *tree.Node, child tree.Child) error {
	kind := child.Kind()
	slot, ok := tree.SlotFor(parent.Kind, kind)
	if !ok {
		return fmt.Errorf("%s cannot hold %s", parent.Kind, kind)
	}
	if !parent.KeepsHomogeneous(slot, kind) {
		return fmt.Errorf("%s cannot mix strings and nodes", slot)
	}
	if child.Node != nil && !child.Node.Parent.IsZero() {
		return fmt.Errorf("%s %s is already attached", kind, child.Node.ID.Short())
	}
	b.forest.InsertChild(parent, slot, child)
	return nil
}

// orphans reports objects and functions that were built but never
// attached to any parent.
func (b *builder) orphans() []EvalWarning {
	return lo.FilterMap(b.created, func(n *tree.Node, _ int) (EvalWarning, bool) {
		if !n.Parent.IsZero() || tree.Lookup(n.Kind).RootOnly {
			return EvalWarning{}, false
		}
		return EvalWarning{
			NodeID:  n.ID,
			Message: fmt.Sprintf("%s %s is never attached to a block", n.Kind, n.ID.Short()),
		}, true
	})
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func setScalar(n *tree.Node, field string, v zygo.Sexp) error {
	s, err := toText(v)
	if err != nil {
		return fmt.Errorf(":%s: %w", field, err)
	}
	if !n.SetScalar(field, s) {
		return fmt.Errorf("unknown keyword :%s for %s", field, n.Kind)
	}
	return nil
}

// toChild converts a positional argument to a slot entry.
func toChild(s zygo.Sexp) (tree.Child, error) {
	if n, ok := s.(*sexpNode); ok {
		return tree.Of(n.node), nil
	}
	text, err := toText(s)
	if err != nil {
		return tree.Child{}, err
	}
	return tree.Leaf(text), nil
}

// toText extracts a string from a string or number Sexp.
func toText(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *zygo.SexpStr:
		return strings.TrimPrefix(v.S, litPrefix), nil
	case *zygo.SexpInt:
		return strconv.FormatInt(v.Val, 10), nil
	case *zygo.SexpFloat:
		return strconv.FormatFloat(v.Val, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("expected string, number or node, got %T (%s)", s, s.SexpString(nil))
}
