// Package placement decides whether a dragged node kind may be dropped on
// a target and performs the insertion. Legality comes entirely from the
// schema tables in package tree.
package placement

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/chazu/blocktree/pkg/tree"
)

var (
	// ErrNotPlaceable is returned for kinds the factory cannot build.
	ErrNotPlaceable = errors.New("kind cannot be placed")
	// ErrIncompatible is returned when no slot of the target accepts the kind.
	ErrIncompatible = errors.New("kind not accepted by target")
	// ErrMixedSlot is returned when the accepting slot holds string leaves,
	// which never share a slot with structured nodes.
	ErrMixedSlot = errors.New("slot holds string leaves")
	// ErrNotRootEligible is returned for a canvas drop of a kind that needs a parent.
	ErrNotRootEligible = errors.New("kind cannot be a root")
	// ErrStaleTarget is returned when the target is no longer in the forest.
	ErrStaleTarget = errors.New("target is not in the forest")
	// ErrNoDrag is returned by DragEnd when no drag is in progress.
	ErrNoDrag = errors.New("no drag in progress")
	// ErrNotDroppable is returned by DragEnd when the pointer left the canvas.
	ErrNotDroppable = errors.New("drop outside canvas")
)

// Engine holds the drag state and places new nodes into a forest.
type Engine struct {
	forest  *tree.Forest
	factory *tree.Factory
	log     *slog.Logger

	dragging  bool
	kind      tree.Kind
	hover     *tree.Node
	droppable bool
}

// New creates a placement engine inserting into forest. A nil logger falls
// back to slog.Default().
func New(forest *tree.Forest, factory *tree.Factory, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{forest: forest, factory: factory, log: log}
}

// Place creates a node of kind and inserts it under target, or as a new
// root when target is nil. Schema violations are reported as errors
// wrapping one of the package's sentinel errors; the forest is unchanged.
func (e *Engine) Place(kind tree.Kind, target *tree.Node) (*tree.Node, error) {
	if !kind.IsNode() {
		return nil, errors.Wrapf(ErrNotPlaceable, "%s", kind)
	}

	if target == nil {
		if _, rootOnly := tree.AllowedParents(kind); !rootOnly {
			return nil, errors.Wrapf(ErrNotRootEligible, "%s", kind)
		}
		n := e.factory.New(kind, tree.ZeroID)
		e.forest.AppendRoot(n)
		return n, nil
	}

	if !e.forest.Contains(target.ID) {
		return nil, errors.Wrapf(ErrStaleTarget, "%s %s", target.Kind, target.ID.Short())
	}
	slot, ok := tree.SlotFor(target.Kind, kind)
	if !ok {
		return nil, errors.Wrapf(ErrIncompatible, "%s under %s", kind, target.Kind)
	}
	if !target.KeepsHomogeneous(slot, kind) {
		return nil, errors.Wrapf(ErrMixedSlot, "%s into %s.%s", kind, target.Kind, slot)
	}

	n := e.factory.New(kind, target.ID)
	e.forest.InsertChild(target, slot, tree.Of(n))
	return n, nil
}

// ---------------------------------------------------------------------------
// Drag gesture state
// ---------------------------------------------------------------------------

// DragStart records the kind being dragged from the palette.
func (e *Engine) DragStart(kind tree.Kind) {
	e.dragging = true
	e.kind = kind
}

// Dragging returns the kind being dragged, if any.
func (e *Engine) Dragging() (tree.Kind, bool) {
	return e.kind, e.dragging
}

// Enter marks n as the current drop target.
func (e *Engine) Enter(n *tree.Node) {
	e.hover = n
}

// Leave clears the current drop target.
func (e *Engine) Leave() {
	e.hover = nil
}

// Hovered returns the current drop target, or nil.
func (e *Engine) Hovered() *tree.Node {
	return e.hover
}

// SetDroppable toggles drop eligibility as the pointer enters or leaves
// the canvas area.
func (e *Engine) SetDroppable(ok bool) {
	e.droppable = ok
}

// DragEnd completes the gesture: the dragged kind is placed on the hovered
// target, or as a new root when nothing is hovered. Rejected drops are
// logged and reported only through the boolean. The drag state is reset
// whatever the outcome.
func (e *Engine) DragEnd() (*tree.Node, bool) {
	defer e.reset()

	n, err := e.drop()
	if err != nil {
		e.log.Info("drop rejected",
			"kind", e.kind.String(),
			"target", targetName(e.hover),
			"reason", err.Error(),
		)
		return nil, false
	}
	e.log.Debug("node placed", "kind", n.Kind.String(), "id", string(n.ID), "parent", string(n.Parent))
	return n, true
}

func (e *Engine) drop() (*tree.Node, error) {
	if !e.dragging {
		return nil, ErrNoDrag
	}
	if !e.droppable {
		return nil, ErrNotDroppable
	}
	return e.Place(e.kind, e.hover)
}

func (e *Engine) reset() {
	e.dragging = false
	e.kind = 0
	e.hover = nil
	e.droppable = false
}

func targetName(n *tree.Node) string {
	if n == nil {
		return "canvas"
	}
	return n.Kind.String() + ":" + n.ID.Short()
}
