// Package editor owns the block forest for one editing session and turns
// canvas, drag and property-widget callbacks into tree mutations.
//
// Every method takes the session lock, so callbacks arriving on different
// goroutines are applied one at a time and the tree invariants hold between
// them.
package editor

import (
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/chazu/blocktree/pkg/engine"
	"github.com/chazu/blocktree/pkg/fields"
	"github.com/chazu/blocktree/pkg/placement"
	"github.com/chazu/blocktree/pkg/tree"
)

// Options configures a new Session.
type Options struct {
	IDs       tree.IDSource // defaults to tree.UUIDSource
	Logger    *slog.Logger  // defaults to slog.Default()
	SeedBlock bool          // start with one empty Block root
}

// View is the projection handed to the canvas.
type View struct {
	Nodes     []tree.Vertex `json:"nodes"`
	Edges     []tree.Edge   `json:"edges"`
	Selection []string      `json:"selection"`
	Version   uint64        `json:"version"`
}

// PaletteItem describes one draggable kind.
type PaletteItem struct {
	Kind        tree.Kind `json:"type"`
	DisplayName string    `json:"displayName"`
}

// Session is the single owner of a block forest.
type Session struct {
	mu      sync.Mutex
	forest  *tree.Forest
	factory *tree.Factory
	placer  *placement.Engine
	log     *slog.Logger

	selected *tree.Node
	record   fields.Record // last record handed to the property widget
}

// NewSession creates a session with an empty forest, or a forest holding a
// single Block when opts.SeedBlock is set.
func NewSession(opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	factory := tree.NewFactory(opts.IDs)
	forest := tree.NewForest()
	if opts.SeedBlock {
		forest.AppendRoot(factory.New(tree.KindBlock, tree.ZeroID))
	}
	return &Session{
		forest:  forest,
		factory: factory,
		placer:  placement.New(forest, factory, log),
		log:     log,
	}
}

// Factory returns the node factory of the session, for building forests
// to hand to Load.
func (s *Session) Factory() *tree.Factory {
	return s.factory
}

// Palette lists the kinds that can be dragged onto the canvas.
func (s *Session) Palette() []PaletteItem {
	return lo.Map(tree.NodeKinds(), func(k tree.Kind, _ int) PaletteItem {
		return PaletteItem{Kind: k, DisplayName: tree.Lookup(k).Title}
	})
}

// Graph projects the current forest. The projection is recomputed on
// every call.
func (s *Session) Graph() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := tree.Project(s.forest.Roots())
	return View{
		Nodes:     g.Nodes,
		Edges:     g.Edges,
		Selection: s.selection(),
		Version:   s.forest.Version(),
	}
}

// Version returns the forest change counter.
func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forest.Version()
}

// Roots returns a deep copy of the current roots. Later mutations of the
// session do not show through the copy, and changes to the copy do not
// reach the session.
func (s *Session) Roots() []*tree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tree.CloneAll(s.forest.Roots())
}

// Script renders the forest as script source while holding the session
// lock.
func (s *Session) Script() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.Format(s.forest.Roots())
}

// Load replaces the whole forest, clearing selection and drag state.
func (s *Session) Load(roots []*tree.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forest.Replace(roots)
	s.clearSelection()
	s.placer.Leave()
	s.log.Info("forest loaded", "roots", len(roots), "nodes", s.forest.Len())
}

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

// Select makes the node with the given id the selected node and exports
// its editable record. It returns false for unknown ids.
func (s *Session) Select(id tree.NodeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.forest.Find(id)
	if n == nil {
		return false
	}
	s.selected = n
	s.record = fields.Export(n)
	return true
}

// ClearSelection deselects any node.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearSelection()
}

// Selection returns the ids of the selected nodes.
func (s *Session) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection()
}

func (s *Session) selection() []string {
	if s.selected == nil {
		return []string{}
	}
	return []string{string(s.selected.ID)}
}

func (s *Session) clearSelection() {
	s.selected = nil
	s.record = fields.Record{}
}

// ---------------------------------------------------------------------------
// Drag and drop
// ---------------------------------------------------------------------------

// DragStart records the kind dragged from the palette.
func (s *Session) DragStart(kind tree.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placer.DragStart(kind)
}

// Hover marks the node with the given id as the drop target. It returns
// false for unknown ids.
func (s *Session) Hover(id tree.NodeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.forest.Find(id)
	if n == nil {
		return false
	}
	s.placer.Enter(n)
	return true
}

// Unhover clears the drop target.
func (s *Session) Unhover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placer.Leave()
}

// SetDroppable records whether the pointer is over the canvas.
func (s *Session) SetDroppable(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placer.SetDroppable(ok)
}

// DragEnd completes the drag gesture. See placement.Engine.DragEnd.
func (s *Session) DragEnd() (*tree.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placer.DragEnd()
}

// ---------------------------------------------------------------------------
// Removal
// ---------------------------------------------------------------------------

// Remove deletes the node with the given id and its subtree. The
// selection is cleared when the selected node went with it. Unknown ids
// return false.
func (s *Session) Remove(id tree.NodeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.forest.RemoveByID(id) {
		s.log.Debug("remove: node not found", "id", string(id))
		return false
	}
	if s.selected != nil && !s.forest.Contains(s.selected.ID) {
		s.clearSelection()
	}
	if h := s.placer.Hovered(); h != nil && !s.forest.Contains(h.ID) {
		s.placer.Leave()
	}
	return true
}

// ---------------------------------------------------------------------------
// Property editing
// ---------------------------------------------------------------------------

// Properties returns the editable record of the selected node.
func (s *Session) Properties() (fields.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return fields.Record{}, false
	}
	return s.record, true
}

// Edit applies an edited record to the selected node. Records equal to the
// last exported one are a no-op. On change the node is updated, the forest
// version advances and the refreshed record is returned.
func (s *Session) Edit(values map[string]any) (fields.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return fields.Record{}, false
	}
	if !fields.Changed(s.record.Values, values) {
		return s.record, false
	}
	if !fields.Apply(s.selected, values) {
		s.record = fields.Export(s.selected)
		return s.record, false
	}
	s.forest.Touch()
	s.record = fields.Export(s.selected)
	s.log.Debug("fields applied", "id", string(s.selected.ID))
	return s.record, true
}
