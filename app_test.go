package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/chazu/blocktree/pkg/config"
	"github.com/chazu/blocktree/pkg/tree"
)

func newTestApp(t *testing.T, seed bool) *App {
	t.Helper()
	cfg := config.Default()
	cfg.IDs.Strategy = "counter"
	cfg.IDs.Prefix = "n"
	cfg.Editor.SeedBlock = seed
	return NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNewAppNilLogger(t *testing.T) {
	cfg := config.Default()
	cfg.IDs.Strategy = "counter"
	app := NewApp(cfg, nil)

	if app.ClickNode("missing").Selected {
		t.Error("unknown id should not select")
	}
	if app.DragStart("widget") {
		t.Error("unknown kind should be rejected")
	}
	if res := app.LoadScript(`(block`); res.Loaded {
		t.Error("broken script should not load")
	}
}

// TestE2EPipelineExample exercises the full path the frontend takes:
// script source -> engine -> session -> projection -> script source.
func TestE2EPipelineExample(t *testing.T) {
	app := newTestApp(t, true)

	source, err := os.ReadFile("examples/pipeline.bt")
	if err != nil {
		t.Fatalf("failed to read pipeline.bt: %v", err)
	}

	result := app.LoadScript(string(source))
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	if !result.Loaded {
		t.Fatal("expected script to be loaded")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}

	view := result.Graph
	counts := map[tree.Kind]int{}
	for _, v := range view.Nodes {
		counts[v.Kind]++
	}
	if counts[tree.KindBlock] != 2 {
		t.Errorf("blocks = %d, want 2", counts[tree.KindBlock])
	}
	if counts[tree.KindFunction] != 5 {
		t.Errorf("functions = %d, want 5", counts[tree.KindFunction])
	}
	if counts[tree.KindObject] != 1 {
		t.Errorf("objects = %d, want 1", counts[tree.KindObject])
	}
	if counts[tree.KindString] != 2 {
		t.Errorf("string leaves = %d, want 2", counts[tree.KindString])
	}
	// load -> map -> print. The object in map's params breaks the chain.
	if len(view.Edges) != 2 {
		t.Errorf("edges = %d, want 2: %+v", len(view.Edges), view.Edges)
	}

	// Export and reload gives the same script.
	exported := app.ExportScript()
	again := app.LoadScript(exported)
	if len(again.Errors) > 0 {
		t.Fatalf("reloading exported script failed: %v", again.Errors)
	}
	if got := app.ExportScript(); got != exported {
		t.Errorf("export not stable:\n%s\nvs\n%s", exported, got)
	}
}

// TestE2EEmptySource ensures an empty script clears the canvas.
func TestE2EEmptySource(t *testing.T) {
	app := newTestApp(t, true)
	result := app.LoadScript("")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if !result.Loaded {
		t.Error("empty source should load")
	}
	if len(result.Graph.Nodes) != 0 {
		t.Errorf("expected 0 vertices for empty source, got %d", len(result.Graph.Nodes))
	}
}

// TestE2ESyntaxError ensures eval errors are reported and the session is
// left untouched.
func TestE2ESyntaxError(t *testing.T) {
	app := newTestApp(t, true)
	before := app.Graph().Version
	result := app.LoadScript(`(block :field "x"`)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if result.Loaded {
		t.Error("failed script must not load")
	}
	if len(result.Graph.Nodes) != 1 {
		t.Errorf("seeded block should survive, got %d vertices", len(result.Graph.Nodes))
	}
	if app.Graph().Version != before {
		t.Error("version should not change on failed load")
	}
	if result.Warnings == nil {
		t.Error("warnings should be a non-nil slice for JSON")
	}
}

func TestE2EOrphanWarning(t *testing.T) {
	app := newTestApp(t, false)
	result := app.LoadScript(`(block) (function :method "stray")`)
	if !result.Loaded {
		t.Fatalf("script should load despite warnings: %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("warnings = %v, want one orphan", result.Warnings)
	}
	if result.Warnings[0].NodeID == "" {
		t.Error("warning should name the orphan")
	}
}

// ---------------------------------------------------------------------------
// Drag and drop through the bindings
// ---------------------------------------------------------------------------

func TestDragFunctionOntoBlock(t *testing.T) {
	app := newTestApp(t, true)
	blockID := app.Graph().Nodes[0].ID

	if !app.DragStart("function") {
		t.Fatal("DragStart(function) rejected")
	}
	app.CanvasEnter()
	if !app.HoverNode(blockID) {
		t.Fatal("HoverNode on seeded block failed")
	}
	id := app.DragEnd()
	if id == "" {
		t.Fatal("drop should succeed")
	}

	view := app.Graph()
	if len(view.Nodes) != 2 {
		t.Fatalf("vertices = %d, want 2", len(view.Nodes))
	}
	if view.Nodes[1].ID != id || string(view.Nodes[1].Parent) != blockID {
		t.Errorf("new vertex = %+v", view.Nodes[1])
	}
}

func TestDragRejected(t *testing.T) {
	app := newTestApp(t, true)
	before := app.Graph().Version

	// Objects cannot be roots.
	app.DragStart("object")
	app.CanvasEnter()
	if id := app.DragEnd(); id != "" {
		t.Errorf("object dropped on canvas should be rejected, got %s", id)
	}

	// Drops outside the canvas are ignored.
	app.DragStart("block")
	app.CanvasLeave()
	if id := app.DragEnd(); id != "" {
		t.Errorf("drop outside canvas should be rejected, got %s", id)
	}

	if app.Graph().Version != before {
		t.Error("rejected drops must not change the forest")
	}
}

func TestDragStartUnknownKind(t *testing.T) {
	app := newTestApp(t, true)
	for _, k := range []string{"string", "widget", ""} {
		if app.DragStart(k) {
			t.Errorf("DragStart(%q) should be rejected", k)
		}
	}
}

func TestHoverUnknownNode(t *testing.T) {
	app := newTestApp(t, true)
	if app.HoverNode("missing") {
		t.Error("hovering an unknown id should fail")
	}
	app.LeaveNode()
}

func TestPalette(t *testing.T) {
	app := newTestApp(t, false)
	items := app.Palette()
	if len(items) != 3 {
		t.Fatalf("palette = %d items, want 3", len(items))
	}
	for _, it := range items {
		if it.Kind == tree.KindString {
			t.Error("string leaves should not be on the palette")
		}
		if it.DisplayName == "" {
			t.Errorf("palette item %s has no display name", it.Kind)
		}
	}
}

// ---------------------------------------------------------------------------
// Selection and properties
// ---------------------------------------------------------------------------

func TestClickAndEditProperties(t *testing.T) {
	app := newTestApp(t, false)
	res := app.LoadScript(`(block (function :method "print" "a"))`)
	if !res.Loaded {
		t.Fatalf("load failed: %v", res.Errors)
	}
	var fnID string
	for _, v := range res.Graph.Nodes {
		if v.Kind == tree.KindFunction {
			fnID = v.ID
		}
	}

	props := app.ClickNode(fnID)
	if !props.Selected {
		t.Fatal("ClickNode should select the function")
	}
	if props.Record.Values["method"] != "print" {
		t.Errorf("method = %v, want print", props.Record.Values["method"])
	}
	if sel := app.Graph().Selection; len(sel) != 1 || sel[0] != fnID {
		t.Errorf("selection = %v, want [%s]", sel, fnID)
	}

	before := app.Graph().Version
	values := map[string]any{}
	for k, v := range props.Record.Values {
		values[k] = v
	}
	values["method"] = "log"
	values["params1"] = "b"

	edited := app.EditProperties(values)
	if edited.Record.Values["method"] != "log" {
		t.Errorf("method after edit = %v", edited.Record.Values["method"])
	}
	if edited.Record.Values["params1"] != "b" {
		t.Errorf("params1 after edit = %v", edited.Record.Values["params1"])
	}
	if app.Graph().Version == before {
		t.Error("edit should advance the version")
	}
	if !strings.Contains(app.ExportScript(), `(function :method "log"`) {
		t.Errorf("export does not reflect edit:\n%s", app.ExportScript())
	}

	app.ClickCanvas()
	if app.Properties().Selected {
		t.Error("ClickCanvas should clear the selection")
	}
}

func TestClickUnknownNode(t *testing.T) {
	app := newTestApp(t, true)
	props := app.ClickNode("missing")
	if props.Selected {
		t.Error("unknown id should not select")
	}
	if props.Record.Values == nil || props.Record.Order == nil {
		t.Error("empty record should carry non-nil collections for JSON")
	}
}

func TestRemoveNodeClearsSelection(t *testing.T) {
	app := newTestApp(t, true)
	blockID := app.Graph().Nodes[0].ID
	app.ClickNode(blockID)

	if !app.RemoveNode(blockID) {
		t.Fatal("RemoveNode should succeed")
	}
	if app.Properties().Selected {
		t.Error("removing the selected node should clear the selection")
	}
	if len(app.Graph().Nodes) != 0 {
		t.Error("forest should be empty")
	}
	if app.RemoveNode(blockID) {
		t.Error("second removal should report not found")
	}
}

func TestExportWhileDropping(t *testing.T) {
	app := newTestApp(t, true)
	blockID := app.Graph().Nodes[0].ID

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			app.DragStart("function")
			app.CanvasEnter()
			app.HoverNode(blockID)
			app.DragEnd()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if !strings.HasPrefix(app.ExportScript(), "(block") {
				t.Error("export lost the block")
				return
			}
		}
	}()
	wg.Wait()

	if res := app.LoadScript(app.ExportScript()); !res.Loaded {
		t.Errorf("final export does not load: %v", res.Errors)
	}
}
