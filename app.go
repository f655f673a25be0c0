package main

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/chazu/blocktree/pkg/config"
	"github.com/chazu/blocktree/pkg/editor"
	"github.com/chazu/blocktree/pkg/engine"
	"github.com/chazu/blocktree/pkg/fields"
	"github.com/chazu/blocktree/pkg/tree"
)

// GraphChangedEvent is emitted to the frontend after every mutation, with
// the new forest version as payload.
const GraphChangedEvent = "graph:changed"

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx     context.Context
	session *editor.Session
	engine  *engine.Engine
	log     *slog.Logger
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalWarningData is a JSON-serializable eval warning for the frontend.
type EvalWarningData struct {
	Message string `json:"message"`
	NodeID  string `json:"nodeId"`
}

// EvalResult is the result of LoadScript returned to the frontend.
type EvalResult struct {
	Loaded   bool              `json:"loaded"`
	Errors   []EvalErrorData   `json:"errors"`
	Warnings []EvalWarningData `json:"warnings"`
	Graph    editor.View       `json:"graph"`
}

// PropertiesData is the record shown in the property widget.
type PropertiesData struct {
	Selected bool          `json:"selected"`
	Record   fields.Record `json:"record"`
}

// NewApp creates a new App from cfg. Script evaluation and the session
// share one id source so loaded nodes never collide with dropped ones. A
// nil log falls back to slog.Default().
func NewApp(cfg *config.Config, log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	ids := cfg.IDSource()
	eng := engine.NewEngine(ids)
	eng.SetTimeout(cfg.Engine.Timeout.Duration)
	return &App{
		session: editor.NewSession(editor.Options{
			IDs:       ids,
			Logger:    log,
			SeedBlock: cfg.Editor.SeedBlock,
		}),
		engine: eng,
		log:    log,
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// emit tells the frontend to re-project. Without a runtime context (tests,
// CLI) it does nothing.
func (a *App) emit() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, GraphChangedEvent, a.session.Version())
}

// Graph returns the current projection for the canvas.
func (a *App) Graph() editor.View {
	return a.session.Graph()
}

// Palette lists the kinds the user can drag onto the canvas.
func (a *App) Palette() []editor.PaletteItem {
	return a.session.Palette()
}

// ---------------------------------------------------------------------------
// Canvas interaction
// ---------------------------------------------------------------------------

// ClickNode selects a node and returns its editable record.
func (a *App) ClickNode(id string) PropertiesData {
	if !a.session.Select(tree.NodeID(id)) {
		a.log.Debug("click on unknown node", "id", id)
		return PropertiesData{Record: emptyRecord()}
	}
	return a.Properties()
}

// ClickCanvas clears the selection.
func (a *App) ClickCanvas() {
	a.session.ClearSelection()
}

// HoverNode marks a node as the current drop target.
func (a *App) HoverNode(id string) bool {
	return a.session.Hover(tree.NodeID(id))
}

// LeaveNode clears the drop target.
func (a *App) LeaveNode() {
	a.session.Unhover()
}

// CanvasEnter records that the pointer is over the canvas.
func (a *App) CanvasEnter() {
	a.session.SetDroppable(true)
}

// CanvasLeave records that the pointer left the canvas.
func (a *App) CanvasLeave() {
	a.session.SetDroppable(false)
}

// DragStart begins dragging the named kind from the palette. Unknown or
// leaf kinds are ignored.
func (a *App) DragStart(kind string) bool {
	k, err := tree.ParseKind(kind)
	if err != nil || !k.IsNode() {
		a.log.Debug("drag of unknown kind", "kind", kind)
		return false
	}
	a.session.DragStart(k)
	return true
}

// DragEnd completes the drag. It returns the id of the created node, or
// the empty string when the drop was rejected.
func (a *App) DragEnd() string {
	n, ok := a.session.DragEnd()
	if !ok {
		return ""
	}
	a.emit()
	return string(n.ID)
}

// RemoveNode deletes a node and its subtree.
func (a *App) RemoveNode(id string) bool {
	if !a.session.Remove(tree.NodeID(id)) {
		return false
	}
	a.emit()
	return true
}

// ---------------------------------------------------------------------------
// Property widget
// ---------------------------------------------------------------------------

// Properties returns the record of the selected node.
func (a *App) Properties() PropertiesData {
	rec, ok := a.session.Properties()
	if !ok {
		return PropertiesData{Record: emptyRecord()}
	}
	return PropertiesData{Selected: true, Record: rec}
}

// EditProperties applies the widget's values to the selected node and
// returns the refreshed record.
func (a *App) EditProperties(values map[string]any) PropertiesData {
	if _, changed := a.session.Edit(values); changed {
		a.emit()
	}
	return a.Properties()
}

func emptyRecord() fields.Record {
	return fields.Record{Values: map[string]any{}, Order: []string{}}
}

// ---------------------------------------------------------------------------
// Scripts
// ---------------------------------------------------------------------------

// LoadScript evaluates source and, if it produced no errors, replaces the
// session forest with the result.
func (a *App) LoadScript(source string) EvalResult {
	result := EvalResult{
		Errors:   []EvalErrorData{},
		Warnings: []EvalWarningData{},
	}

	res, err := a.engine.EvaluateFull(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.Error("evaluate failed", "err", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		result.Graph = a.session.Graph()
		return result
	}

	result.Errors = append(result.Errors, lo.Map(res.Errors, func(e engine.EvalError, _ int) EvalErrorData {
		return EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message}
	})...)
	result.Warnings = append(result.Warnings, lo.Map(res.Warnings, func(w engine.EvalWarning, _ int) EvalWarningData {
		return EvalWarningData{Message: w.Message, NodeID: string(w.NodeID)}
	})...)

	if len(result.Errors) == 0 {
		a.session.Load(res.Roots)
		result.Loaded = true
		a.emit()
	}
	result.Graph = a.session.Graph()
	return result
}

// ExportScript renders the session forest as script source.
func (a *App) ExportScript() string {
	return a.session.Script()
}
