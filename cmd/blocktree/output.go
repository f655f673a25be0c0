package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/chazu/blocktree/pkg/engine"
	"github.com/chazu/blocktree/pkg/tree"
)

// Colors for human output.
var (
	kindColor  = color.New(color.FgHiGreen, color.Bold)
	fieldColor = color.New(color.FgCyan)
	leafColor  = color.New(color.FgYellow)
	subtle     = color.New(color.FgHiBlack)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed)
)

// outputJSON writes a value as formatted JSON to w.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ErrorResponse is the JSON body printed when a script fails to evaluate.
type ErrorResponse struct {
	Errors []ErrorItem `json:"errors"`
}

// ErrorItem is one evaluation error.
type ErrorItem struct {
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// WarningItem is one evaluation warning.
type WarningItem struct {
	NodeID  string `json:"node_id,omitempty"`
	Message string `json:"message"`
}

func errorItems(errs []engine.EvalError) []ErrorItem {
	items := make([]ErrorItem, 0, len(errs))
	for _, e := range errs {
		items = append(items, ErrorItem{Line: e.Line, Message: e.Message})
	}
	return items
}

func warningItems(ws []engine.EvalWarning) []WarningItem {
	items := make([]WarningItem, 0, len(ws))
	for _, w := range ws {
		items = append(items, WarningItem{NodeID: string(w.NodeID), Message: w.Message})
	}
	return items
}

// printTree writes roots as an indented outline.
func printTree(w io.Writer, roots []*tree.Node) {
	if len(roots) == 0 {
		subtle.Fprintln(w, "(empty)")
		return
	}
	for _, r := range roots {
		printNode(w, r, 0)
	}
}

func printNode(w io.Writer, n *tree.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	var scalars []string
	for _, f := range tree.Fields(n.Kind) {
		if f.IsSlot() {
			continue
		}
		if v, _ := n.Scalar(f.Name); v != "" {
			scalars = append(scalars, fieldColor.Sprint(f.Name+"=")+strconv.Quote(v))
		}
	}
	fmt.Fprintf(w, "%s%s %s", indent, kindColor.Sprint(n.Kind), subtle.Sprint(n.ID.Short()))
	if len(scalars) > 0 {
		fmt.Fprintf(w, " %s", strings.Join(scalars, " "))
	}
	fmt.Fprintln(w)

	for _, slot := range tree.ChildSlots(n.Kind) {
		children := n.Slot(slot)
		if len(children) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s  %s\n", indent, fieldColor.Sprint(slot+":"))
		for _, c := range children {
			if c.IsLeaf() {
				fmt.Fprintf(w, "%s    %s\n", indent, leafColor.Sprint(strconv.Quote(c.Leaf)))
				continue
			}
			printNode(w, c.Node, depth+2)
		}
	}
}

// printEvalErrors writes evaluation errors for humans.
func printEvalErrors(w io.Writer, errs []engine.EvalError) {
	for _, e := range errs {
		fmt.Fprintf(w, "%s %s\n", errColor.Sprint("error:"), e.Error())
	}
}

// printWarnings writes evaluation warnings for humans.
func printWarnings(w io.Writer, ws []engine.EvalWarning) {
	for _, x := range ws {
		fmt.Fprintf(w, "%s %s\n", warnColor.Sprint("warning:"), x.Message)
	}
}
