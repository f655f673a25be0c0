// Package engine provides the script engine for blocktree.
// It wraps zygomys in a sandboxed environment and builds a block forest
// from user source code, placing every node by the tree schema.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/blocktree/pkg/tree"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a schema violation in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Message string
	NodeID  tree.NodeID
}

// EvalResult bundles the full output of an evaluation for use by UI bindings.
type EvalResult struct {
	Roots    []*tree.Node
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter for blocktree scripts.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	factory    *tree.Factory
	timeout    time.Duration
}

// NewEngine creates an Engine whose nodes draw ids from ids. A nil source
// falls back to random UUIDs.
func NewEngine(ids tree.IDSource) *Engine {
	return &Engine{
		factory: tree.NewFactory(ids),
		timeout: DefaultTimeout,
	}
}

// SetTimeout overrides the evaluation time limit. Non-positive values
// restore DefaultTimeout.
func (e *Engine) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	e.mu.Lock()
	e.timeout = d
	e.mu.Unlock()
}

// Evaluate takes script source and produces the roots of a new forest.
//
// Return semantics:
//   - On success: returns roots + nil errors + nil error
//   - On parse/eval failure: returns nil roots + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) ([]*tree.Node, []EvalError, error) {
	res, err := e.EvaluateFull(source)
	if err != nil {
		return nil, nil, err
	}
	return res.Roots, res.Errors, nil
}

// EvaluateFull is Evaluate with warnings. The result is non-nil whenever
// the error is nil.
func (e *Engine) EvaluateFull(source string) (*EvalResult, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	timeout := e.timeout
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res := e.evaluate(source)
		ch <- evalResult{result: res}
	}()

	return waitWithTimeout(ch, gen, timeout, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) *EvalResult {
	// Empty source is a valid program that produces an empty forest.
	if strings.TrimSpace(source) == "" {
		return &EvalResult{Roots: []*tree.Node{}}
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := newBuilder(e.factory)
	b.register(env)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return &EvalResult{Errors: parseZygomysError(err)}
	}
	if _, err := env.Run(); err != nil {
		return &EvalResult{Errors: parseZygomysError(err)}
	}

	roots := b.forest.Roots()
	if roots == nil {
		roots = []*tree.Node{}
	}
	return &EvalResult{
		Roots:    roots,
		Warnings: b.orphans(),
	}
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
