package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

// runCLI executes the root command with args and returns stdout, stderr and
// the exit code main would use.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	color.NoColor = true
	humanOutput = false
	configPath = ""
	fmtWrite = false

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))

	code := ExitSuccess
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		} else {
			code = ExitError
		}
	}
	return out.String(), errOut.String(), code
}

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.bt")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const pipelineScript = `(block :field "main"
  (function :method "load" "input.csv")
  (function :method "print"))
`

// ---------------------------------------------------------------------------
// eval
// ---------------------------------------------------------------------------

func TestEvalJSON(t *testing.T) {
	out, _, code := runCLI(t, "", "eval", writeScript(t, pipelineScript))
	if code != ExitSuccess {
		t.Fatalf("exit = %d, want 0", code)
	}
	var resp EvalResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	// block, two functions, one leaf
	if len(resp.Nodes) != 4 {
		t.Errorf("nodes = %d, want 4", len(resp.Nodes))
	}
	if len(resp.Edges) != 1 {
		t.Errorf("edges = %d, want 1", len(resp.Edges))
	}
	if resp.Warnings == nil {
		t.Error("warnings should be an empty array, not null")
	}
}

func TestEvalStdinHuman(t *testing.T) {
	out, _, code := runCLI(t, pipelineScript, "eval", "--human", "-")
	if code != ExitSuccess {
		t.Fatalf("exit = %d, want 0", code)
	}
	for _, want := range []string{"block", `field="main"`, `method="load"`, `"input.csv"`, "params:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEvalErrorExitCode(t *testing.T) {
	out, _, code := runCLI(t, "", "eval", writeScript(t, `(block (object))`))
	if code != ExitEvalError {
		t.Fatalf("exit = %d, want %d", code, ExitEvalError)
	}
	var resp ErrorResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(resp.Errors) == 0 || !strings.Contains(resp.Errors[0].Message, "cannot hold object") {
		t.Errorf("errors = %+v", resp.Errors)
	}
}

func TestEvalMissingFile(t *testing.T) {
	_, _, code := runCLI(t, "", "eval", filepath.Join(t.TempDir(), "missing.bt"))
	if code != ExitError {
		t.Errorf("exit = %d, want %d", code, ExitError)
	}
}

func TestConfigErrorExitCode(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(bad, []byte("[ids]\nstrategy = \"dice\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, code := runCLI(t, "", "--config", bad, "eval", writeScript(t, pipelineScript))
	if code != ExitConfigError {
		t.Errorf("exit = %d, want %d", code, ExitConfigError)
	}
}

// ---------------------------------------------------------------------------
// check
// ---------------------------------------------------------------------------

func TestCheckOK(t *testing.T) {
	out, _, code := runCLI(t, "", "check", writeScript(t, pipelineScript))
	if code != ExitSuccess {
		t.Fatalf("exit = %d, want 0", code)
	}
	var res CheckResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if res.Status != "ok" || res.Roots != 1 || res.Nodes != 4 {
		t.Errorf("result = %+v", res)
	}
	if len(res.Issues) != 0 {
		t.Errorf("issues = %+v", res.Issues)
	}
}

func TestCheckReportsOrphans(t *testing.T) {
	out, _, code := runCLI(t, "", "check", "--human", writeScript(t, `(block) (object)`))
	if code != ExitSuccess {
		t.Fatalf("orphans are warnings, exit = %d", code)
	}
	if !strings.Contains(out, "warning:") || !strings.Contains(out, "never attached") {
		t.Errorf("output missing orphan warning:\n%s", out)
	}
	if !strings.Contains(out, "ok: 1 roots") {
		t.Errorf("output missing summary:\n%s", out)
	}
}

// ---------------------------------------------------------------------------
// fmt
// ---------------------------------------------------------------------------

func TestFmtStdout(t *testing.T) {
	src := `(block   :field "main" (function :method "print"   "a"))`
	out, _, code := runCLI(t, "", "fmt", writeScript(t, src))
	if code != ExitSuccess {
		t.Fatalf("exit = %d, want 0", code)
	}
	want := "(block :field \"main\"\n  (function :method \"print\"\n    \"a\"))\n"
	if out != want {
		t.Errorf("fmt output =\n%q\nwant\n%q", out, want)
	}
}

func TestFmtWrite(t *testing.T) {
	path := writeScript(t, `(block (function))`)
	out, _, code := runCLI(t, "", "fmt", "-w", path)
	if code != ExitSuccess {
		t.Fatalf("exit = %d, want 0", code)
	}
	if out != "" {
		t.Errorf("fmt -w should not print, got %q", out)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "(block\n  (function))\n" {
		t.Errorf("file = %q", b)
	}
}

func TestFmtEvalError(t *testing.T) {
	path := writeScript(t, `(block`)
	_, _, code := runCLI(t, "", "fmt", "-w", path)
	if code != ExitEvalError {
		t.Errorf("exit = %d, want %d", code, ExitEvalError)
	}
	b, _ := os.ReadFile(path)
	if string(b) != `(block` {
		t.Error("failed fmt must not rewrite the file")
	}
}
