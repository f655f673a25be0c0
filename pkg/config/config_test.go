package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chazu/blocktree/pkg/tree"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.IDs.Strategy != "uuid" {
		t.Errorf("strategy = %q, want uuid", cfg.IDs.Strategy)
	}
	if !cfg.Editor.SeedBlock {
		t.Error("seed_block should default to true")
	}
	if cfg.Engine.Timeout.Duration != 5*time.Second {
		t.Errorf("timeout = %s, want 5s", cfg.Engine.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[ids]
strategy = "counter"
prefix = "n"

[log]
level = "debug"
format = "json"

[editor]
seed_block = false

[engine]
timeout = "250ms"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IDs.Strategy != "counter" || cfg.IDs.Prefix != "n" {
		t.Errorf("ids = %+v", cfg.IDs)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Editor.SeedBlock {
		t.Error("seed_block should be false")
	}
	if cfg.Engine.Timeout.Duration != 250*time.Millisecond {
		t.Errorf("timeout = %s, want 250ms", cfg.Engine.Timeout)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "[log]\nlevel = \"warn\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("level = %q, want warn", cfg.Log.Level)
	}
	if cfg.IDs.Strategy != "uuid" || !cfg.Editor.SeedBlock {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadMissingDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IDs.Strategy != "uuid" {
		t.Errorf("strategy = %q, want uuid", cfg.IDs.Strategy)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad toml", "[ids\n", "parse"},
		{"bad strategy", "[ids]\nstrategy = \"random\"\n", "ids.strategy"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "log.level"},
		{"bad format", "[log]\nformat = \"xml\"\n", "log.format"},
		{"bad timeout", "[engine]\ntimeout = \"soon\"\n", "invalid duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want containing %q", err, tt.want)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "[ids]\nstrategy = \"uuid\"\n")
	t.Setenv("BLOCKTREE_ID_STRATEGY", "counter")
	t.Setenv("BLOCKTREE_ID_PREFIX", "x")
	t.Setenv("BLOCKTREE_LOG_LEVEL", "error")
	t.Setenv("BLOCKTREE_SEED_BLOCK", "false")
	t.Setenv("BLOCKTREE_ENGINE_TIMEOUT", "2s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IDs.Strategy != "counter" || cfg.IDs.Prefix != "x" {
		t.Errorf("ids = %+v", cfg.IDs)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("level = %q", cfg.Log.Level)
	}
	if cfg.Editor.SeedBlock {
		t.Error("seed_block should be overridden to false")
	}
	if cfg.Engine.Timeout.Duration != 2*time.Second {
		t.Errorf("timeout = %s, want 2s", cfg.Engine.Timeout)
	}
}

func TestEnvOverrideInvalid(t *testing.T) {
	t.Setenv("BLOCKTREE_SEED_BLOCK", "sometimes")
	_, err := Load(writeConfig(t, ""))
	if err == nil || !strings.Contains(err.Error(), "BLOCKTREE_SEED_BLOCK") {
		t.Errorf("expected BLOCKTREE_SEED_BLOCK error, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.IDs.Strategy = "counter"
	cfg.Engine.Timeout.Duration = time.Second
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.IDs.Strategy != "counter" || got.Engine.Timeout.Duration != time.Second {
		t.Errorf("round trip = %+v", got)
	}
}

func TestIDSource(t *testing.T) {
	cfg := Default()
	if _, ok := cfg.IDSource().(tree.UUIDSource); !ok {
		t.Errorf("uuid strategy gave %T", cfg.IDSource())
	}

	cfg.IDs.Strategy = "counter"
	cfg.IDs.Prefix = "n"
	src := cfg.IDSource()
	if id := src.NextID(); id != "n1" {
		t.Errorf("first counter id = %q, want n1", id)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	log := NewLogger(cfg, &buf)
	log.Info("hidden")
	log.Warn("shown", "k", "v")

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at warn level: %s", out)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("expected one json record, got %q: %v", out, err)
	}
	if rec["msg"] != "shown" || rec["k"] != "v" {
		t.Errorf("record = %v", rec)
	}
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Default(), &buf)
	log.Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text output = %q", buf.String())
	}
}
