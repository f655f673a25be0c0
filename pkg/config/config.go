// Package config loads blocktree settings from TOML, a .env file and
// BLOCKTREE_* environment variables, and builds the process logger.
package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/chazu/blocktree/pkg/tree"
)

// Config holds blocktree configuration.
type Config struct {
	IDs    IDsConfig    `toml:"ids"`
	Log    LogConfig    `toml:"log"`
	Editor EditorConfig `toml:"editor"`
	Engine EngineConfig `toml:"engine"`
}

// IDsConfig selects how node ids are minted.
type IDsConfig struct {
	Strategy string `toml:"strategy"` // "uuid" or "counter"
	Prefix   string `toml:"prefix"`   // counter strategy only
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// EditorConfig controls the interactive session.
type EditorConfig struct {
	SeedBlock bool `toml:"seed_block"`
}

// EngineConfig controls script evaluation.
type EngineConfig struct {
	Timeout Duration `toml:"timeout"`
}

// Duration is a time.Duration that reads from TOML strings like "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", string(text))
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		IDs:    IDsConfig{Strategy: "uuid"},
		Log:    LogConfig{Level: "info", Format: "text"},
		Editor: EditorConfig{SeedBlock: true},
		Engine: EngineConfig{Timeout: Duration{5 * time.Second}},
	}
}

// Dir returns the blocktree config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "blocktree")
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load builds the configuration from defaults, the TOML file at path and
// the environment, in increasing precedence. An empty path means
// DefaultPath, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	case explicit || !os.IsNotExist(err):
		return nil, errors.Wrap(err, "read config")
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("BLOCKTREE_ID_STRATEGY"); ok {
		c.IDs.Strategy = v
	}
	if v, ok := os.LookupEnv("BLOCKTREE_ID_PREFIX"); ok {
		c.IDs.Prefix = v
	}
	if v, ok := os.LookupEnv("BLOCKTREE_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv("BLOCKTREE_LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	if v, ok := os.LookupEnv("BLOCKTREE_SEED_BLOCK"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "BLOCKTREE_SEED_BLOCK")
		}
		c.Editor.SeedBlock = b
	}
	if v, ok := os.LookupEnv("BLOCKTREE_ENGINE_TIMEOUT"); ok {
		if err := c.Engine.Timeout.UnmarshalText([]byte(v)); err != nil {
			return errors.Wrap(err, "BLOCKTREE_ENGINE_TIMEOUT")
		}
	}
	return nil
}

// Validate rejects unknown enum values.
func (c *Config) Validate() error {
	switch c.IDs.Strategy {
	case "uuid", "counter":
	default:
		return errors.Errorf("ids.strategy must be uuid or counter, got %q", c.IDs.Strategy)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Engine.Timeout.Duration < 0 {
		return errors.Errorf("engine.timeout must not be negative, got %s", c.Engine.Timeout)
	}
	return nil
}

// IDSource returns the id strategy named by the configuration.
func (c *Config) IDSource() tree.IDSource {
	if c.IDs.Strategy == "counter" {
		return &tree.CounterSource{Prefix: c.IDs.Prefix}
	}
	return tree.UUIDSource{}
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Errorf("log.level must be debug, info, warn or error, got %q", s)
	}
	return lvl, nil
}

// NewLogger builds a slog logger writing to w with the configured level
// and format.
func NewLogger(c *Config, w io.Writer) *slog.Logger {
	lvl, err := parseLevel(c.Log.Level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
