// Package main provides the blocktree CLI entry point.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/blocktree/pkg/config"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	configPath  string

	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	os.Exit(execute())
}

func execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.msg != "" {
			fmt.Fprintf(os.Stderr, "error: %s\n", ee.msg)
		}
		return ee.code
	}
	// Print the error since we have SilenceErrors: true
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	return ExitError
}

var rootCmd = &cobra.Command{
	Use:   "blocktree",
	Short: "Evaluate, check and format block tree scripts",
	Long: `blocktree works with the scripts the block editor loads and exports.

A script builds blocks, objects and functions:

  (block :field "main"
    (function :method "print" "hello"))

All commands output JSON by default; pass --human for a readable tree.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return &exitError{code: ExitConfigError, msg: err.Error()}
		}
		cfg = c
		logger = config.NewLogger(cfg, cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default "+config.DefaultPath()+")")
	rootCmd.Version = Version
}
