package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/chazu/blocktree/pkg/engine"
)

var fmtWrite bool

func init() {
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "Write result to the source file instead of stdout")
	rootCmd.AddCommand(fmtCmd)
}

var fmtCmd = &cobra.Command{
	Use:   "fmt FILE",
	Short: "Reformat a script",
	Long: `Evaluate a script and print it back in canonical form: one node per line,
two-space indentation, empty fields omitted. Comments and definitions are
not preserved.`,
	Args: cobra.ExactArgs(1),
	RunE: runFmt,
}

func runFmt(cmd *cobra.Command, args []string) error {
	path := args[0]
	res, err := evaluateScript(cmd, path)
	if err != nil {
		return err
	}
	out := engine.Format(res.Roots)

	if !fmtWrite || path == "-" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	logger.Info("formatted", "path", path)
	return nil
}
