package main

import (
	"github.com/spf13/cobra"

	"github.com/chazu/blocktree/pkg/tree"
)

func init() {
	rootCmd.AddCommand(evalCmd)
}

var evalCmd = &cobra.Command{
	Use:   "eval FILE",
	Short: "Evaluate a script and print its graph",
	Long: `Evaluate a script and print the projected graph: every node and string
leaf as a vertex, plus the sequencing edges between adjacent functions.
Use - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

// EvalResponse is the JSON output of eval.
type EvalResponse struct {
	Nodes    []tree.Vertex `json:"nodes"`
	Edges    []tree.Edge   `json:"edges"`
	Warnings []WarningItem `json:"warnings"`
}

func runEval(cmd *cobra.Command, args []string) error {
	res, err := evaluateScript(cmd, args[0])
	if err != nil {
		return err
	}

	if humanOutput {
		printWarnings(cmd.ErrOrStderr(), res.Warnings)
		printTree(cmd.OutOrStdout(), res.Roots)
		return nil
	}

	g := tree.Project(res.Roots)
	return outputJSON(cmd.OutOrStdout(), EvalResponse{
		Nodes:    g.Nodes,
		Edges:    g.Edges,
		Warnings: warningItems(res.Warnings),
	})
}
