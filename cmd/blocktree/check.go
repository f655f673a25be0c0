package main

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/chazu/blocktree/pkg/tree"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Verify a script builds a valid forest",
	Long: `Evaluate a script and validate the resulting forest against the schema:
root kinds, slot compatibility, unique ids, homogeneous slots and parent
references. Orphaned objects and functions are reported as warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Status string       `json:"status"`
	Roots  int          `json:"roots"`
	Nodes  int          `json:"nodes"`
	Issues []CheckIssue `json:"issues"`
}

// CheckIssue represents a single issue found during check.
type CheckIssue struct {
	Severity string `json:"severity"`
	NodeID   string `json:"node_id,omitempty"`
	Message  string `json:"message"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	res, err := evaluateScript(cmd, args[0])
	if err != nil {
		return err
	}

	verrs := tree.Validate(res.Roots)
	issues := lo.Map(verrs, func(v tree.ValidationError, _ int) CheckIssue {
		return CheckIssue{Severity: v.Severity.String(), NodeID: string(v.NodeID), Message: v.Message}
	})
	for _, w := range res.Warnings {
		issues = append(issues, CheckIssue{Severity: "warning", NodeID: string(w.NodeID), Message: w.Message})
	}

	result := CheckResult{
		Status: "ok",
		Roots:  len(res.Roots),
		Nodes:  len(tree.Project(res.Roots).Nodes),
		Issues: issues,
	}
	invalid := tree.HasErrors(verrs)
	if invalid {
		result.Status = "invalid"
	}

	out := cmd.OutOrStdout()
	if humanOutput {
		for _, is := range issues {
			c := warnColor
			if is.Severity == "error" {
				c = errColor
			}
			fmt.Fprintf(out, "%s %s %s\n", c.Sprint(is.Severity+":"), subtle.Sprint(is.NodeID), is.Message)
		}
		fmt.Fprintf(out, "%s: %d roots, %d vertices, %d issues\n", result.Status, result.Roots, result.Nodes, len(issues))
	} else if err := outputJSON(out, result); err != nil {
		return err
	}

	if invalid {
		return &exitError{code: ExitValidationError}
	}
	return nil
}
