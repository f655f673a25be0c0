package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/chazu/blocktree/pkg/engine"
)

// readScript reads the script named by path, or stdin for "-".
func readScript(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", errors.Wrap(err, "reading stdin")
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}
	return string(b), nil
}

// evaluateScript reads and evaluates a script. Evaluation errors are
// reported on the command's output and turned into ExitEvalError.
func evaluateScript(cmd *cobra.Command, path string) (*engine.EvalResult, error) {
	src, err := readScript(cmd, path)
	if err != nil {
		return nil, &exitError{code: ExitError, msg: err.Error()}
	}

	eng := engine.NewEngine(cfg.IDSource())
	eng.SetTimeout(cfg.Engine.Timeout.Duration)
	res, err := eng.EvaluateFull(src)
	if err != nil {
		return nil, &exitError{code: ExitEvalError, msg: err.Error()}
	}
	logger.Debug("script evaluated", "path", path, "roots", len(res.Roots), "errors", len(res.Errors))

	if len(res.Errors) > 0 {
		if humanOutput {
			printEvalErrors(cmd.ErrOrStderr(), res.Errors)
		} else if err := outputJSON(cmd.OutOrStdout(), ErrorResponse{Errors: errorItems(res.Errors)}); err != nil {
			return nil, err
		}
		return nil, &exitError{code: ExitEvalError}
	}
	return res, nil
}
