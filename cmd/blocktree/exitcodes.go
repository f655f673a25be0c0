package main

// Exit codes
const (
	ExitSuccess         = 0 // Success
	ExitError           = 1 // General error (invalid arguments, unreadable input)
	ExitEvalError       = 2 // Script failed to evaluate
	ExitValidationError = 3 // Script evaluated but the forest breaks the schema
	ExitConfigError     = 4 // Configuration could not be loaded
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
