package shell

import (
	"errors"
	"fmt"
)

// ExitError carries the exit code a shell run ended with.
type ExitError struct {
	Code  int
	Cause error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("shell exited with %d: %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("shell exited with %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// ExitCode maps err to a process exit code: 0 for nil, the carried code
// for an ExitError and 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return 1
}
