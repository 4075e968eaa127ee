package main

import (
	"errors"

	"github.com/Suveerkh/CareerMate/internal/history"
)

// Exit codes let launchers tell configuration problems from other failures

const (
	// ExitCodeSuccess indicates normal program termination
	ExitCodeSuccess = 0

	// ExitCodeGeneralError indicates a generic error (default)
	ExitCodeGeneralError = 1

	// ExitCodeConfigError indicates invalid settings or configuration
	ExitCodeConfigError = 4

	// ExitCodeDBLocked indicates the history journal is held by a running shell
	ExitCodeDBLocked = 3
)

// configError marks errors caused by settings or the config file
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// exitCodeFor maps an error to the process exit code
func exitCodeFor(err error) int {
	var cfgErr *configError
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.As(err, &cfgErr):
		return ExitCodeConfigError
	case errors.Is(err, history.ErrInUse):
		return ExitCodeDBLocked
	default:
		return ExitCodeGeneralError
	}
}

// exitCodeDescription returns a human-readable description of the exit code
func exitCodeDescription(code int) string {
	switch code {
	case ExitCodeSuccess:
		return "Success"
	case ExitCodeGeneralError:
		return "General error"
	case ExitCodeDBLocked:
		return "History database locked by a running shell"
	case ExitCodeConfigError:
		return "Configuration error"
	default:
		return "Unknown error"
	}
}
