package cli

import (
	"errors"
	"fmt"

	"tcm/internal/config"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
)

// ExitError ends a command with a specific exit code. A nil Err means the
// command already reported why it failed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Failed is the silent exit for runs or validations that did not pass.
func Failed() error {
	return &ExitError{Code: ExitFailure}
}

// ConfigError marks err as a configuration problem.
func ConfigError(err error) error {
	return &ExitError{Code: ExitConfig, Err: err}
}

// ExitCode maps a command error to the process exit code. Configuration
// errors exit with 2 even when they were not wrapped in an ExitError.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, config.ErrInvalidConfig) {
		return ExitConfig
	}
	return ExitFailure
}
