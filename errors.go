package tfw

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ngs-bits/tfw/exitcodes"
)

// RuntimeError represents an operational error that aborts the run with
// exitcodes.RuntimeErr. Examples include an unreadable test list, config
// file or scratch directory, and malformed test registrations.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// TestFailureError reports a completed run with failed test methods
type TestFailureError struct {
	Failed  int
	Message string
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test failure: %s", e.Message)
}

// NewTestFailureError creates a new TestFailureError
func NewTestFailureError(failed int, message string) *TestFailureError {
	return &TestFailureError{Failed: failed, Message: message}
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return err != nil && errors.As(err, &testErr)
}

// ExitCode maps the error returned by the app to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitcodes.Success
	}
	var testErr *TestFailureError
	if errors.As(err, &testErr) {
		return exitcodes.FromFailures(testErr.Failed)
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	// runtime errors and anything else, e.g. flag parsing
	return exitcodes.RuntimeErr
}
