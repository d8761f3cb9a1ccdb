package tfw

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"

	"github.com/ngs-bits/tfw/exitcodes"
)

func TestTypedErrors(t *testing.T) {
	base := errors.New("list missing")
	runtimeErr := NewRuntimeError(base)
	assert.Equal(t, "runtime error: list missing", runtimeErr.Error())
	assert.ErrorIs(t, runtimeErr, base)
	assert.True(t, IsRuntimeError(fmt.Errorf("wrapped: %w", runtimeErr)))
	assert.False(t, IsRuntimeError(base))
	assert.False(t, IsRuntimeError(nil))

	failure := NewTestFailureError(2, "2 of 5 test methods failed")
	assert.Equal(t, "test failure: 2 of 5 test methods failed", failure.Error())
	assert.True(t, IsTestFailureError(failure))
	assert.False(t, IsTestFailureError(runtimeErr))
	assert.False(t, IsTestFailureError(nil))
}

func TestExitCode(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, exitcodes.Success},
		{"one failure", NewTestFailureError(1, ""), 1},
		{"many failures", NewTestFailureError(300, ""), exitcodes.MaxFailures},
		{"wrapped failure", fmt.Errorf("run: %w", NewTestFailureError(7, "")), 7},
		{"runtime error", NewRuntimeError(errors.New("boom")), exitcodes.RuntimeErr},
		{"plain error", errors.New("flag provided but not defined"), exitcodes.RuntimeErr},
		{"exit coder", cli.Exit("", 3), 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExitCode(tc.err))
		})
	}
}
