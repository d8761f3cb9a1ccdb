package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestStatus_Label(t *testing.T) {
	tests := []struct {
		status TestStatus
		want   string
	}{
		{TestStatusPass, "PASS"},
		{TestStatusFail, "FAIL!"},
		{TestStatusSkip, "SKIP"},
		{TestStatus("bogus"), "FAIL!"},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Label())
		})
	}
}

func TestQualifiedName(t *testing.T) {
	assert.Equal(t, "Demo::a", QualifiedName("Demo", "a"))

	c, m, err := SplitQualifiedName("Demo::a()")
	require.NoError(t, err)
	assert.Equal(t, "Demo", c)
	assert.Equal(t, "a", m)

	c, m, err = SplitQualifiedName("  Demo::b ")
	require.NoError(t, err)
	assert.Equal(t, "Demo", c)
	assert.Equal(t, "b", m)

	for _, bad := range []string{"", "Demo", "::a", "Demo::"} {
		_, _, err := SplitQualifiedName(bad)
		assert.Error(t, err, bad)
	}
}

func TestExecutionStatus_FirstMutationWins(t *testing.T) {
	s := NewExecutionStatus()
	assert.Equal(t, TestStatusPass, s.Status())
	assert.False(t, s.Terminal())
	assert.Empty(t, s.Message())

	// passed is not a mutation
	assert.False(t, s.Set(TestStatusPass, FailureNone, "ignored"))
	assert.Empty(t, s.Message())

	assert.True(t, s.Set(TestStatusFail, FailureAssertion, "first"))
	assert.False(t, s.Set(TestStatusSkip, FailureNone, "second"))
	assert.False(t, s.Set(TestStatusFail, FailureRuntime, "third"))

	assert.Equal(t, TestStatusFail, s.Status())
	assert.Equal(t, FailureAssertion, s.Kind())
	assert.Equal(t, []string{"first"}, s.Message())
	assert.True(t, s.Terminal())
}

func TestExecutionStatus_MessageIsCopied(t *testing.T) {
	lines := []string{"a", "b"}
	s := NewExecutionStatus()
	require.True(t, s.Set(TestStatusSkip, FailureNone, lines...))
	lines[0] = "changed"

	msg := s.Message()
	assert.Equal(t, []string{"a", "b"}, msg)
	msg[1] = "changed"
	assert.Equal(t, []string{"a", "b"}, s.Message())
}

func TestNewTestResult(t *testing.T) {
	s := NewExecutionStatus()
	s.Set(TestStatusFail, FailureDomain, "boom")
	r := NewTestResult("Case", "m", s, 15*time.Millisecond)

	assert.Equal(t, "Case::m", r.QualifiedName())
	assert.Equal(t, TestStatusFail, r.Status)
	assert.Equal(t, FailureDomain, r.Kind)
	assert.Equal(t, []string{"boom"}, r.Message)
	assert.Equal(t, 15*time.Millisecond, r.Duration)
}

func TestSummary(t *testing.T) {
	var s Summary
	s.Add(TestStatusPass)
	s.Add(TestStatusPass)
	s.Add(TestStatusSkip)
	s.Add(TestStatusFail)

	assert.Equal(t, Summary{Passed: 2, Skipped: 1, Failed: 1}, s)
	assert.Equal(t, 4, s.Total())
	assert.Equal(t, "passed=2 skipped=1 failed=1", s.String())
}
