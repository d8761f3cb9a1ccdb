package types

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// TestStatus represents the possible states of a test method execution
type TestStatus string

const (
	TestStatusPass TestStatus = "pass"
	TestStatusFail TestStatus = "fail"
	TestStatusSkip TestStatus = "skip"
)

// Label returns the status as printed in the report stream.
func (s TestStatus) Label() string {
	switch s {
	case TestStatusPass:
		return "PASS"
	case TestStatusSkip:
		return "SKIP"
	default:
		return "FAIL!"
	}
}

// FailureKind classifies how a method ended up failed.
type FailureKind string

const (
	FailureNone      FailureKind = ""
	FailureAssertion FailureKind = "assertion"
	FailureDomain    FailureKind = "domain error"
	FailureRuntime   FailureKind = "runtime error"
	FailureUnknown   FailureKind = "unknown"
)

// QualifiedNameSeparator joins case and method names.
const QualifiedNameSeparator = "::"

// QualifiedName returns "<case>::<method>", the unit of filtering and reporting.
func QualifiedName(caseName, method string) string {
	return caseName + QualifiedNameSeparator + method
}

// SplitQualifiedName is the inverse of QualifiedName. A trailing "()" is ignored.
func SplitQualifiedName(name string) (caseName, method string, err error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), "()")
	caseName, method, ok := strings.Cut(name, QualifiedNameSeparator)
	if !ok || caseName == "" || method == "" {
		return "", "", fmt.Errorf("invalid qualified test name %q, expected <case>%s<method>", name, QualifiedNameSeparator)
	}
	return caseName, method, nil
}

// ExecutionStatus is the outcome slot of a single method invocation.
// It starts as passed and can be moved to failed or skipped exactly once.
type ExecutionStatus struct {
	mu      sync.Mutex
	status  TestStatus
	kind    FailureKind
	message []string
}

// NewExecutionStatus returns a fresh, passed status with an empty message.
func NewExecutionStatus() *ExecutionStatus {
	return &ExecutionStatus{status: TestStatusPass}
}

// Set records a terminal outcome. Only the first call has an effect; later calls
// return false and leave the recorded outcome untouched.
func (s *ExecutionStatus) Set(status TestStatus, kind FailureKind, message ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != TestStatusPass || status == TestStatusPass {
		return false
	}
	s.status = status
	s.kind = kind
	s.message = append([]string(nil), message...)
	return true
}

// Status returns the current outcome.
func (s *ExecutionStatus) Status() TestStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Terminal reports whether a failed or skipped outcome has been recorded.
func (s *ExecutionStatus) Terminal() bool {
	return s.Status() != TestStatusPass
}

// Kind returns the failure classification, empty unless failed.
func (s *ExecutionStatus) Kind() FailureKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind
}

// Message returns a copy of the message lines.
func (s *ExecutionStatus) Message() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.message...)
}

// TestResult captures the outcome of a single method run
type TestResult struct {
	Case     string        `json:"case"`
	Method   string        `json:"method"`
	Status   TestStatus    `json:"status"`
	Kind     FailureKind   `json:"kind,omitempty"`
	Message  []string      `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// QualifiedName returns "<case>::<method>" for the result.
func (r *TestResult) QualifiedName() string {
	return QualifiedName(r.Case, r.Method)
}

// NewTestResult snapshots an execution status into a result.
func NewTestResult(caseName, method string, status *ExecutionStatus, duration time.Duration) *TestResult {
	return &TestResult{
		Case:     caseName,
		Method:   method,
		Status:   status.Status(),
		Kind:     status.Kind(),
		Message:  status.Message(),
		Duration: duration,
	}
}

// Summary holds the per-run counters.
type Summary struct {
	Passed  int `json:"passed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Add increments the counter matching status.
func (s *Summary) Add(status TestStatus) {
	switch status {
	case TestStatusPass:
		s.Passed++
	case TestStatusSkip:
		s.Skipped++
	default:
		s.Failed++
	}
}

// Total is the number of executed methods.
func (s Summary) Total() int {
	return s.Passed + s.Skipped + s.Failed
}

func (s Summary) String() string {
	return fmt.Sprintf("passed=%d skipped=%d failed=%d", s.Passed, s.Skipped, s.Failed)
}
