package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ngs-bits/tfw/assert"
	"github.com/ngs-bits/tfw/exitcodes"
	"github.com/ngs-bits/tfw/metrics"
	"github.com/ngs-bits/tfw/registry"
	"github.com/ngs-bits/tfw/reporting"
	"github.com/ngs-bits/tfw/testlist"
	"github.com/ngs-bits/tfw/types"
)

// DefaultOutDir is the scratch directory used when none is configured.
const DefaultOutDir = "out"

// CaseResult captures the results of the executed methods of one test case
type CaseResult struct {
	Name     string
	Tests    []*types.TestResult
	Status   types.TestStatus
	Duration time.Duration
	Stats    types.Summary
}

// RunnerResult captures the complete test run results
type RunnerResult struct {
	Cases    []*CaseResult
	Status   types.TestStatus
	Duration time.Duration
	Stats    types.Summary
	RunID    string
}

// ExitCode is the process exit code for the run: the number of failed
// methods, capped so that it never wraps to success.
func (r *RunnerResult) ExitCode() int {
	return exitcodes.FromFailures(r.Stats.Failed)
}

// Results returns all method results in execution order.
func (r *RunnerResult) Results() []*types.TestResult {
	var out []*types.TestResult
	for _, c := range r.Cases {
		out = append(out, c.Tests...)
	}
	return out
}

func (r *RunnerResult) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Test Run Results (%s):\n", reporting.FormatElapsed(r.Duration)))
	b.WriteString(fmt.Sprintf("Total: %d, Passed: %d, Failed: %d, Skipped: %d\n",
		r.Stats.Total(), r.Stats.Passed, r.Stats.Failed, r.Stats.Skipped))
	for _, c := range r.Cases {
		b.WriteString(fmt.Sprintf("├── %s: %s (%d passed, %d failed, %d skipped)\n",
			c.Name, c.Status, c.Stats.Passed, c.Stats.Failed, c.Stats.Skipped))
	}
	return b.String()
}

// TestRunner defines the interface for running registered test cases
type TestRunner interface {
	RunAllTests(ctx context.Context) (*RunnerResult, error)
	RunTest(ctx context.Context, caseName, method string) (*types.TestResult, error)
}

// runner struct implements TestRunner interface
type runner struct {
	registry *registry.Registry
	filter   testlist.Filter
	outDir   string
	sinks    []reporting.ResultSink
	log      log.Logger
	runID    string
	tracer   trace.Tracer
}

// Config holds configuration for creating a new runner
type Config struct {
	Registry *registry.Registry
	Filter   testlist.Filter
	OutDir   string                 // scratch directory, created before the first method runs
	Sinks    []reporting.ResultSink // receive every result in execution order
	Log      log.Logger
	RunID    string // generated if empty
}

// NewTestRunner creates a new test runner instance
func NewTestRunner(cfg Config) (TestRunner, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.OutDir == "" {
		cfg.OutDir = DefaultOutDir
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	cfg.Log.Debug("NewTestRunner()", "cases", cfg.Registry.Len(), "outDir", cfg.OutDir,
		"filter", cfg.Filter.Substring, "allowList", len(cfg.Filter.Allow))

	return &runner{
		registry: cfg.Registry,
		filter:   cfg.Filter,
		outDir:   cfg.OutDir,
		sinks:    cfg.Sinks,
		log:      cfg.Log,
		runID:    cfg.RunID,
		tracer:   otel.Tracer("tfw runner"),
	}, nil
}

// RunAllTests implements the TestRunner interface
func (r *runner) RunAllTests(ctx context.Context) (*RunnerResult, error) {
	runID := r.runID
	if runID == "" {
		runID = uuid.New().String()
	}
	start := time.Now()
	r.log.Info("Running all tests", "run_id", runID)

	if err := r.prepareOutDir(); err != nil {
		return nil, err
	}

	result := &RunnerResult{RunID: runID}
	for tc := range r.registry.All() {
		if err := r.processCase(ctx, tc, result); err != nil {
			return nil, fmt.Errorf("processing test case %s: %w", tc.Name(), err)
		}
	}

	for _, sink := range r.sinks {
		if err := sink.Complete(runID); err != nil {
			return nil, fmt.Errorf("completing result sink: %w", err)
		}
	}

	result.Duration = time.Since(start)
	result.Status = statusFromSummary(result.Stats)
	metrics.RecordRun(runID, result.Stats, result.Duration)
	r.log.Info("Finished all tests", "run_id", runID, "duration", result.Duration,
		"passed", result.Stats.Passed, "skipped", result.Stats.Skipped, "failed", result.Stats.Failed)
	return result, nil
}

func (r *runner) prepareOutDir() error {
	if err := os.MkdirAll(r.outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", r.outDir, err)
	}
	return nil
}

// processCase runs the selected methods of a single case in declaration order
func (r *runner) processCase(ctx context.Context, tc *registry.TestCase, result *RunnerResult) error {
	methods := tc.Methods()
	names := methodNameCounts(methods)

	var caseResult *CaseResult
	var caseSpan trace.Span
	caseStart := time.Now()
	for i, m := range methods {
		qualified := types.QualifiedName(tc.Name(), m.Name)
		if !r.filter.Matches(qualified) {
			r.log.Debug("Filtered out test", "test", qualified)
			continue
		}
		if err := validateMethod(tc.Name(), i, m, names); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run interrupted before %s: %w", qualified, err)
		}
		if caseResult == nil {
			caseResult = &CaseResult{Name: tc.Name()}
			result.Cases = append(result.Cases, caseResult)
			ctx, caseSpan = r.tracer.Start(ctx, fmt.Sprintf("case %s", tc.Name()))
			defer caseSpan.End()
		}

		testResult := r.runMethod(ctx, tc.Name(), m)
		for _, sink := range r.sinks {
			if err := sink.Consume(testResult, result.RunID); err != nil {
				return fmt.Errorf("reporting result of %s: %w", qualified, err)
			}
		}
		metrics.RecordMethod(result.RunID, testResult)

		caseResult.Tests = append(caseResult.Tests, testResult)
		caseResult.Stats.Add(testResult.Status)
		result.Stats.Add(testResult.Status)
	}

	if caseResult != nil {
		caseResult.Duration = time.Since(caseStart)
		caseResult.Status = statusFromSummary(caseResult.Stats)
	}
	return nil
}

// RunTest implements the TestRunner interface
func (r *runner) RunTest(ctx context.Context, caseName, method string) (*types.TestResult, error) {
	tc, ok := r.registry.Lookup(caseName)
	if !ok {
		return nil, fmt.Errorf("test case %s not found", caseName)
	}
	methods := tc.Methods()
	names := methodNameCounts(methods)
	for i, m := range methods {
		if m.Name != method {
			continue
		}
		if err := validateMethod(caseName, i, m, names); err != nil {
			return nil, err
		}
		if err := r.prepareOutDir(); err != nil {
			return nil, err
		}
		return r.runMethod(ctx, caseName, m), nil
	}
	return nil, fmt.Errorf("test method %s not found", types.QualifiedName(caseName, method))
}

func methodNameCounts(methods []registry.Method) map[string]int {
	names := make(map[string]int, len(methods))
	for _, m := range methods {
		names[m.Name]++
	}
	return names
}

// validateMethod rejects a selected method that cannot be invoked. Methods
// excluded by the filter are never validated.
func validateMethod(caseName string, index int, m registry.Method, names map[string]int) error {
	switch {
	case m.Name == "":
		return fmt.Errorf("test case %s: method #%d has no name", caseName, index+1)
	case names[m.Name] > 1:
		return fmt.Errorf("test case %s: duplicate method %s", caseName, m.Name)
	case m.Fn == nil:
		return fmt.Errorf("could not invoke test method %s", types.QualifiedName(caseName, m.Name))
	}
	return nil
}

// runMethod executes one method with a fresh status and returns its result
func (r *runner) runMethod(ctx context.Context, caseName string, m registry.Method) *types.TestResult {
	qualified := types.QualifiedName(caseName, m.Name)
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("method %s", qualified))
	defer span.End()

	status := types.NewExecutionStatus()
	logger := r.log.New("test", qualified)
	t := assert.NewT(ctx, qualified, r.outDir, logger, status)

	start := time.Now()
	invoke(t, m.Fn, status, logger)
	result := types.NewTestResult(caseName, m.Name, status, time.Since(start))

	span.SetAttributes(
		attribute.String("status", string(result.Status)),
		attribute.String("failure_kind", string(result.Kind)),
	)
	logger.Debug("Test finished", "status", result.Status, "duration", result.Duration)
	return result
}

// invoke runs fn on its own goroutine so that runtime.Goexit from a failed
// assertion and panics from the body end only the method. Outcomes that the
// body did not record itself are classified here.
func invoke(t *assert.T, fn func(*assert.T), status *types.ExecutionStatus, logger log.Logger) {
	done := make(chan struct{})
	go func() {
		returned := false
		defer close(done)
		defer func() {
			rec := recover()
			if rec == nil && returned {
				return
			}
			if rec != nil {
				logger.Debug("Test panicked", "panic", rec, "stack", string(debug.Stack()))
			}
			kind, message := classify(rec)
			status.Set(types.TestStatusFail, kind, message...)
		}()
		fn(t)
		returned = true
	}()
	<-done
}

// classify maps a recovered panic value to a failure kind and message. A nil
// value stands for a runtime.Goexit that no assertion accounted for.
func classify(rec any) (types.FailureKind, []string) {
	if err, ok := rec.(error); ok {
		var ex *assert.Exception
		if errors.As(err, &ex) {
			return types.FailureDomain, []string{
				"exception: Exception",
				"location : " + ex.Location(),
				"message  : " + ex.Message,
			}
		}
		return types.FailureRuntime, []string{
			"exception: runtime error",
			"message  : " + err.Error(),
		}
	}
	if rec == nil {
		return types.FailureUnknown, []string{"unknown exception: runtime.Goexit"}
	}
	return types.FailureUnknown, []string{fmt.Sprintf("unknown exception: %v", rec)}
}

func statusFromSummary(s types.Summary) types.TestStatus {
	switch {
	case s.Failed > 0:
		return types.TestStatusFail
	case s.Passed == 0 && s.Skipped > 0:
		return types.TestStatusSkip
	default:
		return types.TestStatusPass
	}
}
