// Package reporting turns test results into the report stream and the
// optional machine readable result file.
package reporting

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ngs-bits/tfw/types"
)

// ResultSink receives every test result of a run.
type ResultSink interface {
	// Consume processes a single test result
	Consume(result *types.TestResult, runID string) error
	// Complete is called when all results have been consumed
	Complete(runID string) error
}

// StreamSink writes the line oriented report stream:
//
//	PASS	Demo::a()	0.001s
//	FAIL!	Demo::b()	0.002s
//	  IS_TRUE(1 == 2) failed
//	  location : demo_test.go:12
//
// followed by the PASSED/SKIPPED/FAILED trailer. Output is flushed after every
// result so progress is visible while a run is in flight.
type StreamSink struct {
	mu      sync.Mutex
	w       *bufio.Writer
	summary types.Summary
}

func NewStreamSink(w io.Writer) *StreamSink {
	return &StreamSink{w: bufio.NewWriter(w)}
}

func (s *StreamSink) Consume(result *types.TestResult, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summary.Add(result.Status)
	fmt.Fprintf(s.w, "%s\t%s()\t%s\n", result.Status.Label(), result.QualifiedName(), FormatElapsed(result.Duration))
	for _, line := range messageLines(result.Message) {
		fmt.Fprintf(s.w, "  %s\n", line)
	}
	return s.w.Flush()
}

func (s *StreamSink) Complete(_ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(s.w, "\nPASSED : %3d\nSKIPPED: %3d\nFAILED : %3d\n", s.summary.Passed, s.summary.Skipped, s.summary.Failed)
	return s.w.Flush()
}

// Summary returns the counters of the results consumed so far.
func (s *StreamSink) Summary() types.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// messageLines splits a message into trimmed report lines. Leading and
// trailing blank lines are dropped.
func messageLines(message []string) []string {
	text := strings.TrimSpace(strings.Join(message, "\n"))
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

// FormatElapsed renders a duration with millisecond precision, "0.012s", and
// as "1m 02.500s" from one minute on.
func FormatElapsed(d time.Duration) string {
	d = d.Round(time.Millisecond)
	if d < time.Minute {
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
	minutes := d / time.Minute
	rest := d - minutes*time.Minute
	return fmt.Sprintf("%dm %06.3fs", int64(minutes), rest.Seconds())
}
