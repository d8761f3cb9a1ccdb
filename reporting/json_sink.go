package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ngs-bits/tfw/types"
)

// JSONReport is the document written by JSONSink.
type JSONReport struct {
	RunID     string              `json:"runId"`
	Timestamp time.Time           `json:"timestamp"`
	Summary   types.Summary       `json:"summary"`
	Results   []*types.TestResult `json:"results"`
}

// JSONSink collects results and writes them to a JSON file when the run
// completes.
type JSONSink struct {
	path string

	mu      sync.Mutex
	results map[string][]*types.TestResult
}

func NewJSONSink(path string) *JSONSink {
	return &JSONSink{
		path:    path,
		results: make(map[string][]*types.TestResult),
	}
}

func (s *JSONSink) Consume(result *types.TestResult, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[runID] = append(s.results[runID], result)
	return nil
}

func (s *JSONSink) Complete(runID string) error {
	s.mu.Lock()
	results := s.results[runID]
	delete(s.results, runID)
	s.mu.Unlock()

	report := JSONReport{
		RunID:     runID,
		Timestamp: time.Now(),
		Results:   results,
	}
	if report.Results == nil {
		report.Results = []*types.TestResult{}
	}
	for _, r := range results {
		report.Summary.Add(r.Status)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", s.path, err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results file %s: %w", s.path, err)
	}
	return nil
}
