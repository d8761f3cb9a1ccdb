package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngs-bits/tfw/types"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("test error"),
		},
		{
			name: "error with special chars",
			err:  errors.New("test@error#123"),
		},
		{
			name: "error with multiple spaces",
			err:  errors.New("test   error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errToLabel(tt.err)
			validLabelRegex := regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)
			if !validLabelRegex.MatchString(result) {
				t.Errorf("errLabel() = %v, is not a valid Prometheus label", result)
			}
		})
	}
}

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Counter != nil {
		return out.GetCounter().GetValue()
	}
	return out.GetGauge().GetValue()
}

func TestRecordMethod(t *testing.T) {
	runID := "metrics-test-run"
	RecordMethod(runID, &types.TestResult{Case: "Demo", Method: "a", Status: types.TestStatusPass, Duration: time.Millisecond})
	RecordMethod(runID, &types.TestResult{Case: "Demo", Method: "b", Status: types.TestStatusFail, Kind: types.FailureAssertion})
	RecordMethod(runID, &types.TestResult{Case: "Demo", Method: "c", Status: types.TestStatusFail, Kind: types.FailureAssertion})
	RecordMethod(runID, &types.TestResult{Case: "Demo", Method: "d", Status: "bogus"})

	assert.Equal(t, 1.0, value(t, methodsTotal.WithLabelValues(runID, "Demo", "pass")))
	assert.Equal(t, 2.0, value(t, methodsTotal.WithLabelValues(runID, "Demo", "fail")))
	assert.Equal(t, 2.0, value(t, failuresTotal.WithLabelValues(runID, "assertion")))
}

func TestRecordError_DebugToggle(t *testing.T) {
	assert.False(t, Debug, "debug logging of metric updates is off by default")

	RecordError("debug_off")
	assert.Equal(t, 1.0, value(t, errorsTotal.WithLabelValues("debug_off")))

	Debug = true
	t.Cleanup(func() { Debug = false })
	RecordError("debug_on")
	RecordErrorDetails("details", errors.New("with debug"))
	assert.Equal(t, 1.0, value(t, errorsTotal.WithLabelValues("debug_on")))
	assert.Equal(t, 1.0, value(t, errorsTotal.WithLabelValues("details.with_debug")))
}

func TestRecordRun(t *testing.T) {
	runID := "metrics-test-summary"
	RecordRun(runID, types.Summary{Passed: 3, Skipped: 1, Failed: 2}, 1500*time.Millisecond)

	assert.Equal(t, 3.0, value(t, runResults.WithLabelValues(runID, "pass")))
	assert.Equal(t, 1.0, value(t, runResults.WithLabelValues(runID, "skip")))
	assert.Equal(t, 2.0, value(t, runResults.WithLabelValues(runID, "fail")))
	assert.Equal(t, 1.5, value(t, runDuration.WithLabelValues(runID)))
}

func TestPush(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotPath, gotBody = r.URL.Path, string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	RecordRun("push-run", types.Summary{Passed: 1}, time.Second)
	require.NoError(t, Push(context.Background(), srv.URL))
	assert.Equal(t, "/metrics/job/tfw", gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestPush_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := Push(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to push metrics"))
}
