package reporting

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngs-bits/tfw/types"
)

func sampleResults() []*types.TestResult {
	return []*types.TestResult{
		{Case: "Demo", Method: "a", Status: types.TestStatusPass, Duration: 12 * time.Millisecond},
		{
			Case:   "Demo",
			Method: "b",
			Status: types.TestStatusFail,
			Kind:   types.FailureAssertion,
			Message: []string{
				"IS_TRUE(1 == 2) failed",
				"location : demo_test.go:12",
			},
			Duration: 3 * time.Millisecond,
		},
		{
			Case:     "Demo",
			Method:   "c",
			Status:   types.TestStatusSkip,
			Message:  []string{"message  : no database", "location : demo_test.go:20"},
			Duration: 0,
		},
	}
}

func TestStreamSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewStreamSink(&buf)

	for _, r := range sampleResults() {
		require.NoError(t, sink.Consume(r, "run"))
	}
	require.NoError(t, sink.Complete("run"))

	want := "PASS\tDemo::a()\t0.012s\n" +
		"FAIL!\tDemo::b()\t0.003s\n" +
		"  IS_TRUE(1 == 2) failed\n" +
		"  location : demo_test.go:12\n" +
		"SKIP\tDemo::c()\t0.000s\n" +
		"  message  : no database\n" +
		"  location : demo_test.go:20\n" +
		"\n" +
		"PASSED :   1\n" +
		"SKIPPED:   1\n" +
		"FAILED :   1\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, types.Summary{Passed: 1, Skipped: 1, Failed: 1}, sink.Summary())
}

func TestStreamSink_FlushesEveryResult(t *testing.T) {
	var buf bytes.Buffer
	sink := NewStreamSink(&buf)

	require.NoError(t, sink.Consume(sampleResults()[0], "run"))
	assert.Equal(t, "PASS\tDemo::a()\t0.012s\n", buf.String())
}

func TestStreamSink_MessageLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewStreamSink(&buf)

	require.NoError(t, sink.Consume(&types.TestResult{
		Case:    "Demo",
		Method:  "x",
		Status:  types.TestStatusFail,
		Message: []string{"", "exception: runtime error", "message  : boom\n\t second line  ", ""},
	}, "run"))

	assert.Equal(t, "FAIL!\tDemo::x()\t0.000s\n"+
		"  exception: runtime error\n"+
		"  message  : boom\n"+
		"  second line\n", buf.String())
}

func TestStreamSink_WideCounters(t *testing.T) {
	var buf bytes.Buffer
	sink := NewStreamSink(&buf)
	for range 1000 {
		require.NoError(t, sink.Consume(&types.TestResult{Case: "C", Method: "m", Status: types.TestStatusPass}, "run"))
	}
	buf.Reset()
	require.NoError(t, sink.Complete("run"))
	assert.Equal(t, "\nPASSED : 1000\nSKIPPED:   0\nFAILED :   0\n", buf.String())
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0.000s"},
		{1500 * time.Microsecond, "0.002s"},
		{12 * time.Millisecond, "0.012s"},
		{59*time.Second + 999*time.Millisecond, "59.999s"},
		{time.Minute, "1m 00.000s"},
		{62*time.Second + 500*time.Millisecond, "1m 02.500s"},
		{125 * time.Minute, "125m 00.000s"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatElapsed(tt.in))
		})
	}
}

func TestJSONSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "results.json")
	sink := NewJSONSink(path)

	for _, r := range sampleResults() {
		require.NoError(t, sink.Consume(r, "run-1"))
	}
	require.NoError(t, sink.Complete("run-1"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var report JSONReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, types.Summary{Passed: 1, Skipped: 1, Failed: 1}, report.Summary)
	require.Len(t, report.Results, 3)
	assert.Equal(t, "b", report.Results[1].Method)
	assert.Equal(t, types.FailureAssertion, report.Results[1].Kind)
	assert.Equal(t, 3*time.Millisecond, report.Results[1].Duration)
}

func TestJSONSink_EmptyRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	sink := NewJSONSink(path)
	require.NoError(t, sink.Complete("empty"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"results": []`)
}
