package metrics

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/ngs-bits/tfw/types"
)

const (
	MetricsNamespace = "tfw"
	PushJobName      = "tfw"
)

// Debug logs every metric update.
var Debug bool

var (
	validResults         = []types.TestStatus{types.TestStatusPass, types.TestStatusFail, types.TestStatusSkip}
	nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	methodsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "methods_total",
		Help:      "Count of executed test methods",
	}, []string{
		"run_id",
		"case",
		"result",
	})

	failuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "failures_total",
		Help:      "Count of failed test methods by failure kind",
	}, []string{
		"run_id",
		"kind",
	})

	methodDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "method_duration_seconds",
		Help:      "Duration of test methods",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{
		"case",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Number of test methods per result of a run",
	}, []string{
		"run_id",
		"result",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of a test run",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordMethod records the outcome of a single test method.
func RecordMethod(runID string, result *types.TestResult) {
	if !isValidResult(result.Status) {
		log.Error("RecordMethod - invalid result", "result", result.Status)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "methods_total",
			"run_id", runID,
			"case", result.Case,
			"method", result.Method,
			"result", result.Status)
	}
	methodsTotal.WithLabelValues(runID, result.Case, string(result.Status)).Inc()
	methodDuration.WithLabelValues(result.Case).Observe(result.Duration.Seconds())
	if result.Status == types.TestStatusFail {
		failuresTotal.WithLabelValues(runID, string(result.Kind)).Inc()
	}
}

// RecordRun records the totals of a finished run.
func RecordRun(runID string, summary types.Summary, duration time.Duration) {
	runResults.WithLabelValues(runID, string(types.TestStatusPass)).Set(float64(summary.Passed))
	runResults.WithLabelValues(runID, string(types.TestStatusSkip)).Set(float64(summary.Skipped))
	runResults.WithLabelValues(runID, string(types.TestStatusFail)).Set(float64(summary.Failed))
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

// Push sends all registered metrics to a Prometheus pushgateway. A test binary
// exits right after the run, so its metrics are pushed instead of scraped.
// The run ID is already a label of the pushed series, so it is not used for
// grouping.
func Push(ctx context.Context, url string) error {
	err := push.New(url, PushJobName).
		Gatherer(prometheus.DefaultGatherer).
		PushContext(ctx)
	if err != nil {
		RecordErrorDetails("push", err)
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}

func isValidResult(result types.TestStatus) bool {
	return slices.Contains(validResults, result)
}
