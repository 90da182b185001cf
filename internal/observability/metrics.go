package observability

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Attempt outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

var (
	registerOnce sync.Once

	convertAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meshu3d",
			Subsystem: "convert",
			Name:      "attempts_total",
			Help:      "Converter strategy attempts by outcome.",
		},
		[]string{"strategy", "outcome"},
	)
	convertDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "meshu3d",
			Subsystem: "convert",
			Name:      "duration_seconds",
			Help:      "Converter strategy wall time in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"strategy"},
	)
	placeholders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meshu3d",
			Name:      "placeholder_total",
			Help:      "Placeholder files written because real conversion failed.",
		},
		[]string{"kind"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(convertAttempts, convertDuration, placeholders)
	})
}

func RecordConvertAttempt(strategy, outcome string, duration time.Duration) {
	RegisterMetrics()
	convertAttempts.WithLabelValues(strategy, outcome).Inc()
	if outcome != OutcomeSkipped {
		convertDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	}
}

func RecordPlaceholder(kind string) {
	RegisterMetrics()
	placeholders.WithLabelValues(kind).Inc()
}

// WriteTextfile dumps the default registry in the node-exporter textfile
// format. An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	RegisterMetrics()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
