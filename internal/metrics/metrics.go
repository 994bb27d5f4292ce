package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chaptr"

// Run metrics (incremented directly by the pipeline).
var (
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Chapter runs by outcome (engine, fallback, empty, cancelled, invalid).",
	}, []string{"outcome"})

	FallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallbacks_total",
		Help:      "Runs that used evenly spaced chapters, by reason.",
	}, []string{"reason"})

	EngineAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "engine_attempts_total",
		Help:      "Segmentation provider calls by result.",
	}, []string{"result"})

	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of a chapter run.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms → ~7m
	})

	ChaptersEmitted = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "chapters_emitted",
		Help:      "Number of chapters in each completed run.",
		Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
	})
)

// Watcher counters (incremented by the ingest watcher).
var (
	IngestFilesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_files_total",
		Help:      "Transcript files picked up from the watch directory, by status.",
	}, []string{"status"})

	PublishErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "publish_errors_total",
		Help:      "Failures of optional sinks (store, database, mqtt).",
	}, []string{"sink"})
)

func init() {
	prometheus.MustRegister(
		RunsTotal,
		FallbacksTotal,
		EngineAttemptsTotal,
		RunDuration,
		ChaptersEmitted,
		IngestFilesTotal,
		PublishErrorsTotal,
	)
}

// WriteFile writes every registered metric to path in the Prometheus text
// format, for pickup by node_exporter's textfile collector.
func WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
