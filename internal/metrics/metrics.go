package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels analyses that produced a result.
	OutcomeSuccess = "success"
	// OutcomeError labels analyses that failed (missing event or dependency issues).
	OutcomeError = "error"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "causegraph",
			Name:      "analyses_total",
			Help:      "Total number of correlation analyses handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "causegraph",
			Name:      "analysis_seconds",
			Help:      "Correlation analysis latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 10},
		},
	)

	channelFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "causegraph",
			Name:      "channel_failures_total",
			Help:      "Correlation channel failures absorbed during fan-out, partitioned by channel.",
		},
		[]string{"channel"},
	)

	rootCauseAnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "causegraph",
			Name:      "root_cause_analyses_total",
			Help:      "Total number of root-cause analyses, partitioned by terminal status.",
		},
		[]string{"status"},
	)
)

// Register attaches causegraph collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		channelFailuresTotal,
		rootCauseAnalysesTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records a correlation analysis duration and outcome label.
func ObserveAnalysis(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	analysesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

// ObserveChannelFailure counts an absorbed correlation channel failure.
func ObserveChannelFailure(channel string) {
	channelFailuresTotal.WithLabelValues(channel).Inc()
}

// ObserveRootCause counts a terminal root-cause analysis by status.
func ObserveRootCause(status string) {
	rootCauseAnalysesTotal.WithLabelValues(status).Inc()
}
