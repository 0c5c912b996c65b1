package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"

	namespace = "recurrence"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Recurring incident analyses handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Recurring incident analysis latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
	)

	correlatorCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "correlator_cache_total",
			Help:      "Request-scoped correlator cache lookups by cache and result.",
		},
		[]string{"cache", "result"},
	)

	ingestMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_messages_total",
			Help:      "Problem event messages consumed, partitioned by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register 注册全部采集器，重复注册不报错。
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		correlatorCacheTotal,
		ingestMessagesTotal,
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

func ObserveAnalysis(duration time.Duration, outcome string) {
	if outcome != OutcomeError {
		outcome = OutcomeSuccess
	}
	analysesTotal.WithLabelValues(outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

func ObserveCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	correlatorCacheTotal.WithLabelValues(cache, result).Inc()
}

func ObserveIngest(outcome string) {
	ingestMessagesTotal.WithLabelValues(outcome).Inc()
}
