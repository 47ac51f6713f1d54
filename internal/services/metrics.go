package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Assessment pipeline
	Assessments        *prometheus.CounterVec // by agent_type, source
	AssessmentDuration prometheus.Histogram

	// Narrative generation
	AICallDuration   prometheus.Histogram
	ProviderFailures prometheus.Counter
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter

	// Aggregation + alerting
	AlertsRaised             prometheus.Counter
	AggregateInconsistencies prometheus.Counter
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		Assessments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "complians_assessments_total",
			Help: "Total number of assessments processed, by agent type and verdict source",
		}, []string{"agent_type", "source"}),

		AssessmentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "complians_assessment_duration_seconds",
			Help:    "End-to-end assessment pipeline latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 15, 30},
		}),

		AICallDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "complians_ai_call_duration_seconds",
			Help:    "AI provider call latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15},
		}),

		ProviderFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "complians_provider_failures_total",
			Help: "Total number of AI provider failures recovered by the template fallback",
		}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "complians_narrative_cache_hits_total",
			Help: "Total number of narrative cache hits",
		}),

		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "complians_narrative_cache_misses_total",
			Help: "Total number of narrative cache misses",
		}),

		AlertsRaised: promauto.NewCounter(prometheus.CounterOpts{
			Name: "complians_alerts_raised_total",
			Help: "Total number of red-flag alerts raised by the aggregator",
		}),

		AggregateInconsistencies: promauto.NewCounter(prometheus.CounterOpts{
			Name: "complians_aggregate_inconsistencies_total",
			Help: "Stored aggregate snapshots found to disagree with a fresh recompute",
		}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance (may be nil before init,
// e.g. in tests — the observer methods below tolerate that)
func GetMetrics() *Metrics {
	return globalMetrics
}

// ObserveAssessment records one completed pipeline run
func (m *Metrics) ObserveAssessment(agentType, source string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Assessments.WithLabelValues(agentType, source).Inc()
	m.AssessmentDuration.Observe(duration.Seconds())
}

// ObserveAICall records an AI provider call; failures also count toward the
// fallback counter
func (m *Metrics) ObserveAICall(duration time.Duration, ok bool) {
	if m == nil {
		return
	}
	m.AICallDuration.Observe(duration.Seconds())
	if !ok {
		m.ProviderFailures.Inc()
	}
}

// ObserveCache records a cache lookup outcome
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

// ObserveAlertRaised records one automatic alert
func (m *Metrics) ObserveAlertRaised() {
	if m == nil {
		return
	}
	m.AlertsRaised.Inc()
}

// ObserveInconsistency records one aggregate snapshot drift detection
func (m *Metrics) ObserveInconsistency() {
	if m == nil {
		return
	}
	m.AggregateInconsistencies.Inc()
}
