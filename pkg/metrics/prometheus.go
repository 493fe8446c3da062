package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus records engine events as Prometheus counters.
type Prometheus struct {
	registry *prometheus.Registry

	ParameterChanges     *prometheus.CounterVec
	PropagationsApplied  *prometheus.CounterVec
	PropagationsSkipped  *prometheus.CounterVec
	ExpressionFailures   *prometheus.CounterVec
	ValidationsCompleted *prometheus.CounterVec
	CacheLookups         *prometheus.CounterVec
}

// NewPrometheus creates the counters and registers them on a dedicated
// registry, so several instances can coexist in one process.
func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = "formengine"
	}
	m := &Prometheus{registry: prometheus.NewRegistry()}

	m.ParameterChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parameter_changes_total",
			Help:      "Total number of tracked parameter value changes",
		},
		[]string{"form", "event_type"},
	)
	m.PropagationsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "propagations_applied_total",
			Help:      "Total number of dependency edges applied",
		},
		[]string{"dependency_type"},
	)
	m.PropagationsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "propagations_skipped_total",
			Help:      "Total number of dependency edges skipped",
		},
		[]string{"reason"},
	)
	m.ExpressionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expression_failures_total",
			Help:      "Total number of expression evaluation failures",
		},
		[]string{"site"},
	)
	m.ValidationsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Total number of form validations",
		},
		[]string{"form", "valid"},
	)
	m.CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Total number of resolver cache lookups",
		},
		[]string{"cache", "result"},
	)

	m.registry.MustRegister(
		m.ParameterChanges,
		m.PropagationsApplied,
		m.PropagationsSkipped,
		m.ExpressionFailures,
		m.ValidationsCompleted,
		m.CacheLookups,
	)
	return m
}

func (m *Prometheus) ParameterChanged(formID, eventType string) {
	m.ParameterChanges.WithLabelValues(formID, eventType).Inc()
}

func (m *Prometheus) PropagationApplied(dependencyType string) {
	m.PropagationsApplied.WithLabelValues(dependencyType).Inc()
}

func (m *Prometheus) PropagationSkipped(reason string) {
	m.PropagationsSkipped.WithLabelValues(reason).Inc()
}

func (m *Prometheus) ExpressionFailed(site string) {
	m.ExpressionFailures.WithLabelValues(site).Inc()
}

func (m *Prometheus) ValidationCompleted(formID string, valid bool) {
	m.ValidationsCompleted.WithLabelValues(formID, strconv.FormatBool(valid)).Inc()
}

func (m *Prometheus) CacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}

// Gatherer exposes the dedicated registry.
func (m *Prometheus) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Handler serves the recorded metrics in the Prometheus exposition format.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
