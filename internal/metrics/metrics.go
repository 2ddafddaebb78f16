// Package metrics defines the Prometheus instruments for the audit
// pipeline and database.
package metrics

import (
	"context"
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/trace"
)

// BusinessMetrics tracks audit pipeline outcomes.
type BusinessMetrics struct {
	AuditsTotal          *prometheus.CounterVec
	AuditDuration        *prometheus.HistogramVec
	EnrichmentsTotal     *prometheus.CounterVec
	ClaimsExtractedTotal prometheus.Counter
	InsightsPullsTotal   *prometheus.CounterVec
}

// NewBusinessMetrics registers and returns the pipeline instruments.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	return &BusinessMetrics{
		AuditsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audits_total",
			Help:      "Content audits processed, by status.",
		}, []string{"status"}),
		AuditDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audit_duration_seconds",
			Help:      "Time spent running one content audit.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		EnrichmentsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichments_total",
			Help:      "AI enrichment attempts, by status.",
		}, []string{"status"}),
		ClaimsExtractedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_extracted_total",
			Help:      "Fact-check claims extracted during enrichment.",
		}),
		InsightsPullsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insights_pulls_total",
			Help:      "Performance insight pulls, by source and status.",
		}, []string{"source", "status"}),
	}
}

// ObserveDurationWithExemplar records a duration and attaches the current
// trace ID as an exemplar when the context carries a sampled span.
func (m *BusinessMetrics) ObserveDurationWithExemplar(ctx context.Context, hist *prometheus.HistogramVec, seconds float64, status string) {
	obs := hist.WithLabelValues(status)
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsSampled() {
		if eo, ok := obs.(prometheus.ExemplarObserver); ok {
			eo.ObserveWithExemplar(seconds, prometheus.Labels{
				"trace_id": span.SpanContext().TraceID().String(),
			})
			return
		}
	}
	obs.Observe(seconds)
}

// DatabaseMetrics exports database/sql pool statistics.
type DatabaseMetrics struct {
	openConnections prometheus.Gauge
	inUse           prometheus.Gauge
	idle            prometheus.Gauge
	waitCount       prometheus.Gauge
}

// NewDatabaseMetrics registers and returns the pool gauges.
func NewDatabaseMetrics(namespace string) *DatabaseMetrics {
	return &DatabaseMetrics{
		openConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_open_connections",
			Help:      "Open connections in the pool.",
		}),
		inUse: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_in_use_connections",
			Help:      "Connections currently in use.",
		}),
		idle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_idle_connections",
			Help:      "Idle connections in the pool.",
		}),
		waitCount: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_wait_count",
			Help:      "Total connections waited for.",
		}),
	}
}

// UpdateDBStats refreshes the gauges from the pool. Call periodically.
func (m *DatabaseMetrics) UpdateDBStats(db *sql.DB) {
	stats := db.Stats()
	m.openConnections.Set(float64(stats.OpenConnections))
	m.inUse.Set(float64(stats.InUse))
	m.idle.Set(float64(stats.Idle))
	m.waitCount.Set(float64(stats.WaitCount))
}
