// ============================================================================
// backend/internal/metrics/metrics.go
// Prometheus counters for result writes, publication and bulk ingestion
// ============================================================================

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upsert outcomes
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeFailed  = "failed"
)

// Recorder owns a private registry so tests can create as many as they like.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry  *prometheus.Registry
	upserts   *prometheus.CounterVec
	published prometheus.Counter
	bulkRows  *prometheus.CounterVec
}

// New creates a recorder with process and Go runtime collectors attached.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		upserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "results",
			Name:      "upserts_total",
			Help:      "Result upserts by outcome.",
		}, []string{"outcome"}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "results",
			Name:      "published_total",
			Help:      "Results transitioned from unpublished to published.",
		}),
		bulkRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "results",
			Name:      "bulk_rows_total",
			Help:      "Bulk ingestion rows by outcome.",
		}, []string{"outcome"}),
	}

	r.registry.MustRegister(
		r.upserts,
		r.published,
		r.bulkRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Upsert counts one upsert with the given outcome.
func (r *Recorder) Upsert(outcome string) {
	if r == nil {
		return
	}
	r.upserts.WithLabelValues(outcome).Inc()
}

// Published counts n publish transitions.
func (r *Recorder) Published(n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.published.Add(float64(n))
}

// BulkRows counts processed and failed rows of one bulk call.
func (r *Recorder) BulkRows(processed, failed int) {
	if r == nil {
		return
	}
	r.bulkRows.WithLabelValues("processed").Add(float64(processed))
	r.bulkRows.WithLabelValues("failed").Add(float64(failed))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
