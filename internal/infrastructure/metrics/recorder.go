// Package metrics expone las métricas Prometheus del ledger.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/internal/domain/entity"
)

var _ inventory.Recorder = (*Recorder)(nil)

// Recorder implementa inventory.Recorder sobre un registry propio.
type Recorder struct {
	registry  *prometheus.Registry
	committed *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	pubFailed prometheus.Counter
}

// NewRecorder registra las métricas (y las del runtime de Go) en un registry nuevo.
func NewRecorder(namespace string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		committed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_movements_committed_total",
			Help:      "Movimientos confirmados por tipo.",
		}, []string{"type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_movements_rejected_total",
			Help:      "Movimientos rechazados por tipo y motivo.",
		}, []string{"type", "reason"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_movement_duration_seconds",
			Help:      "Duración de la transacción del ledger.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		pubFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_publish_failures_total",
			Help:      "Movimientos confirmados que no se pudieron publicar.",
		}),
	}
	r.registry.MustRegister(
		r.committed, r.rejected, r.latency, r.pubFailed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) MovementCommitted(t entity.MovementType, elapsed time.Duration) {
	r.committed.WithLabelValues(string(t)).Inc()
	r.latency.WithLabelValues(string(t)).Observe(elapsed.Seconds())
}

func (r *Recorder) MovementRejected(t entity.MovementType, reason string) {
	r.rejected.WithLabelValues(string(t), reason).Inc()
}

func (r *Recorder) PublishFailed() { r.pubFailed.Inc() }

// Registry para tests y para registrar colectores adicionales.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler sirve /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
