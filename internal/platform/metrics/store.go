// Package metrics expone métricas Prometheus de las operaciones contra la tabla.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics cuenta y mide cada primitiva del store (scan, get, put, update, delete).
type StoreMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	fallbacks  prometheus.Counter
}

// NewStoreMetrics crea y registra las métricas en reg.
func NewStoreMetrics(reg prometheus.Registerer, backend string) (*StoreMetrics, error) {
	constLabels := prometheus.Labels{"backend": backend}

	m := &StoreMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "animals_store_operations_total",
				Help:        "Total number of record store operations",
				ConstLabels: constLabels,
			},
			[]string{"operation", "status"}, // status: success, error
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "animals_store_operation_duration_seconds",
				Help:        "Time taken by record store operations",
				ConstLabels: constLabels,
				Buckets:     prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"operation"},
		),
		fallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "animals_id_allocator_fallbacks_total",
				Help:        "Times the id allocator fell back to the default id after a failed scan",
				ConstLabels: constLabels,
			},
		),
	}

	for _, c := range []prometheus.Collector{m.operations, m.duration, m.fallbacks} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe registra una operación. Un *StoreMetrics nil no hace nada.
func (m *StoreMetrics) Observe(operation string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.operations.WithLabelValues(operation, status).Inc()
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// AllocatorFallback cuenta una caída del allocator al id por defecto.
func (m *StoreMetrics) AllocatorFallback(error) {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}
