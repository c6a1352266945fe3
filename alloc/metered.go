package alloc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wippyai/colvec"
	"github.com/wippyai/colvec/internal/unsafex"
)

// Operation label values.
const (
	OpAllocate   = "allocate"
	OpGrow       = "grow"
	OpDeallocate = "deallocate"
)

// Metered records allocator traffic as Prometheus metrics.
//
// Every metric carries an "allocator" label with the name given to
// NewMetered:
//
//	colvec_alloc_operations_total{op}  calls that succeeded
//	colvec_alloc_failures_total{op}    calls that returned an error
//	colvec_alloc_moves_total           grows that returned a new region
//	colvec_alloc_live_bytes            bytes currently outstanding
//	colvec_alloc_request_bytes         histogram of requested sizes
type Metered struct {
	inner      colvec.Allocator
	operations *prometheus.CounterVec
	failures   *prometheus.CounterVec
	moves      prometheus.Counter
	live       prometheus.Gauge
	requests   prometheus.Histogram
}

var _ colvec.Allocator = (*Metered)(nil)

// NewMetered wraps inner and registers its metrics with reg. A nil reg
// leaves the metrics unregistered. Registering two allocators with the same
// name on one registry panics.
func NewMetered(inner colvec.Allocator, reg prometheus.Registerer, name string) *Metered {
	if reg != nil {
		reg = prometheus.WrapRegistererWith(prometheus.Labels{"allocator": name}, reg)
	}
	f := promauto.With(reg)

	return &Metered{
		inner: inner,
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "colvec",
			Subsystem: "alloc",
			Name:      "operations_total",
			Help:      "Allocator calls that succeeded.",
		}, []string{"op"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "colvec",
			Subsystem: "alloc",
			Name:      "failures_total",
			Help:      "Allocator calls that returned an error.",
		}, []string{"op"}),
		moves: f.NewCounter(prometheus.CounterOpts{
			Namespace: "colvec",
			Subsystem: "alloc",
			Name:      "moves_total",
			Help:      "Grow calls that returned a different region.",
		}),
		live: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "colvec",
			Subsystem: "alloc",
			Name:      "live_bytes",
			Help:      "Bytes currently outstanding.",
		}),
		requests: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "colvec",
			Subsystem: "alloc",
			Name:      "request_bytes",
			Help:      "Requested allocation sizes.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
		}),
	}
}

func (m *Metered) Allocate(l colvec.AllocLayout) ([]byte, error) {
	m.requests.Observe(float64(l.Size))
	b, err := m.inner.Allocate(l)
	if err != nil {
		m.failures.WithLabelValues(OpAllocate).Inc()
		return nil, err
	}
	m.operations.WithLabelValues(OpAllocate).Inc()
	m.live.Add(float64(l.Size))
	return b, nil
}

func (m *Metered) Grow(b []byte, old, next colvec.AllocLayout) ([]byte, error) {
	m.requests.Observe(float64(next.Size))
	nb, err := m.inner.Grow(b, old, next)
	if err != nil {
		m.failures.WithLabelValues(OpGrow).Inc()
		return nil, err
	}
	m.operations.WithLabelValues(OpGrow).Inc()
	if unsafex.Addr(nb) != unsafex.Addr(b) {
		m.moves.Inc()
	}
	m.live.Add(float64(next.Size - old.Size))
	return nb, nil
}

func (m *Metered) Deallocate(b []byte, l colvec.AllocLayout) {
	m.inner.Deallocate(b, l)
	m.operations.WithLabelValues(OpDeallocate).Inc()
	m.live.Sub(float64(l.Size))
}
