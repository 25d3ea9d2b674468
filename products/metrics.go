package products

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sources reported by catalog_requests_total.
const (
	SourceResultCache = "result_cache"
	SourceStore       = "store"
	SourceUpstream    = "upstream"
	SourceFallback    = "fallback"
	SourceEmpty       = "empty"
)

// Metrics holds the catalog's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	requests         *prometheus.CounterVec
	upstreamFailures prometheus.Counter
	persistFailures  prometheus.Counter
}

// NewMetrics registers the catalog collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Product searches answered, by where the result came from.",
		}, []string{"source"}),
		upstreamFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "catalog_upstream_failures_total",
			Help: "Calls to the scraping service that failed.",
		}),
		persistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "catalog_persist_failures_total",
			Help: "Refreshed product sets that could not be written to the store.",
		}),
	}
}

func (m *Metrics) observeSource(source string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(source).Inc()
}

func (m *Metrics) upstreamFailed() {
	if m == nil {
		return
	}
	m.upstreamFailures.Inc()
}

func (m *Metrics) persistFailed() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}
