package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks route configuration and route cache behaviour.
type Metrics struct {
	RoutesConfigured prometheus.Counter
	RouteLookups     *prometheus.CounterVec
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	CacheErrors      prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RoutesConfigured: factory.NewCounter(prometheus.CounterOpts{
			Name: "filetrack_routes_configured_total",
			Help: "Number of route configurations saved",
		}),
		RouteLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "filetrack_route_lookups_total",
			Help: "Route lookups by outcome (found, not_found, error)",
		}, []string{"outcome"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "filetrack_route_cache_hits_total",
			Help: "Route lookups served from the cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "filetrack_route_cache_misses_total",
			Help: "Route lookups that fell through to the backing store",
		}),
		CacheErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "filetrack_route_cache_errors_total",
			Help: "Cache operations that failed and were bypassed",
		}),
	}
}

func (m *Metrics) IncRoutesConfigured() {
	if m == nil {
		return
	}
	m.RoutesConfigured.Inc()
}

func (m *Metrics) IncLookup(outcome string) {
	if m == nil {
		return
	}
	m.RouteLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) IncCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

func (m *Metrics) IncCacheError() {
	if m == nil {
		return
	}
	m.CacheErrors.Inc()
}
