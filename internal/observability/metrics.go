package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riskibarqy/player-scout/internal/domain/profile"
	"github.com/riskibarqy/player-scout/internal/platform/cache"
)

const metricsNamespace = "player_scout"

// Metrics owns a private registry so tests and multiple servers never collide
// on the global one.
type Metrics struct {
	registry *prometheus.Registry

	sourceExtractions *prometheus.CounterVec
	sourceDuration    *prometheus.HistogramVec
	resolves          *prometheus.CounterVec
	resolveDuration   prometheus.Histogram
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	auto := promauto.With(registry)

	return &Metrics{
		registry: registry,
		sourceExtractions: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "source",
			Name:      "extractions_total",
			Help:      "Extractions per source by outcome (ok, empty, failed).",
		}, []string{"source", "outcome"}),
		sourceDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "source",
			Name:      "extraction_duration_seconds",
			Help:      "Wall time of one source extraction.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}, []string{"source"}),
		resolves: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "resolve",
			Name:      "total",
			Help:      "Resolve calls by outcome.",
		}, []string{"outcome"}),
		resolveDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "resolve",
			Name:      "duration_seconds",
			Help:      "Wall time of a full resolve, extraction through upsert.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30, 60},
		}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status_code"}),
		httpDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func (m *Metrics) ObserveSource(source profile.Source, outcome string, elapsed time.Duration) {
	m.sourceExtractions.WithLabelValues(string(source), outcome).Inc()
	m.sourceDuration.WithLabelValues(string(source)).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveResolve(outcome string, elapsed time.Duration) {
	m.resolves.WithLabelValues(outcome).Inc()
	m.resolveDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// RegisterCacheStats exposes the counters of an in-process cache store under name.
func (m *Metrics) RegisterCacheStats(name string, store *cache.Store) {
	if store == nil {
		return
	}
	labels := prometheus.Labels{"cache": name}
	auto := promauto.With(m.registry)
	auto.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   metricsNamespace,
		Subsystem:   "cache",
		Name:        "hits_total",
		Help:        "Cache lookups served from memory.",
		ConstLabels: labels,
	}, func() float64 { return float64(store.Stats().Hits) })
	auto.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   metricsNamespace,
		Subsystem:   "cache",
		Name:        "misses_total",
		Help:        "Cache lookups that fell through to the loader.",
		ConstLabels: labels,
	}, func() float64 { return float64(store.Stats().Misses) })
	auto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Subsystem:   "cache",
		Name:        "entries",
		Help:        "Entries currently held.",
		ConstLabels: labels,
	}, func() float64 { return float64(store.Stats().Entries) })
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
