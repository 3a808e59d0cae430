package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aiupd8"

// Metrics owns the site's collectors on a private registry so tests can build
// as many instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cmsFetches      *prometheus.CounterVec
	cmsDuration     *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	translations    *prometheus.CounterVec
	favoriteToggles *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		cmsFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cms_fetch_total",
			Help:      "Content fetches by kind and outcome (ok, error, fallback).",
		}, []string{"kind", "result"}),
		cmsDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cms_fetch_duration_seconds",
			Help:      "Upstream content fetch latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cms_cache_lookups_total",
			Help:      "Content cache lookups by kind and result (hit, miss).",
		}, []string{"kind", "result"}),
		translations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translate_requests_total",
			Help:      "Translation proxy calls by outcome.",
		}, []string{"result"}),
		favoriteToggles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "favorite_toggles_total",
			Help:      "Favourite toggles by project and new state.",
		}, []string{"project", "state"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(route, method string, status int, latency time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(latency.Seconds())
}

func (m *Metrics) ObserveFetch(kind, result string, latency time.Duration) {
	if m == nil {
		return
	}
	m.cmsFetches.WithLabelValues(kind, result).Inc()
	if latency > 0 {
		m.cmsDuration.WithLabelValues(kind).Observe(latency.Seconds())
	}
}

func (m *Metrics) CacheLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) Translation(result string) {
	if m == nil {
		return
	}
	m.translations.WithLabelValues(result).Inc()
}

func (m *Metrics) FavoriteToggled(project string, state bool) {
	if m == nil {
		return
	}
	m.favoriteToggles.WithLabelValues(project, strconv.FormatBool(state)).Inc()
}
