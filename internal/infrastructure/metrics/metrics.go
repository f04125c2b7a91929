package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mealsignal"

// Metrics records pipeline measurements on its own registry
type Metrics struct {
	registry *prometheus.Registry

	analyses       *prometheus.CounterVec
	productMatches *prometheus.CounterVec
	productCache   *prometheus.CounterVec
	widened        prometheus.Counter
	nudges         prometheus.Counter
	visionLatency  prometheus.Histogram
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New creates the collectors and registers them with Go and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Meal analyses by outcome.",
		}, []string{"outcome"}),
		productMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_matches_total",
			Help:      "Food database reconciliation outcomes.",
		}, []string{"outcome"}),
		productCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_cache_lookups_total",
			Help:      "Product search cache lookups by result.",
		}, []string{"result"}),
		widened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimates_widened_total",
			Help:      "Estimates whose ranges were widened for low confidence.",
		}),
		nudges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nudges_emitted_total",
			Help:      "Nudges newly recorded for users.",
		}),
		visionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vision_request_duration_seconds",
			Help:      "Latency of vision estimate calls.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.analyses,
		m.productMatches,
		m.productCache,
		m.widened,
		m.nudges,
		m.visionLatency,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AnalysisCompleted(outcome string) {
	m.analyses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) VisionDuration(d time.Duration) {
	m.visionLatency.Observe(d.Seconds())
}

func (m *Metrics) ProductMatch(outcome string) {
	m.productMatches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) EstimateWidened() {
	m.widened.Inc()
}

func (m *Metrics) ProductCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.productCache.WithLabelValues(result).Inc()
}

func (m *Metrics) NudgesEmitted(n int) {
	if n > 0 {
		m.nudges.Add(float64(n))
	}
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	}
	return "2xx"
}
