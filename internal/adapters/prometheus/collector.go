// Package prometheus exposes recommendation and HTTP metrics for scraping.
package prometheus

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emiliopalmerini/soilstab/internal/ports"
)

const namespace = "soilstab"

// Collector owns a private registry so tests and multiple servers never
// collide on the global one.
type Collector struct {
	registry        *prometheus.Registry
	recommendations *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	strength        *prometheus.HistogramVec
	cost            *prometheus.HistogramVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendations computed, by method and source.",
		}, []string{"method", "source", "eco_preferred"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Rejected input fields.",
		}, []string{"field"}),
		strength: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "predicted_strength_kpa",
			Help:      "Predicted unconfined compressive strength.",
			Buckets:   []float64{50, 100, 200, 400, 800, 1200, 1600, 2000},
		}, []string{"method"}),
		cost: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "estimated_cost",
			Help:      "Estimated treatment cost per cubic metre.",
			Buckets:   []float64{25, 50, 75, 100, 150, 200, 300},
		}, []string{"method"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.recommendations,
		c.rejections,
		c.strength,
		c.cost,
		c.requests,
		c.requestDuration,
	)
	return c
}

// Registry exposes the underlying registry for gathering in tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ExportRecommendation(ctx context.Context, m *ports.RecommendationMetrics) error {
	method := string(m.Method)
	c.recommendations.WithLabelValues(method, m.Source, strconv.FormatBool(m.EcoPreferred)).Inc()
	c.strength.WithLabelValues(method).Observe(m.PredictedStrengthKPa)
	c.cost.WithLabelValues(method).Observe(m.EstimatedCost)
	return nil
}

func (c *Collector) ExportRejection(ctx context.Context, fields []string) error {
	for _, f := range fields {
		c.rejections.WithLabelValues(f).Inc()
	}
	return nil
}

func (c *Collector) Close(ctx context.Context) error {
	return nil
}

// Observe records one served request. Route should be the matched pattern,
// not the raw path, to keep label cardinality bounded.
func (c *Collector) Observe(method, route string, code int, elapsed time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
