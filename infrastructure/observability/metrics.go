package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the bot.
// Methods are safe on a nil *Collector so callers never need to check.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Conversation metrics
	Intents *prometheus.CounterVec

	// Dispatch metrics
	Sweeps        prometheus.Counter
	SweepOutcomes *prometheus.CounterVec
	SweepDuration prometheus.Histogram
}

// NewCollector creates a collector on its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	intents := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_intents_total",
			Help:      "Chat messages by classified intent and result",
		},
		[]string{"intent", "result"},
	)

	sweeps := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_sweeps_total",
			Help:      "Total number of dispatch sweeps",
		},
	)

	sweepOutcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_reminders_total",
			Help:      "Due reminders handled by the dispatcher, by outcome",
		},
		[]string{"outcome"},
	)

	sweepDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_sweep_duration_seconds",
			Help:      "Dispatch sweep duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		intents,
		sweeps,
		sweepOutcomes,
		sweepDuration,
	)

	return &Collector{
		registry:      registry,
		HTTPRequests:  httpRequests,
		HTTPDuration:  httpDuration,
		Intents:       intents,
		Sweeps:        sweeps,
		SweepOutcomes: sweepOutcomes,
		SweepDuration: sweepDuration,
	}
}

// ObserveHTTP records one finished request
func (c *Collector) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveIntent records one routed chat message
func (c *Collector) ObserveIntent(intent string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.Intents.WithLabelValues(intent, result).Inc()
}

// ObserveSweep records the outcome counts of one dispatch sweep
func (c *Collector) ObserveSweep(delivered, skipped, failed int, duration time.Duration) {
	if c == nil {
		return
	}
	c.Sweeps.Inc()
	c.SweepOutcomes.WithLabelValues("delivered").Add(float64(delivered))
	c.SweepOutcomes.WithLabelValues("skipped").Add(float64(skipped))
	c.SweepOutcomes.WithLabelValues("failed").Add(float64(failed))
	c.SweepDuration.Observe(duration.Seconds())
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
