package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the application-level instruments.
type Metrics struct {
	FillEventsCreated *prometheus.CounterVec
	WebhookEvents     *prometheus.CounterVec
	PaymentIntents    *prometheus.CounterVec
	IntegrityFailures prometheus.Counter
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FillEventsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasworks_fill_events_created_total",
			Help: "Fill events recorded, by outcome.",
		}, []string{"outcome"}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasworks_webhook_events_total",
			Help: "Processor webhook events received, by type and outcome.",
		}, []string{"type", "outcome"}),
		PaymentIntents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasworks_payment_intents_total",
			Help: "External payment intents created, by outcome.",
		}, []string{"outcome"}),
		IntegrityFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gasworks_price_integrity_failures_total",
			Help: "Occurrences of more than one active price for a gas.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasworks_http_requests_total",
			Help: "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gasworks_http_request_duration_seconds",
			Help:    "HTTP request latency, by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.FillEventsCreated,
		m.WebhookEvents,
		m.PaymentIntents,
		m.IntegrityFailures,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// GinMiddleware records per-request counters and latency.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
