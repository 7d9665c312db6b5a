package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the platform's Prometheus collectors. One instance is
// created at startup and shared by the HTTP layer and the ledger engine.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	ledgerOps      *prometheus.CounterVec
	ledgerDuration *prometheus.HistogramVec
	ledgerVolume   *prometheus.CounterVec
	feesCollected  prometheus.Counter
}

// NewMetrics builds and registers all collectors on a private registry so
// tests can create as many instances as they like.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		ledgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger operations by type and outcome reason code.",
		}, []string{"type", "outcome"}),
		ledgerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Ledger operation latency by type.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"type"}),
		ledgerVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_volume_naira_total",
			Help: "Completed ledger volume in naira by transaction type.",
		}, []string{"type"}),
		feesCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_fees_naira_total",
			Help: "Fees and commissions collected in naira.",
		}),
	}

	reg.MustRegister(
		m.httpRequests, m.httpDuration,
		m.ledgerOps, m.ledgerDuration, m.ledgerVolume, m.feesCollected,
	)
	return m
}

// ObserveLedgerOp records one ledger operation outcome. outcome is "ok" for
// a commit or the rejection reason code otherwise.
func (m *Metrics) ObserveLedgerOp(opType, outcome string, amount, fee int64, elapsed time.Duration) {
	m.ledgerOps.WithLabelValues(opType, outcome).Inc()
	m.ledgerDuration.WithLabelValues(opType).Observe(elapsed.Seconds())
	if outcome == "ok" {
		m.ledgerVolume.WithLabelValues(opType).Add(float64(amount))
		m.feesCollected.Add(float64(fee))
	}
}

// Handler returns the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency per route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
