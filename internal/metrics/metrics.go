package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resale",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resale",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	SalesRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "resale",
			Name:      "sales_recorded_total",
			Help:      "Sales committed by the sale engine.",
		},
	)

	SaleConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "resale",
			Name:      "sale_conflicts_total",
			Help:      "Sale attempts rejected because the unit was already sold.",
		},
	)

	AuditWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "resale",
			Name:      "audit_write_failures_total",
			Help:      "Audit entries that could not be written.",
		},
	)

	QuoteTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resale",
			Name:      "quote_transitions_total",
			Help:      "Trade-in quote status changes, by target status.",
		},
		[]string{"status"},
	)

	TicketTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resale",
			Name:      "ticket_transitions_total",
			Help:      "Repair ticket status changes, by target status.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		SalesRecorded,
		SaleConflicts,
		AuditWriteFailures,
		QuoteTransitions,
		TicketTransitions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := strings.ToUpper(c.Request.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
