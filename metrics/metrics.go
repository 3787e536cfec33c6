package metrics

import (
	"net/http"
	"strconv"
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
			Namespace: "invest_ledger",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invest_ledger",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invest_ledger",
			Subsystem: "balance",
			Name:      "mutations_total",
			Help:      "Balance mutations by ledger entry type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	consistencyFaults = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "invest_ledger",
			Subsystem: "balance",
			Name:      "consistency_faults_total",
			Help:      "Balance invariant violations detected. Any non-zero value must alert.",
		},
	)

	accrualItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invest_ledger",
			Subsystem: "accrual",
			Name:      "items_total",
			Help:      "Investments handled by the accrual driver, by outcome.",
		},
		[]string{"outcome"},
	)

	accrualDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "invest_ledger",
			Subsystem: "accrual",
			Name:      "run_duration_seconds",
			Help:      "Duration of accrual driver runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		mutations,
		consistencyFaults,
		accrualItems,
		accrualDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route template.
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
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func RecordMutation(entryType, outcome string) {
	mutations.WithLabelValues(entryType, outcome).Inc()
}

func RecordConsistencyFault() {
	consistencyFaults.Inc()
}

func RecordAccrualItem(outcome string) {
	accrualItems.WithLabelValues(outcome).Inc()
}

func RecordAccrualRun(d time.Duration) {
	accrualDuration.Observe(d.Seconds())
}
