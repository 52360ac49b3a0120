package httpapi

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phishguard",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route, and status code.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "phishguard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds by method and route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phishguard",
			Name:      "evaluations_total",
			Help:      "Scored page evaluations by resulting action.",
		},
		[]string{"action"},
	)

	earlyWarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phishguard",
			Name:      "early_warnings_total",
			Help:      "Pre-navigation evaluations by outcome.",
		},
		[]string{"outcome"},
	)

	installedRules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "phishguard",
			Name:      "installed_filter_rules",
			Help:      "Filter rules currently installed in the engine.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		evaluationsTotal,
		earlyWarningsTotal,
		installedRules,
	)
}

// metricsMiddleware instruments every route with request counts and
// latency, keyed by the route pattern rather than the raw path.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// metricsHandler serves the Prometheus scrape endpoint.
func metricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
