package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	llRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listingledger_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	llRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listingledger_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	llRecordsAppendedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listingledger_records_appended_total",
		Help: "Total ledger records appended.",
	})

	llRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "listingledger_records",
		Help: "Current number of records in the ledger, including genesis.",
	})

	llAuditChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listingledger_audit_checks_total",
		Help: "Total integrity audits by result.",
	}, []string{"result"})

	llVerifyCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listingledger_verify_cache_total",
		Help: "Verify requests answered from or missing the cache.",
	}, []string{"result"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		llRequestsTotal.WithLabelValues(method, path, status).Inc()
		llRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordAppend records a successful append and the new ledger length.
func RecordAppend(length int) {
	llRecordsAppendedTotal.Inc()
	llRecords.Set(float64(length))
}

// SetRecordsGauge sets the ledger length gauge.
func SetRecordsGauge(length int) {
	llRecords.Set(float64(length))
}

// RecordAuditCheck records an integrity audit result and refreshes the
// ledger length gauge.
func RecordAuditCheck(intact bool, records int) {
	SetRecordsGauge(records)
	if intact {
		llAuditChecksTotal.WithLabelValues("intact").Inc()
	} else {
		llAuditChecksTotal.WithLabelValues("broken").Inc()
	}
}

func recordVerifyCache(hit bool) {
	if hit {
		llVerifyCacheTotal.WithLabelValues("hit").Inc()
	} else {
		llVerifyCacheTotal.WithLabelValues("miss").Inc()
	}
}
