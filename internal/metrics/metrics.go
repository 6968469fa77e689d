package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DocumentsProcessed counts pipeline runs by terminal outcome.
	DocumentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsentry_documents_processed_total",
		Help: "Pipeline runs by terminal outcome.",
	}, []string{"outcome"})

	// StageDuration observes wall time per pipeline stage.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docsentry_stage_duration_seconds",
		Help:    "Wall time spent in each pipeline stage.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"stage"})

	// DetectedItems counts sensitive items found across completed analyses.
	DetectedItems = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docsentry_detected_items_total",
		Help: "Sensitive items found across completed analyses.",
	})

	// DocumentsIngested counts accepted uploads by source.
	DocumentsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsentry_documents_ingested_total",
		Help: "Accepted uploads by ingest source.",
	}, []string{"source"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsentry_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docsentry_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// Middleware records request counts and latency per route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		method := c.Method()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
		return err
	}
}
