package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "activity"

// Collector exposes Prometheus metrics for HTTP traffic and detection sessions
type Collector struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	samplesIngested prometheus.Counter
	samplesDropped  prometheus.Counter
	events          *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	failedSaves     prometheus.Counter
}

// NewCollector constructs a collector on its own registry
func NewCollector() (*Collector, error) {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for inbound HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests.",
		}, []string{"method", "path", "status"}),
		samplesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "samples_ingested_total",
			Help:      "Location samples accepted into detection buffers.",
		}),
		samplesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "samples_dropped_total",
			Help:      "Location samples ignored as stale or duplicate.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "events_total",
			Help:      "Activity events by kind and activity type.",
		}, []string{"kind", "activity_type"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "active_sessions",
			Help:      "Devices with a running detection session.",
		}),
		failedSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "failed_saves_total",
			Help:      "Closed activities that could not be persisted.",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.requestDuration, c.requestTotal,
		c.samplesIngested, c.samplesDropped, c.events, c.activeSessions, c.failedSaves,
	} {
		if err := c.registry.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency, labelled by route template
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(ctx.Writer.Status())

		c.requestTotal.WithLabelValues(ctx.Request.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(ctx.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// SampleIngested counts one accepted or dropped sample
func (c *Collector) SampleIngested(accepted bool) {
	if accepted {
		c.samplesIngested.Inc()
	} else {
		c.samplesDropped.Inc()
	}
}

// ActivityEvent counts a detector event
func (c *Collector) ActivityEvent(kind, activityType string) {
	c.events.WithLabelValues(kind, activityType).Inc()
}

// SessionStarted increments the active sessions gauge
func (c *Collector) SessionStarted() { c.activeSessions.Inc() }

// SessionStopped decrements the active sessions gauge
func (c *Collector) SessionStopped() { c.activeSessions.Dec() }

// SaveFailed counts an activity lost to a persistence error
func (c *Collector) SaveFailed() { c.failedSaves.Inc() }
