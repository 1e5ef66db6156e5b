package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics holds all Prometheus collectors for the contentpilot backend.
var Metrics = struct {
	RequestDuration  *prometheus.HistogramVec
	DBPoolActive     prometheus.GaugeFunc
	DBPoolIdle       prometheus.GaugeFunc
	RequestsInFlight prometheus.Gauge
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	OutlierAnalyses  *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	EventsCreated    *prometheus.CounterVec
	EventsSynced     prometheus.Counter
}{}

// InitMetrics registers all Prometheus metrics. Call once at startup.
func InitMetrics(pool *pgxpool.Pool) {
	Metrics.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contentpilot_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Metrics.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "contentpilot_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	Metrics.CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contentpilot_cache_hits_total",
			Help: "Total Redis cache hits.",
		},
	)

	Metrics.CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contentpilot_cache_misses_total",
			Help: "Total Redis cache misses.",
		},
	)

	Metrics.OutlierAnalyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentpilot_outlier_analyses_total",
			Help: "Outlier analyses run, by result.",
		},
		[]string{"result"},
	)

	Metrics.AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "contentpilot_outlier_analysis_duration_seconds",
			Help:    "Duration of outlier analyses including YouTube fetches.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	Metrics.EventsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentpilot_calendar_events_created_total",
			Help: "Calendar events created, by source.",
		},
		[]string{"source"},
	)

	Metrics.EventsSynced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contentpilot_calendar_events_synced_total",
			Help: "Calendar events imported from Google Calendar.",
		},
	)

	// DB pool gauges read live stats from pgxpool
	if pool != nil {
		Metrics.DBPoolActive = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "contentpilot_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 {
				return float64(pool.Stat().AcquiredConns())
			},
		)

		Metrics.DBPoolIdle = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "contentpilot_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 {
				return float64(pool.Stat().IdleConns())
			},
		)

		prometheus.MustRegister(Metrics.DBPoolActive)
		prometheus.MustRegister(Metrics.DBPoolIdle)
	}

	prometheus.MustRegister(
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
		Metrics.CacheHits,
		Metrics.CacheMisses,
		Metrics.OutlierAnalyses,
		Metrics.AnalysisDuration,
		Metrics.EventsCreated,
		Metrics.EventsSynced,
	)
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if Metrics.RequestDuration == nil || c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next(); Fiber
		// returns slices backed by the fasthttp buffer which can be reused
		// or overwritten by handlers (especially fasthttpadaptor).
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint normalizes paths to avoid cardinality explosion.
func sanitizeEndpoint(path string) string {
	const events, channels = "/api/calendar/events/", "/api/channels/"
	switch {
	case strings.HasPrefix(path, events) && len(path) > len(events):
		if rest := path[len(events):]; rest == "range" {
			return path
		}
		return events + ":id"
	case strings.HasPrefix(path, channels) && len(path) > len(channels):
		if strings.HasSuffix(path, "/active") {
			return channels + ":id/active"
		}
		return channels + ":id"
	default:
		return path
	}
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}

// countCreated adds n to the created-events counter. No-op before InitMetrics.
func countCreated(source string, n int) {
	if Metrics.EventsCreated != nil && n > 0 {
		Metrics.EventsCreated.WithLabelValues(source).Add(float64(n))
	}
}

// observeAnalysis records one analysis run. No-op before InitMetrics.
func observeAnalysis(start time.Time, err error) {
	if Metrics.OutlierAnalyses == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	Metrics.OutlierAnalyses.WithLabelValues(result).Inc()
	Metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
}
