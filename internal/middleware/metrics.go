package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics holds all Prometheus metrics
type PrometheusMetrics struct {
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec
	HttpRequestSize     *prometheus.HistogramVec
	HttpResponseSize    *prometheus.HistogramVec

	// Upstream fetch metrics
	FetchTotal    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	FetchRows     *prometheus.CounterVec
	FetchErrors   *prometheus.CounterVec

	// Source load metrics
	LoadTotal      *prometheus.CounterVec
	LoadDuration   *prometheus.HistogramVec
	LoadDataframes *prometheus.CounterVec
}

var (
	metrics *PrometheusMetrics
)

// InitMetrics registers all metrics with reg, or the default registry when reg is nil
func InitMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	metrics = &PrometheusMetrics{
		// HTTP request metrics
		HttpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dfgw_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HttpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dfgw_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		HttpRequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dfgw_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "endpoint"},
		),
		HttpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dfgw_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "endpoint"},
		),

		// Upstream fetch metrics
		FetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dfgw_fetch_total",
				Help: "Total number of upstream fetches",
			},
			[]string{"parser", "status"},
		),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dfgw_fetch_duration_seconds",
				Help:    "Upstream fetch time in seconds, parsing included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"parser"},
		),
		FetchRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dfgw_fetch_rows_total",
				Help: "Total number of rows parsed from upstream responses",
			},
			[]string{"parser"},
		),
		FetchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dfgw_fetch_errors_total",
				Help: "Total number of failed fetches by error kind",
			},
			[]string{"kind"},
		),

		// Source load metrics
		LoadTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dfgw_load_total",
				Help: "Total number of source loads",
			},
			[]string{"source_type", "status"},
		),
		LoadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dfgw_load_duration_seconds",
				Help:    "Source load time in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source_type"},
		),
		LoadDataframes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dfgw_load_dataframes_total",
				Help: "Total number of dataframes returned by source loads",
			},
			[]string{"source_type"},
		),
	}
}

// PrometheusMiddleware is a Gin middleware that records HTTP metrics
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}

		// Start timer
		start := time.Now()

		// Process request
		c.Next()

		// Calculate metrics
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		endpoint := c.FullPath()

		if endpoint == "" {
			endpoint = "unmatched"
		}

		// Record metrics
		metrics.HttpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		metrics.HttpRequestDuration.WithLabelValues(method, endpoint).Observe(duration)

		// Record request size if available
		if c.Request.ContentLength > 0 {
			metrics.HttpRequestSize.WithLabelValues(method, endpoint).Observe(float64(c.Request.ContentLength))
		}

		// Record response size if available
		if c.Writer.Size() > 0 {
			metrics.HttpResponseSize.WithLabelValues(method, endpoint).Observe(float64(c.Writer.Size()))
		}
	}
}

// RecordFetchMetrics records one upstream fetch
func RecordFetchMetrics(parser, status string, duration time.Duration, rows int) {
	if metrics == nil {
		return
	}

	metrics.FetchTotal.WithLabelValues(parser, status).Inc()
	metrics.FetchDuration.WithLabelValues(parser).Observe(duration.Seconds())

	if status == "success" && rows > 0 {
		metrics.FetchRows.WithLabelValues(parser).Add(float64(rows))
	}
}

// RecordFetchError records a failed fetch by error kind
func RecordFetchError(kind string) {
	if metrics == nil {
		return
	}

	metrics.FetchErrors.WithLabelValues(kind).Inc()
}

// RecordLoadMetrics records one source load
func RecordLoadMetrics(sourceType, status string, duration time.Duration, dataframes int) {
	if metrics == nil {
		return
	}

	metrics.LoadTotal.WithLabelValues(sourceType, status).Inc()
	metrics.LoadDuration.WithLabelValues(sourceType).Observe(duration.Seconds())

	if dataframes > 0 {
		metrics.LoadDataframes.WithLabelValues(sourceType).Add(float64(dataframes))
	}
}

// FetchRecorder forwards fetch outcomes to the global metrics
type FetchRecorder struct{}

func (FetchRecorder) RecordFetch(parser, status string, duration time.Duration, rows int) {
	RecordFetchMetrics(parser, status, duration, rows)
}

func (FetchRecorder) RecordFetchError(kind string) {
	RecordFetchError(kind)
}
