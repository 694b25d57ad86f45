package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultSkipped = "skipped"
	ResultInvalid = "invalid"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	Fetches        *prometheus.CounterVec
	RecordsFetched prometheus.Histogram
	StaleDropped   prometheus.Counter

	Downloads *prometheus.CounterVec
	SignIns   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chanlytics_http_requests_total",
				Help: "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chanlytics_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		Fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chanlytics_call_fetches_total",
				Help: "Call record fetches by result",
			},
			[]string{"result"},
		),
		RecordsFetched: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chanlytics_call_records_fetched",
				Help:    "Records returned per successful fetch",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		StaleDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chanlytics_stale_snapshots_dropped_total",
				Help: "Fetch results discarded because a newer fetch was issued",
			},
		),
		Downloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chanlytics_recording_downloads_total",
				Help: "Recording downloads by result",
			},
			[]string{"result"},
		),
		SignIns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chanlytics_sign_ins_total",
				Help: "Password sign-ins by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPLatency,
		m.Fetches,
		m.RecordsFetched,
		m.StaleDropped,
		m.Downloads,
		m.SignIns,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records count and latency per matched route.
// Unmatched paths are grouped under "unmatched" to keep cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPLatency.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ObserveFetch(err error, n int) {
	if m == nil {
		return
	}
	if err != nil {
		m.Fetches.WithLabelValues(ResultError).Inc()
		return
	}
	m.Fetches.WithLabelValues(ResultOK).Inc()
	m.RecordsFetched.Observe(float64(n))
}

func (m *Metrics) ObserveStale() {
	if m == nil {
		return
	}
	m.StaleDropped.Inc()
}

func (m *Metrics) ObserveDownload(result string) {
	if m == nil {
		return
	}
	m.Downloads.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveSignIn(result string) {
	if m == nil {
		return
	}
	m.SignIns.WithLabelValues(result).Inc()
}
