package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	wsConnections   prometheus.Gauge
	wsEvents        *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	cleanupSwept    *prometheus.CounterVec
}

// NewMetricsService registers the service's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	wsConnections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections",
		Help: "Currently connected websocket clients",
	})

	wsEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_events_total",
		Help: "Broadcast websocket events by name",
	}, []string{"event"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	cleanupSwept := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cleanup_swept_rows_total",
		Help: "Rows removed by the cleanup job by entity",
	}, []string{"entity"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, wsConnections, wsEvents, cacheHits, cacheMisses, cleanupSwept, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		wsConnections:   wsConnections,
		wsEvents:        wsEvents,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		cleanupSwept:    cleanupSwept,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one request's duration and count.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// WebsocketConnected tracks a client joining or leaving the hub.
func (s *MetricsService) WebsocketConnected(delta int) {
	s.wsConnections.Add(float64(delta))
}

// RecordBroadcast counts an outgoing event fan-out.
func (s *MetricsService) RecordBroadcast(event string) {
	s.wsEvents.WithLabelValues(event).Inc()
}

// RecordCacheLookup tallies cache hit/miss counters.
func (s *MetricsService) RecordCacheLookup(hit bool) {
	if hit {
		s.cacheHits.Inc()
		return
	}
	s.cacheMisses.Inc()
}

// RecordCleanup counts swept rows per entity.
func (s *MetricsService) RecordCleanup(entity string, count int64) {
	s.cleanupSwept.WithLabelValues(entity).Add(float64(count))
}
