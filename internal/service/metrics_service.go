package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

// Run outcomes reported on substitute_runs_total.
const (
	RunOutcomeSuccess    = "success"
	RunOutcomeValidation = "validation_error"
	RunOutcomeState      = "state_error"
	RunOutcomeFailure    = "failure"
)

// MetricsService owns the Prometheus registry and keeps counters for the summary endpoint.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHitRatio   prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
	runsTotal       *prometheus.CounterVec
	slotsTotal      *prometheus.CounterVec
	runDuration     prometheus.Histogram

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	dbQueryCount         uint64
	dbQueryDurationTotal uint64
	runSuccessCount      uint64
	runFailureCount      uint64
	slotsFilledCount     uint64
	slotsUnfilledCount   uint64
}

// NewMetricsService registers the service collectors on a private registry.
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

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "substitute_runs_total",
		Help: "Substitute assignment runs by outcome",
	}, []string{"outcome"})

	slotsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "substitute_slots_total",
		Help: "Vacant slots processed by result",
	}, []string{"result"})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "substitute_run_duration_seconds",
		Help:    "Wall time of one assignment run including store loading",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHitRatio, cacheLookups, dbQueryDuration, runsTotal, slotsTotal, runDuration, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHitRatio:   cacheHitRatio,
		cacheLookups:    cacheLookups,
		dbQueryDuration: dbQueryDuration,
		runsTotal:       runsTotal,
		slotsTotal:      slotsTotal,
		runDuration:     runDuration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheLookup records a cache hit or miss and refreshes the hit ratio.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveRun records one assignment run. filled and unfilled are only counted on success.
func (m *MetricsService) ObserveRun(outcome string, filled, unfilled int, duration time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(duration.Seconds())
	if outcome != RunOutcomeSuccess {
		atomic.AddUint64(&m.runFailureCount, 1)
		return
	}
	atomic.AddUint64(&m.runSuccessCount, 1)
	m.slotsTotal.WithLabelValues("filled").Add(float64(filled))
	m.slotsTotal.WithLabelValues("unfilled").Add(float64(unfilled))
	atomic.AddUint64(&m.slotsFilledCount, uint64(filled))
	atomic.AddUint64(&m.slotsUnfilledCount, uint64(unfilled))
}

// Snapshot returns aggregated counters for the summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	dbCount := atomic.LoadUint64(&m.dbQueryCount)
	filled := atomic.LoadUint64(&m.slotsFilledCount)
	unfilled := atomic.LoadUint64(&m.slotsUnfilledCount)

	return models.SystemMetrics{
		RunsSucceeded:            atomic.LoadUint64(&m.runSuccessCount),
		RunsFailed:               atomic.LoadUint64(&m.runFailureCount),
		SlotsFilled:              filled,
		SlotsUnfilled:            unfilled,
		FillRate:                 ratio(filled, filled+unfilled),
		CacheHitRatio:            ratio(hits, hits+misses),
		RequestsTotal:            requests,
		AverageRequestDurationMs: average(atomic.LoadUint64(&m.requestDurationTotal), requests),
		AverageDBQueryDurationMs: average(atomic.LoadUint64(&m.dbQueryDurationTotal), dbCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func ratio(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func average(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}
