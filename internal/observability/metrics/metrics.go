package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "feedboard_"

	resultSuccess = "success"
	resultError   = "error"

	cacheHit         = "hit"
	cacheMiss        = "miss"
	cacheInvalidated = "invalidated"
)

var (
	registerOnce sync.Once

	loadRequests *prometheus.CounterVec
	loadLatency  *prometheus.HistogramVec

	cacheEvents *prometheus.CounterVec
	rowsDropped *prometheus.CounterVec

	renderTotal   *prometheus.CounterVec
	renderLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers observability metrics.
func Init() {
	registerOnce.Do(func() {
		loadRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "load_requests_total",
				Help: "Total source loads by source and result",
			},
			[]string{"source", "result"},
		)
		loadLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "load_latency_seconds",
				Help:    "Source load latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source", "result"},
		)

		cacheEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cache_events_total",
				Help: "Snapshot cache events by kind",
			},
			[]string{"event"},
		)
		rowsDropped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rows_dropped_total",
				Help: "Rows dropped before filtering, by reason",
			},
			[]string{"reason"},
		)

		renderTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "render_total",
				Help: "Total dashboard render passes by outcome",
			},
			[]string{"outcome"},
		)
		renderLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "render_latency_seconds",
				Help:    "Dashboard render latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			loadRequests,
			loadLatency,
			cacheEvents,
			rowsDropped,
			renderTotal,
			renderLatency,
			exportTotal,
			exportLatency,
		)
	})
}

// ObserveLoad records a source load duration and result.
func ObserveLoad(source, result string, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if loadRequests != nil {
		loadRequests.WithLabelValues(source, result).Inc()
	}
	if loadLatency != nil {
		loadLatency.WithLabelValues(source, result).Observe(duration.Seconds())
	}
}

// IncCacheEvent increments a snapshot cache event counter.
func IncCacheEvent(event string) {
	if event == "" {
		event = "unknown"
	}
	if cacheEvents != nil {
		cacheEvents.WithLabelValues(event).Inc()
	}
}

// AddRowsDropped increments the dropped-row counter by count.
func AddRowsDropped(reason string, count int) {
	if count <= 0 {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	if rowsDropped != nil {
		rowsDropped.WithLabelValues(reason).Add(float64(count))
	}
}

// ObserveRender records a render pass duration and outcome.
func ObserveRender(outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = resultSuccess
	}
	if renderTotal != nil {
		renderTotal.WithLabelValues(outcome).Inc()
	}
	if renderLatency != nil {
		renderLatency.WithLabelValues(outcome).Observe(duration.Seconds())
	}
}

// ObserveExport records an export duration, format and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	CacheHit         = cacheHit
	CacheMiss        = cacheMiss
	CacheInvalidated = cacheInvalidated
)
