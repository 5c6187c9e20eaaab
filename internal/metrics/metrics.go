// Package metrics exposes Prometheus counters for CSV jobs and backend calls.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scentadmin"

// Job results.
const (
	ResultSucceeded = "succeeded"
	ResultEmpty     = "empty"
	ResultFailed    = "failed"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "transfer",
		Name:      "jobs_total",
		Help:      "Finished CSV exports and imports by kind, entity and result.",
	}, []string{"kind", "entity", "result"})

	jobRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "transfer",
		Name:      "rows_total",
		Help:      "Rows written by exports and sent by imports.",
	}, []string{"kind", "entity"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "transfer",
		Name:      "duration_seconds",
		Help:      "Wall time of CSV jobs.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"kind", "entity"})

	backendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "backend",
		Name:      "requests_total",
		Help:      "Requests sent to the catalog API by method and status class.",
	}, []string{"method", "status"})

	backendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "backend",
		Name:      "latency_seconds",
		Help:      "Latency of catalog API requests.",
		Buckets: []float64{
			0.005, 0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5, 10, 30,
		},
	}, []string{"method"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "backend",
		Name:      "cache_lookups_total",
		Help:      "Response cache lookups by result (hit or miss).",
	}, []string{"result"})
)

// ObserveJob records a finished export or import.
func ObserveJob(kind, entity, result string, rows int, d time.Duration) {
	jobsTotal.WithLabelValues(kind, entity, result).Inc()
	if rows > 0 {
		jobRows.WithLabelValues(kind, entity).Add(float64(rows))
	}
	jobDuration.WithLabelValues(kind, entity).Observe(d.Seconds())
}

// ObserveBackend records one backend round trip. status 0 means the request
// never got a response.
func ObserveBackend(method string, status int, d time.Duration) {
	backendRequests.WithLabelValues(method, StatusClass(status)).Inc()
	backendLatency.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveCache records a cache hit or miss.
func ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}

// StatusClass buckets an HTTP status as "2xx", "4xx" and so on.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
