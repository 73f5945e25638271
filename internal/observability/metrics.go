package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	procedureLatency       *prometheus.HistogramVec
	documentsStagedTotal   prometheus.Counter
	documentsRejectedTotal *prometheus.CounterVec
	catalogCacheTotal      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alumnos_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alumnos_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alumnos_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		procedureLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alumnos_procedure_latency_seconds",
			Help:    "Latency of stored procedure calls including connection acquisition.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"procedure", "outcome"})

		documentsStagedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alumnos_documents_staged_total",
			Help: "Number of uploaded documents written to storage and staged for a write.",
		})

		documentsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alumnos_documents_rejected_total",
			Help: "Number of uploaded documents rejected before staging.",
		}, []string{"reason"})

		catalogCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alumnos_catalog_cache_total",
			Help: "Catalog cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			procedureLatency,
			documentsStagedTotal,
			documentsRejectedTotal,
			catalogCacheTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// ProcedureLatency exposes the stored procedure latency histogram.
func ProcedureLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return procedureLatency
}

// DocumentsStaged exposes the counter of staged documents.
func DocumentsStaged() prometheus.Counter {
	RegisterMetrics()
	return documentsStagedTotal
}

// DocumentsRejected exposes the counter of rejected documents.
func DocumentsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return documentsRejectedTotal
}

// CatalogCache exposes the catalog cache hit/miss counter.
func CatalogCache() *prometheus.CounterVec {
	RegisterMetrics()
	return catalogCacheTotal
}
