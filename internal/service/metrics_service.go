package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/lms-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the maintenance jobs.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	cacheWrite       prometheus.Observer
	runDuration      *prometheus.HistogramVec
	offeringOutcomes *prometheus.CounterVec
	sectionsCreated  prometheus.Counter
	enrollmentsMoved prometheus.Counter
	codeAttempts     prometheus.Histogram
	codeExhaustions  prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
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

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_cache_lookups_total",
		Help: "Maintenance report cache lookups by result",
	}, []string{"result"})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "report_cache_write_seconds",
		Help:    "Latency for maintenance report cache writes",
		Buckets: prometheus.DefBuckets,
	})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "maintenance_run_duration_seconds",
		Help:    "Duration of maintenance runs",
		Buckets: []float64{.1, .5, 1, 5, 15, 60, 300},
	}, []string{"kind"})

	offeringOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_offerings_total",
		Help: "Subject offerings processed by the reconciler by outcome",
	}, []string{"outcome"})

	sectionsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_sections_created_total",
		Help: "Default sections created for orphaned offerings",
	})

	enrollmentsMoved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_enrollments_rewritten_total",
		Help: "Enrollments whose section reference was rewritten",
	})

	codeAttempts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "enrollment_code_attempts",
		Help:    "Candidates drawn per enrollment code generation",
		Buckets: []float64{1, 2, 3, 5, 10},
	})

	codeExhaustions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enrollment_code_exhausted_total",
		Help: "Enrollment code generations that ran out of attempts",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, cacheWrite, runDuration, offeringOutcomes,
		sectionsCreated, enrollmentsMoved, codeAttempts, codeExhaustions, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		cacheLookups:     cacheLookups,
		cacheWrite:       cacheWrite,
		runDuration:      runDuration,
		offeringOutcomes: offeringOutcomes,
		sectionsCreated:  sectionsCreated,
		enrollmentsMoved: enrollmentsMoved,
		codeAttempts:     codeAttempts,
		codeExhaustions:  codeExhaustions,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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
}

// RecordCacheLookup records a report cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveRun records the wall time of a maintenance run.
func (m *MetricsService) ObserveRun(kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordOffering records the outcome of one reconciled offering.
func (m *MetricsService) RecordOffering(result models.OfferingResult) {
	if m == nil {
		return
	}
	m.offeringOutcomes.WithLabelValues(string(result.Outcome)).Inc()
	if result.SectionCreated {
		m.sectionsCreated.Inc()
	}
	if result.EnrollmentsAffected > 0 {
		m.enrollmentsMoved.Add(float64(result.EnrollmentsAffected))
	}
}

// ObserveCodeGeneration records how many candidates one generation drew.
func (m *MetricsService) ObserveCodeGeneration(attempts int, exhausted bool) {
	if m == nil {
		return
	}
	m.codeAttempts.Observe(float64(attempts))
	if exhausted {
		m.codeExhaustions.Inc()
	}
}
