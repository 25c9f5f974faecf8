package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Invoice outcomes recorded per client during generation.
const (
	outcomeCreated = "created"
	outcomeReused  = "reused"
	outcomeFailed  = "failed"
)

// billingObserver receives billing events. MetricsService implements it.
type billingObserver interface {
	RecordInvoiceOutcome(outcome string)
	RecordNumberCollision()
	ObserveGeneration(duration time.Duration, regenerate bool)
}

type noopObserver struct{}

func (noopObserver) RecordInvoiceOutcome(string)           {}
func (noopObserver) RecordNumberCollision()                {}
func (noopObserver) ObserveGeneration(time.Duration, bool) {}

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	invoiceOutcomes    *prometheus.CounterVec
	numberCollisions   prometheus.Counter
	generationDuration *prometheus.HistogramVec
	storeDuration      *prometheus.HistogramVec
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

	invoiceOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_invoices_total",
		Help: "Invoices handled by generation runs by outcome",
	}, []string{"outcome"})

	numberCollisions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billing_invoice_number_collisions_total",
		Help: "Invoice number candidates rejected because they were already claimed",
	})

	generationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "billing_generation_duration_seconds",
		Help:    "Duration of invoice generation runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"regenerate"})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "record_store_duration_seconds",
		Help:    "Duration of record store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, invoiceOutcomes, numberCollisions, generationDuration, storeDuration, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		invoiceOutcomes:    invoiceOutcomes,
		numberCollisions:   numberCollisions,
		generationDuration: generationDuration,
		storeDuration:      storeDuration,
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// RecordInvoiceOutcome counts a created, reused or failed invoice.
func (m *MetricsService) RecordInvoiceOutcome(outcome string) {
	if m == nil {
		return
	}
	m.invoiceOutcomes.WithLabelValues(outcome).Inc()
}

// RecordNumberCollision counts a rejected invoice number candidate.
func (m *MetricsService) RecordNumberCollision() {
	if m == nil {
		return
	}
	m.numberCollisions.Inc()
}

// ObserveGeneration records the duration of a generation run.
func (m *MetricsService) ObserveGeneration(duration time.Duration, regenerate bool) {
	if m == nil {
		return
	}
	m.generationDuration.WithLabelValues(fmt.Sprintf("%t", regenerate)).Observe(duration.Seconds())
}

// ObserveStoreOperation records record store timing.
func (m *MetricsService) ObserveStoreOperation(operation, collection string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
}
