package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors for the service. Each instance owns
// its registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	requestCount  *prometheus.CounterVec
	errorCount    *prometheus.CounterVec
	requestTime   *prometheus.HistogramVec
	sweepRuns     *prometheus.CounterVec
	sweepDuration prometheus.Histogram
	skippedFires  prometheus.Counter
	escalations   *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	assignments   *prometheus.CounterVec
}

// NewMetrics registers collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"path", "method", "status"}),
		errorCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "HTTP errors by route, method and error code",
		}, []string{"path", "method", "code"}),
		requestTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		sweepRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "escalation_sweeps_total",
			Help: "Escalation sweeps by outcome",
		}, []string{"outcome"}),
		sweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "escalation_sweep_duration_seconds",
			Help:    "Escalation sweep duration",
			Buckets: prometheus.DefBuckets,
		}),
		skippedFires: factory.NewCounter(prometheus.CounterOpts{
			Name: "escalation_sweep_skipped_total",
			Help: "Scheduled sweeps skipped because one was already running",
		}),
		escalations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_escalations_total",
			Help: "Complaints escalated by trigger",
		}, []string{"trigger"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_transitions_total",
			Help: "Complaint status transitions by target status",
		}, []string{"status"}),
		assignments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_assignments_total",
			Help: "Complaint assignments by mode",
		}, []string{"mode"}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestTime.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(path, method, code).Inc()
}

// RecordSweep records one sweep execution. outcome is "ok", "partial" or "failed".
func (m *Metrics) RecordSweep(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.sweepRuns.WithLabelValues(outcome).Inc()
	m.sweepDuration.Observe(duration.Seconds())
}

// RecordSkippedFire counts a scheduled sweep dropped while another ran.
func (m *Metrics) RecordSkippedFire() {
	if m == nil {
		return
	}
	m.skippedFires.Inc()
}

// RecordEscalation counts an escalation. trigger is "sweep", "manual" or "deferred".
func (m *Metrics) RecordEscalation(trigger string) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(trigger).Inc()
}

// RecordTransition counts a status transition into status.
func (m *Metrics) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

// RecordAssignment counts an assignment. mode is "auto" or "manual".
func (m *Metrics) RecordAssignment(mode string) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(mode).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
