package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Date check outcomes.
const (
	OutcomeBooked      = "booked"
	OutcomeFree        = "free"
	OutcomeInvalid     = "invalid"
	OutcomeUnavailable = "unavailable"
)

// Notification results.
const (
	NotificationDelivered = "delivered"
	NotificationFailed    = "failed"
	NotificationDropped   = "dropped"
)

// MetricsSnapshot is the summary served on the health endpoint.
type MetricsSnapshot struct {
	DateChecks           uint64    `json:"dateChecks"`
	LedgerFailures       uint64    `json:"ledgerFailures"`
	NotificationFailures uint64    `json:"notificationFailures"`
	Goroutines           int       `json:"goroutines"`
	StartedAt            time.Time `json:"startedAt"`
	GeneratedAt          time.Time `json:"generatedAt"`
}

// MetricsService encapsulates Prometheus instrumentation. All methods are nil-safe.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	updatesTotal    *prometheus.CounterVec
	checksTotal     *prometheus.CounterVec
	ledgerDuration  *prometheus.HistogramVec
	notifications   *prometheus.CounterVec

	startedAt          time.Time
	checkCount         uint64
	ledgerFailureCount uint64
	notifyFailureCount uint64
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

	updatesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_updates_total",
		Help: "Inbound chat messages by kind",
	}, []string{"kind"})

	checksTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "date_checks_total",
		Help: "Date availability checks by outcome",
	}, []string{"source", "outcome"})

	ledgerDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_read_duration_seconds",
		Help:    "Duration of booking ledger reads",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "result"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_notifications_total",
		Help: "Admin notifications by sink and result",
	}, []string{"sink", "result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, updatesTotal, checksTotal, ledgerDuration, notifications, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		updatesTotal:    updatesTotal,
		checksTotal:     checksTotal,
		ledgerDuration:  ledgerDuration,
		notifications:   notifications,
		startedAt:       time.Now().UTC(),
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
}

// RecordUpdate counts an inbound chat message by kind (start, text, ignored).
func (m *MetricsService) RecordUpdate(kind string) {
	if m == nil {
		return
	}
	m.updatesTotal.WithLabelValues(kind).Inc()
}

// RecordDateCheck counts a check outcome for the given source (chat, http).
func (m *MetricsService) RecordDateCheck(source, outcome string) {
	if m == nil {
		return
	}
	m.checksTotal.WithLabelValues(source, outcome).Inc()
	atomic.AddUint64(&m.checkCount, 1)
}

// ObserveLedgerRead records how long a ledger read took and whether it succeeded.
func (m *MetricsService) ObserveLedgerRead(backend string, ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
		atomic.AddUint64(&m.ledgerFailureCount, 1)
	}
	m.ledgerDuration.WithLabelValues(backend, result).Observe(duration.Seconds())
}

// RecordNotification counts a notification result for a sink.
func (m *MetricsService) RecordNotification(sink, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(sink, result).Inc()
	if result != NotificationDelivered {
		atomic.AddUint64(&m.notifyFailureCount, 1)
	}
}

// Snapshot returns aggregated counters for the health endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		DateChecks:           atomic.LoadUint64(&m.checkCount),
		LedgerFailures:       atomic.LoadUint64(&m.ledgerFailureCount),
		NotificationFailures: atomic.LoadUint64(&m.notifyFailureCount),
		Goroutines:           runtime.NumGoroutine(),
		StartedAt:            m.startedAt,
		GeneratedAt:          time.Now().UTC(),
	}
}
