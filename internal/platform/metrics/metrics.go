package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the absence core. Request metrics come
// from the HTTP middleware; the domain counters are bumped by the services.
type Metrics struct {
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	AbsencesCreated      prometheus.Counter
	InsufficientBalance  prometheus.Counter
	BalanceWrites        prometheus.Counter
	CalendarBuilds       prometheus.Histogram
	CompletionRunsTotal  prometheus.Counter
	CompletionMarkedDone prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "timesense_http_requests_total",
			Help: "Total HTTP requests by method and status class",
		}, []string{"method", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timesense_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method"}),
		AbsencesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timesense_absences_created_total",
			Help: "Total absences created",
		}),
		InsufficientBalance: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timesense_insufficient_vacation_days_total",
			Help: "Mutations rejected for insufficient vacation days",
		}),
		BalanceWrites: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timesense_balance_writes_total",
			Help: "User balance writes performed by the ledger",
		}),
		CalendarBuilds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "timesense_calendar_build_duration_seconds",
			Help:    "Duration of yearly calendar matrix builds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CompletionRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timesense_completion_runs_total",
			Help: "Nightly completion job executions",
		}),
		CompletionMarkedDone: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timesense_completion_marked_done_total",
			Help: "Absences moved to DONE by the completion job",
		}),
	}
}

// ObserveRequest records one handled HTTP request.
func (m *Metrics) ObserveRequest(method string, status int, start time.Time) {
	m.RequestsTotal.WithLabelValues(method, statusClass(status)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
