package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "intelivoucher"

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// CheckoutMetrics records what the checkout machines do.
type CheckoutMetrics struct {
	StepTransitions *prometheus.CounterVec
	PaymentAttempts *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
	Submissions     *prometheus.CounterVec
	BusyRejections  prometheus.Counter
	ActiveSessions  prometheus.Gauge
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	m := &CheckoutMetrics{
		StepTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "step_transitions_total",
			Help:      "Checkout step transitions.",
		}, []string{"from", "to"}),
		PaymentAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "payment_attempts_total",
			Help:      "Payment provider calls by method, operation and outcome.",
		}, []string{"method", "operation", "outcome"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "provider_duration_ms",
			Help:      "Payment provider call latency in milliseconds.",
			Buckets:   []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"method", "operation"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "reservation_submissions_total",
			Help:      "Reservation submissions by outcome.",
		}, []string{"outcome"}),
		BusyRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "busy_rejections_total",
			Help:      "Operations rejected because another one was in flight.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "active_sessions",
			Help:      "Checkout sessions currently held in memory.",
		}),
	}

	reg.MustRegister(m.StepTransitions, m.PaymentAttempts, m.ProviderLatency, m.Submissions, m.BusyRejections, m.ActiveSessions)
	return m
}

func (m *CheckoutMetrics) StepChanged(from, to string) {
	m.StepTransitions.WithLabelValues(from, to).Inc()
}

func (m *CheckoutMetrics) ProviderCall(method, operation, outcome string, took time.Duration) {
	m.PaymentAttempts.WithLabelValues(method, operation, outcome).Inc()
	m.ProviderLatency.WithLabelValues(method, operation).Observe(float64(took.Milliseconds()))
}

func (m *CheckoutMetrics) Submission(outcome string) {
	m.Submissions.WithLabelValues(outcome).Inc()
}

func (m *CheckoutMetrics) Busy() {
	m.BusyRejections.Inc()
}

func (m *CheckoutMetrics) SessionOpened() {
	m.ActiveSessions.Inc()
}

func (m *CheckoutMetrics) SessionClosed() {
	m.ActiveSessions.Dec()
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
