package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"directstay/internal/app/policies"
)

var _ policies.Telemetry = (*Metrics)(nil)

// Metrics owns the service's collectors and its private registry.
type Metrics struct {
	registry *prometheus.Registry

	submissions      *prometheus.CounterVec
	paymentSessions  *prometheus.CounterVec
	checkouts        *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
	externalRequests *prometheus.CounterVec
	externalLatency  *prometheus.HistogramVec
	cacheEvents      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "directstay", Name: "draft_submissions_total", Help: "Booking draft submissions by outcome."},
			[]string{"outcome"},
		),
		paymentSessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "directstay", Name: "payment_sessions_total", Help: "Payment sessions by event."},
			[]string{"event"}, // started|expired
		),
		checkouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "directstay", Name: "checkouts_completed_total", Help: "Completed checkouts by payment method."},
			[]string{"method"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "directstay", Name: "http_request_duration_seconds",
				Help:    "HTTP request duration seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		externalRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "directstay", Name: "external_requests_total", Help: "Outbound requests."},
			[]string{"service", "endpoint", "status"},
		),
		externalLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "directstay", Name: "external_request_duration_seconds",
				Help:    "Outbound request duration seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "endpoint"},
		),
		cacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "directstay", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
			[]string{"cache", "event"},
		),
	}
	m.registry.MustRegister(
		m.submissions, m.paymentSessions, m.checkouts,
		m.httpLatency, m.externalRequests, m.externalLatency, m.cacheEvents,
		prometheus.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) SubmissionObserved(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PaymentSessionStarted() {
	m.paymentSessions.WithLabelValues("started").Inc()
}

func (m *Metrics) PaymentSessionExpired() {
	m.paymentSessions.WithLabelValues("expired").Inc()
}

func (m *Metrics) CheckoutCompleted(method string) {
	m.checkouts.WithLabelValues(method).Inc()
}

func (m *Metrics) ObserveHTTP(route, method string, status int, dur time.Duration) {
	m.httpLatency.WithLabelValues(route, method, strconv.Itoa(status)).Observe(dur.Seconds())
}

func (m *Metrics) ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	m.externalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	m.externalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

// ObserveCache counts a cache event: hit, miss, set or del.
func (m *Metrics) ObserveCache(cache, event string) {
	m.cacheEvents.WithLabelValues(cache, event).Inc()
}
