package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gym"

// Token verification results.
const (
	ResultOK               = "ok"
	ResultInvalid          = "invalid"
	ResultSignatureInvalid = "signature_invalid"
	ResultExpired          = "expired"
)

// Admission outcomes.
const (
	AdmissionJoined    = "joined"
	AdmissionReturning = "returning"
	AdmissionFull      = "full"
	AdmissionNotFound  = "not_found"
	AdmissionError     = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	tokenVerifications *prometheus.CounterVec
	tokensIssued       prometheus.Counter
	admissions         *prometheus.CounterVec
	roomsCreated       prometheus.Counter
	roomsDestroyed     prometheus.Counter
	messagesPosted     prometheus.Counter
}

// New registers every collector on a private registry so tests can build
// as many instances as they like.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		tokenVerifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qr_token_verifications_total",
			Help: "QR token verifications by result.",
		}, []string{"result"}),
		tokensIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "qr_tokens_issued_total",
			Help: "QR tokens issued.",
		}),
		admissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_admissions_total",
			Help:      "Room admission attempts by outcome.",
		}, []string{"outcome"}),
		roomsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_created_total",
			Help:      "Rooms created.",
		}),
		roomsDestroyed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_destroyed_total",
			Help:      "Rooms destroyed explicitly.",
		}),
		messagesPosted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_posted_total",
			Help:      "Chat messages posted.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) TokenVerified(result string) {
	m.tokenVerifications.WithLabelValues(result).Inc()
}

func (m *Metrics) TokenIssued() {
	m.tokensIssued.Inc()
}

func (m *Metrics) Admission(outcome string) {
	m.admissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RoomCreated() {
	m.roomsCreated.Inc()
}

func (m *Metrics) RoomDestroyed() {
	m.roomsDestroyed.Inc()
}

func (m *Metrics) MessagePosted() {
	m.messagesPosted.Inc()
}
