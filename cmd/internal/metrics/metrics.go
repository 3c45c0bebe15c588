// Package metrics owns the gateway's Prometheus registry.
//
// All recording methods are safe on a nil *Metrics so components can run
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gqlgate"

// Auth decision outcomes.
const (
	AuthSkipped     = "skipped"
	AuthSession     = "session"
	AuthCredentials = "credentials"
	AuthDenied      = "denied"
	AuthUnavailable = "unavailable"
)

// Relay frame directions and results.
const (
	DirClientToBackend = "client_to_backend"
	DirBackendToClient = "backend_to_client"

	FrameForwarded = "forwarded"
	FrameDropped   = "dropped"
)

// Metrics groups every collector the gateway exports.
type Metrics struct {
	registry *prometheus.Registry

	authDecisions  *prometheus.CounterVec
	tokensIssued   prometheus.Counter
	relayActive    prometheus.Gauge
	relayEnded     *prometheus.CounterVec
	relayFrames    *prometheus.CounterVec
	relayBytes     *prometheus.CounterVec
	relayDial      prometheus.Histogram
	upgradeReject  prometheus.Counter
	graphqlProxied *prometheus.CounterVec
}

// New builds a Metrics bound to a fresh registry that also carries the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		authDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_decisions_total",
			Help:      "Auth gate decisions by outcome.",
		}, []string{"outcome"}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_tokens_issued_total",
			Help:      "Session tokens issued after a successful credential check.",
		}),
		relayActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_sessions_active",
			Help:      "Relay sessions that have not reached CLOSED.",
		}),
		relayEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_sessions_ended_total",
			Help:      "Relay sessions by teardown cause.",
		}, []string{"cause"}),
		relayFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_frames_total",
			Help:      "Relay data frames by direction and result.",
		}, []string{"direction", "result"}),
		relayBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_bytes_total",
			Help:      "Forwarded relay payload bytes by direction.",
		}, []string{"direction"}),
		relayDial: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "relay_backend_dial_seconds",
			Help:      "Backend WebSocket dial latency, successful or not.",
			Buckets:   prometheus.DefBuckets,
		}),
		upgradeReject: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upgrade_rejected_total",
			Help:      "Upgrade requests to paths other than the relay, destroyed without a response.",
		}),
		graphqlProxied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graphql_proxy_requests_total",
			Help:      "Unary GraphQL proxy responses by status class.",
		}, []string{"class"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.authDecisions,
		m.tokensIssued,
		m.relayActive,
		m.relayEnded,
		m.relayFrames,
		m.relayBytes,
		m.relayDial,
		m.upgradeReject,
		m.graphqlProxied,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterSessionCount exports the live session-store size.
func (m *Metrics) RegisterSessionCount(count func() int) {
	if m == nil || count == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_tokens",
		Help:      "Session tokens currently held by the store.",
	}, func() float64 { return float64(count()) }))
}

func (m *Metrics) AuthDecision(outcome string) {
	if m == nil {
		return
	}
	m.authDecisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) TokenIssued() {
	if m == nil {
		return
	}
	m.tokensIssued.Inc()
}

func (m *Metrics) RelayOpened() {
	if m == nil {
		return
	}
	m.relayActive.Inc()
}

func (m *Metrics) RelayEnded(cause string) {
	if m == nil {
		return
	}
	m.relayActive.Dec()
	m.relayEnded.WithLabelValues(cause).Inc()
}

func (m *Metrics) RelayFrame(direction, result string, n int) {
	if m == nil {
		return
	}
	m.relayFrames.WithLabelValues(direction, result).Inc()
	if result == FrameForwarded && n > 0 {
		m.relayBytes.WithLabelValues(direction).Add(float64(n))
	}
}

func (m *Metrics) RelayDial(d time.Duration) {
	if m == nil {
		return
	}
	m.relayDial.Observe(d.Seconds())
}

func (m *Metrics) UpgradeRejected() {
	if m == nil {
		return
	}
	m.upgradeReject.Inc()
}

func (m *Metrics) GraphQLProxied(status int) {
	if m == nil {
		return
	}
	m.graphqlProxied.WithLabelValues(StatusClass(status)).Inc()
}

// StatusClass maps an HTTP status to "2xx".."5xx", or "other".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}
