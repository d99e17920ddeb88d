// Package metrics holds the Prometheus collectors for SiteBot.
//
// All recording methods are safe on a nil *Metrics, which disables metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitebot"

// Metrics holds the Prometheus collectors for the chat engine and its collaborators.
type Metrics struct {
	// Conversation counters
	sessionsStarted *prometheus.CounterVec // By tenant and result (ok/config_error)
	sessionsActive  prometheus.Gauge
	turnsTotal      *prometheus.CounterVec // By tenant and outcome

	// Collaborators
	bookingsTotal      *prometheus.CounterVec // By tenant and result (created/unavailable/failed)
	aiRequestsTotal    *prometheus.CounterVec // By result (ok/empty/error)
	notificationsTotal *prometheus.CounterVec // By kind and result (sent/failed)

	// Performance metrics
	turnDuration *prometheus.HistogramVec // By tenant
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		sessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "sessions_started_total",
			Help:      "Total number of chat sessions started",
		}, []string{"tenant", "result"}),

		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "sessions_active",
			Help:      "Number of live chat sessions in this process",
		}),

		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total number of conversation turns handled",
		}, []string{"tenant", "outcome"}), // outcome: advanced, invalid, unavailable, freeform, ended, no_session

		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Total number of booking attempts",
		}, []string{"tenant", "result"}),

		aiRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "genai",
			Name:      "requests_total",
			Help:      "Total number of AI generation requests",
		}, []string{"result"}),

		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Total number of outbound notifications attempted",
		}, []string{"kind", "result"}),

		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "turn_duration_seconds",
			Help:      "Conversation turn handling duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"tenant"}),
	}

	collectors := []prometheus.Collector{
		m.sessionsStarted, m.sessionsActive, m.turnsTotal,
		m.bookingsTotal, m.aiRequestsTotal, m.notificationsTotal, m.turnDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// SessionStarted records a session start attempt.
func (m *Metrics) SessionStarted(tenant string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "config_error"
	} else {
		m.sessionsActive.Inc()
	}
	m.sessionsStarted.WithLabelValues(tenant, result).Inc()
}

// SessionClosed records a session teardown.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

// TurnHandled records one turn and its duration.
func (m *Metrics) TurnHandled(tenant, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(tenant, outcome).Inc()
	m.turnDuration.WithLabelValues(tenant).Observe(duration.Seconds())
}

// BookingAttempt records a booking result: created, unavailable or failed.
func (m *Metrics) BookingAttempt(tenant, result string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(tenant, result).Inc()
}

// AIRequest records an AI generation result: ok, empty or error.
func (m *Metrics) AIRequest(result string) {
	if m == nil {
		return
	}
	m.aiRequestsTotal.WithLabelValues(result).Inc()
}

// Notification records an outbound notification result.
func (m *Metrics) Notification(kind string, sent bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !sent {
		result = "failed"
	}
	m.notificationsTotal.WithLabelValues(kind, result).Inc()
}
