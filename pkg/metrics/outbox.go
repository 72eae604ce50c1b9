package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics tracks the publisher's progress through the outbox.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	dead      *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_outbox_published_total",
		Help: "Outbox events delivered to the broker.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_outbox_publish_failures_total",
		Help: "Outbox publish attempts that failed and will be retried.",
	}, []string{"event_type"})
	dead := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_outbox_terminal_total",
		Help: "Outbox events given up on.",
	}, []string{"event_type"})
	reg.MustRegister(published, failed, dead)
	return &OutboxMetrics{published: published, failed: failed, dead: dead}
}

func (m *OutboxMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *OutboxMetrics) IncFailed(eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *OutboxMetrics) IncTerminal(eventType string) {
	if m == nil || m.dead == nil {
		return
	}
	m.dead.WithLabelValues(normalizeLabel(eventType)).Inc()
}
