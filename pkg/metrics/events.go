package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Publish outcomes for outbox rows.
const (
	OutcomePublished = "published"
	OutcomeRetried   = "retried"
	OutcomeParked    = "parked"
)

// OutboxMetrics counts what the publisher did with each outbox row.
type OutboxMetrics struct {
	outcomes *prometheus.CounterVec
	batches  prometheus.Counter
}

// NewOutboxMetrics registers the publisher metrics. A nil registerer returns a
// no-op recorder.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_total",
		Help: "Outbox rows handled by the publisher, by event type and outcome.",
	}, []string{"event_type", "outcome"})
	batches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_batches_total",
		Help: "Non-empty outbox batches processed.",
	})
	reg.MustRegister(outcomes, batches)
	return &OutboxMetrics{outcomes: outcomes, batches: batches}
}

// IncOutcome records one row result.
func (o *OutboxMetrics) IncOutcome(eventType, outcome string) {
	if o == nil || o.outcomes == nil {
		return
	}
	o.outcomes.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

func (o *OutboxMetrics) IncBatch() {
	if o == nil || o.batches == nil {
		return
	}
	o.batches.Inc()
}

// AlertMetrics counts staff notifications produced by the alerts consumer.
type AlertMetrics struct {
	stored     *prometheus.CounterVec
	duplicates prometheus.Counter
}

func NewAlertMetrics(reg prometheus.Registerer) *AlertMetrics {
	if reg == nil {
		return &AlertMetrics{}
	}
	stored := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "staff_notifications_total",
		Help: "Staff notifications stored, by notification type.",
	}, []string{"type"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "staff_notification_duplicates_total",
		Help: "Redelivered alert events that did not produce a notification.",
	})
	reg.MustRegister(stored, duplicates)
	return &AlertMetrics{stored: stored, duplicates: duplicates}
}

func (a *AlertMetrics) IncStored(notificationType string) {
	if a == nil || a.stored == nil {
		return
	}
	a.stored.WithLabelValues(normalizeLabel(notificationType)).Inc()
}

func (a *AlertMetrics) IncDuplicate() {
	if a == nil || a.duplicates == nil {
		return
	}
	a.duplicates.Inc()
}
