package outbox

import "github.com/prometheus/client_golang/prometheus"

var (
	dlqEntriesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetup_service",
		Subsystem: "dlq",
		Name:      "entries_total",
		Help:      "DLQ entries handled by the manager, by outcome (requeued, quarantined, rescheduled).",
	}, []string{"topic", "event_type", "outcome"})

	dlqBacklogGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "meetup_service",
		Subsystem: "dlq",
		Name:      "pending_entries",
		Help:      "DLQ entries neither replayed nor quarantined.",
	})
)

func init() {
	prometheus.MustRegister(dlqEntriesCounter, dlqBacklogGauge)
}

func (o outcome) String() string {
	switch o {
	case outcomeRequeued:
		return "requeued"
	case outcomeQuarantined:
		return "quarantined"
	case outcomeRescheduled:
		return "rescheduled"
	}
	return "unknown"
}

func recordDLQOutcome(entry dlqEntry, o outcome) {
	dlqEntriesCounter.WithLabelValues(entry.Topic, entry.EventType, o.String()).Inc()
}
