package outbox

import "github.com/prometheus/client_golang/prometheus"

var (
	deliveredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "meetup_service",
		Subsystem: "outbox",
		Name:      "events_delivered_total",
		Help:      "Outbox events written to Kafka.",
	})

	failedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "meetup_service",
		Subsystem: "outbox",
		Name:      "events_failed_total",
		Help:      "Outbox events that could not be encoded or written.",
	})

	dlqCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetup_service",
		Subsystem: "outbox",
		Name:      "events_dead_lettered_total",
		Help:      "Outbox events moved to outbox_dlq, by topic.",
	}, []string{"topic"})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "meetup_service",
		Subsystem: "outbox",
		Name:      "batch_duration_seconds",
		Help:      "Time to claim, publish and mark one non-empty batch.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	backlogGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "meetup_service",
		Subsystem: "outbox",
		Name:      "pending_events",
		Help:      "Outbox rows not yet published, sampled after each poll.",
	})
)

func init() {
	prometheus.MustRegister(deliveredCounter, failedCounter, dlqCounter, batchDuration, backlogGauge)
}
