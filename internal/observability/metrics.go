package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	entityWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetup_service",
		Subsystem: "store",
		Name:      "entity_writes_total",
		Help:      "Number of committed entity mutations, labeled by entity kind and operation.",
	}, []string{"kind", "op"})

	policyRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetup_service",
		Subsystem: "policy",
		Name:      "rejections_total",
		Help:      "Number of writes refused by an access policy check, labeled by rule.",
	}, []string{"rule"})

	lastWriteGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "meetup_service",
		Subsystem: "store",
		Name:      "last_write_timestamp_seconds",
		Help:      "Unix timestamp of the most recent committed entity mutation.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetup_service",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of HTTP requests served, labeled by method, route and status code.",
	}, []string{"method", "route", "code"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meetup_service",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency of HTTP requests by method and route.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "route"})
)

func init() {
	prometheus.MustRegister(entityWrites, policyRejections, lastWriteGauge, httpRequests, httpDuration)
}

// RecordEntityWrite counts a committed mutation and moves the write watermark.
func RecordEntityWrite(kind, op string) {
	entityWrites.WithLabelValues(kind, op).Inc()
	lastWriteGauge.Set(float64(time.Now().Unix()))
}

// RecordPolicyRejection counts a refused write.
func RecordPolicyRejection(rule string) {
	policyRejections.WithLabelValues(rule).Inc()
}

// RecordHTTPRequest observes one served request. route is the mux path template.
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
