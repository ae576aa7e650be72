package outbox

import (
	"context"
	"time"
)

// Backoff computes exponential retry delays capped at one hour.
type Backoff struct {
	Base time.Duration
}

// Delay returns the wait before retry number attempt. Attempt zero is immediate.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	base := b.Base
	if base <= 0 {
		base = time.Minute
	}
	if attempt > 20 {
		return time.Hour
	}
	delay := base << uint(attempt-1)
	if delay <= 0 || delay > time.Hour {
		return time.Hour
	}
	return delay
}

// MoveToDLQ records a failed outbox message in the DLQ alongside the supplied reason.
// The retry count carries over from the outbox row so replays keep backing off.
func (q *PostgresQueue) MoveToDLQ(ctx context.Context, msg Message, reason string) error {
	_, err := q.pool.Exec(ctx,
		`INSERT INTO outbox_dlq (event_id, event_type, topic, payload, reason, aggregate_type, aggregate_id, schema_subject, partition_key, retry_count, next_retry_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, NOW() + ($11::float8 * INTERVAL '1 second'))`,
		msg.EventID, msg.EventType, msg.Topic, msg.Payload, reason, msg.AggregateType, msg.AggregateID, msg.SchemaSubject, msg.PartitionKey,
		msg.Attempts, q.backoff.Delay(msg.Attempts).Seconds(),
	)
	return err
}
