package consumer

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PersistenceHandler appends consumed events to meetup_event_log.
type PersistenceHandler struct {
	pool *pgxpool.Pool
}

// NewPersistenceHandler constructs a handler backed by the provided pool.
func NewPersistenceHandler(pool *pgxpool.Pool) *PersistenceHandler {
	return &PersistenceHandler{pool: pool}
}

// Handle stores the event. Redelivery of a record already stored at the same
// topic position is a no-op.
func (h *PersistenceHandler) Handle(ctx context.Context, msg Message) error {
	var eventID any
	if msg.EventID != "" {
		eventID = msg.EventID
	}
	tag, err := h.pool.Exec(ctx,
		`INSERT INTO meetup_event_log (event_id, event_type, schema_id, schema_subject, topic, partition, record_offset, payload, received_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8, COALESCE($9::timestamptz, NOW()))
         ON CONFLICT (topic, partition, record_offset) DO NOTHING`,
		eventID,
		msg.EventType,
		msg.SchemaID,
		msg.SchemaSubject,
		msg.Topic,
		msg.Partition,
		msg.Offset,
		msg.Payload,
		receivedAt(msg),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		duplicateCounter.WithLabelValues(msg.Topic).Inc()
	}
	return nil
}

func receivedAt(msg Message) *time.Time {
	if msg.Timestamp.IsZero() {
		return nil
	}
	return &msg.Timestamp
}
