package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"example.com/meetup/internal/events"
)

type recorder struct{ s *Store }

// Record appends evt to the outbox in the store's current transaction.
func (r recorder) Record(ctx context.Context, evt events.Event) error {
	meta, ok := events.Lookup(evt.Type)
	if !ok {
		return fmt.Errorf("unknown event type: %s", evt.Type)
	}
	body, err := json.Marshal(evt.Payload)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = r.s.q.Exec(ctx, stmt,
		evt.AggregateType,
		evt.AggregateID,
		evt.Type,
		meta.Topic,
		meta.SchemaSubject,
		evt.AggregateID,
		body,
		nullIfEmpty(evt.ID),
	)
	return mapError(err, "record "+evt.Type)
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
