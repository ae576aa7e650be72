//go:build integration

package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/meetup/internal/events"
	"example.com/meetup/internal/pgtest"
)

func TestPostgresDispatcherPublishesAndMarks(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Start(t)

	evt := events.NewActivityCreated(events.ActivityCreated{ActivityID: 3, OwnerLogin: "alice", Title: "Climb"})
	eventID := seedOutbox(ctx, t, pool, evt)

	producer := &stubProducer{}
	queue := NewPostgresQueue(pool, time.Minute, Backoff{Base: time.Second})
	dispatcher := NewDispatcher(queue, producer, &stubRegistry{id: 9}, zerolog.Nop(), 10*time.Millisecond, 5)

	delivered, err := dispatcher.processBatch(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, delivered)

	require.Len(t, producer.writes, 1)
	record := producer.writes[0].messages[0]
	require.Equal(t, evt.ID, header(record, events.HeaderEventID))

	var published bool
	require.NoError(t, pool.QueryRow(ctx, `SELECT published_at IS NOT NULL FROM outbox WHERE event_id = $1`, eventID).Scan(&published))
	require.True(t, published)

	backlog, err := queue.Backlog(ctx)
	require.NoError(t, err)
	require.Zero(t, backlog)
}

func TestPostgresQueueClaimHidesClaimedRows(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Start(t)
	seedOutbox(ctx, t, pool, events.NewMeetCreated(events.MeetCreated{MeetID: 1}))

	queue := NewPostgresQueue(pool, time.Minute, Backoff{})
	first, err := queue.Claim(ctx, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := queue.Claim(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, second, "claimed rows stay hidden until the claim expires")

	_, err = pool.Exec(ctx, `UPDATE outbox SET claimed_at = NOW() - INTERVAL '2 minutes'`)
	require.NoError(t, err)
	third, err := queue.Claim(ctx, 10)
	require.NoError(t, err)
	require.Len(t, third, 1)
}

func TestDLQRoundTripRequeuesThenQuarantines(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Start(t)

	evt := events.NewConversationCreated(events.ConversationCreated{ConversationID: 4, UserLogins: []string{"a", "b"}})
	seedOutbox(ctx, t, pool, evt)

	queue := NewPostgresQueue(pool, time.Minute, Backoff{Base: time.Millisecond})
	producer := &stubProducer{err: map[string]error{"conversation_events": errors.New("broker unavailable")}}
	dispatcher := NewDispatcher(queue, producer, &stubRegistry{}, zerolog.Nop(), 10*time.Millisecond, 5)
	manager := NewDLQManager(pool, zerolog.Nop(), 2, time.Millisecond)
	quarantined := dlqEntriesCounter.WithLabelValues("conversation_events", events.TypeConversationCreated, "quarantined")
	before := testutil.ToFloat64(quarantined)

	for attempt := 0; attempt < 2; attempt++ {
		_, err := dispatcher.processBatch(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, countRows(ctx, t, pool, `SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NULL`))

		// Wait out the scheduled retry.
		_, err = pool.Exec(ctx, `UPDATE outbox_dlq SET next_retry_at = NOW() - INTERVAL '1 second'`)
		require.NoError(t, err)

		requeued, err := manager.RunOnce(ctx, 10)
		require.NoError(t, err)
		require.Equal(t, 1, requeued)

		var attempts int
		var eventKey string
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT attempts, payload->>'event_id' FROM outbox WHERE published_at IS NULL`).Scan(&attempts, &eventKey))
		require.Equal(t, attempt+1, attempts)
		require.Equal(t, evt.ID, eventKey)
	}

	_, err := dispatcher.processBatch(ctx)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `UPDATE outbox_dlq SET next_retry_at = NOW() - INTERVAL '1 second'`)
	require.NoError(t, err)

	requeued, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, requeued)

	var reason string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT quarantine_reason FROM outbox_dlq WHERE quarantined_at IS NOT NULL`).Scan(&reason))
	require.Equal(t, "retry limit 2 reached", reason)
	require.InDelta(t, before+1, testutil.ToFloat64(quarantined), 0.0001)
	require.Zero(t, countRows(ctx, t, pool, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`))
}

func seedOutbox(ctx context.Context, t *testing.T, pool *pgxpool.Pool, evt events.Event) int64 {
	t.Helper()

	meta, ok := events.Lookup(evt.Type)
	require.True(t, ok)
	payload, err := json.Marshal(evt.Payload)
	require.NoError(t, err)

	var id int64
	err = pool.QueryRow(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING event_id`,
		evt.AggregateType, evt.AggregateID, evt.Type, meta.Topic, meta.SchemaSubject, evt.AggregateID, payload, evt.ID,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func countRows(ctx context.Context, t *testing.T, pool *pgxpool.Pool, query string) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(ctx, query).Scan(&n))
	return n
}
