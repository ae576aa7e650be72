package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultClaimTTL is how long a claimed row stays invisible to other dispatchers.
const DefaultClaimTTL = time.Minute

// PostgresQueue implements Queue on the outbox and outbox_dlq tables.
type PostgresQueue struct {
	pool     *pgxpool.Pool
	claimTTL time.Duration
	backoff  Backoff
}

// NewPostgresQueue builds a queue. backoff schedules the first DLQ retry of
// events that have already been replayed.
func NewPostgresQueue(pool *pgxpool.Pool, claimTTL time.Duration, backoff Backoff) *PostgresQueue {
	if claimTTL <= 0 {
		claimTTL = DefaultClaimTTL
	}
	return &PostgresQueue{pool: pool, claimTTL: claimTTL, backoff: backoff}
}

// Claim locks up to limit unpublished rows that are not claimed by another
// dispatcher and stamps claimed_at.
func (q *PostgresQueue) Claim(ctx context.Context, limit int) (messages []Message, err error) {
	tx, err := q.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const query = `SELECT event_id, COALESCE(dedupe_key, payload->>'event_id', ''), aggregate_type, aggregate_id,
               event_type, topic, schema_subject, partition_key, payload, attempts
        FROM outbox
        WHERE published_at IS NULL
          AND (claimed_at IS NULL OR claimed_at < NOW() - ($2::float8 * INTERVAL '1 second'))
        ORDER BY event_id
        LIMIT $1
        FOR UPDATE SKIP LOCKED`

	rows, err := tx.Query(ctx, query, limit, q.claimTTL.Seconds())
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, limit)
	for rows.Next() {
		var msg Message
		if err = rows.Scan(&msg.EventID, &msg.EventKey, &msg.AggregateType, &msg.AggregateID, &msg.EventType, &msg.Topic, &msg.SchemaSubject, &msg.PartitionKey, &msg.Payload, &msg.Attempts); err != nil {
			rows.Close()
			return nil, err
		}
		messages = append(messages, msg)
		ids = append(ids, msg.EventID)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		err = tx.Rollback(ctx)
		return nil, err
	}
	if _, err = tx.Exec(ctx, `UPDATE outbox SET claimed_at = NOW() WHERE event_id = ANY($1)`, ids); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkPublished stamps published_at on the given rows.
func (q *PostgresQueue) MarkPublished(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.pool.Exec(ctx, `UPDATE outbox SET published_at = NOW() WHERE event_id = ANY($1)`, ids)
	return err
}

// Backlog counts rows not yet published.
func (q *PostgresQueue) Backlog(ctx context.Context) (int64, error) {
	var n int64
	err := q.pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&n)
	return n, err
}
