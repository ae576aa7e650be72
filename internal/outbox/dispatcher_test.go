package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/meetup/internal/events"
)

type memQueue struct {
	mu        sync.Mutex
	pending   []Message
	published []int64
	dlq       []Message
	reasons   []string
	claimErr  error
}

func (q *memQueue) Claim(ctx context.Context, limit int) ([]Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.claimErr != nil {
		return nil, q.claimErr
	}
	n := min(limit, len(q.pending))
	out := q.pending[:n]
	q.pending = q.pending[n:]
	return out, nil
}

func (q *memQueue) MarkPublished(ctx context.Context, ids []int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, ids...)
	return nil
}

func (q *memQueue) MoveToDLQ(ctx context.Context, msg Message, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dlq = append(q.dlq, msg)
	q.reasons = append(q.reasons, reason)
	return nil
}

func (q *memQueue) publishedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.published)
}

func outboxMessage(t *testing.T, id int64, evt events.Event) Message {
	t.Helper()
	meta, ok := events.Lookup(evt.Type)
	require.True(t, ok)
	payload, err := json.Marshal(evt.Payload)
	require.NoError(t, err)
	return Message{
		EventID:       id,
		EventKey:      evt.ID,
		AggregateType: evt.AggregateType,
		AggregateID:   evt.AggregateID,
		EventType:     evt.Type,
		Topic:         meta.Topic,
		SchemaSubject: meta.SchemaSubject,
		PartitionKey:  evt.AggregateID,
		Payload:       payload,
	}
}

func newTestDispatcher(q Queue, p messageWriter, r schemaRegistrar) *Dispatcher {
	return NewDispatcher(q, p, r, zerolog.Nop(), 10*time.Millisecond, 10)
}

func TestDispatcherPublishesFramedMessagesWithHeaders(t *testing.T) {
	created := events.NewActivityCreated(events.ActivityCreated{ActivityID: 7, OwnerLogin: "alice", Title: "Hike"})
	queue := &memQueue{pending: []Message{outboxMessage(t, 1, created)}}
	producer := &stubProducer{}
	registry := &stubRegistry{id: 42}

	beforeDelivered := testutil.ToFloat64(deliveredCounter)
	beforeHistogram := histogramSampleCount(t)

	delivered, err := newTestDispatcher(queue, producer, registry).processBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, delivered)

	require.Len(t, producer.writes, 1)
	require.Equal(t, "activity_events", producer.writes[0].topic)
	record := producer.writes[0].messages[0]
	require.Equal(t, "7", string(record.Key))
	require.Equal(t, events.TypeActivityCreated, header(record, events.HeaderEventType))
	require.Equal(t, "activity_events-activity_created", header(record, events.HeaderSchemaSubject))
	require.Equal(t, created.ID, header(record, events.HeaderEventID))

	schemaID, payload, err := events.Unframe(record.Value)
	require.NoError(t, err)
	require.Equal(t, 42, schemaID)
	require.Contains(t, string(payload), `"owner_login":"alice"`)

	require.Equal(t, []int64{1}, queue.published)
	require.Empty(t, queue.dlq)
	require.InDelta(t, beforeDelivered+1, testutil.ToFloat64(deliveredCounter), 0.0001)
	require.Greater(t, histogramSampleCount(t), beforeHistogram)
}

func TestDispatcherCachesSchemaIDsAcrossBatches(t *testing.T) {
	queue := &memQueue{pending: []Message{
		outboxMessage(t, 1, events.NewMeetCreated(events.MeetCreated{MeetID: 1})),
		outboxMessage(t, 2, events.NewMeetCreated(events.MeetCreated{MeetID: 2})),
	}}
	producer := &stubProducer{}
	registry := &stubRegistry{id: 21}
	dispatcher := newTestDispatcher(queue, producer, registry)

	_, err := dispatcher.processBatch(context.Background())
	require.NoError(t, err)
	queue.pending = []Message{outboxMessage(t, 3, events.NewMeetCreated(events.MeetCreated{MeetID: 3}))}
	_, err = dispatcher.processBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, registry.calls, 1, "schema registry should be invoked once due to cache")
	require.Len(t, producer.writes, 2)
	require.Len(t, producer.writes[0].messages, 2)
	require.Equal(t, []int64{1, 2, 3}, queue.published)
}

func TestDispatcherMovesOnlyFailedTopicToDLQ(t *testing.T) {
	queue := &memQueue{pending: []Message{
		outboxMessage(t, 1, events.NewActivityDeleted(events.ActivityDeleted{ActivityID: 1})),
		outboxMessage(t, 2, events.NewConversationCreated(events.ConversationCreated{ConversationID: 9})),
	}}
	producer := &stubProducer{err: map[string]error{"conversation_events": errors.New("kafka write failed")}}

	beforeFailed := testutil.ToFloat64(failedCounter)
	beforeDLQ := testutil.ToFloat64(dlqCounter.WithLabelValues("conversation_events"))

	delivered, err := newTestDispatcher(queue, producer, &stubRegistry{}).processBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, delivered)

	require.Len(t, queue.dlq, 1)
	require.Equal(t, int64(2), queue.dlq[0].EventID)
	require.Contains(t, queue.reasons[0], "kafka write failed (topic=conversation_events)")
	require.Equal(t, []int64{1, 2}, queue.published)

	require.InDelta(t, beforeFailed+1, testutil.ToFloat64(failedCounter), 0.0001)
	require.InDelta(t, beforeDLQ+1, testutil.ToFloat64(dlqCounter.WithLabelValues("conversation_events")), 0.0001)
}

func TestDispatcherUnknownEventTypeGoesToDLQ(t *testing.T) {
	msg := Message{EventID: 5, EventType: "activity.unknown", Topic: "activity_events", SchemaSubject: "x", Payload: json.RawMessage(`{}`)}
	queue := &memQueue{pending: []Message{msg}}
	producer := &stubProducer{}
	registry := &stubRegistry{}

	_, err := newTestDispatcher(queue, producer, registry).processBatch(context.Background())
	require.NoError(t, err)

	require.Empty(t, producer.writes, "unknown schema should skip kafka writes")
	require.Empty(t, registry.calls, "schema registry should not be invoked when metadata missing")
	require.Len(t, queue.dlq, 1)
	require.Contains(t, queue.reasons[0], "no schema metadata for event_type=activity.unknown")
	require.Equal(t, []int64{5}, queue.published)
}

func TestDispatcherRegistryFailureGoesToDLQ(t *testing.T) {
	queue := &memQueue{pending: []Message{outboxMessage(t, 1, events.NewMeetCreated(events.MeetCreated{MeetID: 1}))}}
	registry := &stubRegistry{err: errors.New("registry down")}

	_, err := newTestDispatcher(queue, &stubProducer{}, registry).processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, queue.dlq, 1)
	require.Contains(t, queue.reasons[0], "registry down")
}

func TestDispatcherEmptyAndClaimErrors(t *testing.T) {
	queue := &memQueue{}
	delivered, err := newTestDispatcher(queue, &stubProducer{}, &stubRegistry{}).processBatch(context.Background())
	require.NoError(t, err)
	require.Zero(t, delivered)
	require.Empty(t, queue.published)

	queue.claimErr = errors.New("db gone")
	_, err = newTestDispatcher(queue, &stubProducer{}, &stubRegistry{}).processBatch(context.Background())
	require.ErrorContains(t, err, "db gone")
}

func TestDispatcherLeavesBatchUnmarkedWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	queue := &memQueue{pending: []Message{outboxMessage(t, 1, events.NewMeetCreated(events.MeetCreated{MeetID: 1}))}}

	_, err := newTestDispatcher(queue, &stubProducer{}, &stubRegistry{}).processBatch(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, queue.published)
	require.Empty(t, queue.dlq)
}

func TestDispatcherStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	queue := &memQueue{pending: []Message{outboxMessage(t, 1, events.NewMeetCreated(events.MeetCreated{MeetID: 1}))}}
	dispatcher := newTestDispatcher(queue, &stubProducer{}, &stubRegistry{})

	go dispatcher.Start(ctx)
	require.Eventually(t, func() bool { return queue.publishedCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	dispatcher.Wait()
}

type countingQueue struct {
	*memQueue
	backlog int64
}

func (q countingQueue) Backlog(context.Context) (int64, error) { return q.backlog, nil }

func TestDispatcherReportsBacklog(t *testing.T) {
	queue := countingQueue{memQueue: &memQueue{}, backlog: 17}
	dispatcher := newTestDispatcher(queue, &stubProducer{}, &stubRegistry{})

	dispatcher.reportBacklog(context.Background())
	require.InDelta(t, 17, testutil.ToFloat64(backlogGauge), 0.0001)
}

func TestBackoffDelay(t *testing.T) {
	b := Backoff{Base: time.Minute}
	require.Zero(t, b.Delay(0))
	require.Equal(t, time.Minute, b.Delay(1))
	require.Equal(t, 4*time.Minute, b.Delay(3))
	require.Equal(t, time.Hour, b.Delay(8))
	require.Equal(t, time.Hour, b.Delay(64))
	require.Equal(t, 2*time.Minute, Backoff{}.Delay(2))
}
