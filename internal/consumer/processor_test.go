package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/meetup/internal/events"
)

func framedMessage(offset int64, eventType string, schemaID int, payload string) kafka.Message {
	return kafka.Message{
		Topic:     "activity_events",
		Partition: 0,
		Offset:    offset,
		Time:      time.Now().UTC(),
		Value:     events.Frame(schemaID, []byte(payload)),
		Headers: []kafka.Header{
			{Key: events.HeaderEventType, Value: []byte(eventType)},
			{Key: events.HeaderEventID, Value: []byte("evt-1")},
			{Key: events.HeaderSchemaSubject, Value: []byte("activity_events-activity_created")},
		},
	}
}

func TestProcessorCommitsOnSuccess(t *testing.T) {
	payload := `{"activity_id":7}`
	reader := &stubReader{messages: []kafka.Message{framedMessage(10, events.TypeActivityCreated, 42, payload)}}
	handler := &stubHandler{}
	before := testutil.ToFloat64(messagesCounter.WithLabelValues("activity_events", events.TypeActivityCreated, "committed"))

	err := NewProcessor(reader, handler, zerolog.New(zerolog.NewTestWriter(t))).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, events.TypeActivityCreated, handler.last.EventType)
	require.Equal(t, "evt-1", handler.last.EventID)
	require.Equal(t, "activity_events-activity_created", handler.last.SchemaSubject)
	require.Equal(t, 42, handler.last.SchemaID)
	require.Equal(t, int64(10), handler.last.Offset)
	require.JSONEq(t, payload, string(handler.last.Payload))
	require.InDelta(t, before+1, testutil.ToFloat64(messagesCounter.WithLabelValues("activity_events", events.TypeActivityCreated, "committed")), 0.0001)
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{framedMessage(20, events.TypeActivityDeleted, 99, `{"activity_id":8}`)}}
	handler := &stubHandler{err: errors.New("boom")}
	before := testutil.ToFloat64(messagesCounter.WithLabelValues("activity_events", events.TypeActivityDeleted, "handler_error"))

	err := NewProcessor(reader, handler, zerolog.Nop()).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Zero(t, reader.commitCalls)
	require.InDelta(t, before+1, testutil.ToFloat64(messagesCounter.WithLabelValues("activity_events", events.TypeActivityDeleted, "handler_error")), 0.0001)
}

func TestProcessorCommitsUndecodableMessages(t *testing.T) {
	noHeader := framedMessage(1, events.TypeMeetCreated, 1, `{}`)
	noHeader.Headers = nil
	short := framedMessage(2, events.TypeMeetCreated, 1, `{}`)
	short.Value = []byte{0, 1}
	badMagic := framedMessage(3, events.TypeMeetCreated, 1, `{}`)
	badMagic.Value[0] = 9
	notJSON := framedMessage(4, events.TypeMeetCreated, 1, `{not json`)

	reader := &stubReader{messages: []kafka.Message{noHeader, short, badMagic, notJSON}}
	handler := &stubHandler{}
	before := testutil.ToFloat64(decodeErrorCounter.WithLabelValues("activity_events"))

	err := NewProcessor(reader, handler, zerolog.Nop()).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Zero(t, handler.calls)
	require.Equal(t, 4, reader.commitCalls)
	require.InDelta(t, before+4, testutil.ToFloat64(decodeErrorCounter.WithLabelValues("activity_events")), 0.0001)
}

func TestProcessorRetriesAfterFetchError(t *testing.T) {
	reader := &stubReader{
		fetchErrs: []error{errors.New("broker hiccup")},
		messages:  []kafka.Message{framedMessage(5, events.TypeActivityCreated, 1, `{}`)},
	}
	handler := &stubHandler{}

	err := NewProcessor(reader, handler, zerolog.Nop()).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, handler.calls)
}

func TestProcessorStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reader := &stubReader{messages: []kafka.Message{framedMessage(5, events.TypeActivityCreated, 1, `{}`)}}
	handler := &stubHandler{}

	err := NewProcessor(reader, handler, zerolog.Nop()).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, handler.calls)
}

// stubReader replays fetchErrs, then messages, then reports cancellation.
type stubReader struct {
	fetchErrs   []error
	messages    []kafka.Message
	index       int
	commitCalls int
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		return kafka.Message{}, err
	}
	if r.index >= len(r.messages) {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

type stubHandler struct {
	calls int
	err   error
	last  Message
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	return h.err
}
