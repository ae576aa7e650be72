// Package outbox delivers events recorded in the outbox table to Kafka and
// manages the dead-letter queue for deliveries that fail.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"example.com/meetup/internal/events"
)

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

type schemaRegistrar interface {
	EnsureSchema(context.Context, string, string) (int, error)
}

// Message represents a row claimed from the outbox.
type Message struct {
	EventID       int64
	EventKey      string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	SchemaSubject string
	PartitionKey  string
	Payload       json.RawMessage
	Attempts      int
}

// Queue is the outbox table as the dispatcher sees it.
type Queue interface {
	Claim(ctx context.Context, limit int) ([]Message, error)
	MarkPublished(ctx context.Context, ids []int64) error
	MoveToDLQ(ctx context.Context, msg Message, reason string) error
}

// backlogger is implemented by queues that can count unpublished rows.
type backlogger interface {
	Backlog(ctx context.Context) (int64, error)
}

// Dispatcher drains the outbox and publishes each event to its topic with
// Confluent framing against the registered JSON schema.
type Dispatcher struct {
	queue            Queue
	producer         messageWriter
	registry         schemaRegistrar
	logger           zerolog.Logger
	pollInterval     time.Duration
	batchSize        int
	schemaIDCache    sync.Map
	now              func() time.Time
	shutdownComplete chan struct{}
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(queue Queue, producer messageWriter, registry schemaRegistrar, logger zerolog.Logger, pollInterval time.Duration, batchSize int) *Dispatcher {
	return &Dispatcher{
		queue:            queue,
		producer:         producer,
		registry:         registry,
		logger:           logger.With().Str("component", "outbox_dispatcher").Logger(),
		pollInterval:     pollInterval,
		batchSize:        batchSize,
		now:              time.Now,
		shutdownComplete: make(chan struct{}),
	}
}

// Start launches the polling loop. It should be called in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer func() {
		ticker.Stop()
		close(d.shutdownComplete)
	}()

	for {
		if _, err := d.processBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error().Err(err).Msg("outbox batch failed")
		}
		d.reportBacklog(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *Dispatcher) reportBacklog(ctx context.Context) {
	b, ok := d.queue.(backlogger)
	if !ok {
		return
	}
	n, err := b.Backlog(ctx)
	if err != nil {
		if ctx.Err() == nil {
			d.logger.Warn().Err(err).Msg("outbox backlog query failed")
		}
		return
	}
	backlogGauge.Set(float64(n))
}

// Wait waits until dispatcher stops.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

type failure struct {
	msg    Message
	reason string
}

// processBatch claims one batch, publishes it and returns how many events
// reached Kafka. Events that could not be published are moved to the DLQ;
// every claimed row is then marked published.
func (d *Dispatcher) processBatch(ctx context.Context) (int, error) {
	start := time.Now()

	messages, err := d.queue.Claim(ctx, d.batchSize)
	if err != nil {
		return 0, fmt.Errorf("claim outbox batch: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}
	defer func() { batchDuration.Observe(time.Since(start).Seconds()) }()

	delivered, failures := d.deliver(ctx, messages)
	if err := ctx.Err(); err != nil {
		// Unmarked rows are claimed again once the claim expires.
		return delivered, err
	}
	deliveredCounter.Add(float64(delivered))

	if len(failures) > 0 {
		failedCounter.Add(float64(len(failures)))
		for _, f := range failures {
			d.logger.Warn().
				Int64("event_id", f.msg.EventID).
				Str("event_type", f.msg.EventType).
				Str("topic", f.msg.Topic).
				Str("reason", f.reason).
				Msg("outbox delivery failed, moving to dlq")
			if err := d.queue.MoveToDLQ(ctx, f.msg, fmt.Sprintf("%s (topic=%s)", f.reason, f.msg.Topic)); err != nil {
				return delivered, fmt.Errorf("move event %d to dlq: %w", f.msg.EventID, err)
			}
			dlqCounter.WithLabelValues(f.msg.Topic).Inc()
		}
	}

	ids := make([]int64, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.EventID)
	}
	if err := d.queue.MarkPublished(ctx, ids); err != nil {
		return delivered, fmt.Errorf("mark outbox published: %w", err)
	}
	return delivered, nil
}

type topicBatch struct {
	records  []kafka.Message
	messages []Message
}

func (d *Dispatcher) deliver(ctx context.Context, messages []Message) (int, []failure) {
	var failures []failure
	batches := make(map[string]*topicBatch)
	var topics []string

	for _, msg := range messages {
		record, err := d.encode(ctx, msg)
		if err != nil {
			failures = append(failures, failure{msg: msg, reason: err.Error()})
			continue
		}
		batch, ok := batches[msg.Topic]
		if !ok {
			batch = &topicBatch{}
			batches[msg.Topic] = batch
			topics = append(topics, msg.Topic)
		}
		batch.records = append(batch.records, record)
		batch.messages = append(batch.messages, msg)
	}

	delivered := 0
	for _, topic := range topics {
		batch := batches[topic]
		if err := d.producer.WriteMessages(ctx, topic, batch.records...); err != nil {
			for _, msg := range batch.messages {
				failures = append(failures, failure{msg: msg, reason: err.Error()})
			}
			continue
		}
		delivered += len(batch.records)
	}
	return delivered, failures
}

func (d *Dispatcher) encode(ctx context.Context, msg Message) (kafka.Message, error) {
	meta, ok := events.Lookup(msg.EventType)
	if !ok {
		return kafka.Message{}, fmt.Errorf("no schema metadata for event_type=%s", msg.EventType)
	}
	schemaID, err := d.schemaID(ctx, msg.SchemaSubject, meta.Schema)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(msg.PartitionKey),
		Value: events.Frame(schemaID, msg.Payload),
		Time:  d.now().UTC(),
		Headers: []kafka.Header{
			{Key: events.HeaderEventType, Value: []byte(msg.EventType)},
			{Key: events.HeaderSchemaSubject, Value: []byte(msg.SchemaSubject)},
			{Key: events.HeaderEventID, Value: []byte(msg.EventKey)},
		},
	}, nil
}

func (d *Dispatcher) schemaID(ctx context.Context, subject, schema string) (int, error) {
	if cached, ok := d.schemaIDCache.Load(subject); ok {
		return cached.(int), nil
	}
	id, err := d.registry.EnsureSchema(ctx, subject, schema)
	if err != nil {
		return 0, fmt.Errorf("ensure schema %s: %w", subject, err)
	}
	d.schemaIDCache.Store(subject, id)
	return id, nil
}
