package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/meetup/internal/events"
)

// KafkaProducer holds one writer per topic of the event catalog.
type KafkaProducer struct {
	writers map[string]*kafka.Writer
}

// NewKafkaProducer creates writers for every topic in events.Topics.
// Records sharing a key (the aggregate id) are hashed onto one partition so
// consumers see an aggregate's events in order.
func NewKafkaProducer(brokers []string) *KafkaProducer {
	p := &KafkaProducer{writers: make(map[string]*kafka.Writer)}
	for _, topic := range events.Topics() {
		p.writers[topic] = &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			Compression:            kafka.Snappy,
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
		}
	}
	return p
}

// WriteMessages writes a batch to topic.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	writer, ok := p.writers[topic]
	if !ok {
		return fmt.Errorf("no writer for topic %q", topic)
	}
	return writer.WriteMessages(ctx, msgs...)
}

// Close flushes and closes every writer.
func (p *KafkaProducer) Close() error {
	var errs error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("close writer %s: %w", topic, err))
		}
	}
	return errs
}
