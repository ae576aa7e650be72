package outbox

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/meetup/internal/events"
)

func TestKafkaProducerHasWriterPerTopic(t *testing.T) {
	p := NewKafkaProducer([]string{"localhost:9092"})
	defer p.Close()

	require.Len(t, p.writers, len(events.Topics()))
	for _, topic := range events.Topics() {
		writer := p.writers[topic]
		require.NotNil(t, writer, topic)
		require.Equal(t, topic, writer.Topic)
		require.IsType(t, &kafka.Hash{}, writer.Balancer)
	}
}

func TestKafkaProducerRejectsUnknownTopic(t *testing.T) {
	p := NewKafkaProducer([]string{"localhost:9092"})
	defer p.Close()

	err := p.WriteMessages(context.Background(), "nope", kafka.Message{Value: []byte("x")})
	require.ErrorContains(t, err, `no writer for topic "nope"`)
}
