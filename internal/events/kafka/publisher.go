package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"github.com/simplebank/backend/internal/events"
)

// Publisher writes events as JSON messages to Kafka. One writer serves
// all topics; the message carries the topic per call.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
	}
}

var _ events.Publisher = (*Publisher)(nil)

func (p *Publisher) Publish(topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(context.Background(), kafka.Message{
		Topic: topic,
		Value: data,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
