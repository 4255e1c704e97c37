package outbound

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Publisher defines the interface for queuing outbound messages
type Publisher interface {
	// Publish queues one message for delivery. Keyed by player so a
	// player's messages stay ordered.
	Publish(ctx context.Context, m Message) error

	// Close gracefully shuts down the publisher
	Close() error
}

// KafkaPublisher implements Publisher using kafka-go
type KafkaPublisher struct {
	writer *kafka.Writer
}

// Config holds Kafka publisher configuration
type Config struct {
	Brokers []string
	Topic   string
}

// NewKafkaPublisher creates a new KafkaPublisher instance
func NewKafkaPublisher(cfg Config) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	}

	return &KafkaPublisher{writer: writer}
}

// Publish writes the message to the outbound topic synchronously, so a
// failed enqueue surfaces to the caller before the command is acknowledged
func (p *KafkaPublisher) Publish(ctx context.Context, m Message) error {
	value, err := Encode(m)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(m.PlayerID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish outbound message for %s: %w", m.PlayerID, err)
	}
	return nil
}

// Close gracefully shuts down the publisher
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
