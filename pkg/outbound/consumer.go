package outbound

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Delivery is one outbound message pulled off the topic, with enough
// bookkeeping to commit it after the send.
type Delivery struct {
	Msg    Message
	Offset int64
	Raw    kafka.Message
}

// Consumer defines the interface for draining the outbound topic
type Consumer interface {
	// Consume returns a channel of deliveries.
	Consume(ctx context.Context) (<-chan Delivery, <-chan error)

	// Commit commits the offset for a specific delivery
	Commit(ctx context.Context, d Delivery) error

	// Close gracefully shuts down the consumer
	Close() error
}

// KafkaConsumer implements the Consumer interface using kafka-go
type KafkaConsumer struct {
	reader *kafka.Reader
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// NewKafkaConsumer creates a new KafkaConsumer instance
func NewKafkaConsumer(cfg ConsumerConfig) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	return &KafkaConsumer{reader: reader}
}

// Consume starts the consumption loop. Payloads that fail to decode are
// reported on the error channel and skipped without stopping the loop.
func (c *KafkaConsumer) Consume(ctx context.Context) (<-chan Delivery, <-chan error) {
	deliveries := make(chan Delivery)
	errChan := make(chan error, 1)

	go func() {
		defer close(deliveries)
		defer close(errChan)

		for {
			m, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				errChan <- fmt.Errorf("failed to fetch message: %w", err)
				return
			}

			msg, err := Decode(m.Value)
			if err != nil {
				// Malformed payload: commit and move on
				if commitErr := c.reader.CommitMessages(ctx, m); commitErr != nil {
					errChan <- fmt.Errorf("commit malformed message: %w", commitErr)
					return
				}
				continue
			}

			select {
			case deliveries <- Delivery{Msg: msg, Offset: m.Offset, Raw: m}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return deliveries, errChan
}

// Commit commits the offset for a delivery
func (c *KafkaConsumer) Commit(ctx context.Context, d Delivery) error {
	return c.reader.CommitMessages(ctx, d.Raw)
}

// Close gracefully shuts down the consumer
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
