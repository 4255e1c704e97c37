// Package sender bridges the outbound topic and WhatsApp: it consumes
// queued messages and fans them out over the delivery pool.
package sender

import (
	"context"
	"fmt"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/dispatch"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/logger"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/outbound"
)

// Service coordinates the sender components
type Service struct {
	logger   *logger.Logger
	consumer outbound.Consumer
	pool     *dispatch.Pool
}

// NewService creates a new sender Service instance
func NewService(l *logger.Logger, c outbound.Consumer, p *dispatch.Pool) *Service {
	return &Service{
		logger:   l,
		consumer: c,
		pool:     p,
	}
}

// Start begins the consumption and delivery loop
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("starting sender service")

	s.pool.Start(ctx)

	deliveries, errChan := s.consumer.Consume(ctx)

	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			if err := s.pool.Submit(ctx, d); err != nil {
				return fmt.Errorf("submit delivery: %w", err)
			}

		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("consumer error: %w", err)
			}

		case <-ctx.Done():
			return s.Shutdown(context.Background())
		}
	}
}

// Shutdown stops the pool and consumer gracefully
func (s *Service) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down sender service")

	errPool := s.pool.Shutdown(ctx)
	errCons := s.consumer.Close()

	if errPool != nil || errCons != nil {
		return fmt.Errorf("shutdown errors: pool=%v, consumer=%v", errPool, errCons)
	}
	return nil
}
