// Package dispatch drains the outbound topic and hands each message to
// the WhatsApp client across a small pool of workers.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/logger"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/metrics"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/outbound"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/retry"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/whatsapp"

	"go.uber.org/zap"
)

// Pool manages a collection of delivery workers
type Pool struct {
	logger     *logger.Logger
	sender     whatsapp.Sender
	consumer   outbound.Consumer
	numWorkers int
	jobs       chan outbound.Delivery
	wg         sync.WaitGroup
	retryOpts  retry.Options
}

// NewPool creates a new Pool instance
func NewPool(l *logger.Logger, sender whatsapp.Sender, consumer outbound.Consumer, numWorkers int) *Pool {
	return &Pool{
		logger:     l,
		sender:     sender,
		consumer:   consumer,
		numWorkers: numWorkers,
		jobs:       make(chan outbound.Delivery, numWorkers*2), // Buffered for smooth handoff
		retryOpts: retry.Options{
			MaxAttempts: 2,
			Interval:    time.Second,
		},
	}
}

// Start initializes the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
}

// Submit hands a delivery to the pool
func (p *Pool) Submit(ctx context.Context, d outbound.Delivery) error {
	select {
	case p.jobs <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("delivery worker started", zap.Int("worker_id", id))

	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.deliver(ctx, job)

		case <-ctx.Done():
			return
		}
	}
}

// deliver sends the message and commits its offset. Delivery failures are
// logged and the offset is committed anyway: a down delivery channel must
// never wedge the topic, and ledger state is unaffected either way.
func (p *Pool) deliver(ctx context.Context, job outbound.Delivery) {
	start := time.Now()
	err := retry.Do(ctx, func() error {
		return p.sender.SendText(ctx, job.Msg.PlayerID, job.Msg.Text)
	}, p.retryOpts)

	if err != nil {
		metrics.DeliveryErrorsTotal.Inc()
		p.logger.Error("failed to deliver message", err,
			zap.String("player_id", job.Msg.PlayerID),
			zap.Int64("offset", job.Offset))
	} else {
		metrics.DeliveryLatency.Observe(time.Since(start).Seconds())
		p.logger.Debug("delivered message",
			zap.String("player_id", job.Msg.PlayerID))
	}

	if commitErr := p.consumer.Commit(ctx, job); commitErr != nil {
		p.logger.Error("failed to commit offset", commitErr, zap.Int64("offset", job.Offset))
	}
}

// Shutdown stops all workers and waits for them to finish
func (p *Pool) Shutdown(ctx context.Context) error {
	close(p.jobs)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
