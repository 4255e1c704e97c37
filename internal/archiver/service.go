// Package archiver drives the ledger-to-PostgreSQL mirror: it tails the
// submission change stream, batches events, and upserts leaderboard rows,
// persisting the resume token after each landed batch.
package archiver

import (
	"context"
	"fmt"
	"time"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/archive"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/logger"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/metrics"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/retry"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Service coordinates the archiver components
type Service struct {
	logger        *logger.Logger
	tailer        archive.Tailer
	tokens        archive.TokenStore
	writer        archive.Writer
	buffer        *archive.Buffer
	loc           *time.Location
	flushInterval time.Duration
	retryOpts     retry.Options
}

// NewService creates a new archiver Service instance
func NewService(
	l *logger.Logger,
	tailer archive.Tailer,
	tokens archive.TokenStore,
	writer archive.Writer,
	buffer *archive.Buffer,
	loc *time.Location,
	flushInterval time.Duration,
) *Service {
	return &Service{
		logger:        l,
		tailer:        tailer,
		tokens:        tokens,
		writer:        writer,
		buffer:        buffer,
		loc:           loc,
		flushInterval: flushInterval,
		retryOpts: retry.Options{
			MaxAttempts: 3,
			Interval:    time.Second,
		},
	}
}

// Stop gracefully shuts down the tailer and writer
func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("stopping archiver service")

	errs := []error{}
	if err := s.tailer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close tailer: %w", err))
	}
	if err := s.writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close writer: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}

// Run starts the tail-buffer-flush loop and blocks until the context is
// cancelled or the stream fails.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("starting archiver service")

	defer func() {
		if err := s.Stop(context.Background()); err != nil {
			s.logger.Error("error during service stop", err)
		}
	}()

	resumeToken, err := s.tokens.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load resume token: %w", err)
	}
	if resumeToken != nil {
		s.logger.Info("resuming change stream from saved token")
	}

	eventChan, errChan := s.tailer.Tail(ctx, resumeToken)

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				// the tailer reports its failure just before closing both
				// channels, and the select may land here first
				select {
				case err := <-errChan:
					if err != nil {
						return fmt.Errorf("change stream error: %w", err)
					}
				default:
				}
				return s.flush(context.Background())
			}
			metrics.ArchiverEventsTotal.Inc()
			if s.buffer.Add(event) {
				if err := s.flush(ctx); err != nil {
					return err
				}
			}

		case <-ticker.C:
			if s.buffer.ShouldFlush(s.flushInterval) {
				if err := s.flush(ctx); err != nil {
					return err
				}
			}

		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("change stream error: %w", err)
			}

		case <-ctx.Done():
			// drain what we have before exiting
			return s.flush(context.Background())
		}
	}
}

// flush writes the buffered batch and then persists the resume token of
// its last event. The token is saved strictly after the rows land, so a
// crash between the two replays the batch instead of dropping it; replays
// fold into the same per-day rows.
func (s *Service) flush(ctx context.Context) error {
	events := s.buffer.Flush()
	if len(events) == 0 {
		return nil
	}

	rows := make([]archive.Row, 0, len(events))
	var lastToken bson.Raw
	for _, e := range events {
		lastToken = e.ResumeToken
		if e.Submission.PlayerID == "" {
			// deletes and other ops without a document only advance the token
			continue
		}
		rows = append(rows, archive.RowFromSubmission(e.Submission, s.loc))
	}

	if len(rows) > 0 {
		err := retry.Do(ctx, func() error {
			return s.writer.WriteBatch(ctx, rows)
		}, s.retryOpts)
		if err != nil {
			metrics.ArchiverWriteErrorsTotal.Inc()
			return fmt.Errorf("failed to write archive batch after retries: %w", err)
		}
		metrics.ArchiverBatchWritesTotal.Inc()
	}

	err := retry.Do(ctx, func() error {
		return s.tokens.Save(ctx, lastToken)
	}, s.retryOpts)
	if err != nil {
		return fmt.Errorf("failed to save resume token after retries: %w", err)
	}
	metrics.ArchiverTokenSavesTotal.Inc()

	s.logger.Debug("flushed archive batch",
		zap.Int("events", len(events)),
		zap.Int("rows", len(rows)),
	)
	return nil
}
