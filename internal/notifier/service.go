// Package notifier runs the reminder sweep: once a minute it works out who
// still owes a puzzle time and queues the nudges on the outbound topic.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/ledger"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/logger"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/metrics"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/outbound"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/prefs"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/puzzletime"

	"go.uber.org/zap"
)

const reminderBody = "nice ones all so far"

// carryForwardGrace caps how long after yesterday's submission a player
// stays in the reminder rotation.
const carryForwardGrace = 23*time.Hour + 59*time.Minute

// CarryForward describes a player carried into today's reminder rotation
// off the back of yesterday's submission.
type CarryForward struct {
	Enabled      bool
	ReminderTime puzzletime.Clock
	DueAt        time.Time
}

// Service computes and dispatches reminders.
type Service struct {
	ledger    ledger.Store
	reminders prefs.ReminderStore
	publisher outbound.Publisher
	logger    *logger.Logger
	loc       *time.Location
	tick      time.Duration

	now func() time.Time
}

// NewService creates a new notifier Service instance
func NewService(
	l *logger.Logger,
	led ledger.Store,
	reminders prefs.ReminderStore,
	publisher outbound.Publisher,
	loc *time.Location,
	tick time.Duration,
) *Service {
	return &Service{
		ledger:    led,
		reminders: reminders,
		publisher: publisher,
		logger:    l,
		loc:       loc,
		tick:      tick,
		now:       func() time.Time { return time.Now().In(loc) },
	}
}

// DueReminders returns the enabled configs whose reminder time falls in the
// current minute and whose player has not yet submitted today.
func (s *Service) DueReminders(ctx context.Context, now time.Time) ([]prefs.ReminderConfig, error) {
	now = now.In(s.loc)

	enabled, err := s.reminders.AllEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled reminders: %w", err)
	}

	start, end := ledger.DayWindow(now)

	var due []prefs.ReminderConfig
	for _, cfg := range enabled {
		if !cfg.TimeOfDay.Matches(now) {
			continue
		}
		submitted, err := s.ledger.HasSubmission(ctx, cfg.PlayerID, start, end)
		if err != nil {
			return nil, fmt.Errorf("check submission for %s: %w", cfg.PlayerID, err)
		}
		if submitted {
			continue
		}
		due = append(due, cfg)
	}
	return due, nil
}

// CarryForwardReminders keys yesterday's submitters by player and works out
// when each one's reminder lapses today: the earlier of 23h59m after their
// last submission and today's configured reminder time. Players whose
// moment has already passed are dropped.
func (s *Service) CarryForwardReminders(ctx context.Context, now time.Time) (map[string]CarryForward, error) {
	now = now.In(s.loc)

	yStart, yEnd := ledger.DayWindow(now.AddDate(0, 0, -1))
	todayStart, _ := ledger.DayWindow(now)

	subs, err := s.ledger.SubmissionsBetween(ctx, yStart, yEnd)
	if err != nil {
		return nil, fmt.Errorf("load yesterday's submissions: %w", err)
	}

	carried := make(map[string]CarryForward)
	for _, sub := range subs {
		cfg, err := s.reminders.Get(ctx, sub.PlayerID)
		if errors.Is(err, prefs.ErrNoConfig) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load reminder config for %s: %w", sub.PlayerID, err)
		}

		dueAt := sub.RecordedAt.Add(carryForwardGrace)
		if at := todayStart.Add(cfg.TimeOfDay.Offset()); at.Before(dueAt) {
			dueAt = at
		}
		if !dueAt.After(now) {
			continue
		}

		metrics.CarryForwardCandidatesTotal.Inc()
		carried[sub.PlayerID] = CarryForward{
			Enabled:      cfg.Enabled,
			ReminderTime: cfg.TimeOfDay,
			DueAt:        dueAt,
		}
	}
	return carried, nil
}

// Sweep runs one reminder pass for the given instant. Players whose
// configured time matches the current minute are nudged. On top of that,
// players carried forward from yesterday are nudged early when their
// carry-forward moment lands inside this tick, so a player who solved
// early yesterday is not left waiting for a later fixed slot. Each player
// is nudged at most once per sweep.
func (s *Service) Sweep(ctx context.Context, now time.Time) error {
	now = now.In(s.loc)

	due, err := s.DueReminders(ctx, now)
	if err != nil {
		return err
	}

	nudged := make(map[string]bool, len(due))
	for _, cfg := range due {
		if err := s.nudge(ctx, cfg.PlayerID, cfg.TimeOfDay); err != nil {
			return err
		}
		nudged[cfg.PlayerID] = true
	}

	carried, err := s.CarryForwardReminders(ctx, now)
	if err != nil {
		return err
	}

	start, end := ledger.DayWindow(now)
	for playerID, cf := range carried {
		if nudged[playerID] || !cf.Enabled {
			continue
		}
		if !cf.DueAt.Before(now.Add(s.tick)) {
			continue
		}
		submitted, err := s.ledger.HasSubmission(ctx, playerID, start, end)
		if err != nil {
			return fmt.Errorf("check submission for %s: %w", playerID, err)
		}
		if submitted {
			continue
		}
		if err := s.nudge(ctx, playerID, cf.ReminderTime); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) nudge(ctx context.Context, playerID string, at puzzletime.Clock) error {
	err := s.publisher.Publish(ctx, outbound.Message{PlayerID: playerID, Text: reminderBody})
	if err != nil {
		return fmt.Errorf("queue reminder for %s: %w", playerID, err)
	}
	metrics.RemindersDueTotal.Inc()
	s.logger.Info("queued reminder",
		zap.String("player_id", playerID),
		zap.String("reminder_time", at.String()),
	)
	return nil
}

// Run sweeps on every tick until the context is cancelled. The tick should
// be one minute: reminder times have minute precision and a sweep fires
// only for configs matching the current minute.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("notifier started", zap.Duration("tick", s.tick))

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("notifier stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx, s.now()); err != nil {
				s.logger.Error("reminder sweep failed", err)
			}
		}
	}
}
