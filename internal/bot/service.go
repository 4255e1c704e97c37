// Package bot digests inbound player commands, mutates the submission
// ledger and configuration stores, and queues every reply on the outbound
// topic.
package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/ledger"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/logger"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/metrics"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/motivate"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/ocr"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/outbound"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/prefs"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/puzzletime"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/whatsapp"

	"go.uber.org/zap"
)

// Player identifies the sender of an inbound message.
type Player struct {
	ID   string
	Name string
}

var (
	retroRe             = regexp.MustCompile(`([0-9]{2}-[0-9]{2}-[0-9]{4}:[0-9]{2}:[0-9]{2}) ((\d+:)?[0-5][0-9]:[0-5][0-9])`)
	configOptionRe      = regexp.MustCompile(`^!(?:reminder|motivation) ([A-Za-z]+)`)
	reminderClockRe     = regexp.MustCompile(`^!reminder [A-Za-z]+ ((?:[0-1]?[0-9]|2[0-3]):[0-5][0-9])`)
	motivationMinimumRe = regexp.MustCompile(`^!motivation [A-Za-z]+ ((\d+:)?[0-5][0-9]:[0-5][0-9])`)
)

// Service coordinates the command handlers
type Service struct {
	ledger     ledger.Store
	reminders  prefs.ReminderStore
	motivation prefs.MotivationStore
	publisher  outbound.Publisher
	media      whatsapp.MediaFetcher
	extractor  ocr.Extractor
	logger     *logger.Logger
	loc        *time.Location

	now   func() time.Time
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService creates a new bot Service instance
func NewService(
	l *logger.Logger,
	led ledger.Store,
	reminders prefs.ReminderStore,
	motivation prefs.MotivationStore,
	publisher outbound.Publisher,
	media whatsapp.MediaFetcher,
	extractor ocr.Extractor,
	loc *time.Location,
) *Service {
	return &Service{
		ledger:     led,
		reminders:  reminders,
		motivation: motivation,
		publisher:  publisher,
		media:      media,
		extractor:  extractor,
		logger:     l,
		loc:        loc,
		now:        func() time.Time { return time.Now().In(loc) },
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// roll returns a random int in [0, n). The source is shared by every
// webhook goroutine, so access is serialized.
func (s *Service) roll(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

// reply queues one outbound text for the player
func (s *Service) reply(ctx context.Context, playerID, text string) error {
	err := s.publisher.Publish(ctx, outbound.Message{PlayerID: playerID, Text: text})
	if err != nil {
		return fmt.Errorf("queue reply for %s: %w", playerID, err)
	}
	metrics.OutboundPublishedTotal.Inc()
	return nil
}

// HandleText routes a text command. Unrecognized text is ignored so group
// chatter never triggers the bot.
func (s *Service) HandleText(ctx context.Context, p Player, text string) error {
	switch {
	case strings.HasPrefix(text, "!submit"):
		return s.handleSubmit(ctx, p, text)
	case strings.HasPrefix(text, "!edit"):
		return s.handleEdit(ctx, p, text)
	case strings.HasPrefix(text, "!retro"):
		return s.handleRetro(ctx, p, text)
	case strings.HasPrefix(text, "!reminder"):
		return s.handleReminder(ctx, p, text)
	case strings.HasPrefix(text, "!motivation"):
		return s.handleMotivation(ctx, p, text)
	}
	return nil
}

// HandleImage runs a screenshot submission: fetch the image, extract its
// text, and accept the time only when it follows the completion banner.
func (s *Service) HandleImage(ctx context.Context, p Player, mediaID string) error {
	image, err := s.media.FetchMedia(ctx, mediaID)
	if err != nil {
		s.logger.Error("failed to fetch media", err, zap.String("player_id", p.ID))
		return s.reply(ctx, p.ID, msgNoTimeInImage)
	}

	text, err := s.extractor.Extract(ctx, image)
	if err != nil {
		s.logger.Error("failed to extract text from image", err, zap.String("player_id", p.ID))
		return s.reply(ctx, p.ID, msgNoTimeInImage)
	}

	d, ok := puzzletime.ParseScreenshot(text)
	if !ok {
		metrics.BotParseFailuresTotal.Inc()
		return s.reply(ctx, p.ID, msgNoTimeInImage)
	}

	return s.recordSubmission(ctx, p, d, "image")
}

func (s *Service) handleSubmit(ctx context.Context, p Player, text string) error {
	d, ok := puzzletime.ParseDuration(text)
	if !ok {
		metrics.BotParseFailuresTotal.Inc()
		return s.reply(ctx, p.ID, msgNoTimeInMessage)
	}
	return s.recordSubmission(ctx, p, d, "text")
}

// recordSubmission is the shared tail of text and image submissions:
// ledger insert, confirmation, easter egg, motivation band.
func (s *Service) recordSubmission(ctx context.Context, p Player, d time.Duration, kind string) error {
	err := s.ledger.Submit(ctx, p.ID, p.Name, d, s.now())
	if errors.Is(err, ledger.ErrAlreadySubmitted) {
		metrics.BotConflictsTotal.WithLabelValues("already_submitted").Inc()
		return s.reply(ctx, p.ID, msgAlreadySubmitted)
	}
	if err != nil {
		metrics.BotStoreErrorsTotal.Inc()
		s.logger.Error("submit failed", err, zap.String("player_id", p.ID))
		return s.reply(ctx, p.ID, msgStoreFailure)
	}

	metrics.BotSubmissionsTotal.WithLabelValues(kind).Inc()
	if err := s.reply(ctx, p.ID, fmt.Sprintf("Saved time %s.", puzzletime.Format(d))); err != nil {
		return err
	}
	if err := s.maybeEasterEgg(ctx, p.ID); err != nil {
		return err
	}
	return s.sendMotivation(ctx, p.ID, d)
}

func (s *Service) handleEdit(ctx context.Context, p Player, text string) error {
	d, ok := puzzletime.ParseDuration(text)
	if !ok {
		metrics.BotParseFailuresTotal.Inc()
		return s.reply(ctx, p.ID, msgNoTimeInMessage)
	}

	err := s.ledger.Edit(ctx, p.ID, d, s.now())
	if errors.Is(err, ledger.ErrNoSubmissionToday) {
		metrics.BotConflictsTotal.WithLabelValues("nothing_to_edit").Inc()
		return s.reply(ctx, p.ID, msgNoSubmissionToday)
	}
	if err != nil {
		metrics.BotStoreErrorsTotal.Inc()
		s.logger.Error("edit failed", err, zap.String("player_id", p.ID))
		return s.reply(ctx, p.ID, msgStoreFailure)
	}

	metrics.BotSubmissionsTotal.WithLabelValues("edit").Inc()
	return s.reply(ctx, p.ID, fmt.Sprintf("Updated time to %s.", puzzletime.Format(d)))
}

func (s *Service) handleRetro(ctx context.Context, p Player, text string) error {
	m := retroRe.FindStringSubmatch(text)
	if m == nil {
		metrics.BotParseFailuresTotal.Inc()
		return s.reply(ctx, p.ID, msgRetroUsage)
	}

	target, ok := puzzletime.ParseRetroTarget(m[1], s.loc)
	if !ok {
		metrics.BotParseFailuresTotal.Inc()
		return s.reply(ctx, p.ID, msgRetroUsage)
	}
	d, ok := puzzletime.ParseDuration(m[2])
	if !ok {
		metrics.BotParseFailuresTotal.Inc()
		return s.reply(ctx, p.ID, msgRetroUsage)
	}

	err := s.ledger.SubmitRetro(ctx, p.ID, p.Name, d, target)
	if errors.Is(err, ledger.ErrAlreadySubmittedForDay) {
		metrics.BotConflictsTotal.WithLabelValues("retro_day_taken").Inc()
		return s.reply(ctx, p.ID, msgAlreadyForRetroDay)
	}
	if err != nil {
		metrics.BotStoreErrorsTotal.Inc()
		s.logger.Error("retro submit failed", err, zap.String("player_id", p.ID))
		return s.reply(ctx, p.ID, msgStoreFailure)
	}

	metrics.BotSubmissionsTotal.WithLabelValues("retro").Inc()
	return s.reply(ctx, p.ID, fmt.Sprintf("Saved time %s for %s.", puzzletime.Format(d), m[1]))
}

func (s *Service) handleReminder(ctx context.Context, p Player, text string) error {
	m := configOptionRe.FindStringSubmatch(text)
	if m == nil {
		return s.reply(ctx, p.ID, msgReminderUsage)
	}

	var at *puzzletime.Clock
	if cm := reminderClockRe.FindStringSubmatch(text); cm != nil {
		if clock, ok := puzzletime.ParseClock(cm[1]); ok {
			at = &clock
		}
	}

	switch strings.ToLower(m[1]) {
	case "enable":
		err := s.reminders.Enable(ctx, p.ID, at)
		if errors.Is(err, prefs.ErrNoConfig) {
			return s.reply(ctx, p.ID, msgReminderNoExisting)
		}
		if err != nil {
			metrics.BotStoreErrorsTotal.Inc()
			s.logger.Error("reminder enable failed", err, zap.String("player_id", p.ID))
			return s.reply(ctx, p.ID, msgStoreFailure)
		}
		if at != nil {
			return s.reply(ctx, p.ID, fmt.Sprintf("Notifications enabled, time set to %s.", at))
		}
		return s.reply(ctx, p.ID, msgReminderReEnabled)

	case "disable":
		if err := s.reminders.Disable(ctx, p.ID); err != nil {
			metrics.BotStoreErrorsTotal.Inc()
			s.logger.Error("reminder disable failed", err, zap.String("player_id", p.ID))
			return s.reply(ctx, p.ID, msgStoreFailure)
		}
		return s.reply(ctx, p.ID, msgReminderDisabled)

	case "set":
		if at == nil {
			return s.reply(ctx, p.ID, msgReminderNoTime)
		}
		err := s.reminders.SetTime(ctx, p.ID, *at)
		if errors.Is(err, prefs.ErrNoConfig) {
			return s.reply(ctx, p.ID, msgReminderNothingSet)
		}
		if err != nil {
			metrics.BotStoreErrorsTotal.Inc()
			s.logger.Error("reminder set failed", err, zap.String("player_id", p.ID))
			return s.reply(ctx, p.ID, msgStoreFailure)
		}
		return s.reply(ctx, p.ID, fmt.Sprintf("Reminder time updated to %s.", at))

	default:
		return s.reply(ctx, p.ID, msgReminderUsage)
	}
}

func (s *Service) handleMotivation(ctx context.Context, p Player, text string) error {
	m := configOptionRe.FindStringSubmatch(text)
	if m == nil {
		return s.reply(ctx, p.ID, msgMotivationUsage)
	}

	switch strings.ToLower(m[1]) {
	case "enable":
		if err := s.motivation.Enable(ctx, p.ID); err != nil {
			metrics.BotStoreErrorsTotal.Inc()
			s.logger.Error("motivation enable failed", err, zap.String("player_id", p.ID))
			return s.reply(ctx, p.ID, msgStoreFailure)
		}
		endearment := endearments[s.roll(len(endearments))]
		return s.reply(ctx, p.ID, fmt.Sprintf("Motivation enabled for you my %s.", endearment))

	case "disable":
		if err := s.motivation.Disable(ctx, p.ID); err != nil {
			metrics.BotStoreErrorsTotal.Inc()
			s.logger.Error("motivation disable failed", err, zap.String("player_id", p.ID))
			return s.reply(ctx, p.ID, msgStoreFailure)
		}
		return s.reply(ctx, p.ID, msgMotivationDisabled)

	case "set":
		tm := motivationMinimumRe.FindStringSubmatch(text)
		if tm == nil {
			return s.reply(ctx, p.ID, msgMotivationBadTime)
		}
		min, ok := puzzletime.ParseDuration(tm[1])
		if !ok {
			return s.reply(ctx, p.ID, msgMotivationBadTime)
		}
		if err := s.motivation.SetMinimum(ctx, p.ID, min); err != nil {
			metrics.BotStoreErrorsTotal.Inc()
			s.logger.Error("motivation set failed", err, zap.String("player_id", p.ID))
			return s.reply(ctx, p.ID, msgStoreFailure)
		}
		return s.reply(ctx, p.ID,
			fmt.Sprintf("Motivation minimum set to %s. I'm sure it won't be there for long! 🦾", puzzletime.Format(min)))

	default:
		return s.reply(ctx, p.ID, msgMotivationUsage)
	}
}

func (s *Service) maybeEasterEgg(ctx context.Context, playerID string) error {
	if s.roll(100) != 99 {
		return nil
	}
	return s.reply(ctx, playerID, randomMessages[s.roll(len(randomMessages))])
}

// sendMotivation picks the message band for the submitted time. A store
// failure here is logged and swallowed: the submission already landed.
func (s *Service) sendMotivation(ctx context.Context, playerID string, d time.Duration) error {
	cfg, err := s.motivation.Get(ctx, playerID)
	if errors.Is(err, prefs.ErrNoConfig) {
		return nil
	}
	if err != nil {
		s.logger.Warn("motivation lookup failed", zap.Error(err), zap.String("player_id", playerID))
		return nil
	}
	if !cfg.Enabled {
		return nil
	}

	var band []string
	if motivate.Classify(d, motivate.Threshold(cfg.Minimum)) == motivate.Fast {
		band = fastMessages
	} else {
		band = slowMessages
	}
	return s.reply(ctx, playerID, band[s.roll(len(band))])
}
