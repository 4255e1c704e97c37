package prefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/puzzletime"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RemindersCollection is the record set holding reminder configuration.
const RemindersCollection = "Reminders"

// ReminderConfig is a player's reminder slot.
type ReminderConfig struct {
	PlayerID  string
	Enabled   bool
	TimeOfDay puzzletime.Clock
}

// ReminderStore is the per-player reminder configuration, at most one row
// per player.
type ReminderStore interface {
	// Enable turns reminders on. With a clock the row is created or
	// replaced; with nil an existing row is re-enabled at its stored time,
	// and ErrNoConfig is returned when there is no row to re-enable.
	Enable(ctx context.Context, playerID string, at *puzzletime.Clock) error

	// Disable turns reminders off. A player without a row is left alone.
	Disable(ctx context.Context, playerID string) error

	// SetTime moves an existing reminder slot and re-enables it.
	// ErrNoConfig when the player never enabled reminders.
	SetTime(ctx context.Context, playerID string, at puzzletime.Clock) error

	// Get returns the player's configuration or ErrNoConfig.
	Get(ctx context.Context, playerID string) (ReminderConfig, error)

	// AllEnabled returns every enabled configuration.
	AllEnabled(ctx context.Context) ([]ReminderConfig, error)
}

// reminder times are stored in the wall-clock form players type
type reminderDoc struct {
	PlayerID string `bson:"phone_number"`
	Enabled  bool   `bson:"enabled"`
	Time     string `bson:"time"`
}

func (d reminderDoc) toConfig() (ReminderConfig, error) {
	at, ok := puzzletime.ParseClock(d.Time)
	if !ok {
		return ReminderConfig{}, fmt.Errorf("stored reminder time %q for %s is not a clock time", d.Time, d.PlayerID)
	}
	return ReminderConfig{PlayerID: d.PlayerID, Enabled: d.Enabled, TimeOfDay: at}, nil
}

// MongoReminderStore implements ReminderStore on the Reminders collection
type MongoReminderStore struct {
	coll *mongo.Collection
	ops  mongoOps
}

func NewMongoReminderStore(db *mongo.Database, opTimeout time.Duration) *MongoReminderStore {
	return &MongoReminderStore{
		coll: db.Collection(RemindersCollection),
		ops:  newMongoOps(opTimeout),
	}
}

func (s *MongoReminderStore) Enable(ctx context.Context, playerID string, at *puzzletime.Clock) error {
	if at != nil {
		update := bson.M{"$set": bson.M{"enabled": true, "time": at.String()}}
		err := s.ops.do(ctx, func(opCtx context.Context) error {
			_, opErr := s.coll.UpdateOne(opCtx, bson.M{"phone_number": playerID}, update, options.Update().SetUpsert(true))
			return opErr
		})
		if err != nil {
			return fmt.Errorf("enable reminder for %s: %w", playerID, err)
		}
		return nil
	}

	// Re-enable at the stored time only
	var res *mongo.UpdateResult
	err := s.ops.do(ctx, func(opCtx context.Context) error {
		var opErr error
		res, opErr = s.coll.UpdateOne(opCtx, bson.M{"phone_number": playerID}, bson.M{"$set": bson.M{"enabled": true}})
		return opErr
	})
	if err != nil {
		return fmt.Errorf("re-enable reminder for %s: %w", playerID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNoConfig
	}
	return nil
}

func (s *MongoReminderStore) Disable(ctx context.Context, playerID string) error {
	err := s.ops.do(ctx, func(opCtx context.Context) error {
		_, opErr := s.coll.UpdateOne(opCtx, bson.M{"phone_number": playerID}, bson.M{"$set": bson.M{"enabled": false}})
		return opErr
	})
	if err != nil {
		return fmt.Errorf("disable reminder for %s: %w", playerID, err)
	}
	return nil
}

func (s *MongoReminderStore) SetTime(ctx context.Context, playerID string, at puzzletime.Clock) error {
	var res *mongo.UpdateResult
	err := s.ops.do(ctx, func(opCtx context.Context) error {
		var opErr error
		res, opErr = s.coll.UpdateOne(opCtx, bson.M{"phone_number": playerID}, bson.M{"$set": bson.M{"enabled": true, "time": at.String()}})
		return opErr
	})
	if err != nil {
		return fmt.Errorf("set reminder time for %s: %w", playerID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNoConfig
	}
	return nil
}

func (s *MongoReminderStore) Get(ctx context.Context, playerID string) (ReminderConfig, error) {
	var doc reminderDoc
	err := s.ops.do(ctx, func(opCtx context.Context) error {
		opErr := s.coll.FindOne(opCtx, bson.M{"phone_number": playerID}).Decode(&doc)
		if opErr == mongo.ErrNoDocuments {
			return ErrNoConfig
		}
		return opErr
	})
	if errors.Is(err, ErrNoConfig) {
		return ReminderConfig{}, ErrNoConfig
	}
	if err != nil {
		return ReminderConfig{}, fmt.Errorf("reminder lookup for %s: %w", playerID, err)
	}
	return doc.toConfig()
}

func (s *MongoReminderStore) AllEnabled(ctx context.Context) ([]ReminderConfig, error) {
	var docs []reminderDoc
	err := s.ops.do(ctx, func(opCtx context.Context) error {
		cur, opErr := s.coll.Find(opCtx, bson.M{"enabled": true})
		if opErr != nil {
			return opErr
		}
		docs = nil
		return cur.All(opCtx, &docs)
	})
	if err != nil {
		return nil, fmt.Errorf("enabled reminders: %w", err)
	}

	configs := make([]ReminderConfig, 0, len(docs))
	for _, doc := range docs {
		cfg, convErr := doc.toConfig()
		if convErr != nil {
			return nil, convErr
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}
