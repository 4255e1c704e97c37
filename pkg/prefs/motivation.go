package prefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MotivationCollection is the record set holding motivation configuration.
const MotivationCollection = "Motivation"

// MotivationConfig is a player's motivation-message preference. A zero
// Minimum means the player never set one and the default threshold applies.
type MotivationConfig struct {
	PlayerID string
	Enabled  bool
	Minimum  time.Duration
}

// MotivationStore is the per-player motivation configuration, at most one
// row per player.
type MotivationStore interface {
	Enable(ctx context.Context, playerID string) error
	Disable(ctx context.Context, playerID string) error

	// SetMinimum stores the player's threshold without touching the
	// enabled flag.
	SetMinimum(ctx context.Context, playerID string, min time.Duration) error

	// Get returns the player's configuration or ErrNoConfig.
	Get(ctx context.Context, playerID string) (MotivationConfig, error)
}

type motivationDoc struct {
	PlayerID       string `bson:"phone_number"`
	Enabled        bool   `bson:"enabled"`
	MinimumSeconds int64  `bson:"minimum_seconds,omitempty"`
}

// MongoMotivationStore implements MotivationStore on the Motivation collection
type MongoMotivationStore struct {
	coll *mongo.Collection
	ops  mongoOps
}

func NewMongoMotivationStore(db *mongo.Database, opTimeout time.Duration) *MongoMotivationStore {
	return &MongoMotivationStore{
		coll: db.Collection(MotivationCollection),
		ops:  newMongoOps(opTimeout),
	}
}

func (s *MongoMotivationStore) setEnabled(ctx context.Context, playerID string, enabled bool) error {
	update := bson.M{"$set": bson.M{"enabled": enabled}}
	err := s.ops.do(ctx, func(opCtx context.Context) error {
		_, opErr := s.coll.UpdateOne(opCtx, bson.M{"phone_number": playerID}, update, options.Update().SetUpsert(true))
		return opErr
	})
	if err != nil {
		return fmt.Errorf("set motivation enabled=%t for %s: %w", enabled, playerID, err)
	}
	return nil
}

func (s *MongoMotivationStore) Enable(ctx context.Context, playerID string) error {
	return s.setEnabled(ctx, playerID, true)
}

func (s *MongoMotivationStore) Disable(ctx context.Context, playerID string) error {
	return s.setEnabled(ctx, playerID, false)
}

func (s *MongoMotivationStore) SetMinimum(ctx context.Context, playerID string, min time.Duration) error {
	update := bson.M{
		"$set":         bson.M{"minimum_seconds": int64(min / time.Second)},
		"$setOnInsert": bson.M{"enabled": false},
	}
	err := s.ops.do(ctx, func(opCtx context.Context) error {
		_, opErr := s.coll.UpdateOne(opCtx, bson.M{"phone_number": playerID}, update, options.Update().SetUpsert(true))
		return opErr
	})
	if err != nil {
		return fmt.Errorf("set motivation minimum for %s: %w", playerID, err)
	}
	return nil
}

func (s *MongoMotivationStore) Get(ctx context.Context, playerID string) (MotivationConfig, error) {
	var doc motivationDoc
	err := s.ops.do(ctx, func(opCtx context.Context) error {
		opErr := s.coll.FindOne(opCtx, bson.M{"phone_number": playerID}).Decode(&doc)
		if opErr == mongo.ErrNoDocuments {
			return ErrNoConfig
		}
		return opErr
	})
	if errors.Is(err, ErrNoConfig) {
		return MotivationConfig{}, ErrNoConfig
	}
	if err != nil {
		return MotivationConfig{}, fmt.Errorf("motivation lookup for %s: %w", playerID, err)
	}
	return MotivationConfig{
		PlayerID: doc.PlayerID,
		Enabled:  doc.Enabled,
		Minimum:  time.Duration(doc.MinimumSeconds) * time.Second,
	}, nil
}
