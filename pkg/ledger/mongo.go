package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/retry"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the record set holding submissions.
const Collection = "Times"

// MongoStore implements Store on a MongoDB collection
type MongoStore struct {
	coll      *mongo.Collection
	opTimeout time.Duration
	retryOpts retry.Options
}

// NewMongoStore creates a ledger backed by the Times collection of db
func NewMongoStore(db *mongo.Database, opTimeout time.Duration) *MongoStore {
	return &MongoStore{
		coll:      db.Collection(Collection),
		opTimeout: opTimeout,
		retryOpts: retry.StoreOptions(isTransient),
	}
}

func isTransient(err error) bool {
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}

// do runs one store round trip under the op timeout, retrying once on
// transient connectivity failure
func (s *MongoStore) do(ctx context.Context, fn func(context.Context) error) error {
	return retry.Do(ctx, func() error {
		opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
		defer cancel()
		return fn(opCtx)
	}, s.retryOpts)
}

// Submit inserts today's submission unless one already exists. If the
// first attempt lands server-side but its response is lost, the retry
// matches the just-inserted row and reports ErrAlreadySubmitted even
// though the time was saved; the !edit path covers that rare case.
func (s *MongoStore) Submit(ctx context.Context, playerID, name string, d time.Duration, now time.Time) error {
	start, end := DayWindow(now)

	filter := bson.M{
		"phone_number": playerID,
		"retro":        bson.M{"$ne": true},
		"load_ts":      bson.M{"$gte": start, "$lt": end},
	}
	// phone_number is synthesized into the new document from the equality
	// filter; everything behind an operator has to be set explicitly.
	update := bson.M{"$setOnInsert": bson.M{
		"user":             name,
		"duration_seconds": int64(d / time.Second),
		"load_ts":          now,
		"retro":            false,
	}}

	var res *mongo.UpdateResult
	err := s.do(ctx, func(opCtx context.Context) error {
		var opErr error
		res, opErr = s.coll.UpdateOne(opCtx, filter, update, options.Update().SetUpsert(true))
		return opErr
	})
	if err != nil {
		return fmt.Errorf("submit for %s: %w", playerID, err)
	}
	if res.MatchedCount > 0 {
		return ErrAlreadySubmitted
	}
	return nil
}

func (s *MongoStore) Edit(ctx context.Context, playerID string, d time.Duration, now time.Time) error {
	start, end := DayWindow(now)

	filter := bson.M{
		"phone_number": playerID,
		"retro":        bson.M{"$ne": true},
		"load_ts":      bson.M{"$gte": start, "$lt": end},
	}
	update := bson.M{"$set": bson.M{"duration_seconds": int64(d / time.Second)}}

	var res *mongo.UpdateResult
	err := s.do(ctx, func(opCtx context.Context) error {
		var opErr error
		res, opErr = s.coll.UpdateOne(opCtx, filter, update)
		return opErr
	})
	if err != nil {
		return fmt.Errorf("edit for %s: %w", playerID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNoSubmissionToday
	}
	return nil
}

func (s *MongoStore) SubmitRetro(ctx context.Context, playerID, name string, d time.Duration, target time.Time) error {
	start, end := DayWindow(target)

	// A retro submission is blocked by any row in the target window,
	// retro or not.
	filter := bson.M{
		"phone_number": playerID,
		"load_ts":      bson.M{"$gte": start, "$lt": end},
	}
	update := bson.M{"$setOnInsert": bson.M{
		"user":             name,
		"duration_seconds": int64(d / time.Second),
		"load_ts":          target,
		"retro":            true,
	}}

	var res *mongo.UpdateResult
	err := s.do(ctx, func(opCtx context.Context) error {
		var opErr error
		res, opErr = s.coll.UpdateOne(opCtx, filter, update, options.Update().SetUpsert(true))
		return opErr
	})
	if err != nil {
		return fmt.Errorf("retro submit for %s: %w", playerID, err)
	}
	if res.MatchedCount > 0 {
		return ErrAlreadySubmittedForDay
	}
	return nil
}

func (s *MongoStore) HasSubmission(ctx context.Context, playerID string, start, end time.Time) (bool, error) {
	filter := bson.M{
		"phone_number": playerID,
		"load_ts":      bson.M{"$gte": start, "$lt": end},
	}

	var found bool
	err := s.do(ctx, func(opCtx context.Context) error {
		opErr := s.coll.FindOne(opCtx, filter).Err()
		if opErr == mongo.ErrNoDocuments {
			found = false
			return nil
		}
		if opErr != nil {
			return opErr
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("submission lookup for %s: %w", playerID, err)
	}
	return found, nil
}

func (s *MongoStore) SubmissionsBetween(ctx context.Context, start, end time.Time) ([]Submission, error) {
	filter := bson.M{"load_ts": bson.M{"$gte": start, "$lt": end}}

	var subs []Submission
	err := s.do(ctx, func(opCtx context.Context) error {
		cur, opErr := s.coll.Find(opCtx, filter)
		if opErr != nil {
			return opErr
		}
		subs = nil
		return cur.All(opCtx, &subs)
	})
	if err != nil {
		return nil, fmt.Errorf("submissions between %s and %s: %w", start, end, err)
	}
	return subs, nil
}
