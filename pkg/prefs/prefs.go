// Package prefs holds the per-player configuration record sets: reminder
// slots and motivation thresholds. Both are keyed uniquely by the player's
// channel identity with upsert semantics.
package prefs

import (
	"context"
	"errors"
	"time"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/retry"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNoConfig means the player has no stored configuration to act on.
var ErrNoConfig = errors.New("no configuration stored for player")

func isTransient(err error) bool {
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}

// mongoOps bundles the op timeout and retry policy shared by both stores
type mongoOps struct {
	opTimeout time.Duration
	retryOpts retry.Options
}

func newMongoOps(opTimeout time.Duration) mongoOps {
	return mongoOps{
		opTimeout: opTimeout,
		retryOpts: retry.StoreOptions(isTransient),
	}
}

func (m mongoOps) do(ctx context.Context, fn func(context.Context) error) error {
	return retry.Do(ctx, func() error {
		opCtx, cancel := context.WithTimeout(ctx, m.opTimeout)
		defer cancel()
		return fn(opCtx)
	}, m.retryOpts)
}
