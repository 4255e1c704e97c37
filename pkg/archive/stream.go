// Package archive mirrors the submission ledger into PostgreSQL for the
// leaderboard dashboard. It tails the Times collection change stream and
// batch-upserts per-day rows, resuming from a persisted token after
// restarts.
package archive

import (
	"context"
	"fmt"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/ledger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event is one submission change observed on the stream
type Event struct {
	Op          string
	Submission  ledger.Submission
	ResumeToken bson.Raw
}

// Tailer defines the interface for following the submission change stream
type Tailer interface {
	// Tail starts following the change stream from the given resume token.
	// Returns a channel of events and an error channel.
	Tail(ctx context.Context, resumeToken bson.Raw) (<-chan Event, <-chan error)

	// Close gracefully shuts down the tailer
	Close() error
}

// MongoTailer implements Tailer on the Times collection
type MongoTailer struct {
	collection *mongo.Collection
	stream     *mongo.ChangeStream
}

// NewMongoTailer creates a new MongoTailer instance
func NewMongoTailer(db *mongo.Database) *MongoTailer {
	return &MongoTailer{
		collection: db.Collection(ledger.Collection),
	}
}

// Tail starts following the change stream. Only inserts and updates carry
// a full document; other operation types are forwarded with a zero
// submission so the caller can still advance the resume token.
func (t *MongoTailer) Tail(ctx context.Context, resumeToken bson.Raw) (<-chan Event, <-chan error) {
	eventChan := make(chan Event)
	errChan := make(chan error, 1)

	go func() {
		defer close(eventChan)
		defer close(errChan)

		opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
		if resumeToken != nil {
			opts.SetResumeAfter(resumeToken)
		}

		stream, err := t.collection.Watch(ctx, mongo.Pipeline{}, opts)
		if err != nil {
			errChan <- fmt.Errorf("failed to open change stream: %w", err)
			return
		}
		t.stream = stream
		defer stream.Close(ctx)

		for stream.Next(ctx) {
			var change struct {
				OperationType string            `bson:"operationType"`
				FullDocument  ledger.Submission `bson:"fullDocument"`
			}
			if err := stream.Decode(&change); err != nil {
				errChan <- fmt.Errorf("failed to decode change event: %w", err)
				continue
			}

			event := Event{
				Op:          change.OperationType,
				Submission:  change.FullDocument,
				ResumeToken: stream.ResumeToken(),
			}

			select {
			case eventChan <- event:
			case <-ctx.Done():
				return
			}
		}

		if err := stream.Err(); err != nil {
			errChan <- fmt.Errorf("change stream error: %w", err)
		}
	}()

	return eventChan, errChan
}

// Close gracefully shuts down the tailer
func (t *MongoTailer) Close() error {
	if t.stream != nil {
		return t.stream.Close(context.Background())
	}
	return nil
}
