package retry

import (
	"context"
	"time"
)

// RetryableFunc is a function that can be retried
type RetryableFunc func() error

// ErrorClassifier determines if an error is retryable
type ErrorClassifier func(error) bool

// Options defines the configuration for retries
type Options struct {
	MaxAttempts int
	Interval    time.Duration
	Classifier  ErrorClassifier
}

// StoreOptions returns the retry policy for store round trips: one immediate
// retry, after which the error is surfaced to the caller. The classifier
// decides which errors count as transient.
func StoreOptions(classifier ErrorClassifier) Options {
	return Options{
		MaxAttempts: 2,
		Interval:    0,
		Classifier:  classifier,
	}
}

// Do executes the function, retrying on classified-retryable errors up to
// MaxAttempts total attempts
func Do(ctx context.Context, fn RetryableFunc, opts Options) error {
	var lastErr error

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if opts.Classifier != nil && !opts.Classifier(err) {
			return err
		}

		if attempt == opts.MaxAttempts {
			break
		}

		if opts.Interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(opts.Interval):
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return lastErr
}
