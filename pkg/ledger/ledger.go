// Package ledger owns the submission record set and its one invariant:
// at most one canonical submission per player per calendar day.
package ledger

import (
	"context"
	"errors"
	"time"
)

// State conflicts are reported as distinct errors so the bot can tell a
// player exactly which rule they hit.
var (
	// ErrAlreadySubmitted means a non-retro submission already exists in
	// today's window.
	ErrAlreadySubmitted = errors.New("already submitted a time for today")

	// ErrNoSubmissionToday means an edit was requested with nothing to edit.
	ErrNoSubmissionToday = errors.New("no time submitted for today")

	// ErrAlreadySubmittedForDay means the retro target day already holds a
	// submission, retro or not.
	ErrAlreadySubmittedForDay = errors.New("already submitted a time for that day")
)

// Submission is one completed puzzle. PlayerID is the channel identity
// (the WhatsApp number); Name is only carried for display.
type Submission struct {
	Name       string    `bson:"user" json:"user"`
	PlayerID   string    `bson:"phone_number" json:"phone_number"`
	Seconds    int64     `bson:"duration_seconds" json:"duration_seconds"`
	RecordedAt time.Time `bson:"load_ts" json:"load_ts"`
	Retro      bool      `bson:"retro,omitempty" json:"retro,omitempty"`
}

// Duration returns the completion time as a time.Duration.
func (s Submission) Duration() time.Duration {
	return time.Duration(s.Seconds) * time.Second
}

// Store is the submission ledger. Every mutation is a single conditional
// round trip against the record set, so a concurrent duplicate submit for
// the same player cannot slip between a check and a write.
type Store interface {
	// Submit records today's time. Fails with ErrAlreadySubmitted if a
	// non-retro submission already sits in the day window around now.
	Submit(ctx context.Context, playerID, name string, d time.Duration, now time.Time) error

	// Edit replaces the duration of today's submission in place, leaving
	// its recorded instant untouched. Fails with ErrNoSubmissionToday if
	// there is nothing to edit.
	Edit(ctx context.Context, playerID string, d time.Duration, now time.Time) error

	// SubmitRetro backdates a submission to the day containing target.
	// Fails with ErrAlreadySubmittedForDay if any submission, retro or
	// not, already sits in that day's window.
	SubmitRetro(ctx context.Context, playerID, name string, d time.Duration, target time.Time) error

	// HasSubmission reports whether the player has any submission with a
	// recorded instant in [start, end).
	HasSubmission(ctx context.Context, playerID string, start, end time.Time) (bool, error)

	// SubmissionsBetween returns every submission recorded in [start, end).
	SubmissionsBetween(ctx context.Context, start, end time.Time) ([]Submission, error)
}

// DayWindow returns the half-open window [midnight, midnight+24h) of the
// calendar day containing t, in t's location.
func DayWindow(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.Add(24 * time.Hour)
}
