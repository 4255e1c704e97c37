// Package motivate classifies a completion time against a player's
// personal threshold so the bot can pick a message band.
package motivate

import "time"

// Band selects which set of messages a submission earns.
type Band int

const (
	// Fast means the duration beat the threshold.
	Fast Band = iota
	// Slow means the duration met or exceeded the threshold.
	Slow
)

// DefaultMinimum is the threshold used for players who never set one.
const DefaultMinimum = time.Hour

// Classify compares a completion duration against the threshold. The
// comparison is strict: a time exactly on the threshold is Slow.
func Classify(d, threshold time.Duration) Band {
	if d < threshold {
		return Fast
	}
	return Slow
}

// Threshold applies the default when a player has no stored minimum.
func Threshold(min time.Duration) time.Duration {
	if min <= 0 {
		return DefaultMinimum
	}
	return min
}
