// Package puzzletime holds the grammar for every time literal the bot
// accepts: completion durations, reminder clock times and retro target
// days. All parsers return a comma-ok pair; a false result is user input
// to correct, never a fault.
package puzzletime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// A completion duration is an optional hours prefix followed by two-digit
// minutes and seconds, each in [00,59]. The hours magnitude is not bounded.
var (
	durationRe   = regexp.MustCompile(`(\d+:)?([0-5][0-9]):([0-5][0-9])`)
	screenshotRe = regexp.MustCompile(`You completed today's PlusWord in\n\n(\d+:)?([0-5][0-9]):([0-5][0-9])`)
	clockRe      = regexp.MustCompile(`^(?:[0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)
)

// RetroLayout is the explicit day-and-time literal for retro submissions,
// e.g. "15-08-2023:13:15".
const RetroLayout = "02-01-2006:15:04"

// ParseDuration extracts the first completion duration from free-form text.
func ParseDuration(text string) (time.Duration, bool) {
	m := durationRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return buildDuration(m[1], m[2], m[3]), true
}

// ParseScreenshot extracts a completion duration from OCR output. Unlike
// ParseDuration the match must immediately follow the puzzle's completion
// banner, so stray numbers elsewhere in the screenshot are never mistaken
// for a time.
func ParseScreenshot(text string) (time.Duration, bool) {
	m := screenshotRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return buildDuration(m[1], m[2], m[3]), true
}

func buildDuration(hoursPart, minutes, seconds string) time.Duration {
	var h int
	if hoursPart != "" {
		h, _ = strconv.Atoi(strings.TrimSuffix(hoursPart, ":"))
	}
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

// Format renders a duration the way players write it: H:MM:SS with the
// hours omitted when zero.
func Format(d time.Duration) string {
	total := int(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Clock is a minute-precision time of day used for reminder slots.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses a reminder time literal ("9:30", "09:30", "23:05").
func ParseClock(s string) (Clock, bool) {
	if !clockRe.MatchString(s) {
		return Clock{}, false
	}
	parts := strings.SplitN(s, ":", 2)
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return Clock{Hour: h, Minute: m}, true
}

// String renders the clock in the zero-padded form stored and compared
// against the wall clock.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Offset is the clock's distance from midnight.
func (c Clock) Offset() time.Duration {
	return time.Duration(c.Hour)*time.Hour + time.Duration(c.Minute)*time.Minute
}

// Matches reports whether the given instant reads as this clock at minute
// precision.
func (c Clock) Matches(t time.Time) bool {
	return t.Hour() == c.Hour && t.Minute() == c.Minute
}

// ParseRetroTarget parses the explicit day-and-time literal of a retro
// submission in the reference timezone. An unparsable or impossible date
// (e.g. "99-99-2023:00:00") yields false.
func ParseRetroTarget(s string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(RetroLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
