package utils

import (
	"fmt"
	"time"
)

// ClockLayout is the wire format for session start/end times.
const ClockLayout = "15:04"

// DateOf truncates a timestamp to midnight UTC so calendar dates compare
// cleanly regardless of the zone the caller resolved them in.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseClock parses an "HH:MM" clock value.
func ParseClock(value string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (expected HH:MM): %w", value, err)
	}
	return t, nil
}

// CombineDateAndClock builds the full instant for a session boundary from its
// calendar date and an "HH:MM" clock value.
func CombineDateAndClock(date time.Time, clock string) (time.Time, error) {
	c, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	d := DateOf(date)
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, time.UTC), nil
}
