// Package timewindow holds the instant rules shared by availability and booking.
package timewindow

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var clockLayouts = []string{"15:04", "15:04:05"}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// IsExpired reports whether now is strictly after start.
func IsExpired(start, now time.Time) bool {
	return now.After(start)
}

// IsExpiredString parses an ISO-8601 instant and applies IsExpired.
// Offset-less instants are read as UTC.
func IsExpiredString(raw string, now time.Time) (bool, error) {
	start, err := ParseInstant(raw)
	if err != nil {
		return false, err
	}
	return IsExpired(start, now), nil
}

// ParseInstant accepts RFC 3339 (with or without fractional seconds) and the offset-less forms.
func ParseInstant(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid instant %q", raw)
}

// Compose joins a calendar date and a time of day into one instant in loc.
func Compose(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}

	clock = strings.TrimSpace(clock)
	for _, layout := range clockLayouts {
		tod, err := time.Parse(layout, clock)
		if err != nil {
			continue
		}
		return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), tod.Second(), 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM", clock)
}
