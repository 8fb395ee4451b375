package util

import "time"

const DateTimeFormat = "2006-01-02 15:04:05"

// ParseInstant parses an RFC3339 timestamp, falling back to DateTimeFormat
// read as UTC. The result is always in UTC.
func ParseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t.UTC(), nil
	}
	if t, err2 := time.ParseInLocation(DateTimeFormat, s, time.UTC); err2 == nil {
		return t, nil
	}
	return time.Time{}, err
}

func FormatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
