package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02T15:04"
)

var (
	timestampLayouts = []string{
		TimestampLayout,
		"2006-01-02T15:04:05",
		time.RFC3339,
	}
	clockLayouts = []string{
		"15:04",
		"15:04:05",
	}
)

// ParseTimestamp accepts YYYY-MM-DDTHH:MM, the same with seconds, or RFC 3339
// in UTC. Timestamps are clinic wall-clock values, so a non-zero offset is
// rejected rather than converted. Seconds are dropped: the result is exactly
// the minute FormatTimestamp will send.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if _, offset := t.Zone(); offset != 0 {
			return time.Time{}, fmt.Errorf("timestamp %q carries a UTC offset, use clinic local time", raw)
		}
		return t.Truncate(time.Minute), nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}

func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return t, nil
}

// ParseClock returns the offset from midnight for an HH:MM or HH:MM:SS value.
func ParseClock(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", raw)
}

func FormatClock(d time.Duration) string {
	return time.Time{}.Add(d).Format("15:04")
}

func MinutesDuration(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}
