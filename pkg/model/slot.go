package model

import (
	"fmt"
	"time"
)

// SlotCandidate is a free interval returned by the slot query. Start and End
// are time-of-day values; they only become timestamps once bound to a date.
type SlotCandidate struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (s SlotCandidate) String() string {
	return s.Start + "-" + s.End
}

// Bind combines the candidate with a calendar date and returns the start and
// end timestamps. Both share the same date component.
func (s SlotCandidate) Bind(date string) (string, string, error) {
	day, err := ParseDate(date)
	if err != nil {
		return "", "", err
	}
	start, err := ParseClock(s.Start)
	if err != nil {
		return "", "", fmt.Errorf("slot start: %w", err)
	}
	end, err := ParseClock(s.End)
	if err != nil {
		return "", "", fmt.Errorf("slot end: %w", err)
	}
	if end <= start {
		return "", "", fmt.Errorf("slot end %s must be after start %s", s.End, s.Start)
	}
	return FormatTimestamp(day.Add(start)), FormatTimestamp(day.Add(end)), nil
}

// Duration returns End-Start, or zero if either side is malformed.
func (s SlotCandidate) Duration() time.Duration {
	start, err := ParseClock(s.Start)
	if err != nil {
		return 0
	}
	end, err := ParseClock(s.End)
	if err != nil {
		return 0
	}
	return end - start
}
