package common

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the date representation shared by the upstream API, the cache keys and the HTTP surfaces.
const DayLayout = "2006-01-02"

// ParseDay parses a "2006-01-02" date into midnight UTC.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q; use YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// FormatDay formats t using DayLayout.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// StartOfDay truncates t to midnight in UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
