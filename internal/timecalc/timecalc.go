package timecalc

import (
	"fmt"
	"time"
)

// TakenTimeLayout is the layout of a record's taken time.
const TakenTimeLayout = "15:04"

// ParseTakenTime parses an HH:MM time of day and returns the hour and minute.
// Hours must have two digits so the text compares equal to MinuteKey.
func ParseTakenTime(s string) (int, int, error) {
	t, err := time.Parse(TakenTimeLayout, s)
	if err != nil || len(s) != len(TakenTimeLayout) {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// MinuteKey returns the HH:MM label of t, comparable with a taken time.
func MinuteKey(t time.Time) string {
	return t.Format(TakenTimeLayout)
}

// ClockLabel returns the time and date strings shown in the clock region.
func ClockLabel(t time.Time) (string, string) {
	return t.Format("15:04:05"), t.Format("02/01/2006")
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NextOccurrence returns the next time at or after now whose wall clock
// matches the HH:MM taken time.
func NextOccurrence(now time.Time, takenTime string) (time.Time, error) {
	h, m, err := ParseTakenTime(takenTime)
	if err != nil {
		return time.Time{}, err
	}
	day := StartOfDay(now)
	next := time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, now.Location())
	if next.Before(StartOfMinute(now)) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}

// StartOfMinute truncates t to the minute in its own location.
func StartOfMinute(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}
