// Package timeslot handles the calendar-date plus wall-clock representation
// reservations are stored in: dates as "2006-01-02" strings, times as "15:04"
// strings at minute granularity. Occupancy windows are half-open minute
// intervals within a single service day.
package timeslot

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	minutesPerDay = 24 * 60
)

// ParseDate validates a calendar date token and returns it in canonical form.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t.Format(DateLayout), nil
}

// ParseClock converts an "HH:MM" token to minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Weekday returns the day of week for a canonical date string.
func Weekday(date string) (time.Weekday, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return t.Weekday(), nil
}

// Window is a half-open interval [Start, End) in minutes since midnight.
type Window struct {
	Start int
	End   int
}

// NewWindow builds the occupancy window for a reservation starting at the
// given minute. Windows never cross midnight: the end clamps at 24:00,
// matching the one-service-day-per-sheet model of the ledger.
func NewWindow(startMinutes, durationMinutes int) Window {
	end := startMinutes + durationMinutes
	if end > minutesPerDay {
		end = minutesPerDay
	}
	return Window{Start: startMinutes, End: end}
}

// Overlaps reports whether two windows share any time. Adjacent windows
// (one ending exactly where the other starts) do not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start < o.End && w.End > o.Start
}

// Contains reports whether the window covers the given minute.
func (w Window) Contains(minute int) bool {
	return minute >= w.Start && minute < w.End
}

// Distance returns the absolute gap in minutes between two clock values.
func Distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
