package model

import (
	"encoding/json"
	"fmt"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
// Hour arithmetic across the engine is done in whole minutes so repeated
// half-hour shifts never accumulate floating point drift.
type TimeOfDay int

// ParseTimeOfDay parses a time in HH:MM format
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// String returns the time in HH:MM format
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalJSON implements json.Marshaler
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ShiftMinutes returns the duration in minutes of a shift running from start
// to end. An end at or before the start means the shift crosses midnight
// (e.g. a 20:00-08:00 night shift).
func ShiftMinutes(start, end TimeOfDay) int {
	minutes := int(end) - int(start)
	if minutes <= 0 {
		minutes += minutesPerDay
	}
	return minutes
}

// FormatMinutes renders a minute count as a human-readable hour string,
// e.g. 990 -> "16.5h"
func FormatMinutes(minutes int) string {
	if minutes%60 == 0 {
		return fmt.Sprintf("%dh", minutes/60)
	}
	return fmt.Sprintf("%.1fh", float64(minutes)/60)
}
