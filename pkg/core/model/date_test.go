package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMondayOf(t *testing.T) {
	tests := []struct {
		name     string
		date     Date
		expected Date
	}{
		{
			name:     "Monday maps to itself",
			date:     NewDate(2026, time.March, 2), // Monday
			expected: NewDate(2026, time.March, 2),
		},
		{
			name:     "midweek maps back",
			date:     NewDate(2026, time.March, 5), // Thursday
			expected: NewDate(2026, time.March, 2),
		},
		{
			name:     "Sunday belongs to the preceding Monday's week",
			date:     NewDate(2026, time.March, 8), // Sunday
			expected: NewDate(2026, time.March, 2),
		},
		{
			name:     "Saturday",
			date:     NewDate(2026, time.March, 7),
			expected: NewDate(2026, time.March, 2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MondayOf(tt.date)
			assert.True(t, tt.expected.Equal(result), "expected %s, got %s", tt.expected, result)
			assert.Equal(t, time.Monday, result.Weekday())
		})
	}
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2026, time.March, 2)

	assert.Equal(t, "2026-03-09", d.AddDays(7).String())
	assert.Equal(t, "2026-02-23", d.AddDays(-7).String())
	assert.Equal(t, 7, d.AddDays(7).DaysSince(d))
	assert.Equal(t, -3, d.AddDays(-3).DaysSince(d))
}

func TestDateIsWeekend(t *testing.T) {
	assert.False(t, NewDate(2026, time.March, 6).IsWeekend()) // Friday
	assert.True(t, NewDate(2026, time.March, 7).IsWeekend())  // Saturday
	assert.True(t, NewDate(2026, time.March, 8).IsWeekend())  // Sunday
	assert.False(t, NewDate(2026, time.March, 9).IsWeekend()) // Monday
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", d.String())

	_, err = ParseDate("02/03/2026")
	assert.Error(t, err)
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2026, time.March, 2)
	data, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-02"`, string(data))

	var parsed Date
	require.NoError(t, parsed.UnmarshalJSON(data))
	assert.True(t, d.Equal(parsed))
}

func TestShiftMinutes(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected int
	}{
		{"standard day shift", "08:00", "20:00", 720},
		{"night shift crosses midnight", "20:00", "08:00", 720},
		{"short evening shift", "18:00", "22:00", 240},
		{"overnight ending early", "22:00", "06:00", 480},
		{"half hour granularity", "08:00", "16:30", 510},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, err := ParseTimeOfDay(tt.start)
			require.NoError(t, err)
			end, err := ParseTimeOfDay(tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ShiftMinutes(start, end))
		})
	}
}

func TestShiftMinutesNoFloatDrift(t *testing.T) {
	// Summing many half-hour shifts stays exact in minute arithmetic
	start, _ := ParseTimeOfDay("09:00")
	end, _ := ParseTimeOfDay("09:30")
	total := 0
	for i := 0; i < 1000; i++ {
		total += ShiftMinutes(start, end)
	}
	assert.Equal(t, 30000, total)
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "12h", FormatMinutes(720))
	assert.Equal(t, "16.5h", FormatMinutes(990))
	assert.Equal(t, "36h", FormatMinutes(2160))
	assert.Equal(t, "0h", FormatMinutes(0))
}

func TestEntryEndAtCrossesMidnight(t *testing.T) {
	start, _ := ParseTimeOfDay("20:00")
	end, _ := ParseTimeOfDay("08:00")
	entry := ShiftEntry{
		Date:      NewDate(2026, time.March, 2),
		ShiftType: ShiftNight,
		StartTime: start,
		EndTime:   end,
	}

	assert.Equal(t, 720, entry.DurationMinutes())
	assert.Equal(t, time.Date(2026, time.March, 2, 20, 0, 0, 0, time.UTC), entry.StartAt())
	assert.Equal(t, time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC), entry.EndAt())
}
