package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TokiACD/caretrack/pkg/core/model"
	"github.com/TokiACD/caretrack/pkg/core/rules"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "caretrack_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromPath(t *testing.T) {
	path := writeConfig(t, `
apiBaseURL: http://localhost:8080
serverAddr: ":8080"
scheduling:
  weeklyHourLimit: 40
  restPeriodHours: 24
  weekendLookback: rolling
gmail:
  digestRecipients:
    - lead@example.com
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.APIBaseURL)
	assert.Equal(t, 40, cfg.Scheduling.WeeklyHourLimit)
	assert.Equal(t, []string{"lead@example.com"}, cfg.Gmail.DigestRecipients)
}

func TestLoadFromPathMissingFile(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadURL(t *testing.T) {
	path := writeConfig(t, `apiBaseURL: not a url`)
	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadRRule(t *testing.T) {
	path := writeConfig(t, `
shiftTimeOverrides:
  - rrule: "FREQ=NONSENSE"
    shiftType: DAY
    start: "09:00"
    end: "17:00"
`)
	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")
}

func TestValidateRejectsBadTimeOfDay(t *testing.T) {
	path := writeConfig(t, `
dayShift:
  start: "25:00"
  end: "17:00"
`)
	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadRecipient(t *testing.T) {
	path := writeConfig(t, `
gmail:
  digestRecipients:
    - not-an-email
`)
	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestRulesConfigDefaults(t *testing.T) {
	cfg := &Config{}
	rc := cfg.RulesConfig()
	assert.Equal(t, rules.DefaultConfig(), rc)
}

func TestRulesConfigOverrides(t *testing.T) {
	cfg := &Config{Scheduling: SchedulingConfig{
		WeeklyHourLimit:   40,
		RestPeriodHours:   24,
		RestWarningHours:  12,
		WeekendLookback:   "rolling",
		RotationMinShifts: 2,
	}}
	rc := cfg.RulesConfig()
	assert.Equal(t, 40*60, rc.WeeklyLimitMinutes)
	assert.Equal(t, 24, rc.RestPeriodHours)
	assert.Equal(t, 12, rc.RestWarningHours)
	assert.Equal(t, rules.LookbackRolling, rc.WeekendLookback)
	assert.Equal(t, 2, rc.RotationMinShifts)
}

func TestShiftTimesDefaults(t *testing.T) {
	cfg := &Config{}
	times, err := cfg.ShiftTimes()
	require.NoError(t, err)
	assert.Equal(t, model.TimeOfDay(8*60), times.Day.Start)
	assert.Equal(t, model.TimeOfDay(20*60), times.Night.End)
	assert.Empty(t, times.Overrides)
}

func TestShiftTimesWithOverrides(t *testing.T) {
	cfg := &Config{
		DayShift: &SlotTimesConfig{Start: "07:00", End: "19:00"},
		ShiftTimeOverrides: []ShiftTimeOverride{{
			RRule:     "FREQ=WEEKLY;DTSTART=20260101T000000Z;BYDAY=SA,SU",
			ShiftType: "DAY",
			Start:     "09:00",
			End:       "17:00",
		}},
	}

	times, err := cfg.ShiftTimes()
	require.NoError(t, err)
	assert.Equal(t, model.TimeOfDay(7*60), times.Day.Start)
	require.Len(t, times.Overrides, 1)

	// Saturday resolves to the override, a weekday to the configured default
	saturday := model.NewDate(2026, time.March, 7)
	slot := times.For(saturday, model.ShiftDay)
	assert.Equal(t, model.TimeOfDay(9*60), slot.Start)

	monday := model.NewDate(2026, time.March, 2)
	slot = times.For(monday, model.ShiftDay)
	assert.Equal(t, model.TimeOfDay(7*60), slot.Start)
}
