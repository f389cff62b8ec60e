package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

func priorWeekOf(carerID string, shiftType model.ShiftType, count int) *model.WeeklySchedule {
	prior := emptyWeek(priorWeekStart)
	for i := 0; i < count; i++ {
		prior.AddEntry(entry("p"+string(rune('1'+i)), carerID, priorWeekStart, i, shiftType))
	}
	return prior
}

func TestRotationPattern_RepeatingLastWeeksTypeWarns(t *testing.T) {
	prior := priorWeekOf("amira", model.ShiftDay, 3)
	week := emptyWeek(weekStart)

	rule := &RotationPatternRule{cfg: DefaultConfig()}
	candidate := entry("", "amira", weekStart, 0, model.ShiftDay)
	violations := rule.EvaluateCandidate(testInput(week, prior), candidate)

	require.Len(t, violations, 1)
	assert.Equal(t, model.SeverityWarning, violations[0].Severity)
	assert.Equal(t, "DAY", violations[0].AdditionalInfo["priorWeekShiftType"])
	assert.Equal(t, "NIGHT", violations[0].AdditionalInfo["expectedShiftType"])
}

func TestRotationPattern_AlternatingTypeIsFine(t *testing.T) {
	prior := priorWeekOf("amira", model.ShiftDay, 3)
	week := emptyWeek(weekStart)

	rule := &RotationPatternRule{cfg: DefaultConfig()}
	candidate := entry("", "amira", weekStart, 0, model.ShiftNight)
	assert.Empty(t, rule.EvaluateCandidate(testInput(week, prior), candidate))
}

func TestRotationPattern_TooFewPriorShifts(t *testing.T) {
	prior := priorWeekOf("amira", model.ShiftDay, 2) // below the default of 3
	week := emptyWeek(weekStart)

	rule := &RotationPatternRule{cfg: DefaultConfig()}
	candidate := entry("", "amira", weekStart, 0, model.ShiftDay)
	assert.Empty(t, rule.EvaluateCandidate(testInput(week, prior), candidate))
}

func TestRotationPattern_MixedPriorWeekHasNoPattern(t *testing.T) {
	prior := emptyWeek(priorWeekStart)
	prior.AddEntry(entry("p1", "amira", priorWeekStart, 0, model.ShiftDay))
	prior.AddEntry(entry("p2", "amira", priorWeekStart, 1, model.ShiftNight))
	prior.AddEntry(entry("p3", "amira", priorWeekStart, 2, model.ShiftDay))
	week := emptyWeek(weekStart)

	rule := &RotationPatternRule{cfg: DefaultConfig()}
	candidate := entry("", "amira", weekStart, 0, model.ShiftDay)
	assert.Empty(t, rule.EvaluateCandidate(testInput(week, prior), candidate))
}

func TestRotationPattern_ScheduleScanWarnsOncePerCarer(t *testing.T) {
	prior := priorWeekOf("amira", model.ShiftNight, 4)
	week := emptyWeek(weekStart)
	week.AddEntry(entry("e1", "amira", weekStart, 0, model.ShiftNight))
	week.AddEntry(entry("e2", "amira", weekStart, 2, model.ShiftNight))

	rule := &RotationPatternRule{cfg: DefaultConfig()}
	violations := rule.EvaluateSchedule(testInput(week, prior))
	assert.Len(t, violations, 1)
}
