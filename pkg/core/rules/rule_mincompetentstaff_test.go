package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

func TestMinCompetentStaff_EmptySlotIsFine(t *testing.T) {
	week := emptyWeek(weekStart)
	rule := &MinCompetentStaffRule{}

	violations := rule.EvaluateSchedule(testInput(week, nil))
	assert.Empty(t, violations)
}

func TestMinCompetentStaff_OccupiedSlotWithoutCompetentCarer(t *testing.T) {
	week := emptyWeek(weekStart)
	week.AddEntry(entry("e1", "ben", weekStart, 0, model.ShiftDay))
	week.AddEntry(entry("e2", "cara", weekStart, 0, model.ShiftDay))

	rule := &MinCompetentStaffRule{}
	violations := rule.EvaluateSchedule(testInput(week, nil))

	require.Len(t, violations, 1)
	assert.Equal(t, model.RuleMinCompetentStaff, violations[0].Rule)
	assert.Equal(t, model.SeverityError, violations[0].Severity)
	assert.Equal(t, 2, violations[0].AdditionalInfo["assignedCount"])
}

func TestMinCompetentStaff_CompetentCandidateClearsTheSlot(t *testing.T) {
	week := emptyWeek(weekStart)
	week.AddEntry(entry("e1", "ben", weekStart, 0, model.ShiftDay))

	rule := &MinCompetentStaffRule{}

	// The slot alone is in breach
	require.Len(t, rule.EvaluateSchedule(testInput(week, nil)), 1)

	// Hypothetically adding the competent carer resolves it
	candidate := entry("", "amira", weekStart, 0, model.ShiftDay)
	violations := rule.EvaluateCandidate(testInput(week, nil), candidate)
	assert.Empty(t, violations)
}

func TestMinCompetentStaff_NonCompetentCandidateIntoEmptySlot(t *testing.T) {
	week := emptyWeek(weekStart)
	rule := &MinCompetentStaffRule{}

	candidate := entry("", "cara", weekStart, 2, model.ShiftNight)
	violations := rule.EvaluateCandidate(testInput(week, nil), candidate)

	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "none competent")
}

func TestMinCompetentStaff_UnknownCarerCountsAsNotCompetent(t *testing.T) {
	week := emptyWeek(weekStart)
	week.AddEntry(entry("e1", "ghost", weekStart, 0, model.ShiftDay))

	rule := &MinCompetentStaffRule{}
	violations := rule.EvaluateSchedule(testInput(week, nil))
	assert.Len(t, violations, 1)
}

func TestMinCompetentStaff_OneViolationPerSlot(t *testing.T) {
	week := emptyWeek(weekStart)
	week.AddEntry(entry("e1", "ben", weekStart, 0, model.ShiftDay))
	week.AddEntry(entry("e2", "ben", weekStart, 0, model.ShiftNight))
	week.AddEntry(entry("e3", "ben", weekStart, 1, model.ShiftDay))

	rule := &MinCompetentStaffRule{}
	violations := rule.EvaluateSchedule(testInput(week, nil))
	assert.Len(t, violations, 3)

	keys := make(map[string]bool)
	for _, v := range violations {
		keys[v.UniqueKey] = true
	}
	assert.Len(t, keys, 3, "each slot carries its own unique key")
}
