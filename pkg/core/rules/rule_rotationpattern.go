package rules

import (
	"fmt"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

// RotationPatternRule advises that a carer's shift type should alternate
// week on week: a week of DAY shifts should be followed by a week of NIGHT
// shifts. Always a warning; it never blocks a commit.
type RotationPatternRule struct {
	cfg Config
}

func (r *RotationPatternRule) Code() model.RuleCode {
	return model.RuleRotationPattern
}

func (r *RotationPatternRule) EvaluateCandidate(in Input, candidate model.ShiftEntry) []model.RuleViolation {
	dominant, ok := r.priorDominantType(in, candidate.CarerID)
	if !ok || candidate.ShiftType != dominant {
		return nil
	}
	return []model.RuleViolation{r.violation(in.Schedule, candidate.CarerID, dominant)}
}

func (r *RotationPatternRule) EvaluateSchedule(in Input) []model.RuleViolation {
	var violations []model.RuleViolation
	for _, carerID := range scheduledCarerIDs(in.Schedule) {
		dominant, ok := r.priorDominantType(in, carerID)
		if !ok {
			continue
		}
		for _, e := range in.Schedule.CarerEntries(carerID) {
			if e.ShiftType == dominant {
				violations = append(violations, r.violation(in.Schedule, carerID, dominant))
				break
			}
		}
	}
	return violations
}

// priorDominantType reports the single shift type the carer worked last
// week, when they worked enough shifts for a pattern to exist at all.
func (r *RotationPatternRule) priorDominantType(in Input, carerID string) (model.ShiftType, bool) {
	if in.PriorWeek == nil {
		return "", false
	}
	entries := in.PriorWeek.CarerEntries(carerID)
	if len(entries) < r.cfg.RotationMinShifts {
		return "", false
	}
	dominant := entries[0].ShiftType
	for _, e := range entries[1:] {
		if e.ShiftType != dominant {
			return "", false // mixed week, no pattern to rotate from
		}
	}
	return dominant, true
}

func (r *RotationPatternRule) violation(s *model.WeeklySchedule, carerID string, repeated model.ShiftType) model.RuleViolation {
	name := carerDisplayName(s, carerID)
	return model.RuleViolation{
		Rule:      model.RuleRotationPattern,
		Severity:  model.SeverityWarning,
		CarerID:   carerID,
		CarerName: name,
		Message: fmt.Sprintf("%s worked a full week of %s shifts last week; the rotation pattern expects %s shifts this week",
			name, repeated, repeated.Opposite()),
		AdditionalInfo: map[string]any{
			"priorWeekShiftType": string(repeated),
			"expectedShiftType":  string(repeated.Opposite()),
		},
		UniqueKey: fmt.Sprintf("%s|%s|%s", model.RuleRotationPattern, carerID, s.WeekStart),
	}
}
