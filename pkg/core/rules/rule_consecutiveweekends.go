package rules

import (
	"fmt"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

// ConsecutiveWeekendsRule flags a carer scheduled on the weekend of two
// consecutive weeks. Advisory only; weekend cover is sometimes unavoidable
// and the operator decides.
//
// The prior-week boundary is configurable: calendar mode checks any
// Saturday/Sunday entry in the previous Monday-start week, rolling mode
// checks the same weekend day exactly seven days earlier.
type ConsecutiveWeekendsRule struct {
	cfg Config
}

func (r *ConsecutiveWeekendsRule) Code() model.RuleCode {
	return model.RuleConsecutiveWeekends
}

func (r *ConsecutiveWeekendsRule) EvaluateCandidate(in Input, candidate model.ShiftEntry) []model.RuleViolation {
	if !candidate.Date.IsWeekend() || in.PriorWeek == nil {
		return nil
	}
	if !r.priorWeekendWorked(in.PriorWeek, candidate.CarerID, candidate.Date) {
		return nil
	}
	return []model.RuleViolation{r.violation(in.Schedule, candidate.CarerID, candidate.Date)}
}

func (r *ConsecutiveWeekendsRule) EvaluateSchedule(in Input) []model.RuleViolation {
	if in.PriorWeek == nil {
		return nil
	}
	var violations []model.RuleViolation
	for _, carerID := range scheduledCarerIDs(in.Schedule) {
		for _, e := range in.Schedule.CarerEntries(carerID) {
			if !e.Date.IsWeekend() {
				continue
			}
			if r.priorWeekendWorked(in.PriorWeek, carerID, e.Date) {
				violations = append(violations, r.violation(in.Schedule, carerID, e.Date))
				break // one advisory per carer per week is enough
			}
		}
	}
	return violations
}

func (r *ConsecutiveWeekendsRule) priorWeekendWorked(prior *model.WeeklySchedule, carerID string, date model.Date) bool {
	if r.cfg.WeekendLookback == LookbackRolling {
		weekBefore := date.AddDays(-7)
		for _, e := range prior.CarerEntries(carerID) {
			if e.Date.Equal(weekBefore) {
				return true
			}
		}
		return false
	}
	return prior.WorkedWeekend(carerID)
}

func (r *ConsecutiveWeekendsRule) violation(s *model.WeeklySchedule, carerID string, date model.Date) model.RuleViolation {
	name := carerDisplayName(s, carerID)
	return model.RuleViolation{
		Rule:      model.RuleConsecutiveWeekends,
		Severity:  model.SeverityWarning,
		CarerID:   carerID,
		CarerName: name,
		Message:   fmt.Sprintf("%s worked last weekend and is scheduled again on %s", name, date),
		AdditionalInfo: map[string]any{
			"shiftDate": date.String(),
			"lookback":  string(r.cfg.WeekendLookback),
		},
		UniqueKey: fmt.Sprintf("%s|%s|%s", model.RuleConsecutiveWeekends, carerID, s.WeekStart),
	}
}
